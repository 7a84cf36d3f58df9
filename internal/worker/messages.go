package worker

import "golang.org/x/text/language"

// messageID names a user-facing notification text.
type messageID int

const (
	msgItemCreated messageID = iota
	msgItemDeleted
	msgItemsFetched
	msgTemplateCreated
	msgTemplateDeleted
	msgCouldNotCreateItem
	msgCouldNotDeleteItem
	msgCouldNotFetchData
	msgCouldNotCreateTemplate
	msgCouldNotDeleteTemplate
	msgCouldNotFetchTemplates
	msgCouldNotFetchNames
	msgCouldNotFetchCompanies
	msgCouldNotFetchCategories
	msgCouldNotOpenFile
)

// SupportedLanguages lists the languages notifications are available in.
// The first entry is the fallback.
var SupportedLanguages = []language.Tag{language.English, language.German}

var catalog = map[language.Tag]map[messageID]string{
	language.English: {
		msgItemCreated:             "Item successfully created.",
		msgItemDeleted:             "Item successfully deleted.",
		msgItemsFetched:            "Items successfully fetched.",
		msgTemplateCreated:         "Invoice template successfully created.",
		msgTemplateDeleted:         "Invoice template successfully deleted.",
		msgCouldNotCreateItem:      "Could not create item.",
		msgCouldNotDeleteItem:      "Could not delete item.",
		msgCouldNotFetchData:       "Could not fetch data.",
		msgCouldNotCreateTemplate:  "Could not create invoice template.",
		msgCouldNotDeleteTemplate:  "Could not delete invoice template.",
		msgCouldNotFetchTemplates:  "Could not fetch invoice templates.",
		msgCouldNotFetchNames:      "Could not fetch names.",
		msgCouldNotFetchCompanies:  "Could not fetch companies.",
		msgCouldNotFetchCategories: "Could not fetch categories.",
		msgCouldNotOpenFile:        "Could not open file.",
	},
	language.German: {
		msgItemCreated:             "Eintrag erfolgreich erstellt.",
		msgItemDeleted:             "Eintrag erfolgreich gelöscht.",
		msgItemsFetched:            "Einträge gefunden.",
		msgTemplateCreated:         "Rechnungsvorlage erfolgreich erstellt.",
		msgTemplateDeleted:         "Rechnungsvorlage erfolgreich gelöscht.",
		msgCouldNotCreateItem:      "Eintrag konnte nicht erstellt werden.",
		msgCouldNotDeleteItem:      "Eintrag konnte nicht gelöscht werden.",
		msgCouldNotFetchData:       "Daten konnten nicht gefunden werden.",
		msgCouldNotCreateTemplate:  "Rechnungsvorlage konnte nicht erstellt werden.",
		msgCouldNotDeleteTemplate:  "Rechnungsvorlage konnte nicht gelöscht werden.",
		msgCouldNotFetchTemplates:  "Rechnungsvorlagen konnten nicht gefunden werden.",
		msgCouldNotFetchNames:      "Namen konnten nicht gefunden werden.",
		msgCouldNotFetchCompanies:  "Firmen konnten nicht gefunden werden.",
		msgCouldNotFetchCategories: "Kategorien konnten nicht gefunden werden.",
		msgCouldNotOpenFile:        "Datei konnte nicht geöffnet werden.",
	},
}

var matcher = language.NewMatcher(SupportedLanguages)

// MatchLanguage maps any tag to the closest supported language.
func MatchLanguage(tag language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tag)
	return SupportedLanguages[idx]
}

// messages resolves message texts for one language.
type messages struct {
	texts map[messageID]string
}

func newMessages(tag language.Tag) messages {
	return messages{texts: catalog[MatchLanguage(tag)]}
}

func (m messages) text(id messageID) string {
	return m.texts[id]
}
