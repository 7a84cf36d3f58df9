package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, language.German, MatchLanguage(language.MustParse("de-AT")))
	assert.Equal(t, language.English, MatchLanguage(language.MustParse("en-GB")))
	assert.Equal(t, language.English, MatchLanguage(language.Japanese), "unsupported falls back to English")
}

func TestCatalog_Complete(t *testing.T) {
	en := catalog[language.English]
	for _, tag := range SupportedLanguages {
		texts, ok := catalog[tag]
		if !assert.True(t, ok, "no catalog for %s", tag) {
			continue
		}
		assert.Len(t, texts, len(en), "catalog %s", tag)
		for id := range en {
			assert.NotEmpty(t, texts[id], "message %d missing in %s", id, tag)
		}
	}
}

func TestMessages_Text(t *testing.T) {
	assert.Equal(t, "Eintrag erfolgreich erstellt.", newMessages(language.German).text(msgItemCreated))
	assert.Equal(t, "Item successfully created.", newMessages(language.English).text(msgItemCreated))
}
