package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Totals accumulates net, tax and gross amounts.
type Totals struct {
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Gross decimal.Decimal `json:"gross"`
}

func (t Totals) add(item AccountingItem) Totals {
	return Totals{
		Net:   t.Net.Add(item.Net),
		Tax:   t.Tax.Add(item.Tax()),
		Gross: t.Gross.Add(item.Gross()),
	}
}

// CategoryTotal is the net sum of the incoming items of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Net      decimal.Decimal `json:"net"`
}

// Summary aggregates a period's items per direction and per category.
type Summary struct {
	Count      int             `json:"count"`
	Incoming   Totals          `json:"incoming"`
	Outgoing   Totals          `json:"outgoing"`
	Categories []CategoryTotal `json:"categories"`
}

// Balance is outgoing minus incoming gross, i.e. what was earned.
func (s Summary) Balance() decimal.Decimal {
	return s.Outgoing.Gross.Sub(s.Incoming.Gross)
}

// Summarize computes totals over items. Only incoming items are broken
// down by category; categories are sorted by name.
func Summarize(items []AccountingItem) Summary {
	zero := Totals{Net: decimal.Zero, Tax: decimal.Zero, Gross: decimal.Zero}
	s := Summary{Count: len(items), Incoming: zero, Outgoing: zero}

	byCategory := make(map[string]decimal.Decimal)
	for _, item := range items {
		switch item.Direction {
		case DirectionIn:
			s.Incoming = s.Incoming.add(item)
			byCategory[item.Category] = byCategory[item.Category].Add(item.Net)
		case DirectionOut:
			s.Outgoing = s.Outgoing.add(item)
		}
	}

	s.Categories = make([]CategoryTotal, 0, len(byCategory))
	for name, net := range byCategory {
		s.Categories = append(s.Categories, CategoryTotal{Category: name, Net: net})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Category < s.Categories[j].Category
	})

	return s
}
