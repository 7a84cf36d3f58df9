package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateFormat is the layout of every date stored in a key or a DateRange.
const DateFormat = "2006-01-02"

// MoneyScale is the number of decimal places kept for computed amounts.
const MoneyScale = 2

// AccountingItem is a single ledger entry.
type AccountingItem struct {
	ID        uuid.UUID       `json:"id"`
	Direction Direction       `json:"direction"`
	Date      time.Time       `json:"date"`
	Name      string          `json:"name"`
	Company   string          `json:"company"`
	Category  string          `json:"category"`
	Net       decimal.Decimal `json:"net"`
	Vat       Vat             `json:"vat"`
	File      string          `json:"file"`
}

// Tax returns the tax amount for the item's net value and rate. It is
// exact; callers round to MoneyScale when displaying.
func (i AccountingItem) Tax() decimal.Decimal {
	return i.Net.Mul(i.Vat.Rate())
}

// Gross returns net plus tax.
func (i AccountingItem) Gross() decimal.Decimal {
	return i.Net.Add(i.Tax())
}

// Vat is the tax rate applied to an amount.
type Vat int

const (
	VatZero Vat = iota
	VatTen
	VatTwenty
)

var vatNames = map[Vat]string{
	VatZero:   "0%",
	VatTen:    "10%",
	VatTwenty: "20%",
}

// Rate returns the rate as a fraction (0.10 for VatTen).
func (v Vat) Rate() decimal.Decimal {
	switch v {
	case VatTen:
		return decimal.New(10, -MoneyScale)
	case VatTwenty:
		return decimal.New(20, -MoneyScale)
	default:
		return decimal.Zero
	}
}

func (v Vat) String() string {
	if name, ok := vatNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Vat(%d)", int(v))
}

// ParseVat accepts "0", "10", "20" with or without a trailing "%".
func ParseVat(s string) (Vat, error) {
	switch strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")) {
	case "0":
		return VatZero, nil
	case "10":
		return VatTen, nil
	case "20":
		return VatTwenty, nil
	}
	return VatZero, fmt.Errorf("invalid vat %q: must be one of 0, 10, 20", s)
}

func (v Vat) MarshalText() ([]byte, error) {
	name, ok := vatNames[v]
	if !ok {
		return nil, fmt.Errorf("invalid vat value %d", int(v))
	}
	return []byte(name), nil
}

func (v *Vat) UnmarshalText(data []byte) error {
	parsed, err := ParseVat(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Direction tells whether an item is an incoming or an outgoing invoice.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "in"/"incoming" and "out"/"outgoing".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "incoming":
		return DirectionIn, nil
	case "out", "outgoing":
		return DirectionOut, nil
	}
	return DirectionIn, fmt.Errorf("invalid direction %q: must be in or out", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if d != DirectionIn && d != DirectionOut {
		return nil, fmt.Errorf("invalid direction value %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(data []byte) error {
	parsed, err := ParseDirection(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
