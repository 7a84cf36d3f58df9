package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceTemplate is a saved invoice skeleton that can be reused.
// Templates are stored like accounting items but are never indexed.
type InvoiceTemplate struct {
	ID            uuid.UUID     `json:"id"`
	Date          time.Time     `json:"date"`
	City          string        `json:"city"`
	Name          string        `json:"name"`
	From          Address       `json:"from"`
	To            Address       `json:"to"`
	ServicePeriod ServicePeriod `json:"service_period"`
	InvoiceNumber string        `json:"invoice_number"`
	PreText       string        `json:"pre_text"`
	PostText      string        `json:"post_text"`
	BankData      string        `json:"bank_data"`
	Items         []InvoiceLine `json:"items"`
}

// Address is one party of an invoice.
type Address struct {
	Name          string `json:"name"`
	PostalAddress string `json:"postal_address"`
	Zip           string `json:"zip"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Vat           string `json:"vat"`
	Misc          string `json:"misc"`
}

// ServicePeriod is the period the invoice covers. The *Field strings hold
// the text shown on the invoice, which may differ from the dates.
type ServicePeriod struct {
	From      time.Time `json:"from"`
	FromField string    `json:"from_field"`
	To        time.Time `json:"to"`
	ToField   string    `json:"to_field"`
}

// InvoiceLine is a single position on an invoice.
type InvoiceLine struct {
	Nr           uint64          `json:"nr"`
	Description  string          `json:"description"`
	Unit         Unit            `json:"unit"`
	Amount       decimal.Decimal `json:"amount"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Vat          Vat             `json:"vat"`
}

// Net returns amount * price per unit.
func (l InvoiceLine) Net() decimal.Decimal {
	return l.Amount.Mul(l.PricePerUnit).Round(MoneyScale)
}

// Tax returns the tax on the line's net value.
func (l InvoiceLine) Tax() decimal.Decimal {
	return l.Net().Mul(l.Vat.Rate()).Round(MoneyScale)
}

// Total sums net and tax over all lines.
func (t InvoiceTemplate) Total() (net, tax decimal.Decimal) {
	net, tax = decimal.Zero, decimal.Zero
	for _, l := range t.Items {
		net = net.Add(l.Net())
		tax = tax.Add(l.Tax())
	}
	return net, tax
}

// Unit is the billing unit of an invoice line.
type Unit int

const (
	UnitNone Unit = iota
	UnitHour
	UnitDay
)

func (u Unit) String() string {
	switch u {
	case UnitHour:
		return "h"
	case UnitDay:
		return "d"
	case UnitNone:
		return "-"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit accepts "h"/"hour", "d"/"day" and "-"/"none"/"".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "hour", "hours":
		return UnitHour, nil
	case "d", "day", "days":
		return UnitDay, nil
	case "-", "none", "":
		return UnitNone, nil
	}
	return UnitNone, fmt.Errorf("invalid unit %q: must be hour, day or none", s)
}

func (u Unit) MarshalText() ([]byte, error) {
	if u < UnitNone || u > UnitDay {
		return nil, fmt.Errorf("invalid unit value %d", int(u))
	}
	return []byte(u.String()), nil
}

func (u *Unit) UnmarshalText(data []byte) error {
	parsed, err := ParseUnit(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
