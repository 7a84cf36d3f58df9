// Package template imports invoice templates from CUE or YAML files.
//
// Both formats are checked against the embedded #Template schema before
// anything is decoded, so a file that loads is complete: every required
// field is present, amounts are decimals and dates are YYYY-MM-DD.
package template

import (
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ledger/internal/model"
)

//go:embed schema.cue
var schemaSource string

// Extensions lists the file extensions Load accepts.
var Extensions = []string{".cue", ".yaml", ".yml"}

// Load reads the template file at path. A template without an id gets one
// from ids.
func Load(path string, ids model.IDGenerator) (model.InvoiceTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.InvoiceTemplate{}, fmt.Errorf("read template: %w", err)
	}
	return Parse(path, data, ids)
}

// Parse decodes template source. The format is chosen by the extension of
// filename, which is also used in error positions.
func Parse(filename string, data []byte, ids model.IDGenerator) (model.InvoiceTemplate, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return model.InvoiceTemplate{}, fmt.Errorf("compile template schema: %w", err)
	}

	var v cue.Value
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return model.InvoiceTemplate{}, &Error{Field: "template", Message: err.Error()}
		}
		if doc == nil {
			return model.InvoiceTemplate{}, &Error{Field: "template", Message: "file is empty"}
		}
		v = ctx.Encode(normalizeYAML(doc))
	default:
		return model.InvoiceTemplate{}, &Error{
			Field:   "template",
			Message: fmt.Sprintf("unsupported file type %q: expected one of %s", ext, strings.Join(Extensions, ", ")),
		}
	}
	if err := v.Err(); err != nil {
		return model.InvoiceTemplate{}, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Template")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return model.InvoiceTemplate{}, formatCUEError(err)
	}

	return decodeTemplate(v, ids)
}

// normalizeYAML turns YAML timestamps back into the date strings the
// schema expects.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(model.DateFormat)
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeYAML(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalizeYAML(val)
		}
		return x
	default:
		return v
	}
}

func decodeTemplate(v cue.Value, ids model.IDGenerator) (model.InvoiceTemplate, error) {
	var (
		tmpl model.InvoiceTemplate
		err  error
	)

	if idVal := lookup(v, "id"); idVal.Exists() {
		s, _ := idVal.String()
		tmpl.ID, err = uuid.Parse(s)
		if err != nil {
			return tmpl, fieldError(idVal, "id", err)
		}
	} else {
		tmpl.ID = ids.NewID()
	}

	if tmpl.Date, err = dateField(v, "date"); err != nil {
		return tmpl, err
	}
	tmpl.Name = stringField(v, "name")
	tmpl.InvoiceNumber = stringField(v, "invoice_number")
	tmpl.City = stringField(v, "city")
	tmpl.PreText = stringField(v, "pre_text")
	tmpl.PostText = stringField(v, "post_text")
	tmpl.BankData = stringField(v, "bank_data")
	tmpl.From = decodeAddress(lookup(v, "from"))
	tmpl.To = decodeAddress(lookup(v, "to"))

	if sp := lookup(v, "service_period"); sp.Exists() {
		tmpl.ServicePeriod.FromField = stringField(sp, "from_text")
		tmpl.ServicePeriod.ToField = stringField(sp, "to_text")
		if tmpl.ServicePeriod.From, err = dateField(sp, "from"); err != nil {
			return tmpl, err
		}
		if tmpl.ServicePeriod.To, err = dateField(sp, "to"); err != nil {
			return tmpl, err
		}
	}

	iter, err := lookup(v, "items").List()
	if err != nil {
		return tmpl, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		line, err := decodeLine(iter.Value(), uint64(i+1))
		if err != nil {
			return tmpl, err
		}
		tmpl.Items = append(tmpl.Items, line)
	}

	return tmpl, nil
}

func decodeAddress(v cue.Value) model.Address {
	return model.Address{
		Name:          stringField(v, "name"),
		PostalAddress: stringField(v, "postal_address"),
		Zip:           stringField(v, "zip"),
		City:          stringField(v, "city"),
		Country:       stringField(v, "country"),
		Vat:           stringField(v, "vat"),
		Misc:          stringField(v, "misc"),
	}
}

// decodeLine decodes one invoice line. Lines without nr are numbered by
// their position.
func decodeLine(v cue.Value, pos uint64) (model.InvoiceLine, error) {
	line := model.InvoiceLine{
		Nr:          pos,
		Description: stringField(v, "description"),
	}

	if nrVal := lookup(v, "nr"); nrVal.Exists() {
		n, err := nrVal.Int64()
		if err != nil {
			return line, fieldError(nrVal, "nr", err)
		}
		line.Nr = uint64(n)
	}

	var err error
	if line.Unit, err = model.ParseUnit(stringField(v, "unit")); err != nil {
		return line, fieldError(lookup(v, "unit"), "unit", err)
	}
	if line.Vat, err = model.ParseVat(stringField(v, "vat")); err != nil {
		return line, fieldError(lookup(v, "vat"), "vat", err)
	}
	if line.Amount, err = amountField(v, "amount"); err != nil {
		return line, err
	}
	if line.PricePerUnit, err = amountField(v, "price_per_unit"); err != nil {
		return line, err
	}

	return line, nil
}

// lookup returns the field at path with its default applied.
func lookup(v cue.Value, path string) cue.Value {
	f := v.LookupPath(cue.ParsePath(path))
	if d, ok := f.Default(); ok {
		return d
	}
	return f
}

// stringField returns the string at path, or "" for an absent optional field.
// The schema has already checked the kind.
func stringField(v cue.Value, path string) string {
	f := lookup(v, path)
	if !f.Exists() {
		return ""
	}
	s, _ := f.String()
	return s
}

// dateField returns the date at path, or the zero time if it is absent.
func dateField(v cue.Value, path string) (time.Time, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return time.Time{}, nil
	}
	s, _ := f.String()
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fieldError(f, path, err)
	}
	return d, nil
}

// amountField reads a number or decimal string without going through
// float64, so "0.10" stays exactly 0.10.
func amountField(v cue.Value, path string) (decimal.Decimal, error) {
	f := lookup(v, path)

	if f.Kind() == cue.StringKind {
		s, _ := f.String()
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fieldError(f, path, err)
		}
		return d, nil
	}

	var mant big.Int
	exp, err := f.MantExp(&mant)
	if err != nil {
		return decimal.Zero, fieldError(f, path, err)
	}
	return decimal.NewFromBigInt(&mant, int32(exp)), nil
}

func fieldError(v cue.Value, field string, err error) *Error {
	return &Error{Field: field, Message: err.Error(), Pos: v.Pos()}
}
