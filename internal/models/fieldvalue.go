package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FieldKind discriminates the typed variants of a FieldValue.
type FieldKind string

// Known field value kinds. Unknown preserves raw JSON for fields the
// engine has no structural understanding of.
const (
	FieldText    FieldKind = "text"
	FieldNumber  FieldKind = "number"
	FieldMoney   FieldKind = "money"
	FieldDate    FieldKind = "date"
	FieldUnknown FieldKind = "unknown"
)

// FieldValue is a tagged union over the field categories the diff engine
// understands structurally (text, numbers, money, dates) plus an opaque
// extension bag for everything else.
type FieldValue struct {
	Kind     FieldKind       `json:"kind"`
	Text     string          `json:"text,omitempty"`
	Number   float64         `json:"number,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Date     *time.Time      `json:"date,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// TextValue returns a text field value.
func TextValue(s string) FieldValue { return FieldValue{Kind: FieldText, Text: s} }

// NumberValue returns a numeric field value.
func NumberValue(n float64) FieldValue { return FieldValue{Kind: FieldNumber, Number: n} }

// MoneyValue returns a monetary field value with its currency code.
func MoneyValue(amount float64, currency string) FieldValue {
	return FieldValue{Kind: FieldMoney, Number: amount, Currency: currency}
}

// DateValue returns a date field value.
func DateValue(t time.Time) FieldValue { return FieldValue{Kind: FieldDate, Date: &t} }

// UnknownValue returns an opaque field value carrying raw JSON.
func UnknownValue(raw json.RawMessage) FieldValue {
	return FieldValue{Kind: FieldUnknown, Raw: raw}
}

// Equal reports whether two field values are deeply equal. Unknown values
// compare by raw JSON bytes.
func (v FieldValue) Equal(o FieldValue) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case FieldText:
		return v.Text == o.Text
	case FieldNumber:
		return v.Number == o.Number
	case FieldMoney:
		return v.Number == o.Number && v.Currency == o.Currency
	case FieldDate:
		if v.Date == nil || o.Date == nil {
			return v.Date == o.Date
		}
		return v.Date.Equal(*o.Date)
	default:
		return bytes.Equal(v.Raw, o.Raw)
	}
}

// String renders the value for audit details and CLI output.
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldText:
		return v.Text
	case FieldNumber:
		return fmt.Sprintf("%g", v.Number)
	case FieldMoney:
		return fmt.Sprintf("%g %s", v.Number, v.Currency)
	case FieldDate:
		if v.Date == nil {
			return ""
		}
		return v.Date.Format("2006-01-02")
	default:
		return string(v.Raw)
	}
}

// UnmarshalJSON accepts both the tagged form and bare JSON scalars, mapping
// strings to text, numbers to number, and anything else to unknown. This
// keeps request payloads forgiving while storage stays typed.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	type tagged FieldValue

	var t tagged
	if err := json.Unmarshal(data, &t); err == nil && t.Kind != "" {
		*v = FieldValue(t)
		return v.validateKind()
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty field value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case '{', '[', 't', 'f', 'n':
		*v = UnknownValue(append(json.RawMessage(nil), trimmed...))
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("invalid field value: %w", err)
		}
		*v = NumberValue(n)
	}

	return nil
}

func (v *FieldValue) validateKind() error {
	switch v.Kind {
	case FieldText, FieldNumber, FieldMoney, FieldDate, FieldUnknown:
		return nil
	default:
		return fmt.Errorf("unknown field kind %q", v.Kind)
	}
}
