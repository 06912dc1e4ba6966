package rates

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Kind is the asset class of a record. It is fixed by the template.
type Kind string

const (
	KindCurrency Kind = "currency"
	KindCrypto   Kind = "crypto"
	KindGold     Kind = "gold"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCurrency, KindCrypto, KindGold:
		return true
	}
	return false
}

// Field names used by the template schema.
const (
	FieldKind      = "kind"
	FieldTitle     = "title"
	FieldFa        = "fa"
	FieldUnit      = "unit"
	FieldPrice     = "price"
	FieldUSDPrice  = "usdPrice"
	FieldChange24h = "change24h"
)

// Record is one rate entry. The typed fields mirror the schema fields the
// reconciler reads or writes; every other template field is kept verbatim.
//
// USDPrice is nil when the template has no numeric usdPrice. A nil USDPrice
// means USD-relative computation does not apply to the record, and the field
// stays absent in the output. Zero is a real value, not "absent".
type Record struct {
	Kind      Kind
	Title     string
	Fa        string
	Unit      int64
	Price     *float64
	USDPrice  *float64
	Change24h *float64

	fields  *object
	raw     json.RawMessage
	unitRaw json.RawMessage
}

// IsObject reports whether the template value for this record was a JSON object.
func (r *Record) IsObject() bool { return r.fields != nil }

// UnitText returns the unit as written in the template, for diagnostics.
func (r *Record) UnitText() string {
	if r.unitRaw == nil {
		return strconv.FormatInt(r.Unit, 10)
	}
	return string(r.unitRaw)
}

// PriceText returns the price as written in the template, or "<missing>".
func (r *Record) PriceText() string {
	if r.fields == nil {
		return "<missing>"
	}
	if v, ok := r.fields.Get(FieldPrice); ok {
		return string(v)
	}
	return "<missing>"
}

func (r *Record) SetPrice(v float64)     { r.Price = &v }
func (r *Record) SetUSDPrice(v float64)  { r.USDPrice = &v }
func (r *Record) SetChange24h(v float64) { r.Change24h = &v }

func (r *Record) UnmarshalJSON(b []byte) error {
	*r = Record{}
	if !isObject(b) {
		r.raw = append(json.RawMessage(nil), b...)
		return nil
	}
	fields, err := decodeObject(b)
	if err != nil {
		return err
	}
	r.fields = fields

	if v, ok := r.fields.Get(FieldKind); ok {
		r.Kind = kindOf(v)
	}
	r.Title = textOf(member(r.fields, FieldTitle))
	r.Fa = textOf(member(r.fields, FieldFa))

	r.Unit = 1
	if v, ok := r.fields.Get(FieldUnit); ok {
		r.unitRaw = v
		r.Unit = 0
		if n, err := strconv.ParseInt(string(bytes.TrimSpace(v)), 10, 64); err == nil {
			r.Unit = n
		}
	}
	r.Price = numberOf(member(r.fields, FieldPrice))
	r.USDPrice = numberOf(member(r.fields, FieldUSDPrice))
	r.Change24h = numberOf(member(r.fields, FieldChange24h))
	return nil
}

// MarshalJSON writes the template fields in their original order. Numeric
// fields the reconciler changed are replaced in place; ones it introduced
// (e.g. change24h on a fresh crypto record) are appended.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		if r.raw == nil {
			return []byte("null"), nil
		}
		return r.raw, nil
	}
	out := copyObject(r.fields)
	for _, nf := range []struct {
		name string
		v    *float64
	}{
		{FieldPrice, r.Price},
		{FieldUSDPrice, r.USDPrice},
		{FieldChange24h, r.Change24h},
	} {
		if nf.v == nil {
			continue
		}
		if cur := numberOf(member(out, nf.name)); cur != nil && *cur == *nf.v {
			continue
		}
		enc, err := encodeNumber(*nf.v)
		if err != nil {
			return nil, err
		}
		out.Set(nf.name, enc)
	}
	var buf bytes.Buffer
	if err := writeObject(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNumber(v float64) (json.RawMessage, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &json.UnsupportedValueError{Str: strconv.FormatFloat(v, 'g', -1, 64)}
	}
	return json.Marshal(v)
}

func kindOf(raw json.RawMessage) Kind {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || string(t) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(t, &s); err != nil {
		// not a string: keep its text so validation can reject it
		return Kind(t)
	}
	return Kind(s)
}

// textOf reads a display field. Strings are decoded; numbers and booleans
// read as their literal text; anything else reads as "".
func textOf(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return ""
	}
	switch c := t[0]; {
	case c == '"':
		return stringOf(t)
	case c == 't' || c == 'f' || c == '-' || (c >= '0' && c <= '9'):
		return string(t)
	}
	return ""
}

func stringOf(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// numberOf returns the value of a JSON number literal, nil for anything else.
func numberOf(raw json.RawMessage) *float64 {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return nil
	}
	if c := t[0]; c != '-' && (c < '0' || c > '9') {
		return nil
	}
	f, err := strconv.ParseFloat(string(t), 64)
	if err != nil {
		return nil
	}
	return &f
}
