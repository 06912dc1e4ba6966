// Package rates models the published rate snapshot: a payload envelope and
// an ordered, closed set of records keyed by stable identifiers.
//
// Decoding keeps every byte the reconciler does not own, so a template can
// grow new top-level or per-record fields without this package knowing them.
package rates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// USDKey is the key of the USD anchor record.
const USDKey = "usd"

const (
	fieldFetchedAtMs = "fetchedAtMs"
	fieldSource      = "source"
	fieldRates       = "rates"
)

// ErrInvalidTemplate is returned when a snapshot is not an object with a
// "rates" object.
var ErrInvalidTemplate = errors.New("invalid template")

// Set is the ordered record set. Keys are never added or removed after
// decoding.
type Set struct {
	recs *orderedmap.OrderedMap[string, *Record]
}

func (s *Set) Len() int {
	if s.recs == nil {
		return 0
	}
	return s.recs.Len()
}

// Keys returns the record keys in template order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, s.Len())
	s.Each(func(key string, _ *Record) { keys = append(keys, key) })
	return keys
}

func (s *Set) Get(key string) (*Record, bool) {
	if s.recs == nil {
		return nil, false
	}
	return s.recs.Get(key)
}

// Each calls fn for every record in template order.
func (s *Set) Each(fn func(key string, r *Record)) {
	if s.recs == nil {
		return
	}
	for pair := s.recs.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (s *Set) UnmarshalJSON(b []byte) error {
	raw, err := decodeObject(b)
	if err != nil {
		return err
	}
	s.recs = orderedmap.New[string, *Record](raw.Len())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		rec := &Record{}
		if err := rec.UnmarshalJSON(pair.Value); err != nil {
			return fmt.Errorf("rate %s: %w", pair.Key, err)
		}
		s.recs.Set(pair.Key, rec)
	}
	return nil
}

func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if s.recs != nil {
		for pair := s.recs.Oldest(); pair != nil; pair = pair.Next() {
			if buf.Len() > 1 {
				buf.WriteByte(',')
			}
			rb, err := pair.Value.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("rate %s: %w", pair.Key, err)
			}
			if err := writeMember(&buf, pair.Key, rb); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Payload is the whole snapshot. FetchedAtMs and Source are the only
// envelope fields the generator rewrites.
type Payload struct {
	FetchedAtMs int64
	Source      string
	Rates       *Set

	top *object
}

// USDAnchor returns the local price of one US dollar. It reports false when
// the usd record is missing, has no numeric price, or the price is zero.
func (p *Payload) USDAnchor() (float64, bool) {
	if p.Rates == nil {
		return 0, false
	}
	r, ok := p.Rates.Get(USDKey)
	if !ok || r.Price == nil || *r.Price == 0 {
		return 0, false
	}
	return *r.Price, true
}

// Decode parses a snapshot.
func Decode(data []byte) (*Payload, error) {
	if !isObject(data) {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidTemplate)
	}
	top, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	rawRates, ok := top.Get(fieldRates)
	if !ok || !isObject(rawRates) {
		return nil, fmt.Errorf("%w: rates missing or not an object", ErrInvalidTemplate)
	}
	set := &Set{}
	if err := set.UnmarshalJSON(rawRates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	p := &Payload{Rates: set, top: top}
	if v, ok := top.Get(fieldFetchedAtMs); ok {
		if f := numberOf(v); f != nil {
			p.FetchedAtMs = int64(*f)
		}
	}
	if v, ok := top.Get(fieldSource); ok {
		p.Source = stringOf(v)
	}
	return p, nil
}

// Encode writes the payload minified: fetchedAtMs, source and rates first,
// then every other template field in template order.
func Encode(p *Payload) ([]byte, error) {
	if p.Rates == nil {
		return nil, errors.New("encode: payload has no rates")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeMember(&buf, fieldFetchedAtMs, json.RawMessage(strconv.FormatInt(p.FetchedAtMs, 10))); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	src, err := marshalNoEscape(p.Source)
	if err != nil {
		return nil, err
	}
	if err := writeMember(&buf, fieldSource, src); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	rb, err := p.Rates.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if err := writeMember(&buf, fieldRates, rb); err != nil {
		return nil, err
	}

	if p.top != nil {
		for pair := p.top.Oldest(); pair != nil; pair = pair.Next() {
			switch pair.Key {
			case fieldFetchedAtMs, fieldSource, fieldRates:
				continue
			}
			buf.WriteByte(',')
			if err := writeMember(&buf, pair.Key, pair.Value); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
