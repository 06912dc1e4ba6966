// Package validate holds the structural checks a payload must pass before it
// may replace the published artifact.
package validate

import (
	"errors"
	"fmt"
	"math"

	"ratesgen/internal/rates"
)

// DefaultMinRates guards against publishing a truncated template.
const DefaultMinRates = 80

var (
	ErrNoRates      = errors.New("rates missing or empty")
	ErrTooFewRates  = errors.New("rates too small")
	ErrNotObject    = errors.New("rate is not an object")
	ErrInvalidKind  = errors.New("invalid kind")
	ErrInvalidUnit  = errors.New("invalid unit")
	ErrInvalidPrice = errors.New("invalid price")
)

// Validate returns nil when p is publishable. Otherwise the error wraps one of
// the package sentinels and names the first offending record in template
// order. A minRates of zero or less means DefaultMinRates.
func Validate(p *rates.Payload, minRates int) error {
	if minRates <= 0 {
		minRates = DefaultMinRates
	}
	if p == nil || p.Rates == nil || p.Rates.Len() == 0 {
		return ErrNoRates
	}
	if n := p.Rates.Len(); n < minRates {
		return fmt.Errorf("%w: %d < %d", ErrTooFewRates, n, minRates)
	}

	for _, key := range p.Rates.Keys() {
		r, _ := p.Rates.Get(key)
		if err := record(key, r); err != nil {
			return err
		}
	}
	return nil
}

func record(key string, r *rates.Record) error {
	if !r.IsObject() {
		return fmt.Errorf("%w: %s", ErrNotObject, key)
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return fmt.Errorf("%w: %s has %q", ErrInvalidKind, key, string(r.Kind))
	}
	if r.Unit < 1 {
		return fmt.Errorf("%w: %s has %s", ErrInvalidUnit, key, r.UnitText())
	}
	if r.Price == nil {
		return fmt.Errorf("%w: %s has %s", ErrInvalidPrice, key, r.PriceText())
	}
	if math.IsNaN(*r.Price) || math.IsInf(*r.Price, 0) {
		return fmt.Errorf("%w: %s has %v", ErrInvalidPrice, key, *r.Price)
	}
	return nil
}
