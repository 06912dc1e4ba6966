package cryptofeed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"ratesgen/internal/provider"
)

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("cryptofeed: missing required columns")

const (
	colName   = "name"
	colPrice  = "price"
	colChange = "percent_change_24h"
)

var hundred = decimal.NewFromInt(100)

// Parse reads the feed. The header row names the columns; name, price and
// percent_change_24h are required. Rows with an empty name or an unparsable
// or out-of-range number are skipped and empty numeric cells read as zero. The percent change
// is returned as a fraction (5.4 -> 0.054).
//
// An empty document yields no quotes and no error.
func Parse(text string) ([]provider.USDQuote, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	var missing []string
	for _, col := range []string{colName, colPrice, colChange} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (found %s)", ErrMissingColumns, strings.Join(missing, ", "), strings.Join(header, ", "))
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []provider.USDQuote
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a malformed line is skipped like any other bad row
			continue
		}
		name := cell(row, colName)
		if name == "" {
			continue
		}
		price, err := number(cell(row, colPrice))
		if err != nil {
			continue
		}
		pct, err := number(cell(row, colChange))
		if err != nil {
			continue
		}
		usd, ok := finite(price)
		if !ok {
			continue
		}
		change, ok := finite(pct.Div(hundred))
		if !ok {
			continue
		}
		out = append(out, provider.USDQuote{Name: name, USDPrice: usd, Change24h: change})
	}
	return out, nil
}

func number(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// finite converts d to float64, reporting false when it does not fit.
func finite(d decimal.Decimal) (float64, bool) {
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
