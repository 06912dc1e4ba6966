// Package reconcile writes scraped prices into a template payload and keeps
// the USD-relative fields consistent with the local USD price.
//
// All functions mutate the payload in place. They never add or remove
// records: names that do not resolve to an existing key are counted as
// skipped.
package reconcile

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ratesgen/internal/provider"
	"ratesgen/internal/rates"
	"ratesgen/internal/resolve"
)

// DefaultUSDQuotedKey is the commodity whose board price is quoted in USD.
const DefaultUSDQuotedKey = "gold_ounce"

// Stats summarizes one apply step.
type Stats struct {
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// ApplyBoard sets the local price of every board quote that resolves.
func ApplyBoard(p *rates.Payload, res *resolve.Resolver, quotes []provider.PriceQuote, log logrus.FieldLogger) Stats {
	var st Stats
	for _, q := range quotes {
		m, ok := res.Board(q.Name)
		if !ok {
			st.skip(q.Name)
			continue
		}
		r, _ := p.Rates.Get(m.Key)
		r.SetPrice(float64(q.Price))
		st.Updated++
	}
	log.WithFields(logrus.Fields{"updated": st.Updated, "skipped": st.Skipped}).Info("board prices applied")
	if len(st.Unresolved) > 0 {
		log.WithField("names", st.Unresolved).Debug("unresolved board names")
	}
	return st
}

// ApplyCrypto sets usdPrice, change24h and the derived local price of every
// crypto quote that resolves. Without a usable USD anchor the local price is
// computed with a rate of 1. Quotes carrying NaN or infinities are skipped.
func ApplyCrypto(p *rates.Payload, res *resolve.Resolver, quotes []provider.USDQuote, log logrus.FieldLogger) Stats {
	usd, ok := p.USDAnchor()
	if !ok {
		log.Warn("usd local price missing; crypto local prices use a rate of 1")
		usd = 1
	}
	local := decimal.NewFromFloat(usd)

	var st Stats
	for _, q := range quotes {
		if !isFinite(q.USDPrice) || !isFinite(q.Change24h) {
			st.skip(q.Name)
			continue
		}
		m, ok := res.Crypto(q.Name)
		if !ok {
			st.skip(q.Name)
			continue
		}
		r, _ := p.Rates.Get(m.Key)
		r.SetUSDPrice(q.USDPrice)
		r.SetChange24h(q.Change24h)
		r.SetPrice(decimal.NewFromFloat(q.USDPrice).Mul(local).InexactFloat64())
		st.Updated++
	}
	log.WithFields(logrus.Fields{"updated": st.Updated, "skipped": st.Skipped}).Info("crypto prices applied")
	if len(st.Unresolved) > 0 {
		log.WithField("names", st.Unresolved).Debug("unresolved crypto names")
	}
	return st
}

// RecomputeUSD re-derives USD-relative fields from the current local USD
// price. It is a no-op, with a warning, when the anchor is missing or zero.
//
//   - usd gets usdPrice 1
//   - other currencies that carry usdPrice get price / usd
//   - crypto that carries usdPrice gets price = usdPrice * usd
//   - usdQuotedKey, when it carries usdPrice, gets usdPrice = price / usd
//
// Records without usdPrice are left alone; the field is never introduced.
func RecomputeUSD(p *rates.Payload, usdQuotedKey string, log logrus.FieldLogger) bool {
	usd, ok := p.USDAnchor()
	if !ok {
		log.Warn("usd price missing; skipping usdPrice recompute")
		return false
	}
	anchor := decimal.NewFromFloat(usd)

	p.Rates.Each(func(key string, r *rates.Record) {
		if !r.IsObject() {
			return
		}
		switch r.Kind {
		case rates.KindCurrency:
			if key == rates.USDKey {
				r.SetUSDPrice(1)
				return
			}
			if r.USDPrice != nil && r.Price != nil {
				r.SetUSDPrice(decimal.NewFromFloat(*r.Price).Div(anchor).InexactFloat64())
			}
		case rates.KindCrypto:
			if r.USDPrice != nil {
				r.SetPrice(decimal.NewFromFloat(*r.USDPrice).Mul(anchor).InexactFloat64())
			}
		}
	})

	if usdQuotedKey == "" {
		return true
	}
	if r, ok := p.Rates.Get(usdQuotedKey); ok && r.IsObject() && r.USDPrice != nil && r.Price != nil {
		r.SetUSDPrice(decimal.NewFromFloat(*r.Price).Div(anchor).InexactFloat64())
	}
	return true
}

func (s *Stats) skip(name string) {
	s.Skipped++
	s.Unresolved = append(s.Unresolved, name)
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
