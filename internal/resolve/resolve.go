// Package resolve maps scraped display names onto the canonical keys of an
// existing record set. The key space is closed: a name either lands on a key
// the template already has, or it is unresolved.
package resolve

import (
	"ratesgen/internal/rates"
	"ratesgen/internal/textnorm"
)

// Via records which lookup produced a match.
type Via string

const (
	ViaAlias  Via = "alias"
	ViaTitle  Via = "title"
	ViaNative Via = "native"
)

// Match is a resolved name.
type Match struct {
	Key string `json:"key"`
	Via Via    `json:"via"`
}

// aliasToKey maps the canonical board names (coin aliases produced by the
// board parser and the fixed top-of-page items) to template keys.
var aliasToKey = map[string]string{
	"Emami":   "coin_emami",
	"Azadi":   "coin_azadi",
	"½ Azadi": "coin_half_azadi",
	"¼ Azadi": "coin_quarter_azadi",
	"Gerami":  "coin_gerami",

	"Gold Gram 18k": "gold_gram_18k",
	"Gold Mithqal":  "gold_mithqal",
	"Gold Ounce":    "gold_ounce",
}

// AliasKey returns the template key for a canonical board name.
func AliasKey(name string) (string, bool) {
	k, ok := aliasToKey[name]
	return k, ok
}

// Resolver holds the per-run lookup indices. Build it once after the template
// is loaded; it does not observe later changes to titles.
type Resolver struct {
	set *rates.Set

	currencyTitle  map[string]string
	currencyNative map[string]string
	cryptoTitle    map[string]string
}

// New indexes titles and native titles of set, scoped by kind. When two
// records normalize to the same title the later one in template order wins.
func New(set *rates.Set) *Resolver {
	r := &Resolver{
		set:            set,
		currencyTitle:  map[string]string{},
		currencyNative: map[string]string{},
		cryptoTitle:    map[string]string{},
	}
	set.Each(func(key string, rec *rates.Record) {
		if !rec.IsObject() {
			return
		}
		switch rec.Kind {
		case rates.KindCurrency:
			index(r.currencyTitle, textnorm.NormalizeKey(rec.Title), key)
			index(r.currencyNative, textnorm.NormalizeNative(rec.Fa), key)
		case rates.KindCrypto:
			index(r.cryptoTitle, textnorm.NormalizeKey(rec.Title), key)
		}
	})
	return r
}

func index(m map[string]string, norm, key string) {
	if norm == "" {
		return
	}
	m[norm] = key
}

// Board resolves a price-board name: static aliases first, then the currency
// title index, then the currency native-script index.
func (r *Resolver) Board(name string) (Match, bool) {
	if k, ok := AliasKey(name); ok && r.has(k) {
		return Match{Key: k, Via: ViaAlias}, true
	}
	if k, ok := r.lookup(r.currencyTitle, textnorm.NormalizeKey(name)); ok {
		return Match{Key: k, Via: ViaTitle}, true
	}
	if k, ok := r.lookup(r.currencyNative, textnorm.NormalizeNative(name)); ok {
		return Match{Key: k, Via: ViaNative}, true
	}
	return Match{}, false
}

// Crypto resolves a crypto feed name against crypto titles only.
func (r *Resolver) Crypto(name string) (Match, bool) {
	if k, ok := r.lookup(r.cryptoTitle, textnorm.NormalizeKey(name)); ok {
		return Match{Key: k, Via: ViaTitle}, true
	}
	return Match{}, false
}

func (r *Resolver) lookup(m map[string]string, norm string) (string, bool) {
	if norm == "" {
		return "", false
	}
	k, ok := m[norm]
	if !ok || !r.has(k) {
		return "", false
	}
	return k, true
}

// has reports whether key names a writable record.
func (r *Resolver) has(key string) bool {
	rec, ok := r.set.Get(key)
	return ok && rec.IsObject()
}
