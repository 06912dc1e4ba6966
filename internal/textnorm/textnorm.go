// Package textnorm turns scraped, locale-variant text into comparable values:
// integer prices out of free text and normalized keys for fuzzy title matching.
package textnorm

import (
	"strconv"
	"strings"
	"unicode"
)

// digitMap folds Persian (U+06F0..U+06F9) and Arabic-Indic (U+0660..U+0669)
// digits onto ASCII.
var digitMap = map[rune]rune{
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

const zwnj = '\u200c'

// ToASCIIDigits replaces Persian and Arabic-Indic digits with ASCII ones and
// leaves every other rune untouched.
func ToASCIIDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if d, ok := digitMap[r]; ok {
			b.WriteRune(d)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExtractInteger pulls a positive integer price out of free text.
// All digit runs are concatenated, so thousands separators and spaces are
// ignored: "۱۲,۳۴۵", "12,345" and "12 345" all yield 12345.
// It reports false when the text has no digits or the value overflows int64.
func ExtractInteger(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range ToASCIIDigits(text) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeKey lowercases s and collapses everything outside [a-z0-9] into
// single spaces. Half and quarter glyphs are spelled out first so "½ Azadi"
// and "half azadi" compare equal. The result is only meant for matching.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, string(zwnj), " ")
	s = strings.ReplaceAll(s, "½", "half ")
	s = strings.ReplaceAll(s, "¼", "quarter ")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// nativeFolds unifies Arabic code points that Persian text commonly mixes in.
var nativeFolds = map[rune]rune{
	'ي': 'ی',
	'ى': 'ی',
	'ك': 'ک',
	'ة': 'ه',
	'أ': 'ا',
	'إ': 'ا',
}

// NormalizeNative is NormalizeKey for native-script titles: Unicode letters
// and digits are kept (digits folded to ASCII, Arabic yeh/kaf folded to the
// Persian forms) and any other run becomes a single space.
func NormalizeNative(s string) string {
	s = ToASCIIDigits(strings.ToLower(strings.TrimSpace(s)))
	s = strings.ReplaceAll(s, "½", "half ")
	s = strings.ReplaceAll(s, "¼", "quarter ")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if f, ok := nativeFolds[r]; ok {
			r = f
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		// marks (harakat) are dropped without splitting the word
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		space = true
	}
	return b.String()
}
