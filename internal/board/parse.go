package board

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"ratesgen/internal/provider"
	"ratesgen/internal/textnorm"
)

// topItems are the quoted items at the top of the board, looked up by
// element id.
var topItems = []struct {
	id   string
	name string
}{
	{"gol18", "Gold Gram 18k"},
	{"mithqal", "Gold Mithqal"},
	{"ounce", "Gold Ounce"},
}

// coinRule maps a table name onto a canonical coin alias.
type coinRule struct {
	name  string
	match func(s string) bool
}

// coinRules are evaluated top to bottom; the first match wins. The Azadi
// rule excludes the fractional and Gerami coins, which also mention Azadi,
// so a half or quarter glyph always lands on the fractional alias.
var coinRules = []coinRule{
	{"Emami", func(s string) bool { return strings.Contains(s, "Emami") }},
	{"Azadi", func(s string) bool {
		return strings.Contains(s, "Azadi") &&
			!strings.Contains(s, "Gera") &&
			!strings.Contains(s, "½") &&
			!strings.Contains(s, "¼")
	}},
	{"½ Azadi", func(s string) bool { return strings.Contains(s, "Half") || strings.Contains(s, "½") }},
	{"¼ Azadi", func(s string) bool { return strings.Contains(s, "Quarter") || strings.Contains(s, "¼") }},
	{"Gerami", func(s string) bool { return strings.Contains(s, "Gram") && strings.Contains(s, "Coin") }},
}

// CanonicalName returns the coin alias for name, or name itself when no
// coin rule matches.
func CanonicalName(name string) string {
	for _, r := range coinRules {
		if r.match(name) {
			return r.name
		}
	}
	return name
}

// Parse extracts (name, price) pairs from a board page. The fixed top items
// come first, then every table row with three or four cells:
//
//	4 cells: code | name | sell | buy
//	3 cells: name | price | extra
//
// Other rows are decorative and skipped. A name seen twice keeps its first
// position and its last price.
func Parse(page string) ([]provider.PriceQuote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	out := make([]provider.PriceQuote, 0, 64)
	pos := map[string]int{}
	put := func(name string, price int64) {
		if i, ok := pos[name]; ok {
			out[i].Price = price
			return
		}
		pos[name] = len(out)
		out = append(out, provider.PriceQuote{Name: name, Price: price})
	}

	for _, it := range topItems {
		el := doc.Find("#" + it.id).First()
		if el.Length() == 0 {
			continue
		}
		if p, ok := textnorm.ExtractInteger(strippedText(el)); ok {
			put(it.name, p)
		}
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cols := row.Find("td")
			var name, price string
			switch cols.Length() {
			case 4:
				name = strippedText(cols.Eq(1))
				price = strippedText(cols.Eq(2))
			case 3:
				name = strippedText(cols.Eq(0))
				price = strippedText(cols.Eq(1))
			default:
				return
			}
			p, ok := textnorm.ExtractInteger(price)
			if name == "" || !ok {
				return
			}
			put(CanonicalName(name), p)
		})
	})
	return out, nil
}

// strippedText joins the trimmed text nodes under sel, so markup split
// across inline elements reads as one token ("<b>12</b>,<i>345</i>" -> "12,345").
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}
