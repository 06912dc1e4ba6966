package provider

import (
    "context"
)

// PriceQuote is a local-currency price scraped from the price board, keyed
// by the board's display name (after coin-name canonicalization).
type PriceQuote struct {
    Name  string `json:"name"`
    Price int64  `json:"price"`
}

// USDQuote is a USD-denominated quote from the crypto feed.
// Change24h is fractional: 0.054 means +5.4%.
type USDQuote struct {
    Name      string  `json:"name"`
    USDPrice  float64 `json:"usd_price"`
    Change24h float64 `json:"change_24h"`
}

// PriceProvider yields local-currency prices.
type PriceProvider interface {
    Name() string
    FetchPrices(ctx context.Context) ([]PriceQuote, error)
}

// USDProvider yields USD-denominated quotes.
type USDProvider interface {
    Name() string
    FetchUSD(ctx context.Context) ([]USDQuote, error)
}
