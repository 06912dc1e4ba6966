package cryptofeed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratesgen/internal/cryptofeed"
)

func TestParse_PercentBecomesFraction(t *testing.T) {
	t.Parallel()

	quotes, err := cryptofeed.Parse("name,price,percent_change_24h\nBitcoin,65000,5.4\n")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	// decimal division keeps 5.4/100 exact
	require.Equal(t, 0.054, quotes[0].Change24h)
	require.Equal(t, 65000.0, quotes[0].USDPrice)
}

func TestParse_MissingColumns(t *testing.T) {
	t.Parallel()

	quotes, err := cryptofeed.Parse("name,price\nBitcoin,65000\n")
	require.ErrorIs(t, err, cryptofeed.ErrMissingColumns)
	require.Empty(t, quotes)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	quotes, err := cryptofeed.Parse("")
	require.NoError(t, err)
	require.Empty(t, quotes)
}

func TestParse_SkipsBadRows(t *testing.T) {
	t.Parallel()

	text := "\ufeffname,price,percent_change_24h,market_cap\n" +
		",1,1,9\n" + // empty name
		"Tether,abc,0.01,9\n" + // unparsable price
		"Huge,1e400,1,9\n" + // price beyond float64
		"Wild,1,-1e400,9\n" + // percent beyond float64
		"Solana,150.5,,9\n" + // empty percent reads as zero
		"Dogecoin,\"0.12\",\"-3\",9\n" +
		"Short,2\n" // missing trailing cells read as zero

	quotes, err := cryptofeed.Parse(text)
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	require.Equal(t, "Solana", quotes[0].Name)
	require.Equal(t, 150.5, quotes[0].USDPrice)
	require.Zero(t, quotes[0].Change24h)

	require.Equal(t, "Dogecoin", quotes[1].Name)
	require.Equal(t, 0.12, quotes[1].USDPrice)
	require.Equal(t, -0.03, quotes[1].Change24h)

	require.Equal(t, "Short", quotes[2].Name)
	require.Equal(t, 2.0, quotes[2].USDPrice)
	require.Zero(t, quotes[2].Change24h)
}

func TestParse_ColumnOrderFollowsHeader(t *testing.T) {
	t.Parallel()

	quotes, err := cryptofeed.Parse("percent_change_24h,price,name\n-10,2.5,Cardano\n")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "Cardano", quotes[0].Name)
	require.Equal(t, 2.5, quotes[0].USDPrice)
	require.Equal(t, -0.1, quotes[0].Change24h)
}
