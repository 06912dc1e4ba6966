package validate

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ratesgen/internal/rates"
)

// payload builds n valid currency records and appends extra raw members.
func payload(t *testing.T, n int, extra ...string) *rates.Payload {
	t.Helper()
	members := make([]string, 0, n+len(extra))
	for i := 0; i < n; i++ {
		members = append(members, fmt.Sprintf(`"c%03d":{"kind":"currency","title":"C%d","unit":1,"price":%d}`, i, i, 1000+i))
	}
	members = append(members, extra...)
	p, err := rates.Decode([]byte(`{"rates":{` + strings.Join(members, ",") + `}}`))
	require.NoError(t, err)
	return p
}

func TestValidate_MinRatesBoundary(t *testing.T) {
	err := Validate(payload(t, 79), DefaultMinRates)
	require.ErrorIs(t, err, ErrTooFewRates)
	require.ErrorContains(t, err, "79")

	require.NoError(t, Validate(payload(t, 80), DefaultMinRates))
	require.NoError(t, Validate(payload(t, 81), 0))
}

func TestValidate_Empty(t *testing.T) {
	require.ErrorIs(t, Validate(payload(t, 0), 1), ErrNoRates)
	require.ErrorIs(t, Validate(nil, 1), ErrNoRates)
}

func TestValidate_RecordChecks(t *testing.T) {
	cases := []struct {
		name   string
		member string
		want   error
	}{
		{"not object", `"bad":[1,2]`, ErrNotObject},
		{"null record", `"bad":null`, ErrNotObject},
		{"unknown kind", `"bad":{"kind":"stock","price":1}`, ErrInvalidKind},
		{"non-string kind", `"bad":{"kind":7,"price":1}`, ErrInvalidKind},
		{"zero unit", `"bad":{"kind":"gold","unit":0,"price":1}`, ErrInvalidUnit},
		{"fractional unit", `"bad":{"kind":"gold","unit":1.0,"price":1}`, ErrInvalidUnit},
		{"string unit", `"bad":{"kind":"gold","unit":"1","price":1}`, ErrInvalidUnit},
		{"missing price", `"bad":{"kind":"gold","unit":1}`, ErrInvalidPrice},
		{"string price", `"bad":{"kind":"gold","price":"12,000"}`, ErrInvalidPrice},
		{"null price", `"bad":{"kind":"gold","price":null}`, ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(payload(t, 3, tc.member), 1)
			require.ErrorIs(t, err, tc.want)
			require.ErrorContains(t, err, "bad")
		})
	}
}

func TestValidate_OptionalFields(t *testing.T) {
	// kind and unit may be absent; unit defaults to 1
	p := payload(t, 2, `"x":{"price":5}`, `"y":{"kind":"crypto","price":0.5,"usdPrice":null}`)
	require.NoError(t, Validate(p, 1))
}

func TestValidate_FirstFailureInTemplateOrder(t *testing.T) {
	p := payload(t, 1, `"b":{"kind":"stock","price":1}`, `"a":{"unit":-1,"price":1}`)
	err := Validate(p, 1)
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestValidate_NonFinitePrice(t *testing.T) {
	for name, v := range map[string]float64{"+inf": math.Inf(1), "-inf": math.Inf(-1), "nan": math.NaN()} {
		t.Run(name, func(t *testing.T) {
			p := payload(t, 3, `"btc":{"kind":"crypto","price":1}`)
			r, ok := p.Rates.Get("btc")
			require.True(t, ok)
			r.SetPrice(v)

			err := Validate(p, 1)
			require.ErrorIs(t, err, ErrInvalidPrice)
			require.ErrorContains(t, err, "btc")
		})
	}
}
