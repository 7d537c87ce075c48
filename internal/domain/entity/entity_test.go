package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromID(t *testing.T) {
	token := TokenFromID("shiba-inu")
	assert.Equal(t, "shiba-inu", token.ID)
	assert.Equal(t, "SHIBA-INU", token.Symbol)
	assert.Equal(t, "Shiba Inu", token.Name)

	assert.Equal(t, "Bitcoin", TokenFromID("bitcoin").Name)
}

func TestMarketDataFromSimplePrice(t *testing.T) {
	md := MarketDataFromSimplePrice(map[string]float64{
		"usd":            42000,
		"usd_24h_change": -1.2,
		"usd_24h_vol":    1e9,
		"usd_market_cap": 8e11,
		"eur":            39000,
		"last_updated_at": 1700000000,
	})

	assert.Equal(t, 42000.0, md.Price("usd"))
	assert.Equal(t, -1.2, md.Change24h("usd"))
	assert.Equal(t, 1e9, md.Volume24h("usd"))
	assert.Equal(t, 8e11, md.MarketCap("usd"))
	assert.Equal(t, 39000.0, md.Price("eur"))
	assert.Equal(t, int64(1700000000), md.LastUpdatedAt)

	// Absent currencies read as zero.
	assert.Equal(t, 0.0, md.Price("jpy"))
}

func TestWindowMapping(t *testing.T) {
	cases := []struct {
		window   Window
		days     int
		interval string
	}{
		{Window24h, 1, "minute"},
		{Window7d, 7, "hour"},
		{Window30d, 30, "day"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.days, tc.window.Days())
		assert.Equal(t, tc.interval, tc.window.Interval())
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("7d")
	require.NoError(t, err)
	assert.Equal(t, Window7d, w)

	_, err = ParseWindow("90d")
	assert.Error(t, err)
}

func TestPricePointRoundTrip(t *testing.T) {
	var p PricePoint
	require.NoError(t, p.UnmarshalJSON([]byte(`[1700000000000, 42.5]`)))
	assert.Equal(t, int64(1700000000000), p.Timestamp)
	assert.Equal(t, 42.5, p.Value)

	encoded, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1700000000000, 42.5]`, string(encoded))
}

func TestHistorySeriesDecode(t *testing.T) {
	var series HistorySeries
	err := json.Unmarshal([]byte(`{"prices":[[1,10],[2,11]],"market_caps":[[1,100]],"total_volumes":[[1,5]]}`), &series)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 11}, series.PriceValues())
	require.Len(t, series.MarketCaps, 1)
	assert.Equal(t, 100.0, series.MarketCaps[0].Value)
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol("usd"))
	assert.Equal(t, "A$", CurrencySymbol("aud"))
	// Unsupported codes pass through.
	assert.Equal(t, "chf", CurrencySymbol("chf"))
}
