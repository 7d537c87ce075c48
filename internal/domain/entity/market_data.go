package entity

import "strings"

const (
	suffix24hChange = "_24h_change"
	suffix24hVol    = "_24h_vol"
	suffixMarketCap = "_market_cap"
	fieldLastUpdate = "last_updated_at"
)

// MarketData is one coin's current market snapshot, keyed by lowercase
// currency code. It is produced by parsing the upstream simple-price
// response and is replaced wholesale on refresh, never field-merged.
type MarketData struct {
	PriceByCurrency     map[string]float64 `json:"price"`
	Change24hByCurrency map[string]float64 `json:"change_24h"`
	Volume24hByCurrency map[string]float64 `json:"volume_24h"`
	MarketCapByCurrency map[string]float64 `json:"market_cap"`
	LastUpdatedAt       int64              `json:"last_updated_at"`
}

// MarketDataFromSimplePrice converts the flat currency-suffixed field map the
// upstream returns ("usd", "usd_24h_change", "usd_24h_vol", "usd_market_cap",
// "last_updated_at") into a structured record keyed by currency code.
func MarketDataFromSimplePrice(fields map[string]float64) *MarketData {
	md := &MarketData{
		PriceByCurrency:     make(map[string]float64),
		Change24hByCurrency: make(map[string]float64),
		Volume24hByCurrency: make(map[string]float64),
		MarketCapByCurrency: make(map[string]float64),
	}
	for key, value := range fields {
		switch {
		case key == fieldLastUpdate:
			md.LastUpdatedAt = int64(value)
		case strings.HasSuffix(key, suffix24hChange):
			md.Change24hByCurrency[strings.TrimSuffix(key, suffix24hChange)] = value
		case strings.HasSuffix(key, suffix24hVol):
			md.Volume24hByCurrency[strings.TrimSuffix(key, suffix24hVol)] = value
		case strings.HasSuffix(key, suffixMarketCap):
			md.MarketCapByCurrency[strings.TrimSuffix(key, suffixMarketCap)] = value
		default:
			md.PriceByCurrency[key] = value
		}
	}
	return md
}

// Price returns the snapshot price in the given currency, zero when absent.
func (m *MarketData) Price(currency string) float64 {
	return m.PriceByCurrency[currency]
}

// Change24h returns the 24h percentage change in the given currency.
func (m *MarketData) Change24h(currency string) float64 {
	return m.Change24hByCurrency[currency]
}

// Volume24h returns the 24h trade volume in the given currency.
func (m *MarketData) Volume24h(currency string) float64 {
	return m.Volume24hByCurrency[currency]
}

// MarketCap returns the market capitalization in the given currency.
func (m *MarketData) MarketCap(currency string) float64 {
	return m.MarketCapByCurrency[currency]
}
