package entity

// SimplePriceResponse is the raw body of the upstream simple/price endpoint:
// coin id -> flat map of currency-suffixed fields ("usd", "usd_24h_change",
// "usd_24h_vol", "usd_market_cap") plus "last_updated_at".
type SimplePriceResponse map[string]map[string]float64

// SearchResponse is the raw body of the upstream free-text search endpoint.
type SearchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// SearchCoin is one search hit. Only the identity fields are consumed.
type SearchCoin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// CoinListEntry is one row of the full coins listing. MarketCapRank may be
// absent upstream, in which case it decodes to zero.
type CoinListEntry struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}
