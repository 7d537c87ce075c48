package entity

import (
	"strings"
	"time"
)

// Token identifies a coin in the upstream market-data API. ID is the canonical
// identity; Symbol and Name are denormalized display data.
type Token struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TokenFromID builds a Token with display fields derived from the id alone,
// used when an API response carries no symbol or name for a coin. The name is
// the title-cased, hyphen-split id ("shiba-inu" -> "Shiba Inu").
func TokenFromID(id string) Token {
	parts := strings.Split(id, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return Token{
		ID:     id,
		Symbol: strings.ToUpper(id),
		Name:   strings.Join(parts, " "),
	}
}

// CoinListing is one row of the upstream full coin listing, used to order the
// token directory by market-cap rank. Rank zero means the upstream reported
// no rank for the coin.
type CoinListing struct {
	Token
	MarketCapRank int `json:"market_cap_rank"`
}

// TokenSnapshot is a directory entry: a token plus its most recently fetched
// market data. MarketData is nil until the first successful refresh for the
// token. Snapshots are owned by the directory and mutated only by it.
type TokenSnapshot struct {
	Token
	MarketData  *MarketData `json:"market_data,omitempty"`
	LastUpdated time.Time   `json:"last_updated"`
}
