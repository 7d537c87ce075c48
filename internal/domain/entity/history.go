package entity

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Window is a lookback window for historical series. Each window implies a
// sampling interval: minute for a day, hour for a week, day for a month.
type Window string

const (
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window30d Window = "30d"
)

// ParseWindow maps the wire form ("24h", "7d", "30d") to a Window.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Window24h, Window7d, Window30d:
		return Window(s), nil
	}
	return "", fmt.Errorf("unknown history window %q", s)
}

// Days returns the lookback day count the upstream expects for the window.
func (w Window) Days() int {
	switch w {
	case Window24h:
		return 1
	case Window7d:
		return 7
	default:
		return 30
	}
}

// Interval returns the upstream sampling interval for the window.
func (w Window) Interval() string {
	switch w {
	case Window24h:
		return "minute"
	case Window7d:
		return "hour"
	default:
		return "day"
	}
}

// PricePoint is one (timestamp, value) sample of a series. The timestamp is
// upstream-native Unix milliseconds. The upstream encodes points as two-element
// JSON arrays, which UnmarshalJSON accepts directly.
type PricePoint struct {
	Timestamp int64
	Value     float64
}

// pricePointWire matches the upstream [ms, value] array encoding.
type pricePointWire [2]float64

// UnmarshalJSON decodes a [timestamp, value] pair.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding price point: %w", err)
	}
	p.Timestamp = int64(raw[0])
	p.Value = raw[1]
	return nil
}

// MarshalJSON encodes the point back to the upstream pair form.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointWire{float64(p.Timestamp), p.Value})
}

// HistorySeries is one coin's historical market-chart data over a requested
// window, ascending by timestamp. Immutable once fetched. An empty Prices
// slice means the series could not be fetched for that coin.
type HistorySeries struct {
	CoinID       string       `json:"coin_id,omitempty"`
	Prices       []PricePoint `json:"prices"`
	MarketCaps   []PricePoint `json:"market_caps,omitempty"`
	TotalVolumes []PricePoint `json:"total_volumes,omitempty"`
}

// PriceValues returns just the price column of the series, in order.
func (h HistorySeries) PriceValues() []float64 {
	values := make([]float64, 0, len(h.Prices))
	for _, point := range h.Prices {
		values = append(values, point.Value)
	}
	return values
}
