package entity

// Currency is a display currency option. Codes are lowercase 3-letter and are
// passed through to the upstream API as-is; the list below drives UI
// formatting only and is not used for validation.
type Currency struct {
	Code   string `json:"value"`
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
}

// SupportedCurrencies is the fixed display currency set.
var SupportedCurrencies = []Currency{
	{Code: "usd", Label: "USD ($)", Symbol: "$"},
	{Code: "eur", Label: "EUR (€)", Symbol: "€"},
	{Code: "gbp", Label: "GBP (£)", Symbol: "£"},
	{Code: "jpy", Label: "JPY (¥)", Symbol: "¥"},
	{Code: "aud", Label: "AUD ($)", Symbol: "A$"},
	{Code: "cad", Label: "CAD ($)", Symbol: "C$"},
}

// CurrencySymbol returns the display symbol for a code, falling back to the
// code itself for currencies outside the supported set.
func CurrencySymbol(code string) string {
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return c.Symbol
		}
	}
	return code
}
