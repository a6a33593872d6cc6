package domain

// ExchangeRates is the payload served by the exchange-rates endpoint. When
// the upstream provider is unreachable the service degrades to a synthetic
// snapshot with Stale set, USD pinned to 1 and every other configured
// currency zeroed.
type ExchangeRates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
	Stale bool               `json:"stale,omitempty"`
}
