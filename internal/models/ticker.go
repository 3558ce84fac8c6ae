package models

// Ticker represents one tradable instrument in the catalog.
// Symbols carry the EODHD exchange suffix (e.g. "AAPL.US").
type Ticker struct {
	ID       int64   `json:"id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Exchange string  `json:"exchange"`
	Sector   *string `json:"sector,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Currency string  `json:"currency"`
	IsActive bool    `json:"is_active"`
}
