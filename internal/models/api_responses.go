package models

// Holding is one ticker/weight pair in a portfolio forecast request.
type Holding struct {
	Ticker string  `json:"ticker" binding:"required"`
	Weight float64 `json:"weight"`
}

// ForecastPortfolioRequest represents the request body for a portfolio forecast
type ForecastPortfolioRequest struct {
	Holdings    []Holding `json:"holdings" binding:"required"`
	HorizonDays int       `json:"horizon_days" binding:"required"`
}

// ForecastPortfolioResponse represents the forecast result.
// ProjectedValues has exactly horizon_days entries, one per day after the
// as-of date, normalized so the portfolio is worth 1.0 on the as-of date.
type ForecastPortfolioResponse struct {
	ProjectedValues []float64 `json:"projected_values"`
	ModelRunID      int64     `json:"model_run_id"`
	Model           string    `json:"model"`
	AsOf            string    `json:"as_of"`
}

// ListTickersRequest represents the query parameters for listing tickers
type ListTickersRequest struct {
	Exchange string `form:"exchange"`
	Sector   string `form:"sector"`
}

// GetPricesRequest represents the query parameters for fetching a price series
type GetPricesRequest struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Adjusted bool   `form:"adjusted"`
}

// GetPricesResponse represents the response for a price series
type GetPricesResponse struct {
	Symbol     string     `json:"symbol"`
	Adjusted   bool       `json:"adjusted"`
	DataPoints int        `json:"data_points"`
	Prices     []PriceBar `json:"prices"`
}

// HealthResponse represents the liveness payload
type HealthResponse struct {
	Status    string `json:"status"`
	Tickers   int64  `json:"tickers"`
	PriceRows int64  `json:"price_rows"`
}

// SyncPricesResponse reports the outcome of an EODHD price sync
type SyncPricesResponse struct {
	Symbol    string `json:"symbol"`
	Bars      int    `json:"bars"`
	Dividends int    `json:"dividends"`
	Splits    int    `json:"splits"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// ImportTickersResponse reports the outcome of a catalog CSV import
type ImportTickersResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// BackfillResponse reports how many predictions received an actual close
type BackfillResponse struct {
	Filled int64 `json:"filled"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
