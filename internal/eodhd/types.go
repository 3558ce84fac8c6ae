package eodhd

// EODBar is one row of the /eod/{symbol} JSON response
type EODBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// DividendRow is one row of the /div/{symbol} JSON response
type DividendRow struct {
	Date        string  `json:"date"` // ex-dividend date
	PaymentDate string  `json:"paymentDate"`
	Value       float64 `json:"value"`
	Currency    string  `json:"currency"`
}

// SplitRow is one row of the /splits/{symbol} JSON response.
// Split is formatted "4.000000/1.000000" (new/old).
type SplitRow struct {
	Date  string `json:"date"`
	Split string `json:"split"`
}
