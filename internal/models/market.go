package models

import (
	"time"
)

// PriceBar represents one end-of-day price observation for a ticker.
// Rows are unique on (ticker, date) and treated as immutable once written;
// re-ingesting the same day is an idempotent upsert.
type PriceBar struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Dividend represents a cash dividend, unique on (ticker, ex_date).
type Dividend struct {
	Ticker   string     `json:"ticker"`
	ExDate   time.Time  `json:"ex_date"`
	PayDate  *time.Time `json:"pay_date,omitempty"`
	Amount   float64    `json:"amount"`
	Currency string     `json:"currency"`
}

// Split represents a stock split, unique on (ticker, date).
// A 4-for-1 split has Numerator=4, Denominator=1.
type Split struct {
	Ticker      string    `json:"ticker"`
	Date        time.Time `json:"date"`
	Numerator   float64   `json:"numerator"`
	Denominator float64   `json:"denominator"`
}

// Coefficient returns the multiplicative share factor of the split.
func (s Split) Coefficient() float64 {
	if s.Denominator == 0 {
		return 1.0
	}
	return s.Numerator / s.Denominator
}
