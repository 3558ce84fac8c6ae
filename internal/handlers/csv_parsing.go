package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/akozyrev/stockcast/internal/repository"
)

// ParseTickersCSV parses a catalog import CSV into TickerInput rows.
// Required columns: symbol, name, exchange
// Optional columns: sector, industry, currency (currency defaults to USD)
// Rows with an empty symbol are skipped.
func ParseTickersCSV(r io.Reader) ([]repository.TickerInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"symbol", "name", "exchange"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	optionalCol := func(record []string, col string) string {
		idx, ok := colIdx[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []repository.TickerInput
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: failed to read CSV record: %w", rowNum+1, err)
		}
		rowNum++

		symbol := strings.TrimSpace(record[colIdx["symbol"]])
		if symbol == "" {
			continue
		}

		currency := optionalCol(record, "currency")
		if currency == "" {
			currency = "USD"
		}

		rows = append(rows, repository.TickerInput{
			Symbol:   symbol,
			Name:     strings.TrimSpace(record[colIdx["name"]]),
			Exchange: strings.TrimSpace(record[colIdx["exchange"]]),
			Sector:   optionalPtr(optionalCol(record, "sector")),
			Industry: optionalPtr(optionalCol(record, "industry")),
			Currency: currency,
		})
	}

	return rows, nil
}

// optionalPtr maps an empty string to nil so blank CSV cells land as NULL
func optionalPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
