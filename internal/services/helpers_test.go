package services

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/importer"
	"moneta/internal/pagination"
)

func pageReq(page, size int) pagination.PageRequest {
	return pagination.PageRequest{Page: page, PageSize: size}
}

func parsedRows(description, amount string, dates ...time.Time) []importer.ParsedRow {
	rows := make([]importer.ParsedRow, 0, len(dates))
	for i, date := range dates {
		rows = append(rows, importer.ParsedRow{
			Line:        i + 2,
			BookingDate: date,
			Amount:      decimal.RequireFromString(amount),
			Currency:    "EUR",
			Description: description,
		})
	}
	return rows
}
