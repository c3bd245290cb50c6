package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionResult struct {
	Success     bool        `json:"success"`
	Transaction Transaction `json:"transaction"`
}

type Transaction struct {
	ID                    string          `json:"id"`
	Status                string          `json:"status"`
	Type                  string          `json:"type"`
	Amount                decimal.Decimal `json:"amount"`
	CurrencyISOCode       string          `json:"currencyIsoCode,omitempty"`
	ProcessorResponseText string          `json:"processorResponseText,omitempty"`
	CreatedAt             *time.Time      `json:"createdAt,omitempty"`
}
