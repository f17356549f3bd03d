package models

import "github.com/shopspring/decimal"

func init() {
	// The dashboard reads balances and amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type AccountType string

const (
	AccountChequing AccountType = "Chequing"
	AccountSavings  AccountType = "Savings"
	AccountGIC      AccountType = "GIC"
)

type Account struct {
	ID            string          `json:"id"`
	Type          AccountType     `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	AccountNumber string          `json:"accountNumber"`
}
