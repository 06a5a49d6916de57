package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a transaction row as a purchase or a sale.
type TransactionKind string

const (
	KindBuy  TransactionKind = "buy"
	KindSell TransactionKind = "sell"
)

// ParseTransactionKind maps the Type column of an input file to a
// TransactionKind. Matching is case-insensitive, so "Buy", "BUY" and "buy"
// are all accepted.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return KindBuy, nil
	case "sell":
		return KindSell, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// RawTransaction represents a single data row as read from an uploaded
// file, before any validation or coercion. RowNum is the 1-based row
// number in the source file, used in error messages.
type RawTransaction struct {
	RowNum   int    `json:"row_num"`
	Date     string `json:"date"`
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	Fees     string `json:"fees"`
}

// Transaction is a validated buy or sell, ready for FIFO matching.
// Quantity is strictly positive; Price and Fees are non-negative.
type Transaction struct {
	ID       int64           `json:"id,omitempty"` // database primary key
	Date     time.Time       `json:"date"`
	Kind     TransactionKind `json:"kind"`
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fees     decimal.Decimal `json:"fees"`
	HashId   string          `json:"-"` // generated hash, used for duplicate detection
}
