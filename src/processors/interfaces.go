package processors

import (
	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

// FIFOResult bundles everything one matching pass produces.
type FIFOResult struct {
	SaleDetails   []models.SaleDetail      `json:"sale_details"`
	Holdings      []models.PurchaseLot     `json:"holdings"`
	SaleSummaries []models.SaleSummary     `json:"sale_summaries"`
	Warnings      []models.OversoldWarning `json:"warnings"`
}

// TransactionNormalizer validates and coerces raw rows into the ordered
// transaction sequence the FIFO processor consumes.
type TransactionNormalizer interface {
	Normalize(rawTransactions []models.RawTransaction) ([]models.Transaction, error)
}

// FIFOProcessor consumes an ordered transaction sequence once and matches
// every sale against the oldest open lots of its code.
type FIFOProcessor interface {
	Process(transactions []models.Transaction) (*FIFOResult, error)
}
