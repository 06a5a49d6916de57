package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleDetail is one realized-gain record: the portion of a sale matched
// against a single purchase lot. A sale spanning several lots produces
// several SaleDetails, oldest lot first. Monetary fields are rounded to
// two decimal places when the record is emitted.
type SaleDetail struct {
	SaleDate         time.Time       `json:"sale_date"`
	Code             string          `json:"code"`
	Quantity         decimal.Decimal `json:"quantity"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	Proceeds         decimal.Decimal `json:"proceeds"`
	BuyDate          time.Time       `json:"buy_date"`
	CostPerShare     decimal.Decimal `json:"cost_per_share"`
	TotalCostBasis   decimal.Decimal `json:"total_cost_basis"`
	ProfitLoss       decimal.Decimal `json:"profit_loss"`
	OverTwelveMonths bool            `json:"over_twelve_months"`
}

// PurchaseLot represents remaining unsold purchase lots after the full
// transaction sequence has been processed.
type PurchaseLot struct {
	Code         string          `json:"code"`
	Quantity     decimal.Decimal `json:"quantity"`
	BuyDate      time.Time       `json:"buy_date"`
	CostPerShare decimal.Decimal `json:"cost_per_share"`
}

// SaleSummary aggregates one Sell transaction's realized result across
// every lot it consumed.
type SaleSummary struct {
	SaleDate       time.Time       `json:"sale_date"`
	Code           string          `json:"code"`
	QuantitySold   decimal.Decimal `json:"quantity_sold"`
	Proceeds       decimal.Decimal `json:"proceeds"`
	TotalCostBasis decimal.Decimal `json:"total_cost_basis"`
	ProfitLoss     decimal.Decimal `json:"profit_loss"`
}

// OversoldWarning reports a sale that asked for more units than were held
// for its code at that point in the sequence. The matched portion is
// processed normally; the unmatched remainder is recorded here and emits
// no realized-gain records.
type OversoldWarning struct {
	Code              string          `json:"code"`
	SaleDate          time.Time       `json:"sale_date"`
	UnmatchedQuantity decimal.Decimal `json:"unmatched_quantity"`
}
