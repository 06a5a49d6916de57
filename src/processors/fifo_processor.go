package processors

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

// ErrInvalidTransaction marks a transaction whose quantity is zero or
// negative, which would make the per-unit fee division undefined.
var ErrInvalidTransaction = errors.New("invalid transaction")

// longTermHoldingDays is the strict threshold for the long-term flag: a
// holding qualifies only when held for strictly more than 365 whole days.
const longTermHoldingDays = 365

// lot is one open purchase: the unsold remainder of a Buy transaction.
// costPerShare folds the buy fee into the unit cost at creation and is
// never recomputed.
type lot struct {
	remaining    decimal.Decimal
	costPerShare decimal.Decimal
	buyDate      time.Time
}

type fifoProcessorImpl struct{}

func NewFIFOProcessor() FIFOProcessor {
	return &fifoProcessorImpl{}
}

// Process runs the single left-to-right matching pass. The input must
// already be sorted ascending by date with stable ties; Process does not
// re-sort or re-validate beyond the quantity guard.
//
// Monetary amounts are kept unrounded while lots are split and only
// rounded to two decimal places on the emitted records, so partial matches
// of one lot never accumulate rounding error.
func (p *fifoProcessorImpl) Process(transactions []models.Transaction) (*FIFOResult, error) {
	queues := make(map[string][]*lot)
	var codeOrder []string // first-reference order, keeps the holdings report deterministic

	ensureQueue := func(code string) {
		if _, seen := queues[code]; !seen {
			queues[code] = nil
			codeOrder = append(codeOrder, code)
		}
	}

	result := &FIFOResult{}

	for _, tx := range transactions {
		// Kinds other than buy and sell pass through the engine untouched.
		if tx.Kind != models.KindBuy && tx.Kind != models.KindSell {
			continue
		}
		if tx.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s %s on %s has quantity %s",
				ErrInvalidTransaction, tx.Kind, tx.Code, tx.Date.Format(time.DateOnly), tx.Quantity)
		}
		ensureQueue(tx.Code)

		switch tx.Kind {
		case models.KindBuy:
			queues[tx.Code] = append(queues[tx.Code], &lot{
				remaining:    tx.Quantity,
				costPerShare: tx.Price.Add(tx.Fees.Div(tx.Quantity)),
				buyDate:      tx.Date,
			})

		case models.KindSell:
			p.processSale(tx, queues, result)
		}
	}

	for _, code := range codeOrder {
		for _, l := range queues[code] {
			if l.remaining.Sign() > 0 {
				result.Holdings = append(result.Holdings, models.PurchaseLot{
					Code:         code,
					Quantity:     l.remaining,
					BuyDate:      l.buyDate,
					CostPerShare: l.costPerShare.Round(2),
				})
			}
		}
	}

	return result, nil
}

// processSale consumes lots from the head of the code's queue until the
// sale is satisfied or the queue runs out. Selling more than is held is
// tolerated: the excess emits no records and is reported as a warning.
func (p *fifoProcessorImpl) processSale(sale models.Transaction, queues map[string][]*lot, result *FIFOResult) {
	feePerUnit := sale.Fees.Div(sale.Quantity)
	remainingToSell := sale.Quantity
	queue := queues[sale.Code]

	matchedTotal := decimal.Zero
	proceedsTotal := decimal.Zero
	costBasisTotal := decimal.Zero

	for remainingToSell.Sign() > 0 && len(queue) > 0 {
		head := queue[0]
		matched := decimal.Min(remainingToSell, head.remaining)

		proceeds := matched.Mul(sale.Price.Sub(feePerUnit))
		costBasis := matched.Mul(head.costPerShare)
		profitLoss := proceeds.Sub(costBasis)

		result.SaleDetails = append(result.SaleDetails, models.SaleDetail{
			SaleDate:         sale.Date,
			Code:             sale.Code,
			Quantity:         matched,
			SalePrice:        sale.Price,
			Proceeds:         proceeds.Round(2),
			BuyDate:          head.buyDate,
			CostPerShare:     head.costPerShare.Round(2),
			TotalCostBasis:   costBasis.Round(2),
			ProfitLoss:       profitLoss.Round(2),
			OverTwelveMonths: heldOverTwelveMonths(head.buyDate, sale.Date),
		})

		matchedTotal = matchedTotal.Add(matched)
		proceedsTotal = proceedsTotal.Add(proceeds)
		costBasisTotal = costBasisTotal.Add(costBasis)

		remainingToSell = remainingToSell.Sub(matched)
		head.remaining = head.remaining.Sub(matched)
		if head.remaining.IsZero() {
			queue = queue[1:]
		}
	}
	queues[sale.Code] = queue

	if remainingToSell.Sign() > 0 {
		result.Warnings = append(result.Warnings, models.OversoldWarning{
			Code:              sale.Code,
			SaleDate:          sale.Date,
			UnmatchedQuantity: remainingToSell,
		})
	}

	if matchedTotal.Sign() > 0 {
		result.SaleSummaries = append(result.SaleSummaries, models.SaleSummary{
			SaleDate:       sale.Date,
			Code:           sale.Code,
			QuantitySold:   matchedTotal,
			Proceeds:       proceedsTotal.Round(2),
			TotalCostBasis: costBasisTotal.Round(2),
			ProfitLoss:     proceedsTotal.Sub(costBasisTotal).Round(2),
		})
	}
}

// heldOverTwelveMonths reports whether the holding period exceeds 365
// whole days. Exactly 365 days does not qualify.
func heldOverTwelveMonths(buyDate, sellDate time.Time) bool {
	days := int(sellDate.Sub(buyDate) / (24 * time.Hour))
	return days > longTermHoldingDays
}
