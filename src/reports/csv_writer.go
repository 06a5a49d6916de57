package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
	"github.com/Tersy89/Share-sales-FIFO/src/security/validation"
)

// Column headers match the reports this tool has always produced, so
// downloads stay drop-in compatible with sheets built on them.
var (
	salesHeader = []string{
		"Sell Date", "Code", "Quantity Sold", "Sell Price", "Proceeds",
		"Acquisition Date", "Cost Basis per Share", "Total Cost Basis",
		"Profit/Loss", "Over 12 Months",
	}
	holdingsHeader = []string{
		"Code", "Remaining Quantity", "Acquisition Date", "Cost Basis per Share",
	}
	summaryHeader = []string{
		"Sell Date", "Code", "Quantity Sold", "Profit/Loss",
	}
)

// WriteSalesCSV writes the realized-gains report, one row per matched
// (sale, lot) pair.
func WriteSalesCSV(w io.Writer, sales []models.SaleDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(salesHeader); err != nil {
		return fmt.Errorf("writing sales header: %w", err)
	}
	for _, s := range sales {
		record := []string{
			s.SaleDate.Format(time.DateOnly),
			validation.SanitizeForFormulaInjection(s.Code),
			s.Quantity.String(),
			s.SalePrice.String(),
			s.Proceeds.StringFixed(2),
			s.BuyDate.Format(time.DateOnly),
			s.CostPerShare.StringFixed(2),
			s.TotalCostBasis.StringFixed(2),
			s.ProfitLoss.StringFixed(2),
			strconv.FormatBool(s.OverTwelveMonths),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing sales row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHoldingsCSV writes the remaining-holdings report, one row per open
// lot fragment.
func WriteHoldingsCSV(w io.Writer, holdings []models.PurchaseLot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(holdingsHeader); err != nil {
		return fmt.Errorf("writing holdings header: %w", err)
	}
	for _, h := range holdings {
		record := []string{
			validation.SanitizeForFormulaInjection(h.Code),
			h.Quantity.String(),
			h.BuyDate.Format(time.DateOnly),
			h.CostPerShare.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing holdings row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the per-sale aggregate report, one row per Sell
// transaction that matched at least one unit.
func WriteSummaryCSV(w io.Writer, summaries []models.SaleSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("writing summary header: %w", err)
	}
	for _, s := range summaries {
		record := []string{
			s.SaleDate.Format(time.DateOnly),
			validation.SanitizeForFormulaInjection(s.Code),
			s.QuantitySold.String(),
			s.ProfitLoss.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
