package reports

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func day(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return t
}

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("reading generated CSV: %v", err)
	}
	return records
}

func TestWriteSalesCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSalesCSV(&buf, []models.SaleDetail{
		{
			SaleDate: day("2024-02-15"), Code: "VAS", Quantity: d("100"),
			SalePrice: d("12"), Proceeds: d("1194.00"), BuyDate: day("2023-01-10"),
			CostPerShare: d("10.05"), TotalCostBasis: d("1005.00"),
			ProfitLoss: d("189.00"), OverTwelveMonths: true,
		},
	})
	if err != nil {
		t.Fatalf("WriteSalesCSV returned error: %v", err)
	}

	records := readAll(t, &buf)
	if len(records) != 2 {
		t.Fatalf("got %d CSV records, want 2", len(records))
	}

	wantHeader := []string{
		"Sell Date", "Code", "Quantity Sold", "Sell Price", "Proceeds",
		"Acquisition Date", "Cost Basis per Share", "Total Cost Basis",
		"Profit/Loss", "Over 12 Months",
	}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v, want %v", records[0], wantHeader)
	}

	wantRow := []string{
		"2024-02-15", "VAS", "100", "12", "1194.00",
		"2023-01-10", "10.05", "1005.00", "189.00", "true",
	}
	if !reflect.DeepEqual(records[1], wantRow) {
		t.Errorf("row = %v, want %v", records[1], wantRow)
	}
}

func TestWriteSalesCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSalesCSV(&buf, nil); err != nil {
		t.Fatalf("WriteSalesCSV returned error: %v", err)
	}
	records := readAll(t, &buf)
	if len(records) != 1 {
		t.Errorf("got %d CSV records, want just the header", len(records))
	}
}

func TestWriteSalesCSVSanitizesFormulaCodes(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSalesCSV(&buf, []models.SaleDetail{
		{
			SaleDate: day("2024-02-15"), Code: "=SUM(A1:A9)", Quantity: d("1"),
			SalePrice: d("1"), Proceeds: d("1"), BuyDate: day("2024-01-10"),
			CostPerShare: d("1"), TotalCostBasis: d("1"), ProfitLoss: d("0"),
		},
	})
	if err != nil {
		t.Fatalf("WriteSalesCSV returned error: %v", err)
	}

	records := readAll(t, &buf)
	if got := records[1][1]; got != "'=SUM(A1:A9)" {
		t.Errorf("code cell = %q, want the formula neutralized with a leading quote", got)
	}
}

func TestWriteHoldingsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHoldingsCSV(&buf, []models.PurchaseLot{
		{Code: "VAS", Quantity: d("40"), BuyDate: day("2024-03-10"), CostPerShare: d("20.00")},
		{Code: "VGS", Quantity: d("7.5"), BuyDate: day("2024-04-01"), CostPerShare: d("101.33")},
	})
	if err != nil {
		t.Fatalf("WriteHoldingsCSV returned error: %v", err)
	}

	records := readAll(t, &buf)
	if len(records) != 3 {
		t.Fatalf("got %d CSV records, want 3", len(records))
	}

	wantHeader := []string{"Code", "Remaining Quantity", "Acquisition Date", "Cost Basis per Share"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v, want %v", records[0], wantHeader)
	}
	if !reflect.DeepEqual(records[1], []string{"VAS", "40", "2024-03-10", "20.00"}) {
		t.Errorf("first row = %v", records[1])
	}
	if !reflect.DeepEqual(records[2], []string{"VGS", "7.5", "2024-04-01", "101.33"}) {
		t.Errorf("second row = %v", records[2])
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummaryCSV(&buf, []models.SaleSummary{
		{
			SaleDate: day("2024-06-01"), Code: "VAS", QuantitySold: d("60"),
			Proceeds: d("1800.00"), TotalCostBasis: d("700.00"), ProfitLoss: d("1100.00"),
		},
	})
	if err != nil {
		t.Fatalf("WriteSummaryCSV returned error: %v", err)
	}

	records := readAll(t, &buf)
	if len(records) != 2 {
		t.Fatalf("got %d CSV records, want 2", len(records))
	}
	wantHeader := []string{"Sell Date", "Code", "Quantity Sold", "Profit/Loss"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v, want %v", records[0], wantHeader)
	}
	if !reflect.DeepEqual(records[1], []string{"2024-06-01", "VAS", "60", "1100.00"}) {
		t.Errorf("row = %v", records[1])
	}
}
