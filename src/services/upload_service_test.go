package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/Tersy89/Share-sales-FIFO/src/database"
	"github.com/Tersy89/Share-sales-FIFO/src/logger"
	"github.com/Tersy89/Share-sales-FIFO/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	dir, err := os.MkdirTemp("", "sharesales-test")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestService() (UploadService, *cache.Cache) {
	reportCache := cache.New(time.Minute, time.Minute)
	service := NewUploadService(
		processors.NewTransactionNormalizer(),
		processors.NewFIFOProcessor(),
		reportCache,
	)
	return service, reportCache
}

const simpleCSV = "Date,Type,Code,Quantity,Price,Fees\n" +
	"2023-01-10,Buy,VAS,100,10,5\n" +
	"2024-02-15,Sell,VAS,100,12,6\n"

func TestProcessUploadStoresAndReports(t *testing.T) {
	service, _ := newTestService()

	result, err := service.ProcessUpload(strings.NewReader(simpleCSV), "trades.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	if err := uuid.Validate(result.BatchID); err != nil {
		t.Errorf("BatchID %q is not a UUID: %v", result.BatchID, err)
	}
	if result.Filename != "trades.csv" {
		t.Errorf("Filename = %q, want trades.csv", result.Filename)
	}
	if result.SourceFormat != "csv" {
		t.Errorf("SourceFormat = %q, want csv", result.SourceFormat)
	}
	if result.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2", result.TransactionCount)
	}
	if len(result.SaleDetails) != 1 {
		t.Fatalf("got %d sale details, want 1", len(result.SaleDetails))
	}
	detail := result.SaleDetails[0]
	if detail.Proceeds.StringFixed(2) != "1194.00" {
		t.Errorf("Proceeds = %s, want 1194.00", detail.Proceeds.StringFixed(2))
	}
	if detail.ProfitLoss.StringFixed(2) != "189.00" {
		t.Errorf("ProfitLoss = %s, want 189.00", detail.ProfitLoss.StringFixed(2))
	}
	if len(result.Holdings) != 0 {
		t.Errorf("got %d holdings, want 0", len(result.Holdings))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("got %d warnings, want 0", len(result.Warnings))
	}

	batch, err := service.GetBatch(result.BatchID)
	if err != nil {
		t.Fatalf("GetBatch returned error: %v", err)
	}
	if batch.TransactionCount != 2 || batch.WarningCount != 0 {
		t.Errorf("stored batch counts = %d/%d, want 2/0", batch.TransactionCount, batch.WarningCount)
	}
	if batch.CreatedAt.IsZero() {
		t.Error("stored batch has a zero CreatedAt")
	}
}

func TestGetUploadResultRecomputesFromDatabase(t *testing.T) {
	service, reportCache := newTestService()

	uploaded, err := service.ProcessUpload(strings.NewReader(simpleCSV), "trades.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	cached, err := service.GetUploadResult(uploaded.BatchID)
	if err != nil {
		t.Fatalf("GetUploadResult (cached) returned error: %v", err)
	}

	// Drop the cache so the next read must rebuild the result from the
	// stored transactions.
	reportCache.Flush()

	recomputed, err := service.GetUploadResult(uploaded.BatchID)
	if err != nil {
		t.Fatalf("GetUploadResult (recomputed) returned error: %v", err)
	}

	cachedJSON, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshaling cached result: %v", err)
	}
	recomputedJSON, err := json.Marshal(recomputed)
	if err != nil {
		t.Fatalf("marshaling recomputed result: %v", err)
	}
	if string(cachedJSON) != string(recomputedJSON) {
		t.Errorf("recomputed result differs from original:\n%s\n%s", cachedJSON, recomputedJSON)
	}
}

func TestProcessUploadRecordsOversellWarning(t *testing.T) {
	service, _ := newTestService()

	csvData := "Date,Type,Code,Quantity,Price,Fees\n" +
		"2024-01-05,Buy,VAS,50,10,0\n" +
		"2024-02-01,Sell,VAS,60,12,0\n"

	result, err := service.ProcessUpload(strings.NewReader(csvData), "oversold.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}
	if result.Warnings[0].UnmatchedQuantity.String() != "10" {
		t.Errorf("UnmatchedQuantity = %s, want 10", result.Warnings[0].UnmatchedQuantity)
	}

	batch, err := service.GetBatch(result.BatchID)
	if err != nil {
		t.Fatalf("GetBatch returned error: %v", err)
	}
	if batch.WarningCount != 1 {
		t.Errorf("stored WarningCount = %d, want 1", batch.WarningCount)
	}
}

func TestProcessUploadKeepsIdenticalRows(t *testing.T) {
	service, reportCache := newTestService()

	csvData := "Date,Type,Code,Quantity,Price,Fees\n" +
		"2024-01-05,Buy,VAS,100,10,0\n" +
		"2024-01-05,Buy,VAS,100,10,0\n"

	result, err := service.ProcessUpload(strings.NewReader(csvData), "doubled.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}
	if result.TransactionCount != 2 {
		t.Fatalf("TransactionCount = %d, want 2: identical rows are distinct lots", result.TransactionCount)
	}

	reportCache.Flush()
	recomputed, err := service.GetUploadResult(result.BatchID)
	if err != nil {
		t.Fatalf("GetUploadResult returned error: %v", err)
	}
	if len(recomputed.Holdings) != 2 {
		t.Errorf("got %d holdings after recompute, want 2 separate lots", len(recomputed.Holdings))
	}
}

func TestProcessUploadParseFailures(t *testing.T) {
	service, _ := newTestService()

	before, err := service.ListBatches()
	if err != nil {
		t.Fatalf("ListBatches returned error: %v", err)
	}

	cases := []struct {
		name     string
		filename string
		content  string
	}{
		{"missing columns", "bad.csv", "Date,Type\n2024-01-05,Buy\n"},
		{"invalid quantity", "bad.csv", "Date,Type,Code,Quantity,Price,Fees\n2024-01-05,Buy,VAS,0,10,0\n"},
		{"unknown type", "bad.csv", "Date,Type,Code,Quantity,Price,Fees\n2024-01-05,Transfer,VAS,10,10,0\n"},
		{"unsupported extension", "trades.txt", simpleCSV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.ProcessUpload(strings.NewReader(tc.content), tc.filename)
			if !errors.Is(err, ErrParsingFailed) {
				t.Errorf("got error %v, want ErrParsingFailed", err)
			}
		})
	}

	after, err := service.ListBatches()
	if err != nil {
		t.Fatalf("ListBatches returned error: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("failed uploads must not persist batches: %d before, %d after", len(before), len(after))
	}
}

func TestGetUploadResultUnknownBatch(t *testing.T) {
	service, _ := newTestService()

	_, err := service.GetUploadResult(uuid.NewString())
	if !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("got error %v, want ErrBatchNotFound", err)
	}
}

func TestGetTransactionsReturnsNormalizedOrder(t *testing.T) {
	service, _ := newTestService()

	csvData := "Date,Type,Code,Quantity,Price,Fees\n" +
		"2024-03-01,Sell,VAS,60,30,0\n" +
		"2024-01-05,Buy,VAS,50,10,0\n" +
		"2024-02-10,Buy,VAS,50,20,0\n"

	result, err := service.ProcessUpload(strings.NewReader(csvData), "unordered.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	txs, err := service.GetTransactions(result.BatchID)
	if err != nil {
		t.Fatalf("GetTransactions returned error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.Before(txs[i-1].Date) {
			t.Errorf("transactions out of order: %s before %s",
				txs[i].Date.Format(time.DateOnly), txs[i-1].Date.Format(time.DateOnly))
		}
	}
	if txs[0].Quantity.String() != "50" || txs[0].Price.String() != "10" {
		t.Errorf("first transaction = %s@%s, want 50@10", txs[0].Quantity, txs[0].Price)
	}
}

func TestDeleteBatch(t *testing.T) {
	service, _ := newTestService()

	result, err := service.ProcessUpload(strings.NewReader(simpleCSV), "trades.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	if err := service.DeleteBatch(result.BatchID); err != nil {
		t.Fatalf("DeleteBatch returned error: %v", err)
	}

	if _, err := service.GetUploadResult(result.BatchID); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("GetUploadResult after delete = %v, want ErrBatchNotFound", err)
	}

	var count int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM transactions WHERE batch_id = ?`, result.BatchID).Scan(&count); err != nil {
		t.Fatalf("counting leftover transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("%d transactions left after batch delete, want 0", count)
	}

	if err := service.DeleteBatch(result.BatchID); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("second DeleteBatch = %v, want ErrBatchNotFound", err)
	}
}

func TestListBatchesIncludesUpload(t *testing.T) {
	service, _ := newTestService()

	result, err := service.ProcessUpload(strings.NewReader(simpleCSV), "listed.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	batches, err := service.ListBatches()
	if err != nil {
		t.Fatalf("ListBatches returned error: %v", err)
	}
	found := false
	for _, batch := range batches {
		if batch.ID == result.BatchID {
			found = true
			if batch.Filename != "listed.csv" {
				t.Errorf("listed Filename = %q, want listed.csv", batch.Filename)
			}
		}
	}
	if !found {
		t.Error("uploaded batch missing from ListBatches")
	}
}

func TestWriteReportCSVs(t *testing.T) {
	service, _ := newTestService()

	csvData := "Date,Type,Code,Quantity,Price,Fees\n" +
		"2024-01-05,Buy,VAS,50,10,0\n" +
		"2024-02-10,Buy,VAS,50,20,0\n" +
		"2024-06-01,Sell,VAS,60,30,0\n"

	result, err := service.ProcessUpload(strings.NewReader(csvData), "spans.csv")
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	var salesBuf bytes.Buffer
	if err := service.WriteSalesCSV(result.BatchID, &salesBuf); err != nil {
		t.Fatalf("WriteSalesCSV returned error: %v", err)
	}
	salesLines := strings.Split(strings.TrimSpace(salesBuf.String()), "\n")
	if len(salesLines) != 3 {
		t.Errorf("sales CSV has %d lines, want header plus 2 records", len(salesLines))
	}
	if !strings.HasPrefix(salesLines[0], "Sell Date,Code,Quantity Sold") {
		t.Errorf("sales CSV header = %q", salesLines[0])
	}

	var holdingsBuf bytes.Buffer
	if err := service.WriteHoldingsCSV(result.BatchID, &holdingsBuf); err != nil {
		t.Fatalf("WriteHoldingsCSV returned error: %v", err)
	}
	holdingsLines := strings.Split(strings.TrimSpace(holdingsBuf.String()), "\n")
	if len(holdingsLines) != 2 {
		t.Errorf("holdings CSV has %d lines, want header plus 1 record", len(holdingsLines))
	}
	if !strings.Contains(holdingsLines[1], "40") {
		t.Errorf("holdings row = %q, want the remaining 40 units", holdingsLines[1])
	}

	var summaryBuf bytes.Buffer
	if err := service.WriteSummaryCSV(result.BatchID, &summaryBuf); err != nil {
		t.Fatalf("WriteSummaryCSV returned error: %v", err)
	}
	summaryLines := strings.Split(strings.TrimSpace(summaryBuf.String()), "\n")
	if len(summaryLines) != 2 {
		t.Errorf("summary CSV has %d lines, want header plus 1 record", len(summaryLines))
	}
	if !strings.Contains(summaryLines[1], "60") {
		t.Errorf("summary row = %q, want the 60 units sold", summaryLines[1])
	}
}
