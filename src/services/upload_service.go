package services

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tersy89/Share-sales-FIFO/src/database"
	"github.com/Tersy89/Share-sales-FIFO/src/logger"
	"github.com/Tersy89/Share-sales-FIFO/src/models"
	"github.com/Tersy89/Share-sales-FIFO/src/parsers"
	"github.com/Tersy89/Share-sales-FIFO/src/processors"
	"github.com/Tersy89/Share-sales-FIFO/src/reports"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const (
	// Long-lived cache for full matching results, keyed by batch.
	ckBatchResult = "res_fifo_result_batch_%s"
)

type uploadServiceImpl struct {
	normalizer    processors.TransactionNormalizer
	fifoProcessor processors.FIFOProcessor
	reportCache   *cache.Cache
}

func NewUploadService(
	normalizer processors.TransactionNormalizer,
	fifoProcessor processors.FIFOProcessor,
	reportCache *cache.Cache,
) UploadService {
	return &uploadServiceImpl{
		normalizer:    normalizer,
		fifoProcessor: fifoProcessor,
		reportCache:   reportCache,
	}
}

func (s *uploadServiceImpl) ProcessUpload(fileReader io.Reader, filename string) (*UploadResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "filename", filename)

	sourceFormat, err := parsers.SourceFormat(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	parser, err := parsers.GetParser(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	rawTxs, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	txs, err := s.normalizer.Normalize(rawTxs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result, err := s.fifoProcessor.Process(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	for _, warning := range result.Warnings {
		logger.L.Warn("Sell exceeded available lots",
			"code", warning.Code,
			"saleDate", warning.SaleDate.Format(time.DateOnly),
			"unmatchedQuantity", warning.UnmatchedQuantity)
	}

	batchID := uuid.NewString()

	// --- Database Insertion ---
	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err = dbTx.Exec(`INSERT INTO batches (id, filename, source_format, transaction_count, warning_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		batchID, filename, sourceFormat, 0, len(result.Warnings), createdAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting batch %s: %w", batchID, err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (batch_id, date, kind, code, quantity, price, fees, hash_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	insertedCount := 0
	for _, tx := range txs {
		_, err := stmt.Exec(batchID, tx.Date.Format(time.DateOnly), string(tx.Kind), tx.Code, tx.Quantity.String(), tx.Price.String(), tx.Fees.String(), tx.HashId)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate transaction on upload", "batchID", batchID, "hash_id", tx.HashId)
				continue
			}
			return nil, fmt.Errorf("error inserting transaction (code: %s): %w", tx.Code, err)
		}
		insertedCount++
	}

	_, err = dbTx.Exec(`UPDATE batches SET transaction_count = ? WHERE id = ?`, insertedCount, batchID)
	if err != nil {
		return nil, fmt.Errorf("error updating batch count for %s: %w", batchID, err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transactions: %w", err)
	}

	s.reportCache.Set(fmt.Sprintf(ckBatchResult, batchID), result, cache.DefaultExpiration)

	logger.L.Info("ProcessUpload END", "batchID", batchID, "transactionCount", insertedCount, "warningCount", len(result.Warnings), "duration", time.Since(overallStartTime))
	return &UploadResult{
		BatchID:          batchID,
		Filename:         filename,
		SourceFormat:     sourceFormat,
		TransactionCount: insertedCount,
		SaleDetails:      result.SaleDetails,
		Holdings:         result.Holdings,
		SaleSummaries:    result.SaleSummaries,
		Warnings:         result.Warnings,
	}, nil
}

// getBatchResult is the central function to populate the result cache on a cache miss.
func (s *uploadServiceImpl) getBatchResult(batchID string) (*processors.FIFOResult, error) {
	cacheKey := fmt.Sprintf(ckBatchResult, batchID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for batch result", "batchID", batchID)
		return cached.(*processors.FIFOResult), nil
	}

	logger.L.Info("Cache miss for batch result, recalculating from DB", "batchID", batchID)
	txs, err := fetchBatchTransactions(batchID)
	if err != nil {
		return nil, err
	}

	result, err := s.fifoProcessor.Process(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	s.reportCache.Set(cacheKey, result, cache.DefaultExpiration)
	logger.L.Info("Populated batch result cache from DB", "batchID", batchID)
	return result, nil
}

func (s *uploadServiceImpl) GetUploadResult(batchID string) (*UploadResult, error) {
	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, err
	}

	result, err := s.getBatchResult(batchID)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		BatchID:          batch.ID,
		Filename:         batch.Filename,
		SourceFormat:     batch.SourceFormat,
		TransactionCount: batch.TransactionCount,
		SaleDetails:      result.SaleDetails,
		Holdings:         result.Holdings,
		SaleSummaries:    result.SaleSummaries,
		Warnings:         result.Warnings,
	}, nil
}

func (s *uploadServiceImpl) GetTransactions(batchID string) ([]models.Transaction, error) {
	if _, err := s.GetBatch(batchID); err != nil {
		return nil, err
	}
	return fetchBatchTransactions(batchID)
}

func (s *uploadServiceImpl) GetBatch(batchID string) (*models.Batch, error) {
	var batch models.Batch
	var createdAt string
	err := database.DB.QueryRow(`SELECT id, filename, source_format, transaction_count, warning_count, created_at FROM batches WHERE id = ?`, batchID).
		Scan(&batch.ID, &batch.Filename, &batch.SourceFormat, &batch.TransactionCount, &batch.WarningCount, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
		}
		return nil, fmt.Errorf("error querying batch %s: %w", batchID, err)
	}

	batch.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at for batch %s: %w", batchID, err)
	}
	return &batch, nil
}

func (s *uploadServiceImpl) ListBatches() ([]models.Batch, error) {
	rows, err := database.DB.Query(`SELECT id, filename, source_format, transaction_count, warning_count, created_at FROM batches ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying batches: %w", err)
	}
	defer rows.Close()

	var batches []models.Batch
	for rows.Next() {
		var batch models.Batch
		var createdAt string
		if err := rows.Scan(&batch.ID, &batch.Filename, &batch.SourceFormat, &batch.TransactionCount, &batch.WarningCount, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning batch row: %w", err)
		}
		batch.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing created_at for batch %s: %w", batch.ID, err)
		}
		batches = append(batches, batch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over batch rows: %w", err)
	}
	return batches, nil
}

func (s *uploadServiceImpl) DeleteBatch(batchID string) error {
	if _, err := s.GetBatch(batchID); err != nil {
		return err
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM transactions WHERE batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("error deleting transactions for batch %s: %w", batchID, err)
	}
	if _, err := dbTx.Exec(`DELETE FROM batches WHERE id = ?`, batchID); err != nil {
		return fmt.Errorf("error deleting batch %s: %w", batchID, err)
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing batch deletion: %w", err)
	}

	s.reportCache.Delete(fmt.Sprintf(ckBatchResult, batchID))
	logger.L.Info("Deleted batch and invalidated cache", "batchID", batchID)
	return nil
}

func (s *uploadServiceImpl) WriteSalesCSV(batchID string, w io.Writer) error {
	result, err := s.getBatchResult(batchID)
	if err != nil {
		return err
	}
	return reports.WriteSalesCSV(w, result.SaleDetails)
}

func (s *uploadServiceImpl) WriteHoldingsCSV(batchID string, w io.Writer) error {
	result, err := s.getBatchResult(batchID)
	if err != nil {
		return err
	}
	return reports.WriteHoldingsCSV(w, result.Holdings)
}

func (s *uploadServiceImpl) WriteSummaryCSV(batchID string, w io.Writer) error {
	result, err := s.getBatchResult(batchID)
	if err != nil {
		return err
	}
	return reports.WriteSummaryCSV(w, result.SaleSummaries)
}

func fetchBatchTransactions(batchID string) ([]models.Transaction, error) {
	logger.L.Debug("Fetching transactions from DB", "batchID", batchID)
	rows, err := database.DB.Query(`SELECT id, date, kind, code, quantity, price, fees, hash_id FROM transactions WHERE batch_id = ? ORDER BY date ASC, id ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var dateStr, kindStr, quantityStr, priceStr, feesStr string
		if err := rows.Scan(&tx.ID, &dateStr, &kindStr, &tx.Code, &quantityStr, &priceStr, &feesStr, &tx.HashId); err != nil {
			return nil, fmt.Errorf("error scanning transaction row for batch %s: %w", batchID, err)
		}

		tx.Date, err = time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing date %q for batch %s: %w", dateStr, batchID, err)
		}
		tx.Kind = models.TransactionKind(kindStr)
		if tx.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("error parsing quantity %q for batch %s: %w", quantityStr, batchID, err)
		}
		if tx.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("error parsing price %q for batch %s: %w", priceStr, batchID, err)
		}
		if tx.Fees, err = decimal.NewFromString(feesStr); err != nil {
			return nil, fmt.Errorf("error parsing fees %q for batch %s: %w", feesStr, batchID, err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows for batch %s: %w", batchID, err)
	}
	logger.L.Info("DB fetch complete.", "batchID", batchID, "transactionCount", len(transactions))
	return transactions, nil
}
