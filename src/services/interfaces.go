package services

import (
	"errors"
	"io"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

// Sentinel errors the HTTP layer maps onto status codes.
var (
	ErrParsingFailed    = errors.New("parsing failed")
	ErrProcessingFailed = errors.New("processing failed")
	ErrBatchNotFound    = errors.New("batch not found")
)

// UploadResult holds everything produced by matching one uploaded file.
type UploadResult struct {
	BatchID          string                   `json:"batch_id"`
	Filename         string                   `json:"filename"`
	SourceFormat     string                   `json:"source_format"`
	TransactionCount int                      `json:"transaction_count"`
	SaleDetails      []models.SaleDetail      `json:"sale_details"`
	Holdings         []models.PurchaseLot     `json:"holdings"`
	SaleSummaries    []models.SaleSummary     `json:"sale_summaries"`
	Warnings         []models.OversoldWarning `json:"warnings"`
}

// UploadService defines the interface for the core upload processing logic.
type UploadService interface {
	ProcessUpload(fileReader io.Reader, filename string) (*UploadResult, error)
	GetUploadResult(batchID string) (*UploadResult, error)
	GetTransactions(batchID string) ([]models.Transaction, error)
	GetBatch(batchID string) (*models.Batch, error)
	ListBatches() ([]models.Batch, error)
	DeleteBatch(batchID string) error
	WriteSalesCSV(batchID string, w io.Writer) error
	WriteHoldingsCSV(batchID string, w io.Writer) error
	WriteSummaryCSV(batchID string, w io.Writer) error
}
