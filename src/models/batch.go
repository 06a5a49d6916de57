package models

import "time"

// Batch is one uploaded transaction file and the scope for its stored
// transactions and reports.
type Batch struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	SourceFormat     string    `json:"source_format"` // "csv" or "xlsx"
	TransactionCount int       `json:"transaction_count"`
	WarningCount     int       `json:"warning_count"`
	CreatedAt        time.Time `json:"created_at"`
}
