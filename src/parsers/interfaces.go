package parsers

import (
	"io"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

// TransactionParser reads an uploaded file into raw transaction rows.
// Implementations are format-specific; beyond locating the required
// columns they do not validate values, that is the normalizer's job.
type TransactionParser interface {
	Parse(file io.Reader) ([]models.RawTransaction, error)
}
