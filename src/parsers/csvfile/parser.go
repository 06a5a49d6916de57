package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

// requiredColumns are the headers an input file must carry, matched
// case-insensitively after trimming.
var requiredColumns = []string{"Date", "Type", "Code", "Quantity", "Price", "Fees"}

type CSVParser struct{}

func NewParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(file io.Reader) ([]models.RawTransaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex, err := mapRequiredColumns(header)
	if err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	var rawTxs []models.RawTransaction
	for i, record := range records {
		if isBlankRow(record) {
			continue
		}
		// +2: rows are 1-based and the header occupies row 1.
		rawTxs = append(rawTxs, rowFromRecord(record, colIndex, i+2))
	}

	return rawTxs, nil
}

func mapRequiredColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\uFEFF") // Excel-style UTF-8 BOM
		}
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("input file missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func rowFromRecord(record []string, index map[string]int, rowNum int) models.RawTransaction {
	return models.RawTransaction{
		RowNum:   rowNum,
		Date:     cellAt(record, index["date"]),
		Kind:     cellAt(record, index["type"]),
		Code:     cellAt(record, index["code"]),
		Quantity: cellAt(record, index["quantity"]),
		Price:    cellAt(record, index["price"]),
		Fees:     cellAt(record, index["fees"]),
	}
}

func cellAt(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
