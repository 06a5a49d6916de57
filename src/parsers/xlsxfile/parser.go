package xlsxfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
)

// requiredColumns are the headers an input file must carry, matched
// case-insensitively after trimming.
var requiredColumns = []string{"Date", "Type", "Code", "Quantity", "Price", "Fees"}

type XLSXParser struct{}

func NewParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Parse(file io.Reader) ([]models.RawTransaction, error) {
	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	// Transactions are read from the first sheet only.
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheets[0])
	}

	colIndex, err := mapRequiredColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var rawTxs []models.RawTransaction
	for i, record := range rows[1:] {
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
