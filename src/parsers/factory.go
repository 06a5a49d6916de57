package parsers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Tersy89/Share-sales-FIFO/src/parsers/csvfile"
	"github.com/Tersy89/Share-sales-FIFO/src/parsers/xlsxfile"
)

// SourceFormat returns the canonical source format ("csv" or "xlsx") for an
// uploaded filename, or an error for unsupported extensions.
func SourceFormat(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv", nil
	case ".xlsx":
		return "xlsx", nil
	default:
		return "", fmt.Errorf("unsupported file type %q: please use .csv or .xlsx", filepath.Ext(filename))
	}
}

// GetParser returns the parser matching an uploaded filename's extension.
func GetParser(filename string) (TransactionParser, error) {
	format, err := SourceFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case "csv":
		return csvfile.NewParser(), nil
	case "xlsx":
		return xlsxfile.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
