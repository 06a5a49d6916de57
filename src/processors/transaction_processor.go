package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tersy89/Share-sales-FIFO/src/models"
	"github.com/Tersy89/Share-sales-FIFO/src/security/validation"
	"github.com/Tersy89/Share-sales-FIFO/src/utils"
)

type transactionNormalizerImpl struct{}

func NewTransactionNormalizer() TransactionNormalizer {
	return &transactionNormalizerImpl{}
}

// Normalize validates and coerces raw rows, then sorts them ascending by
// date. The sort is stable: rows sharing a date keep their input order,
// which the FIFO processor relies on for tie-breaking.
func (n *transactionNormalizerImpl) Normalize(rawTransactions []models.RawTransaction) ([]models.Transaction, error) {
	transactions := make([]models.Transaction, 0, len(rawTransactions))

	for _, raw := range rawTransactions {
		tx, err := normalizeRow(raw)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})

	return transactions, nil
}

func normalizeRow(raw models.RawTransaction) (models.Transaction, error) {
	kind, err := models.ParseTransactionKind(validation.CleanField(raw.Kind))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("row %d: %v", raw.RowNum, err)
	}

	code := validation.CleanField(raw.Code)
	if code == "" {
		return models.Transaction{}, fmt.Errorf("row %d: missing asset code", raw.RowNum)
	}

	date, err := utils.ParseFlexibleDate(validation.CleanField(raw.Date))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("row %d: %v", raw.RowNum, err)
	}

	quantity, err := parseDecimalField(raw.Quantity, "quantity", raw.RowNum)
	if err != nil {
		return models.Transaction{}, err
	}
	if !quantity.IsPositive() {
		return models.Transaction{}, fmt.Errorf("row %d: quantity must be positive, got %s", raw.RowNum, quantity)
	}

	price, err := parseDecimalField(raw.Price, "price", raw.RowNum)
	if err != nil {
		return models.Transaction{}, err
	}
	if price.IsNegative() {
		return models.Transaction{}, fmt.Errorf("row %d: price must not be negative, got %s", raw.RowNum, price)
	}

	fees, err := parseDecimalField(raw.Fees, "fees", raw.RowNum)
	if err != nil {
		return models.Transaction{}, err
	}
	if fees.IsNegative() {
		return models.Transaction{}, fmt.Errorf("row %d: fees must not be negative, got %s", raw.RowNum, fees)
	}

	tx := models.Transaction{
		Date:     date,
		Kind:     kind,
		Code:     code,
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
	}
	tx.HashId = generateHash(raw.RowNum, tx)
	return tx, nil
}

func parseDecimalField(s, name string, rowNum int) (decimal.Decimal, error) {
	cleaned := validation.CleanField(s)
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("row %d: missing %s", rowNum, name)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("row %d: invalid %s %q", rowNum, name, s)
	}
	return d, nil
}

// generateHash fingerprints a normalized row. The source row number is part
// of the input: two identical rows in one file are two real events (separate
// lots), so they must not collapse to the same hash.
func generateHash(rowNum int, tx models.Transaction) string {
	input := fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s",
		rowNum, tx.Date.Format(time.DateOnly), tx.Kind, tx.Code, tx.Quantity, tx.Price, tx.Fees)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
