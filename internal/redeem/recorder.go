package redeem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"conecta/internal/config"
	"conecta/internal/ledger"
	"conecta/internal/storage"
)

// Recorder appends redemption rows to the redemptions tab of a
// file-backed workbook. The tab stores redemptions as currency
// (points * 1.50); the ledger reverses the conversion on read.
//
// The write is a plain open-append-save with no locking: a redemption
// racing a concurrent lookup may be missed until the next rebuild.
// The workbook's atomic file replace bounds the risk; this is a known
// consistency gap, not a guarantee.
type Recorder struct {
	path   string
	tables config.TableNames
	db     *storage.DB
}

// NewRecorder writes to the workbook at path. db may be nil; when set,
// every redemption is mirrored into the audit log.
func NewRecorder(path string, tables config.TableNames, db *storage.DB) *Recorder {
	return &Recorder{path: path, tables: tables, db: db}
}

func (r *Recorder) Record(ctx context.Context, name string, points int64, operator string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ledger.ValidationError{Reason: "name is required"}
	}
	if points <= 0 {
		return &ledger.ValidationError{Reason: "points must be greater than zero"}
	}

	amount := decimal.NewFromInt(points).Mul(ledger.PointValue)
	redeemedAt := time.Now().UTC().Format(time.RFC3339)

	if err := r.appendRow(name, amount, redeemedAt, operator); err != nil {
		return err
	}

	if r.db != nil {
		if err := r.db.InsertRedemption(strings.ToUpper(name), points, amount.StringFixed(2), operator, redeemedAt); err != nil {
			return fmt.Errorf("audit redemption: %w", err)
		}
	}
	return nil
}

func (r *Recorder) appendRow(name string, amount decimal.Decimal, redeemedAt, operator string) error {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrSourceUnavailable, err)
	}
	defer f.Close()

	tab := r.tables.Redemptions
	idx, err := f.GetSheetIndex(tab)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := f.NewSheet(tab); err != nil {
			return err
		}
		headers := []string{ledger.ColInstallerName, ledger.ColRedeemedValue, ledger.ColRedeemedAt, ledger.ColOperator}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := f.SetCellValue(tab, cell, h); err != nil {
				return err
			}
		}
	}

	rows, err := f.GetRows(tab)
	if err != nil {
		return err
	}
	next := len(rows) + 1

	value, _ := amount.Float64()
	cells := []any{name, value, redeemedAt, operator}
	for i, v := range cells {
		cell, _ := excelize.CoordinatesToCellName(i+1, next)
		if err := f.SetCellValue(tab, cell, v); err != nil {
			return err
		}
	}

	return f.Save()
}
