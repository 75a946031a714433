package internal

import "github.com/shopspring/decimal"

// Rows as read from the backing workbook. Every field is optional at
// the source; decoding defaults missing cells to the zero value.

type SalesRow struct {
	InstallerName string
	OrderTotal    decimal.Decimal
}

type ExtraOrderRow struct {
	Document  string
	OrderID   string
	OrderDate string
	Amount    decimal.Decimal
}

type IdentityRow struct {
	Name     string
	Document string
}

type RedemptionRow struct {
	InstallerName string
	Amount        decimal.Decimal
	RedeemedAt    string
	Operator      string
}

// LedgerEntry is one reconciled row per distinct person.
// FinalPoints = max(0, GrossPoints-RedeemedPoints);
// GrossPoints = floor(TotalSales/100); Value = FinalPoints * 1.50.
type LedgerEntry struct {
	Name           string
	Document       *string
	TotalSales     decimal.Decimal
	GrossPoints    int64
	RedeemedPoints int64
	FinalPoints    int64
	Value          decimal.Decimal
}

type RedemptionEvent struct {
	Name       string
	Points     int64
	RedeemedAt string
	Operator   string
}
