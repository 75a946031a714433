package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"conecta/internal"
	"conecta/internal/config"
	"conecta/internal/sheet"
	"conecta/internal/util"
)

// PointValue is the fixed monetary value of one point: one point per
// R$100 sold, worth R$1.50 on redemption.
var PointValue = decimal.New(150, -2)

// Workbook column headers, as shipped in the source spreadsheet.
const (
	ColInstallerName = "Nome Instalador"
	ColOrderTotal    = "Total Ped."
	ColIdentityName  = "Nome"
	ColDocument      = "CPF/CNPJ"
	ColRedeemedValue = "Valor Resgatado"
	ColRedeemedAt    = "DataHora Resgate"
	ColOperator      = "Usuario"
	ColOrderID       = "Pedido"
	ColOrderDate     = "Data"
	ColOrderAmount   = "Valor"
)

// Builder reconciles the four workbook tabs into one per-person
// ledger. Every Build re-reads the source; nothing is cached.
type Builder struct {
	src    sheet.Source
	tables config.TableNames
}

func NewBuilder(src sheet.Source, tables config.TableNames) *Builder {
	return &Builder{src: src, tables: tables}
}

func (b *Builder) Build(ctx context.Context) ([]internal.LedgerEntry, error) {
	wb, err := sheet.Open(ctx, b.src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer wb.Close()
	return b.build(wb), nil
}

func (b *Builder) build(wb *sheet.Workbook) []internal.LedgerEntry {
	docByName, nameByDoc := b.identityMaps(wb)

	totals := map[string]decimal.Decimal{}

	sales := wb.Read(b.tables.Sales, []string{ColInstallerName, ColOrderTotal})
	for i := 0; i < sales.Len(); i++ {
		name := util.NormalizeName(sales.Get(i, ColInstallerName))
		if name == "" {
			continue
		}
		amount := util.CoerceAmount(sales.Get(i, ColOrderTotal))
		totals[name] = totals[name].Add(amount)
	}

	// Supplementary orders carry a document, not a name; rows whose
	// document has no identity mapping contribute to no one.
	extras := wb.Read(b.tables.ExtraOrders, []string{ColDocument, ColOrderID, ColOrderDate, ColOrderAmount})
	for i := 0; i < extras.Len(); i++ {
		doc := util.NormalizeDocument(extras.Get(i, ColDocument))
		if doc == util.EmptyDocument {
			continue
		}
		name, ok := nameByDoc[doc]
		if !ok {
			continue
		}
		amount := util.CoerceAmount(extras.Get(i, ColOrderAmount))
		totals[name] = totals[name].Add(amount)
	}

	redeemed := map[string]int64{}
	redemptions := wb.Read(b.tables.Redemptions, []string{ColInstallerName, ColRedeemedValue})
	for i := 0; i < redemptions.Len(); i++ {
		name := util.NormalizeName(redemptions.Get(i, ColInstallerName))
		if name == "" {
			continue
		}
		amount := util.CoerceAmount(redemptions.Get(i, ColRedeemedValue))
		redeemed[name] += amount.Div(PointValue).IntPart()
	}

	out := make([]internal.LedgerEntry, 0, len(totals))
	for name, total := range totals {
		gross := total.Shift(-2).IntPart()
		final := gross - redeemed[name]
		if final < 0 {
			final = 0
		}
		entry := internal.LedgerEntry{
			Name:           name,
			TotalSales:     total,
			GrossPoints:    gross,
			RedeemedPoints: redeemed[name],
			FinalPoints:    final,
			Value:          decimal.NewFromInt(final).Mul(PointValue),
		}
		if doc, ok := docByName[name]; ok {
			entry.Document = util.StringPtr(doc)
		}
		out = append(out, entry)
	}
	return out
}

// identityMaps loads the identity tab into name->document and its
// reverse. Duplicate names are last-write-wins.
func (b *Builder) identityMaps(wb *sheet.Workbook) (map[string]string, map[string]string) {
	docByName := map[string]string{}
	nameByDoc := map[string]string{}

	identity := wb.Read(b.tables.Identity, []string{ColIdentityName, ColDocument})
	for i := 0; i < identity.Len(); i++ {
		name := util.NormalizeName(identity.Get(i, ColIdentityName))
		raw := identity.Get(i, ColDocument)
		if name == "" || raw == "" {
			continue
		}
		doc := util.NormalizeDocument(raw)
		if doc == util.EmptyDocument {
			continue
		}
		docByName[name] = doc
		nameByDoc[doc] = name
	}
	return docByName, nameByDoc
}

// History returns the redemption events for a normalized name, most
// recent first.
func (b *Builder) History(ctx context.Context, name string) ([]internal.RedemptionEvent, error) {
	wb, err := sheet.Open(ctx, b.src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer wb.Close()

	want := util.NormalizeName(name)
	redemptions := wb.Read(b.tables.Redemptions, []string{ColInstallerName, ColRedeemedValue, ColRedeemedAt, ColOperator})

	out := []internal.RedemptionEvent{}
	for i := 0; i < redemptions.Len(); i++ {
		rowName := util.NormalizeName(redemptions.Get(i, ColInstallerName))
		if rowName != want {
			continue
		}
		amount := util.CoerceAmount(redemptions.Get(i, ColRedeemedValue))
		out = append(out, internal.RedemptionEvent{
			Name:       rowName,
			Points:     amount.Div(PointValue).IntPart(),
			RedeemedAt: redemptions.Get(i, ColRedeemedAt),
			Operator:   redemptions.Get(i, ColOperator),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return parseEventTime(out[i].RedeemedAt).After(parseEventTime(out[j].RedeemedAt))
	})
	return out, nil
}

func parseEventTime(value string) time.Time {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "02/01/2006 15:04:05", "02/01/2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
