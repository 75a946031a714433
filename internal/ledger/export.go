package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"conecta/internal"
	"conecta/internal/util"
)

var exportHeaders = []string{
	"Eletricista", "CPF/CNPJ", "Total Vendido (R$)", "Pontos", "Pontos Resgatados", "Pontos Finais", "Valor em R$",
}

// ExportCSV writes the full ledger sorted by name. Documents are
// masked; the report is meant for distribution.
func ExportCSV(entries []internal.LedgerEntry, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeaders); err != nil {
		return err
	}
	for _, entry := range sortedByName(entries) {
		record := []string{
			entry.Name,
			maskedDoc(entry.Document),
			entry.TotalSales.StringFixed(2),
			formatInt(entry.GrossPoints),
			formatInt(entry.RedeemedPoints),
			formatInt(entry.FinalPoints),
			entry.Value.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ExportXLSX(entries []internal.LedgerEntry, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, entry := range sortedByName(entries) {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		total, _ := entry.TotalSales.Float64()
		value, _ := entry.Value.Float64()
		set(1, entry.Name)
		set(2, maskedDoc(entry.Document))
		set(3, total)
		set(4, entry.GrossPoints)
		set(5, entry.RedeemedPoints)
		set(6, entry.FinalPoints)
		set(7, value)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func sortedByName(entries []internal.LedgerEntry) []internal.LedgerEntry {
	out := make([]internal.LedgerEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func maskedDoc(doc *string) string {
	if doc == nil {
		return ""
	}
	return util.MaskDocument(*doc)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
