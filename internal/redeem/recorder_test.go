package redeem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"conecta/internal/config"
	"conecta/internal/ledger"
	"conecta/internal/storage"
)

var testTables = config.TableNames{
	Sales:       "TAB01",
	Redemptions: "TAB02",
	Identity:    "TAB03",
	ExtraOrders: "TAB04",
}

func writeFixtureWorkbook(t *testing.T, withRedemptionsTab bool) string {
	t.Helper()
	f := excelize.NewFile()
	_ = f.SetSheetName(f.GetSheetName(0), "TAB01")
	_ = f.SetCellValue("TAB01", "A1", "Nome Instalador")
	_ = f.SetCellValue("TAB01", "B1", "Total Ped.")
	_ = f.SetCellValue("TAB01", "A2", "Jane Doe")
	_ = f.SetCellValue("TAB01", "B2", 1000.0)

	if withRedemptionsTab {
		_, _ = f.NewSheet("TAB02")
		_ = f.SetCellValue("TAB02", "A1", "Nome Instalador")
		_ = f.SetCellValue("TAB02", "B1", "Valor Resgatado")
		_ = f.SetCellValue("TAB02", "C1", "DataHora Resgate")
		_ = f.SetCellValue("TAB02", "D1", "Usuario")
	}

	path := filepath.Join(t.TempDir(), "db.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecordAppendsAndTakesEffectOnRebuild(t *testing.T) {
	path := writeFixtureWorkbook(t, true)
	rec := NewRecorder(path, testTables, nil)

	if err := rec.Record(context.Background(), "Jane Doe", 4, "maria"); err != nil {
		t.Fatal(err)
	}

	b := ledger.NewBuilder(&fileSource{path: path}, testTables)
	entries, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("len=%d", len(entries))
	}
	e := entries[0]
	// 4 points were stored as 6.00 currency and read back as 4.
	if e.GrossPoints != 10 || e.RedeemedPoints != 4 || e.FinalPoints != 6 {
		t.Fatalf("%+v", e)
	}

	events, err := b.History(context.Background(), "jane doe")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Points != 4 || events[0].Operator != "maria" {
		t.Fatalf("%+v", events)
	}
	if events[0].RedeemedAt == "" {
		t.Fatal("missing timestamp")
	}
}

func TestRecordCreatesMissingTab(t *testing.T) {
	path := writeFixtureWorkbook(t, false)
	rec := NewRecorder(path, testTables, nil)

	if err := rec.Record(context.Background(), "Jane Doe", 2, "maria"); err != nil {
		t.Fatal(err)
	}

	b := ledger.NewBuilder(&fileSource{path: path}, testTables)
	entries, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].RedeemedPoints != 2 {
		t.Fatalf("%+v", entries[0])
	}
}

func TestRecordValidation(t *testing.T) {
	rec := NewRecorder(writeFixtureWorkbook(t, true), testTables, nil)

	var verr *ledger.ValidationError
	if err := rec.Record(context.Background(), "  ", 5, "maria"); !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if err := rec.Record(context.Background(), "Jane Doe", 0, "maria"); !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if err := rec.Record(context.Background(), "Jane Doe", -3, "maria"); !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestRecordMissingWorkbook(t *testing.T) {
	rec := NewRecorder(filepath.Join(t.TempDir(), "absent.xlsx"), testTables, nil)
	err := rec.Record(context.Background(), "Jane Doe", 1, "maria")
	if !errors.Is(err, ledger.ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}

func TestRecordAuditsToStorage(t *testing.T) {
	path := writeFixtureWorkbook(t, true)
	db, err := storage.Open(filepath.Join(t.TempDir(), "conecta.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rec := NewRecorder(path, testTables, db)
	if err := rec.Record(context.Background(), "Jane Doe", 4, "maria"); err != nil {
		t.Fatal(err)
	}

	events, err := db.ListRedemptions("JANE DOE")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Points != 4 {
		t.Fatalf("%+v", events)
	}
}

// fileSource is a minimal sheet.Source over one workbook path.
type fileSource struct {
	path string
}

func (s *fileSource) Fetch(ctx context.Context) ([]byte, error) {
	return os.ReadFile(s.path)
}
