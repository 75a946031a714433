package storage

import (
	"path/filepath"
	"testing"
)

func TestMetadataRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "conecta.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	missing, err := db.GetMetadata("sheet.last_processed")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil, got %q", *missing)
	}

	if err := db.SetMetadata("sheet.last_processed", "1756700000"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("sheet.last_processed", "1756700999"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMetadata("sheet.last_processed")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "1756700999" {
		t.Fatalf("got %v", got)
	}
}

func TestRedemptionLog(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "conecta.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.InsertRedemption("JANE DOE", 10, "15.00", "maria", "2026-08-01T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRedemption("JANE DOE", 20, "30.00", "carlos", "2026-08-15T09:30:00Z"); err != nil {
		t.Fatal(err)
	}

	events, err := db.ListRedemptions("JANE DOE")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("len=%d", len(events))
	}
	if events[0].Points != 20 || events[0].Operator != "carlos" {
		t.Fatalf("first: %+v", events[0])
	}
}
