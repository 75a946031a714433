package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"conecta/internal/config"
	"conecta/internal/ledger"
)

var testTables = config.TableNames{
	Sales:       "TAB01",
	Redemptions: "TAB02",
	Identity:    "TAB03",
	ExtraOrders: "TAB04",
}

type memSource struct {
	data []byte
	err  error
}

func (s memSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.data, s.err
}

func fixtureWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	_ = f.SetSheetName(f.GetSheetName(0), "TAB01")
	for i, row := range [][]any{
		{"Nome Instalador", "Total Ped."},
		{"Jane Doe", 1000.0},
	} {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+1)
			_ = f.SetCellValue("TAB01", cell, v)
		}
	}
	_, _ = f.NewSheet("TAB03")
	for i, row := range [][]any{
		{"Nome", "CPF/CNPJ"},
		{"Jane Doe", "529.982.247-25"},
	} {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+1)
			_ = f.SetCellValue("TAB03", cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testRouter(t *testing.T, src memSource) http.Handler {
	t.Helper()
	svc := ledger.NewService(ledger.NewBuilder(src, testTables))
	return New(svc, nil).Router()
}

func TestBalanceEndpoint(t *testing.T) {
	router := testRouter(t, memSource{data: fixtureWorkbook(t)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance?doc=529.982.247-25", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		Name        string `json:"name"`
		Document    string `json:"document"`
		FinalPoints int64  `json:"final_points"`
		Value       string `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Name != "JANE DOE" || resp.FinalPoints != 10 || resp.Value != "15.00" {
		t.Fatalf("%+v", resp)
	}
	if resp.Document != "***.***.***-25" {
		t.Fatalf("document must be masked, got %q", resp.Document)
	}
	if strings.Contains(rec.Body.String(), "52998224725") {
		t.Fatal("full document leaked in response")
	}
}

func TestBalanceValidationAndNotFound(t *testing.T) {
	router := testRouter(t, memSource{data: fixtureWorkbook(t)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance?doc=123", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance?doc=12345678000195", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestBalanceSourceUnavailable(t *testing.T) {
	router := testRouter(t, memSource{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance?doc=52998224725", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testRouter(t, memSource{data: fixtureWorkbook(t)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=jane+doe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var resp []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 1 || resp[0].Name != "JANE DOE" {
		t.Fatalf("%+v", resp)
	}
}

func TestCreateRedemptionWithoutRecorder(t *testing.T) {
	router := testRouter(t, memSource{data: fixtureWorkbook(t)})

	body := strings.NewReader(`{"name":"Jane Doe","points":2,"operator":"maria"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/redemptions", body))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := testRouter(t, memSource{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}
