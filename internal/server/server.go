package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"conecta/internal"
	"conecta/internal/ledger"
	"conecta/internal/redeem"
	"conecta/internal/util"
)

// Handler bundles dependencies for the HTTP boundary. It is a thin
// caller of the lookup service: every request rebuilds the ledger.
type Handler struct {
	lookup   *ledger.Service
	recorder *redeem.Recorder
}

// New constructs a Handler. recorder may be nil when the backing
// store is read-only (http/drive sources).
func New(lookup *ledger.Service, recorder *redeem.Recorder) *Handler {
	return &Handler{lookup: lookup, recorder: recorder}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/balance", h.balance)
		r.Get("/search", h.search)
		r.Get("/redemptions", h.history)
		r.Post("/redemptions", h.createRedemption)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// balanceResponse carries one ledger entry with the document already
// masked; the full document never leaves the server.
type balanceResponse struct {
	Name           string `json:"name"`
	Document       string `json:"document"`
	TotalSales     string `json:"total_sales"`
	GrossPoints    int64  `json:"gross_points"`
	RedeemedPoints int64  `json:"redeemed_points"`
	FinalPoints    int64  `json:"final_points"`
	Value          string `json:"value"`
}

func toBalanceResponse(entry internal.LedgerEntry) balanceResponse {
	doc := ""
	if entry.Document != nil {
		doc = util.MaskDocument(*entry.Document)
	}
	return balanceResponse{
		Name:           entry.Name,
		Document:       doc,
		TotalSales:     entry.TotalSales.StringFixed(2),
		GrossPoints:    entry.GrossPoints,
		RedeemedPoints: entry.RedeemedPoints,
		FinalPoints:    entry.FinalPoints,
		Value:          entry.Value.StringFixed(2),
	}
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup.FindByDocument(r.Context(), r.URL.Query().Get("doc"))
	if err != nil {
		respondLookupError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBalanceResponse(entry))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	entries, err := h.lookup.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondLookupError(w, err)
		return
	}
	out := make([]balanceResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toBalanceResponse(entry))
	}
	respondJSON(w, http.StatusOK, out)
}

type redemptionResponse struct {
	Name       string `json:"name"`
	Points     int64  `json:"points"`
	RedeemedAt string `json:"redeemed_at"`
	Operator   string `json:"operator"`
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	events, err := h.lookup.History(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondLookupError(w, err)
		return
	}
	out := make([]redemptionResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, redemptionResponse{Name: ev.Name, Points: ev.Points, RedeemedAt: ev.RedeemedAt, Operator: ev.Operator})
	}
	respondJSON(w, http.StatusOK, out)
}

type createRedemptionRequest struct {
	Name     string `json:"name"`
	Points   int64  `json:"points"`
	Operator string `json:"operator"`
}

func (h *Handler) createRedemption(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		respondError(w, http.StatusServiceUnavailable, "redemption recording is unavailable for a read-only store")
		return
	}
	var req createRedemptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.recorder.Record(r.Context(), req.Name, req.Points, req.Operator); err != nil {
		respondLookupError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "redemption recorded"})
}

func respondLookupError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, "no electrician matches the query")
	case errors.Is(err, ledger.ErrAmbiguousMatch):
		respondError(w, http.StatusConflict, "more than one registration shares this document; contact support")
	case errors.Is(err, ledger.ErrSourceUnavailable):
		respondError(w, http.StatusServiceUnavailable, "points spreadsheet is unavailable, try again later")
	default:
		respondError(w, http.StatusInternalServerError, "unexpected error")
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
