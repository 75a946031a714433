package ledger

import (
	"context"

	"conecta/internal"
	"conecta/internal/util"
)

// Service resolves user-supplied queries against a freshly built
// ledger. Exact-match only; no fuzzy or partial matching.
type Service struct {
	builder *Builder
}

func NewService(builder *Builder) *Service {
	return &Service{builder: builder}
}

// FindByDocument runs a strict document-only lookup: the query must
// contain exactly 11 or 14 digits. More than one match is a
// data-integrity signal, never silently resolved to the first row.
func (s *Service) FindByDocument(ctx context.Context, query string) (internal.LedgerEntry, error) {
	digits := util.OnlyDigits(query)
	if digits == "" {
		return internal.LedgerEntry{}, &ValidationError{Reason: "document is required"}
	}
	if len(digits) != util.DocWidthCPF && len(digits) != util.DocWidthCNPJ {
		return internal.LedgerEntry{}, &ValidationError{Reason: "document must have 11 digits (CPF) or 14 digits (CNPJ)"}
	}
	doc := util.NormalizeDocument(digits)

	entries, err := s.builder.Build(ctx)
	if err != nil {
		return internal.LedgerEntry{}, err
	}

	var matches []internal.LedgerEntry
	for _, entry := range entries {
		if entry.Document != nil && *entry.Document == doc {
			matches = append(matches, entry)
		}
	}
	switch len(matches) {
	case 0:
		return internal.LedgerEntry{}, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return internal.LedgerEntry{}, ErrAmbiguousMatch
	}
}

// Search matches the query as a name and as a document at once and
// returns every row where either matches exactly.
func (s *Service) Search(ctx context.Context, query string) ([]internal.LedgerEntry, error) {
	name := util.NormalizeName(query)
	if name == "" {
		return nil, &ValidationError{Reason: "query is required"}
	}
	doc := util.NormalizeDocument(query)

	entries, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	var matches []internal.LedgerEntry
	for _, entry := range entries {
		if entry.Name == name {
			matches = append(matches, entry)
			continue
		}
		if doc != util.EmptyDocument && entry.Document != nil && *entry.Document == doc {
			matches = append(matches, entry)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return matches, nil
}

// History lists a person's redemption events, most recent first.
func (s *Service) History(ctx context.Context, name string) ([]internal.RedemptionEvent, error) {
	if util.NormalizeName(name) == "" {
		return nil, &ValidationError{Reason: "name is required"}
	}
	return s.builder.History(ctx, name)
}
