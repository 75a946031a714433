package ledger

import "errors"

var (
	// ErrNotFound means no ledger row matched the query.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrAmbiguousMatch means a document-only lookup matched more than
	// one row. Two identities sharing a document is a data-integrity
	// problem in the identity tab and is never resolved silently.
	ErrAmbiguousMatch = errors.New("multiple ledger entries share one document")

	// ErrSourceUnavailable means the backing spreadsheet could not be
	// reached or parsed at all. Per-table absence does not trigger it.
	ErrSourceUnavailable = errors.New("backing spreadsheet unavailable")
)

// ValidationError rejects a malformed query before any sheet read.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
