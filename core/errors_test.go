package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestMapError_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
		status   int
	}{
		{"record sentinel", fmt.Errorf("fetch: %w", ErrRecordNotFound), goerrors.CategoryNotFound, ErrorRecordNotFound, http.StatusNotFound},
		{"delivery sentinel", ErrDeliveryNotFound, goerrors.CategoryNotFound, ErrorDeliveryNotFound, http.StatusNotFound},
		{"site sentinel", ErrSiteIDRequired, goerrors.CategoryBadInput, ErrorBadInput, http.StatusBadRequest},
		{"required text", stderrors.New("sqlstore: bun db is required"), goerrors.CategoryBadInput, ErrorBadInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapError(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestMapError_PreservesExistingEnvelope(t *testing.T) {
	source := RegistryError(stderrors.New("dial tcp: connection refused"), "webhooks: list active endpoints")
	mapped := MapError(source)
	if mapped.TextCode != ErrorRegistryUnavailable {
		t.Fatalf("expected registry text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", mapped.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	if RegistryError(nil, "ignored") != nil || LedgerError(nil, "ignored") != nil {
		t.Fatalf("expected nil wrap for nil source")
	}

	cause := stderrors.New("disk full")
	var rich *goerrors.Error
	if !goerrors.As(LedgerError(cause, "ledger insert"), &rich) {
		t.Fatalf("expected go-errors envelope")
	}
	if rich.TextCode != ErrorLedgerUnavailable || rich.Category != goerrors.CategoryExternal {
		t.Fatalf("unexpected ledger envelope: %q %q", rich.TextCode, rich.Category)
	}

	if !goerrors.As(BadInputError("table must be a plain identifier"), &rich) {
		t.Fatalf("expected go-errors envelope")
	}
	if rich.TextCode != ErrorBadInput || rich.Code != http.StatusBadRequest {
		t.Fatalf("unexpected bad input envelope: %q %d", rich.TextCode, rich.Code)
	}

	if !goerrors.As(NotFoundError(nil, "record not found", ErrorRecordNotFound), &rich) {
		t.Fatalf("expected go-errors envelope")
	}
	if rich.Category != goerrors.CategoryNotFound || rich.TextCode != ErrorRecordNotFound {
		t.Fatalf("unexpected not found envelope: %q %q", rich.Category, rich.TextCode)
	}
}
