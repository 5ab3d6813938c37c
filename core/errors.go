package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput            = "WEBHOOK_BAD_INPUT"
	ErrorRegistryUnavailable = "WEBHOOK_REGISTRY_UNAVAILABLE"
	ErrorLedgerUnavailable   = "WEBHOOK_LEDGER_UNAVAILABLE"
	ErrorRecordNotFound      = "WEBHOOK_RECORD_NOT_FOUND"
	ErrorDeliveryNotFound    = "WEBHOOK_DELIVERY_NOT_FOUND"
	ErrorTransportFailure    = "WEBHOOK_TRANSPORT_FAILURE"
	ErrorInternal            = "WEBHOOK_INTERNAL_ERROR"
)

// MapError converts any error into a go-errors envelope with category, HTTP
// code and text code populated.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrRecordNotFound):
		return newError(err.Error(), goerrors.CategoryNotFound, ErrorRecordNotFound)
	case errors.Is(err, ErrDeliveryNotFound):
		return newError(err.Error(), goerrors.CategoryNotFound, ErrorDeliveryNotFound)
	case errors.Is(err, ErrEndpointRequired), errors.Is(err, ErrEventTypeRequired), errors.Is(err, ErrSiteIDRequired):
		return newError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return newError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	case strings.Contains(msg, "not found"):
		return newError(err.Error(), goerrors.CategoryNotFound, ErrorRecordNotFound)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// RegistryError wraps a registry query failure. Callers must never treat it as
// an empty result.
func RegistryError(source error, message string) error {
	if source == nil {
		return nil
	}
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(ErrorRegistryUnavailable)
}

func LedgerError(source error, message string) error {
	if source == nil {
		return nil
	}
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(ErrorLedgerUnavailable)
}

func BadInputError(message string) error {
	return newError(message, goerrors.CategoryBadInput, ErrorBadInput)
}

func NotFoundError(source error, message string, textCode string) error {
	if source == nil {
		source = errors.New(message)
	}
	return goerrors.Wrap(source, goerrors.CategoryNotFound, message).
		WithCode(http.StatusNotFound).
		WithTextCode(textCode)
}

func newError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorRecordNotFound
	case goerrors.CategoryExternal:
		return ErrorTransportFailure
	default:
		return ErrorInternal
	}
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
