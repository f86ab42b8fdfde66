// Package errors defines web typed application errors.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

// Kind classifies application failures for consistent HTTP mapping.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindUnavailable  Kind = "unavailable"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
)

// Error is a typed web application failure.
type Error struct {
	Kind    Kind
	Message string
}

// Error renders the human-readable message.
func (e Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: message}
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return domainErrorHTTPStatus(err, http.StatusInternalServerError)
	}
	switch appErr.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a message safe to show to the user.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr Error
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if fields, ok := validate.AsErrors(err); ok {
		return fields.Error()
	}
	return http.StatusText(HTTPStatus(err))
}

func domainErrorHTTPStatus(err error, fallback int) int {
	if _, ok := validate.AsErrors(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case stderrors.Is(err, storage.ErrNotFound),
		stderrors.Is(err, registry.ErrModuleNotFound),
		stderrors.Is(err, registry.ErrSectionNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, registry.ErrAccessDenied):
		return http.StatusForbidden
	default:
		return fallback
	}
}
