// Package apperror carries the error kinds the HTTP layer maps onto status codes.
package apperror

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// AppError is an error with a kind and a message that is safe to show to clients.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *AppError {
	return New(KindValidation, message)
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

// FromStore classifies an error coming out of a repository.
// Record-not-found becomes not_found, connection trouble and timeouts become unavailable,
// anything else is internal.
func FromStore(message string, err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, "record not found", err)
	case isUnavailable(err):
		return Wrap(KindUnavailable, "store temporarily unavailable", err)
	default:
		return Wrap(KindInternal, message, err)
	}
}

func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Status maps a kind onto an HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// PublicMessage returns the message shown to clients. Internal errors never leak details.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Kind == KindInternal {
			return "internal server error"
		}
		return appErr.Message
	}
	return "internal server error"
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P: operator intervention (shutdown, cannot connect now)
		return len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || (len(pgErr.Code) >= 3 && pgErr.Code[:3] == "57P"))
	}
	return false
}
