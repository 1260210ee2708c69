package assets

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
)

// Kind is the caller-facing failure taxonomy of the asset service.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindUnsupportedFileType Kind = "unsupported_file_type"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict_or_partial_match"
	KindStorage             Kind = "storage_failure"
	KindIntegrityGap        Kind = "integrity_gap"
)

// Error carries a Kind plus the failing operation. Message is safe to show to
// callers for 4xx kinds; 5xx kinds never expose it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, msg, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code is the stable machine-readable code.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindUnsupportedFileType, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errAssetVanished = errors.New("asset disappeared during its own write")

func newErr(kind Kind, op, msg string, cause error) error {
	return &Error{Kind: kind, Op: op, Message: msg, Cause: cause}
}

func validationErr(op, format string, args ...any) error {
	return newErr(KindValidation, op, fmt.Sprintf(format, args...), nil)
}

func notFoundErr(op, format string, args ...any) error {
	return newErr(KindNotFound, op, fmt.Sprintf(format, args...), nil)
}

func storageErr(op string, cause error) error {
	return newErr(KindStorage, op, "", cause)
}

// KindOf reports the Kind of err, KindStorage for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// fromAggregate folds aggregate error codes into the service taxonomy.
func fromAggregate(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var aggErr *domainagg.Error
	msg := ""
	if errors.As(err, &aggErr) {
		msg = aggErr.Message
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeNotFound:
		return newErr(KindNotFound, op, msg, err)
	case domainagg.CodeValidation, domainagg.CodeConflict, domainagg.CodeInvariantViolation:
		return newErr(KindConflict, op, msg, err)
	default:
		return storageErr(op, err)
	}
}
