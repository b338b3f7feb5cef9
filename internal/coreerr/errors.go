// Package coreerr defines the error taxonomy shared by every core component.
// Components wrap underlying causes with fmt.Errorf("...: %w", cause) at each
// boundary; callers branch on Kind, never on the wrapped string.
package coreerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the class of failure independent of its message.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidSchedule    Kind = "invalid_schedule"
	KindInvalidCron        Kind = "invalid_cron"
	KindScheduledInPast    Kind = "scheduled_time_in_past"
	KindNotFound           Kind = "not_found"
	KindForbiddenTransition Kind = "forbidden_transition"
	KindConflict           Kind = "conflict"
	KindJobGone            Kind = "job_gone"
	KindExecutionTimeout   Kind = "execution_timeout"
	KindExecutionError     Kind = "execution_error"
	KindRetriesExhausted   Kind = "retries_exhausted"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindQueueUnavailable   Kind = "queue_unavailable"
	KindWorkerShutdown     Kind = "worker_shutdown"
	KindInternal           Kind = "internal"
)

// Error is the error type returned by every core operation.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a *Error that wraps cause, following the fmt.Errorf("%w", ...) idiom
// the rest of the store layer uses, but keeping Kind addressable via errors.As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for errors
// that did not originate from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind to the status code the control surface reports.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInvalidSchedule, KindInvalidCron, KindScheduledInPast:
		return http.StatusBadRequest
	case KindForbiddenTransition, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
