package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

type Kind string

const (
	KindNotFound              Kind = "not_found"
	KindRepositoryUnavailable Kind = "repository_unavailable"
	KindDuplicateMatch        Kind = "duplicate_match"
	KindInvalidTransition     Kind = "invalid_transition"
	KindInProgress            Kind = "in_progress"
	KindInvalidInput          Kind = "invalid_input"
)

var statusByKind = map[Kind]int{
	KindNotFound:              http.StatusNotFound,
	KindRepositoryUnavailable: http.StatusServiceUnavailable,
	KindDuplicateMatch:        http.StatusConflict,
	KindInvalidTransition:     http.StatusUnprocessableEntity,
	KindInProgress:            http.StatusConflict,
	KindInvalidInput:          http.StatusBadRequest,
}

// MatchError is the error type returned by repositories and services.
type MatchError struct {
	Kind    Kind
	Message string
	Meta    map[string]any
	Err     error
}

func newError(kind Kind, err error, format string, args ...any) *MatchError {
	return &MatchError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func NotFound(format string, args ...any) *MatchError {
	return newError(KindNotFound, nil, format, args...)
}

// Unavailable wraps a storage failure. err is kept for logs, never shown to callers.
func Unavailable(err error, format string, args ...any) *MatchError {
	return newError(KindRepositoryUnavailable, err, format, args...)
}

func DuplicateMatch(entityID, investorID string) *MatchError {
	return newError(KindDuplicateMatch, nil, "a match between entity %s and investor %s already exists", entityID, investorID).
		AddMeta("entity_id", entityID).
		AddMeta("investor_id", investorID)
}

func InvalidTransition(from, to string) *MatchError {
	return newError(KindInvalidTransition, nil, "cannot move a match from %s to %s", from, to).
		AddMeta("from", from).
		AddMeta("to", to)
}

func InProgress(format string, args ...any) *MatchError {
	return newError(KindInProgress, nil, format, args...)
}

func Invalid(format string, args ...any) *MatchError {
	return newError(KindInvalidInput, nil, format, args...)
}

func (e *MatchError) Error() string {
	return e.Message
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// Is matches any *MatchError of the same kind, so sentinel-style checks work.
func (e *MatchError) Is(target error) bool {
	t, ok := target.(*MatchError)
	return ok && t.Kind == e.Kind
}

func (e *MatchError) AddMeta(key string, value any) *MatchError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = value
	return e
}

func (e *MatchError) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (e *MatchError) ToHTTPError() *httperror.HTTPError {
	message := e.Message
	if e.Kind == KindRepositoryUnavailable {
		message = "could not load matches, retry"
	}
	httpErr := httperror.NewHTTPError(e.StatusCode(), message).AddMetaValue("kind", string(e.Kind))
	for k, v := range e.Meta {
		httpErr = httpErr.AddMetaValue(k, v)
	}
	return httpErr
}

// KindOf returns the kind of the first MatchError in err's chain.
func KindOf(err error) (Kind, bool) {
	var matchErr *MatchError
	if stderrors.As(err, &matchErr) {
		return matchErr.Kind, true
	}
	return "", false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsNotFound(err error) bool              { return is(err, KindNotFound) }
func IsRepositoryUnavailable(err error) bool { return is(err, KindRepositoryUnavailable) }
func IsDuplicate(err error) bool             { return is(err, KindDuplicateMatch) }
func IsInvalidTransition(err error) bool     { return is(err, KindInvalidTransition) }
func IsInProgress(err error) bool            { return is(err, KindInProgress) }
func IsInvalid(err error) bool               { return is(err, KindInvalidInput) }

// AsHTTPError converts err for the echo error handler. ok is false for errors
// outside the taxonomy.
func AsHTTPError(err error) (*httperror.HTTPError, bool) {
	var matchErr *MatchError
	if stderrors.As(err, &matchErr) {
		return matchErr.ToHTTPError(), true
	}
	return nil, false
}
