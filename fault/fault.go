package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one outcome of the closed error taxonomy.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Validation
	Forbidden
	Conflict
	Unauthorized
	ServiceUnavailable
)

var kindInfo = map[Kind]struct {
	name   string
	status int
	code   string
}{
	Internal:           {"internal", http.StatusInternalServerError, "INTERNAL_ERROR"},
	NotFound:           {"not_found", http.StatusNotFound, "NOT_FOUND"},
	Validation:         {"validation", http.StatusBadRequest, "VALIDATION_ERROR"},
	Forbidden:          {"forbidden", http.StatusForbidden, "FORBIDDEN"},
	Conflict:           {"conflict", http.StatusConflict, "CONFLICT"},
	Unauthorized:       {"unauthorized", http.StatusUnauthorized, "UNAUTHORIZED"},
	ServiceUnavailable: {"service_unavailable", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code of the kind.
func (k Kind) Status() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Code returns the stable machine readable code of the kind.
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return kindInfo[Internal].code
}

// Retryable reports whether the same request may succeed later.
func (k Kind) Retryable() bool { return k == ServiceUnavailable }

// Error is a classified error.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// New returns a classified error with the given detail.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies err as kind, keeping it as the cause.
func Wrap(kind Kind, err error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code of the error.
func (e *Error) Status() int { return e.Kind.Status() }

// Retryable reports whether the request may be retried.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// PublicDetail returns the detail safe to show a caller. In production the detail of
// internal and unavailable errors is replaced by a generic description.
func (e *Error) PublicDetail(production bool) string {
	if !production {
		return e.Error()
	}
	switch e.Kind {
	case Internal:
		return "Internal server error"
	case ServiceUnavailable:
		return "Service temporarily unavailable, please retry later"
	}
	return e.Error()
}

// KindOf returns the kind of a classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return Internal, false
}
