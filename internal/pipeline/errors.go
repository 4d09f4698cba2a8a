package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a stage failure.
type ErrorKind string

const (
	KindAuth               ErrorKind = "AuthError"
	KindNotFound           ErrorKind = "NotFoundError"
	KindNetwork            ErrorKind = "NetworkError"
	KindBackendUnavailable ErrorKind = "BackendUnavailable"
	KindTimeout            ErrorKind = "TimeoutError"
	KindValidation         ErrorKind = "ValidationError"
	KindCollaborator       ErrorKind = "CollaboratorError"
)

// Error is the failure half of a stage Result.
//
// Collaborators either return an *Error directly (see Failure) or wrap one of
// the kind sentinels below with %w; the pipeline recovers the kind with
// errors.As/errors.Is.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports kind equality so that errors.Is(err, ErrNotFound) matches any
// *Error of kind NotFoundError anywhere in the chain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrAuth               = &Error{Kind: KindAuth, Message: "authentication failed"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrNetwork            = &Error{Kind: KindNetwork, Message: "network error"}
	ErrBackendUnavailable = &Error{Kind: KindBackendUnavailable, Message: "model backend unavailable"}
	ErrTimeout            = &Error{Kind: KindTimeout, Message: "timed out"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrCollaborator       = &Error{Kind: KindCollaborator, Message: "collaborator error"}
)

// Precondition errors. These are the only errors Run returns.
var (
	ErrEmptyRepositoryURL = errors.New("pipeline: repository url is required")
	ErrNoStages           = errors.New("pipeline: at least one stage is required")
	ErrDuplicateStage     = errors.New("pipeline: duplicate stage name")
)

// Failure builds a stage failure of the given kind.
func Failure(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind carried by err, or KindCollaborator when err
// carries none. A nil error has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e != nil && e.Kind != "" {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindCollaborator
}

// AsError converts any error into an *Error, keeping the outermost message so
// the wrapping context survives into the report.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e == err {
		return e
	}
	return &Error{Kind: KindOf(err), Message: err.Error()}
}
