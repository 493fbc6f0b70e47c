// Package apperr defines the broker's error taxonomy and its mapping to
// HTTP responses, per spec.md §7. Every handler returns a *Error (or a
// wrapped stdlib error for cases apperr has no opinion about); the HTTP
// boundary is the only place that inspects Kind and decides status/body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindMissingAuthCode
	KindFailedConnectGithubAPI
	KindUserRoomIsNotOpen
	KindInvalidSessionToken
	KindRequiredSessionToken
	KindFailedParseRequestBody
	KindFailedRecvGitResponse
	KindFailedParseGitResponse
	KindStoreIO
	KindRoomAlreadyOpen
)

var messages = map[Kind]string{
	KindMissingAuthCode:        "missing auth code",
	KindFailedConnectGithubAPI: "failed to connect to GitHub",
	KindUserRoomIsNotOpen:      "user room is not open",
	KindInvalidSessionToken:    "invalid session token",
	KindRequiredSessionToken:   "session token required",
	KindFailedParseRequestBody: "failed to parse request body",
	KindFailedRecvGitResponse:  "failed to receive git response",
	KindFailedParseGitResponse: "failed to parse git response",
	KindStoreIO:                "internal server error",
	KindRoomAlreadyOpen:        "room already open",
}

var statuses = map[Kind]int{
	KindMissingAuthCode:        http.StatusBadRequest,
	KindFailedConnectGithubAPI: http.StatusInternalServerError,
	KindUserRoomIsNotOpen:      http.StatusNotFound,
	KindInvalidSessionToken:    http.StatusUnauthorized,
	KindRequiredSessionToken:   http.StatusUnauthorized,
	KindFailedParseRequestBody: http.StatusBadRequest,
	KindFailedRecvGitResponse:  http.StatusBadRequest,
	KindFailedParseGitResponse: http.StatusInternalServerError,
	KindStoreIO:                http.StatusInternalServerError,
	KindRoomAlreadyOpen:        http.StatusConflict,
}

// Error wraps a Kind with the underlying cause, kept for logging but never
// surfaced to the caller when the Kind maps to an internal error.
type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func StoreIO(cause error) *Error {
	return &Error{Kind: KindStoreIO, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", messages[e.Kind], e.Cause)
	}
	return messages[e.Kind]
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status code this Kind maps to.
func (e *Error) Status() int {
	if status, ok := statuses[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Body returns the text that is safe to send to the client: the Kind's
// message verbatim for client-error kinds, a generic message for internal
// ones (whose Cause belongs in the log, not the response).
func (e *Error) Body() string {
	switch e.Kind {
	case KindFailedConnectGithubAPI, KindFailedParseGitResponse, KindStoreIO, KindUnknown:
		return "internal server error"
	default:
		return messages[e.Kind]
	}
}

// Loggable reports whether this Kind's cause should be logged with its
// source at the HTTP boundary (internal-server-error kinds, per spec.md §7).
func (e *Error) Loggable() bool {
	switch e.Kind {
	case KindFailedConnectGithubAPI, KindFailedParseGitResponse, KindStoreIO:
		return true
	default:
		return false
	}
}

// As is a thin convenience wrapper over errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// WriteHTTP transforms err into an HTTP response at the boundary, logging
// internal-kind causes via the supplied log function.
func WriteHTTP(w http.ResponseWriter, err error, logf func(format string, args ...any)) {
	appErr, ok := As(err)
	if !ok {
		if logf != nil {
			logf("unmapped error: %v", err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if appErr.Loggable() && logf != nil {
		logf("%s", appErr.Error())
	}
	http.Error(w, appErr.Body(), appErr.Status())
}
