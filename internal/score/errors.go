package score

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a submission failure.
type Kind int

const (
	// KindUnknown is the zero value and is never returned by this package.
	KindUnknown Kind = iota
	// KindValidation means required fields were missing or malformed; no request was made.
	KindValidation
	// KindInvalidAddress is the backend rejecting the address (HTTP 422).
	KindInvalidAddress
	// KindNotFound is the backend not knowing the address (HTTP 404).
	KindNotFound
	// KindUpstream covers every other non-2xx status and undecodable bodies.
	KindUpstream
	// KindTransport means the backend could not be reached.
	KindTransport
)

// User-facing messages. Backend detail text is never shown to users.
const (
	MsgInvalidAddress = "Invalid address. Please check the address details and try again."
	MsgNotFound       = "Address not found. Please verify the address and try again."
	MsgFailed         = "Failed to fetch the light score. Please try again later."
)

// ErrSuperseded is returned by Submitter.Submit when a newer submission started
// before this one finished. The superseded result is discarded.
var ErrSuperseded = errors.New("light score request superseded by a newer submission")

// Error is a classified submission failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string   // safe to show to users
	Status  int      // HTTP status from the backend, 0 when no response was received
	Detail  string   // backend supplied detail, for logs only
	Fields  []string // missing or invalid fields for KindValidation
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s (status %d: %s)", e.Message, e.Status, e.Detail)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status an API should answer with for this failure.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidAddress:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// classifyStatus maps a non-2xx backend status to an Error.
func classifyStatus(status int, detail string) *Error {
	e := &Error{Status: status, Detail: detail}

	switch status {
	case http.StatusUnprocessableEntity:
		e.Kind, e.Message = KindInvalidAddress, MsgInvalidAddress
	case http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	default:
		e.Kind, e.Message = KindUpstream, MsgFailed
	}

	return e
}
