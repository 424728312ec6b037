package service

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInternal covers failures with no better category, including a
	// provider call that could not be made at all.
	KindInternal Kind = iota
	KindConfig
	KindValidation
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by the send and disconnect paths.
// Details carries the provider response for upstream failures.
type Error struct {
	Kind    Kind
	Msg     string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func configError(msg string) error {
	return &Error{Kind: KindConfig, Msg: msg}
}

func validationError(msg string, err error) error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

func invalidPayload(err error) error {
	return &Error{Kind: KindValidation, Msg: "invalid payload", Details: err.Error(), Err: err}
}

func notFoundError(msg string, err error) error {
	return &Error{Kind: KindNotFound, Msg: msg, Err: err}
}

func upstreamError(msg string, details any) error {
	return &Error{Kind: KindUpstream, Msg: msg, Details: details}
}

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
