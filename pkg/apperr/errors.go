// Package apperr holds the error kinds surfaced by the services. NotFound also covers
// entities outside the caller's ownership scope.
package apperr

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidInput:
		return "invalid input"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func NotFound(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)})
}

func InvalidInput(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)})
}

func Conflict(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)})
}

// KindOf reports the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the public message for typed errors and a generic one otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}

// CheckID rejects ids that are not UUIDs; name goes into the message ("course", "lesson").
func CheckID(name, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return InvalidInput("invalid %s id", name)
	}
	return nil
}
