package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind tags a forge error with how callers should react to it
type Kind int

const (
	// KindTransport covers network, HTTP, auth and rate-limit failures
	KindTransport Kind = iota
	// KindData covers malformed or incomplete forge responses
	KindData
	// KindNotFound is returned when an expected resource does not exist
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindNotFound:
		return "not found"
	default:
		return "transport"
	}
}

// Error is returned by every forge call
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a forge error, KindTransport for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// IsData reports whether err is a malformed response error
func IsData(err error) bool {
	return err != nil && KindOf(err) == KindData
}

// IsNotFound reports whether err means the resource does not exist
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

func dataError(op string, format string, args ...interface{}) error {
	return &Error{Kind: KindData, Op: op, Err: fmt.Errorf(format, args...)}
}

// wrap tags an error coming back from the underlying client
func wrap(op string, err error) error {
	var (
		parseErr  *time.ParseError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &parseErr) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindData, Op: op, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
