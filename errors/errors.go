// Package errors defines the single error category produced by the CRL
// decoder, with a coarse type describing what went wrong.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType provides a coarse category for DecodeErrors.
type ErrorType int

const (
	// Malformed covers correctly tagged elements whose contents are invalid,
	// e.g. a non-minimal INTEGER or an unparseable time string.
	Malformed ErrorType = iota
	// UnexpectedTag means the element at a grammar position carried the wrong
	// tag, or the input ended where an element was required.
	UnexpectedTag
	// BadLength means a declared length ran past the end of its enclosing
	// buffer, or was not a definite, minimally encoded DER length.
	BadLength
	// TrailingData means bytes remained after a structurally complete object.
	TrailingData
	// UnsupportedTime means a Time was neither UTCTime nor GeneralizedTime.
	UnsupportedTime
)

func (t ErrorType) String() string {
	switch t {
	case Malformed:
		return "malformed"
	case UnexpectedTag:
		return "unexpected tag"
	case BadLength:
		return "bad length"
	case TrailingData:
		return "trailing data"
	case UnsupportedTime:
		return "unsupported time"
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// DecodeError is returned for every structural problem found while decoding
// a CRL. Field names the grammar position, e.g. "tbsCertList.nextUpdate".
type DecodeError struct {
	Type   ErrorType
	Field  string
	Detail string
}

func (de *DecodeError) Error() string {
	return fmt.Sprintf("crl: decoding %s: %s: %s", de.Field, de.Type, de.Detail)
}

// New is a convenience function for creating a new DecodeError.
func New(errType ErrorType, field string, msg string, args ...interface{}) error {
	return &DecodeError{
		Type:   errType,
		Field:  field,
		Detail: fmt.Sprintf(msg, args...),
	}
}

// Is reports whether err wraps a DecodeError of the given type.
func Is(err error, errType ErrorType) bool {
	var de *DecodeError
	if !errors.As(err, &de) {
		return false
	}
	return de.Type == errType
}
