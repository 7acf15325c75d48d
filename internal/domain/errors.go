package domain

import (
	"errors"
)

// Kind classifies an Error. The zero value is KindInternal.
type Kind uint8

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUnprocessable
	KindTooManyRequests
)

var kindNames = [...]string{
	KindInternal:        "internal",
	KindBadRequest:      "bad_request",
	KindUnauthorized:    "unauthorized",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
	KindUnprocessable:   "unprocessable",
	KindTooManyRequests: "too_many_requests",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindInternal]
}

// ParseKind maps a tag such as "not_found" to its Kind. Unknown tags yield
// KindInternal.
func ParseKind(tag string) Kind {
	for k, name := range kindNames {
		if name == tag {
			return Kind(k)
		}
	}
	return KindInternal
}

// Error is a domain failure with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the message of the first *Error in err's chain.
func MessageOf(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
