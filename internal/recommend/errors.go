package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// PreconditionError means the request cannot be served with the data at hand.
// It is never retried and never triggers the heuristic fallback.
type PreconditionError struct {
	Code MessageCode
}

func (e *PreconditionError) Error() string {
	return "recommendations unavailable: " + strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
}

var (
	ErrProfileNotFound   = &PreconditionError{Code: MessageProfileNotFound}
	ErrProfileIncomplete = &PreconditionError{Code: MessageProfileIncomplete}
)

type TransientKind int

const (
	AIUnavailable TransientKind = iota
	AIRequestFailed
	AIResponseInvalid
)

func (k TransientKind) String() string {
	switch k {
	case AIUnavailable:
		return "ai unavailable"
	case AIRequestFailed:
		return "ai request failed"
	case AIResponseInvalid:
		return "ai response invalid"
	default:
		return fmt.Sprintf("transient(%d)", int(k))
	}
}

// TransientError is a failure of the external AI provider. The orchestrator
// recovers from it by falling back to the heuristic ranker.
type TransientError struct {
	Kind TransientKind
	Err  error
}

func NewTransient(kind TransientKind, err error) *TransientError {
	return &TransientError{Kind: kind, Err: err}
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassPrecondition
	ClassTransient
	ClassUnexpected
)

// Classify sorts err into one of the error classes the orchestrator branches on.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var pre *PreconditionError
	if errors.As(err, &pre) {
		return ClassPrecondition
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return ClassTransient
	}

	return ClassUnexpected
}

// CodeFor returns the message code a caller should report for err.
func CodeFor(err error) MessageCode {
	var pre *PreconditionError
	if errors.As(err, &pre) {
		return pre.Code
	}
	if err == nil {
		return MessageSuccess
	}
	return MessageError
}
