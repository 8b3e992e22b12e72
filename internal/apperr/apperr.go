// Package apperr defines the error taxonomy surfaced to callers. Every
// caller-visible failure carries a machine-checkable Code.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-checkable error identifier.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeNotFound     Code = "not_found"
	CodeStore        Code = "store_error"
	CodePartialBatch Code = "partial_batch_failure"
	CodeBatchFailed  Code = "batch_failed"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is an application error with a code, the operation that failed and
// an optional wrapped cause.
type Error struct {
	Code    Code
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input rejected before any state was touched.
func Validation(op, msg string) *Error {
	return &Error{Code: CodeValidation, Op: op, Message: msg}
}

// Validationf is Validation with a wrapped cause.
func Validationf(op string, err error) *Error {
	return &Error{Code: CodeValidation, Op: op, Err: err}
}

// NotFound reports an absent entity or one the caller does not own.
func NotFound(op, msg string) *Error {
	return &Error{Code: CodeNotFound, Op: op, Message: msg}
}

// Store reports a persistence failure on the critical path.
func Store(op string, err error) *Error {
	return &Error{Code: CodeStore, Op: op, Err: err}
}

// Conflict reports a write that lost an optimistic concurrency race too many times.
func Conflict(op string, err error) *Error {
	return &Error{Code: CodeConflict, Op: op, Err: err}
}

// PartialBatch reports that some, but not all, batch items failed.
func PartialBatch(op string, failed, total int) *Error {
	return &Error{
		Code:    CodePartialBatch,
		Op:      op,
		Message: fmt.Sprintf("%d of %d items failed", failed, total),
	}
}

// BatchFailed reports that every batch item failed. The error carries the
// items' code when they all agree and CodeBatchFailed when they differ.
func BatchFailed(op string, codes []Code) *Error {
	code := CodeBatchFailed
	for i, c := range codes {
		if i == 0 {
			code = c
			continue
		}
		if c != code {
			code = CodeBatchFailed
			break
		}
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf("all %d items failed", len(codes)),
	}
}

// Unauthorized reports a request without a resolvable owner.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// CodeOf extracts the Code of err, looking through wrapping. Errors that are
// not *Error map to CodeInternal; nil maps to "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
