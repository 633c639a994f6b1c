// Package chonkiterr defines the flat typed error kind shared across the
// core services. Errors carry a Kind, a message, and an optional wrapped
// cause; callers match on Kind with Is rather than on concrete error types.
package chonkiterr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of mapping it to an external
// status. It is intentionally flat — no kind wraps another kind.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindDoesNotExist          Kind = "does_not_exist"
	KindAlreadyExists         Kind = "already_exists"
	KindInvalidProvider       Kind = "invalid_provider"
	KindInvalidEmbeddingModel Kind = "invalid_embedding_model"
	KindInvalidFileName       Kind = "invalid_file_name"
	KindUnsupportedFileType   Kind = "unsupported_file_type"
	KindChunks                Kind = "chunks"
	KindEmbedding             Kind = "embedding"
	KindBatch                 Kind = "batch"
	KindInfra                 Kind = "infra"
)

// Error is the concrete error type every core package returns.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func DoesNotExist(format string, args ...any) *Error {
	return New(KindDoesNotExist, format, args...)
}

func AlreadyExists(format string, args ...any) *Error {
	return New(KindAlreadyExists, format, args...)
}

func InvalidProvider(format string, args ...any) *Error {
	return New(KindInvalidProvider, format, args...)
}

func InvalidEmbeddingModel(format string, args ...any) *Error {
	return New(KindInvalidEmbeddingModel, format, args...)
}

func InvalidFileName(format string, args ...any) *Error {
	return New(KindInvalidFileName, format, args...)
}

func UnsupportedFileType(format string, args ...any) *Error {
	return New(KindUnsupportedFileType, format, args...)
}

func Chunks(format string, args ...any) *Error {
	return New(KindChunks, format, args...)
}

func Embedding(format string, args ...any) *Error {
	return New(KindEmbedding, format, args...)
}

func Batch(format string, args ...any) *Error {
	return New(KindBatch, format, args...)
}

// Infra wraps an infrastructure-layer cause (sqlx/io/http/vector-backend
// errors) that doesn't otherwise fit a domain kind.
func Infra(cause error, format string, args ...any) *Error {
	return Wrap(KindInfra, cause, format, args...)
}
