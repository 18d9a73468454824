package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind tags a pipeline failure with the failing stage's error
// class. Kinds are part of the API surface: both adapters report them
// to the caller verbatim.
type ErrorKind string

const (
	ErrInvalidIntent          ErrorKind = "InvalidIntent"
	ErrUnsupportedLanguage    ErrorKind = "UnsupportedLanguage"
	ErrUserBusy               ErrorKind = "UserBusy"
	ErrGenerationTimeout      ErrorKind = "GenerationTimeout"
	ErrGenerationRefused      ErrorKind = "GenerationRefused"
	ErrGenerationEmpty        ErrorKind = "GenerationEmpty"
	ErrSynthesisTimeout       ErrorKind = "SynthesisTimeout"
	ErrSynthesisQuotaExceeded ErrorKind = "SynthesisQuotaExceeded"
	ErrUnsupportedVoice       ErrorKind = "UnsupportedVoice"
	ErrStorageUnavailable     ErrorKind = "StorageUnavailable"
	ErrStorageQuotaExceeded   ErrorKind = "StorageQuotaExceeded"
	ErrLedgerWriteFailed      ErrorKind = "LedgerWriteFailed"
	ErrFeedRenderFailed       ErrorKind = "FeedRenderFailed"
	ErrCanceled               ErrorKind = "Canceled"
)

// StageError is a failure tagged with its error kind. Stage
// implementations return these so the manager can surface a uniform,
// tagged result without inspecting upstream error types.
type StageError struct {
	Kind ErrorKind
	Err  error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Failf builds a StageError from a format string.
func Failf(kind ErrorKind, format string, args ...interface{}) *StageError {
	return &StageError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error. A nil err yields a bare kind.
func Wrap(kind ErrorKind, err error) *StageError {
	return &StageError{Kind: kind, Err: err}
}

// KindOf extracts the error kind, or "" for untagged errors.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
