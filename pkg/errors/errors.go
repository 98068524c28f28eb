// Package errors provides structured error handling for Argus
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfigLoad represents a missing or malformed configuration document
	ErrorTypeConfigLoad ErrorType = "config_load"
	// ErrorTypeUnknownOption represents an override key absent from the defaults
	ErrorTypeUnknownOption ErrorType = "unknown_option"
	// ErrorTypeSyntax represents a malformed or unrecognized CLI token
	ErrorTypeSyntax ErrorType = "syntax"
	// ErrorTypeUnrecognizedTask represents a head label or task string outside the known task set
	ErrorTypeUnrecognizedTask ErrorType = "unrecognized_task"
	// ErrorTypeUnsupportedTask represents a task missing from the operation tables
	ErrorTypeUnsupportedTask ErrorType = "unsupported_task"
	// ErrorTypeInvalidMode represents a mode with no operation mapping
	ErrorTypeInvalidMode ErrorType = "invalid_mode"
	// ErrorTypeNotInitialized represents an operation requested before a model is bound
	ErrorTypeNotInitialized ErrorType = "not_initialized"
	// ErrorTypeMissingDataset represents training requested without a dataset option
	ErrorTypeMissingDataset ErrorType = "missing_dataset"
	// ErrorTypeMissingOption represents an operation requested without a required option
	ErrorTypeMissingOption ErrorType = "missing_option"
	// ErrorTypeCheckpoint represents checkpoint read/write failures
	ErrorTypeCheckpoint ErrorType = "checkpoint"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the error type, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
