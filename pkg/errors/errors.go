// Package errors provides structured error handling for Tabula
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
	// ErrorTypeFormat represents a violation of a dialect's fixed structure
	ErrorTypeFormat ErrorType = "format"
	// ErrorTypeRowLength represents a data row whose field count does not match the columns
	ErrorTypeRowLength ErrorType = "row_length"
	// ErrorTypeConversion represents a value that cannot be stored in the requested type
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeNotFound represents resource not found errors
	ErrorTypeNotFound ErrorType = "not_found"
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

// Detail returns a detail value, or nil when absent
func (e *Error) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
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

// NewFormatError reports a structural violation of a dialect contract.
// line is the offending line content and may be empty when the line is absent.
func NewFormatError(message, line string) *Error {
	e := &Error{
		Type:    ErrorTypeFormat,
		Message: message,
		Stack:   captureStack(2),
	}
	if line != "" {
		e.WithDetail("line", line)
	}
	return e
}

// NewRowLengthError reports a data row with the wrong number of fields.
// lineNumber is the 1-based physical line number.
func NewRowLengthError(lineNumber, expected, actual int, line string) *Error {
	e := &Error{
		Type: ErrorTypeRowLength,
		Message: fmt.Sprintf("line %d has %d fields, expected %d",
			lineNumber, actual, expected),
		Stack: captureStack(2),
	}
	return e.WithDetail("line_number", lineNumber).
		WithDetail("expected", expected).
		WithDetail("actual", actual).
		WithDetail("line", line)
}

// NewConversionError reports a value that cannot be represented in the target type
func NewConversionError(column, value, target string) *Error {
	e := &Error{
		Type:    ErrorTypeConversion,
		Message: fmt.Sprintf("column %q: cannot convert %q to %s", column, value, target),
		Stack:   captureStack(2),
	}
	return e.WithDetail("column", column).
		WithDetail("value", value).
		WithDetail("target", target)
}

// NewConfigError reports an invalid reader or pipeline configuration
func NewConfigError(message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Message: message,
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

// IsFormatError reports whether err is a FormatError
func IsFormatError(err error) bool { return IsType(err, ErrorTypeFormat) }

// IsRowLengthError reports whether err is a RowLengthError
func IsRowLengthError(err error) bool { return IsType(err, ErrorTypeRowLength) }

// IsConversionError reports whether err is a ConversionError
func IsConversionError(err error) bool { return IsType(err, ErrorTypeConversion) }

// IsConfigError reports whether err is a configuration error
func IsConfigError(err error) bool { return IsType(err, ErrorTypeConfig) }

// As is a re-export of the standard library errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a re-export of the standard library errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
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
