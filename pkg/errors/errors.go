package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"

	// Configuration errors
	ErrConfigLoad          ErrorCode = "CONFIG_LOAD"
	ErrConfigInvalid       ErrorCode = "CONFIG_INVALID"
	ErrUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM"
	ErrNoPackageManager    ErrorCode = "NO_PACKAGE_MANAGER"
	ErrNoCompatibleShell   ErrorCode = "NO_COMPATIBLE_SHELL"

	// Dependency errors
	ErrMissingCompiler ErrorCode = "MISSING_COMPILER"

	// Sequence errors
	ErrPreconditionNotMet ErrorCode = "PRECONDITION_NOT_MET"
	ErrSubprocessFailure  ErrorCode = "SUBPROCESS_FAILURE"
)

// Class groups error codes into the categories an operator sees.
type Class string

const (
	ClassUnknown       Class = "Error"
	ClassConfiguration Class = "ConfigurationError"
	ClassDependency    Class = "MissingDependency"
	ClassPrecondition  Class = "PreconditionNotMet"
	ClassSubprocess    Class = "SubprocessFailure"
)

var codeClasses = map[ErrorCode]Class{
	ErrConfigLoad:          ClassConfiguration,
	ErrConfigInvalid:       ClassConfiguration,
	ErrUnsupportedPlatform: ClassConfiguration,
	ErrNoPackageManager:    ClassConfiguration,
	ErrNoCompatibleShell:   ClassConfiguration,
	ErrMissingCompiler:     ClassDependency,
	ErrPreconditionNotMet:  ClassPrecondition,
	ErrSubprocessFailure:   ClassSubprocess,
}

// HeaError represents a structured error with code and details
type HeaError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *HeaError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *HeaError) Unwrap() error {
	return e.Wrapped
}

// Is matches on error code so sentinel values can be compared with errors.Is
func (e *HeaError) Is(target error) bool {
	var targetErr *HeaError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new HeaError with the given code and message
func New(code ErrorCode, message string) *HeaError {
	return &HeaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new HeaError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *HeaError {
	return &HeaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a HeaError
func Wrap(err error, code ErrorCode, message string) *HeaError {
	if err == nil {
		return nil
	}
	return &HeaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *HeaError {
	if err == nil {
		return nil
	}
	return &HeaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *HeaError) WithDetail(key string, value interface{}) *HeaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var heaErr *HeaError
	if errors.As(err, &heaErr) {
		return heaErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a HeaError
func GetErrorCode(err error) ErrorCode {
	var heaErr *HeaError
	if errors.As(err, &heaErr) {
		return heaErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a HeaError
func GetErrorDetails(err error) map[string]interface{} {
	var heaErr *HeaError
	if errors.As(err, &heaErr) {
		return heaErr.Details
	}
	return nil
}

// ClassOf returns the operator-facing class of an error.
func ClassOf(err error) Class {
	if c, ok := codeClasses[GetErrorCode(err)]; ok {
		return c
	}
	return ClassUnknown
}

// IsFatalPreRun reports whether err must stop the program before any
// subprocess is launched.
func IsFatalPreRun(err error) bool {
	switch ClassOf(err) {
	case ClassConfiguration, ClassDependency:
		return !IsErrorCode(err, ErrNoCompatibleShell)
	}
	return false
}
