// Package errors provides domain-specific errors for the deskflip application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrFolderMissing       = errors.New("profile folder does not exist")
	ErrLastProfile         = errors.New("cannot delete the last profile")
	ErrActiveProfile       = errors.New("cannot delete the active profile")
	ErrMaxProfiles         = errors.New("maximum number of profiles reached")
	ErrNoOriginalPath      = errors.New("original desktop path is unknown")
	ErrUnsupportedPlatform = errors.New("unsupported on this platform")
	ErrLastSlot            = errors.New("cannot remove the last virtual desktop")
	ErrSlotCreation        = errors.New("virtual desktop creation had no effect")
	ErrSlotOutOfRange      = errors.New("virtual desktop index out of range")
	ErrItemUnresolved      = errors.New("desktop item could not be resolved")
	ErrInvalidModifier     = errors.New("invalid hotkey modifier")
	ErrInvalidName         = errors.New("profile name must not be empty")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation  ErrorCode = "VALIDATION"
	CodeNotFound    ErrorCode = "NOT_FOUND"
	CodeConflict    ErrorCode = "CONFLICT"
	CodePlatform    ErrorCode = "PLATFORM"
	CodeUnsupported ErrorCode = "UNSUPPORTED"
	CodeStorage     ErrorCode = "STORAGE"
	CodeInternal    ErrorCode = "INTERNAL"
)

// DeskflipError wraps errors with additional context for debugging and handling.
type DeskflipError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the message and cause if present.
func (e *DeskflipError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *DeskflipError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DeskflipError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *DeskflipError {
	return &DeskflipError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
func WithContext(err *DeskflipError, key string, value interface{}) *DeskflipError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// sentinelCodes maps sentinels to the code reported when no DeskflipError wraps them.
var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrProfileNotFound, CodeNotFound},
	{ErrFolderMissing, CodeNotFound},
	{ErrLastProfile, CodeConflict},
	{ErrActiveProfile, CodeConflict},
	{ErrMaxProfiles, CodeConflict},
	{ErrLastSlot, CodeConflict},
	{ErrNoOriginalPath, CodeValidation},
	{ErrSlotOutOfRange, CodeValidation},
	{ErrInvalidModifier, CodeValidation},
	{ErrInvalidName, CodeValidation},
	{ErrUnsupportedPlatform, CodeUnsupported},
	{ErrSlotCreation, CodePlatform},
	{ErrItemUnresolved, CodePlatform},
}

// CodeOf returns the code of the outermost DeskflipError in err's chain,
// falling back to the code of a known sentinel, then CodeInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var de *DeskflipError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return CodeInternal
}
