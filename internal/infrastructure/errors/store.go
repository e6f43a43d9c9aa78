package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ClassifyError maps driver and standard library errors onto store error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint"):
		return ErrCodeDuplicate
	case strings.Contains(errStr, "constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "access denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "disk full"), strings.Contains(errStr, "no space left"):
		return ErrCodeDiskSpace
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapDatabaseError wraps a database error with store error context
func WrapDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(op, err, ClassifyError(err))
}

// WrapDatabaseErrorWithContext wraps a database error and attaches extra context
func WrapDatabaseErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	return NewStoreErrorWithContext(op, err, ClassifyError(err), contextMap)
}

// HandleNotFound creates a not found error for a missing settings key
func HandleNotFound(op string, resource string, identifier string) error {
	return NewStoreErrorWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleValidationError creates a validation error for a rejected value
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewStoreErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

// HandleConnectionError creates a connection error
func HandleConnectionError(op string, details string) error {
	return NewStoreErrorWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}
