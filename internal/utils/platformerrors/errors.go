package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// getRequestIDFromContext extracts request ID from context
func getRequestIDFromContext(ctx context.Context) string {
	val := ctx.Value("requestID")
	if requestID, ok := val.(string); ok {
		return requestID
	}
	return ""
}

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfiguration marks a backend that was constructed with
	// missing or invalid settings. Fatal at startup.
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"
	// ErrorTypeUnsupportedBackend marks a storage type tag with no
	// registered constructor.
	ErrorTypeUnsupportedBackend ErrorType = "UNSUPPORTED_BACKEND"
	// ErrorTypeTransfer marks an upload/delete/stat I/O failure against
	// the storage backend, including timeouts.
	ErrorTypeTransfer ErrorType = "TRANSFER"
	// ErrorTypeSigning marks a presigned-URL generation failure.
	ErrorTypeSigning ErrorType = "SIGNING"
	// ErrorTypeNotFound covers both a missing record and an ownership
	// mismatch; callers cannot tell the two apart.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeInvalidState marks an operation against a file that is
	// expired or deleted.
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"
	// ErrorTypeDuplicateID marks a file ID collision on insert. Should be
	// unreachable with random 128-bit IDs.
	ErrorTypeDuplicateID ErrorType = "DUPLICATE_ID"

	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeDatabaseError ErrorType = "DATABASE_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerRoute          Layer = "route"
	LayerInfrastructure Layer = "infrastructure"
	LayerCommon         Layer = "common"
)

// PlatformError represents an error with context and metadata
type PlatformError struct {
	UUID      string
	Type      ErrorType
	Message   string
	Err       error
	Context   map[string]any
	RequestID string
	Layer     Layer
	Timestamp time.Time
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s][%s] %s: %v", e.Layer, e.Type, e.UUID, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s][%s] %s", e.Layer, e.Type, e.UUID, e.Message)
}

// Unwrap returns the underlying error
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the error type
func (e *PlatformError) GetErrorType() ErrorType {
	return e.Type
}

// GetRequestID returns the request ID
func (e *PlatformError) GetRequestID() string {
	return e.RequestID
}

// GetUUID returns the error UUID
func (e *PlatformError) GetUUID() string {
	return e.UUID
}

// NewError creates a new PlatformError with the specified parameters
func NewError(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, customUUID string) *PlatformError {
	return NewErrorWithContext(ctx, layer, errorType, message, err, customUUID, nil)
}

// NewErrorWithContext creates a new PlatformError with additional context fields
func NewErrorWithContext(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, customUUID string, contextFields map[string]any) *PlatformError {
	requestID := getRequestIDFromContext(ctx)

	errorUUID := customUUID
	if errorUUID == "" {
		errorUUID = "auto-generated-uuid"
	}

	errorContext := make(map[string]any)
	for k, v := range contextFields {
		errorContext[k] = v
	}

	return &PlatformError{
		UUID:      errorUUID,
		Type:      errorType,
		Message:   message,
		Err:       err,
		RequestID: requestID,
		Layer:     layer,
		Timestamp: time.Now().UTC(),
		Context:   errorContext,
	}
}

// IsType reports whether err is (or wraps) a PlatformError of the given type.
func IsType(err error, errorType ErrorType) bool {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type of err, or ErrorTypeInternal for plain errors.
func TypeOf(err error) ErrorType {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type
	}
	return ErrorTypeInternal
}
