package platformerrors

import "net/http"

// ErrorTypeToHTTPStatus maps an error type to the HTTP status the route
// layer should respond with. Each user-visible category gets a distinct code.
func ErrorTypeToHTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeInvalidState:
		return http.StatusGone
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeTransfer, ErrorTypeSigning:
		return http.StatusBadGateway
	case ErrorTypeConfiguration, ErrorTypeUnsupportedBackend,
		ErrorTypeDuplicateID, ErrorTypeDatabaseError, ErrorTypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
