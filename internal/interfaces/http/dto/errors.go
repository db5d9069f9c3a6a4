package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"
)

// Printing error codes
const (
	// ErrCodeInvalidImage is used when the uploaded label cannot be decoded
	ErrCodeInvalidImage = "ERR_INVALID_IMAGE"
	// ErrCodeInvalidPrinter is used for malformed printer names
	ErrCodeInvalidPrinter = "ERR_INVALID_PRINTER"
	// ErrCodeInvalidPaper is used for malformed paper definitions
	ErrCodeInvalidPaper = "ERR_INVALID_PAPER"
	// ErrCodeInvalidDimensions is used for negative label sizes
	ErrCodeInvalidDimensions = "ERR_INVALID_DIMENSIONS"
	// ErrCodePrinterBusy is used when the device stays locked by another job
	ErrCodePrinterBusy = "ERR_PRINTER_BUSY"
	// ErrCodePrintFailed is used when the device rejects the label
	ErrCodePrintFailed = "ERR_PRINT_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,

	ErrCodeInvalidImage:      http.StatusBadRequest,
	ErrCodeInvalidPrinter:    http.StatusBadRequest,
	ErrCodeInvalidPaper:      http.StatusBadRequest,
	ErrCodeInvalidDimensions: http.StatusBadRequest,
	ErrCodePrinterBusy:       http.StatusServiceUnavailable,
	ErrCodePrintFailed:       http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"ALREADY_EXISTS":     ErrCodeAlreadyExists,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"INVALID_STATE":      ErrCodeInvalidState,
	"INVALID_IMAGE":      ErrCodeInvalidImage,
	"INVALID_PRINTER":    ErrCodeInvalidPrinter,
	"INVALID_PAPER":      ErrCodeInvalidPaper,
	"INVALID_DIMENSIONS": ErrCodeInvalidDimensions,
	"PRINTER_BUSY":       ErrCodePrinterBusy,
	"PRINT_FAILED":       ErrCodePrintFailed,
	"REQUEST_TOO_LARGE":  ErrCodeRequestTooLarge,
	"INTERNAL_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes that are already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
