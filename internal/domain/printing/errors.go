package printing

import (
	"fmt"

	"github.com/labelprint/labelprint/internal/domain/shared"
)

// Error codes of the printing context
const (
	CodeNoPaperSelected    = "NO_PAPER_SELECTED"
	CodeCaptureFailed      = "CAPTURE_FAILED"
	CodeSubmissionFailed   = "SUBMISSION_FAILED"
	CodeCatalogFetchFailed = "CATALOG_FETCH_FAILED"
	CodePrintInProgress    = "PRINT_IN_PROGRESS"
	CodeInvalidPaper       = "INVALID_PAPER"
	CodeInvalidPrinter     = "INVALID_PRINTER"
)

// Sentinel errors, compared with errors.Is by code
var (
	ErrNoPaperSelected    = shared.NewDomainError(CodeNoPaperSelected, "no paper dimension, please select a paper")
	ErrCaptureFailed      = shared.NewDomainError(CodeCaptureFailed, "could not capture the label image")
	ErrSubmissionFailed   = shared.NewDomainError(CodeSubmissionFailed, "print submission failed")
	ErrCatalogFetchFailed = shared.NewDomainError(CodeCatalogFetchFailed, "could not fetch printers")
	ErrPrintInProgress    = shared.NewDomainError(CodePrintInProgress, "a print job is already in progress")
	ErrInvalidPaperShape  = shared.NewDomainError(CodeInvalidPaper, "invalid paper shape")
)

// SubmissionError describes a print backend rejection or transport failure.
// Message is the best available human readable text.
type SubmissionError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("print submission failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "print submission failed: " + e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// Is makes SubmissionError match ErrSubmissionFailed
func (e *SubmissionError) Is(target error) bool {
	t, ok := target.(*shared.DomainError)
	return ok && t.Code == CodeSubmissionFailed
}

// NewCaptureError wraps a capture cause into a CAPTURE_FAILED domain error
func NewCaptureError(cause error) error {
	return shared.WrapDomainError(CodeCaptureFailed, "could not capture the label image", cause)
}
