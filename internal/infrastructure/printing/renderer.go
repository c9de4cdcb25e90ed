package printing

import (
	"context"
	"errors"
	"time"
)

// ErrPDFUnavailable is returned when no PDF renderer is configured
var ErrPDFUnavailable = errors.New("printing: pdf rendering is not configured")

// Paper widths in millimeters
const (
	PaperWidthA4        = 210.0
	PaperHeightA4       = 297.0
	PaperWidthReceipt80 = 80.0
	PaperWidthReceipt58 = 58.0
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML  string
	Title string
	// PaperWidthMM selects the paper; 0 means A4. Widths below A4 are
	// treated as continuous receipt rolls.
	PaperWidthMM float64
	// MarginMM applies to all four sides
	MarginMM float64
	Timeout  time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// PDFRenderer converts HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
