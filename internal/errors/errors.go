package errors

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline step an analysis failed in
type Stage string

const (
	StageValidation       Stage = "validation"
	StageImagePreparation Stage = "image_preparation"
	StageModelInvocation  Stage = "model_invocation"
	StageEmptyResponse    Stage = "empty_response"
)

// Image preparation reasons
const (
	ReasonNotFound       = "not found"
	ReasonDecodeFailure  = "decode failure"
	ReasonEncodeFailure  = "encode failure"
	ReasonFetchFailure   = "fetch failure"
	ReasonInvalidContent = "invalid content"
)

// AnalysisError represents a failed analysis request.
// Message is meant for the end user; Cause is kept for logs.
type AnalysisError struct {
	Stage   Stage  `json:"stage"`
	Mode    string `json:"mode,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	prefix := string(e.Stage)
	if e.Mode != "" {
		prefix = e.Mode + ": " + prefix
	}
	if e.Reason != "" {
		prefix += " (" + e.Reason + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// WithMode returns a copy tagged with the analysis mode and a user-facing message
func (e *AnalysisError) WithMode(mode, message string) *AnalysisError {
	tagged := *e
	tagged.Mode = mode
	if message != "" {
		tagged.Message = message
	}
	return &tagged
}

// NewValidationError creates an error for rejected gateway input
func NewValidationError(message string, cause error) *AnalysisError {
	return &AnalysisError{
		Stage:   StageValidation,
		Reason:  ReasonInvalidContent,
		Message: message,
		Cause:   cause,
	}
}

// NewImagePreparationError creates an error for input that could not be turned into a model-ready image
func NewImagePreparationError(reason string, cause error) *AnalysisError {
	return &AnalysisError{
		Stage:   StageImagePreparation,
		Reason:  reason,
		Message: "image preparation failed",
		Cause:   cause,
	}
}

// NewModelInvocationError creates an error for a failed remote model call
func NewModelInvocationError(cause error) *AnalysisError {
	return &AnalysisError{
		Stage:   StageModelInvocation,
		Message: "model invocation failed",
		Cause:   cause,
	}
}

// NewEmptyResponseError creates an error for a model call that produced no usable text
func NewEmptyResponseError() *AnalysisError {
	return &AnalysisError{
		Stage:   StageEmptyResponse,
		Message: "no result obtained",
	}
}

// StageOf extracts the failure stage from an error chain
func StageOf(err error) (Stage, bool) {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Stage, true
	}
	return "", false
}

// IsStage checks if the error failed in a specific stage
func IsStage(err error, stage Stage) bool {
	s, ok := StageOf(err)
	return ok && s == stage
}

// UserMessage returns the end-user message carried by err, or fallback
func UserMessage(err error, fallback string) string {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) && analysisErr.Message != "" {
		return analysisErr.Message
	}
	return fallback
}
