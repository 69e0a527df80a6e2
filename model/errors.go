package model

import (
	"errors"
	"fmt"
)

// ErrThrottled marks provider rate-limit failures. It is the only error
// class the gateway retries; strategies wrap 429-style responses with it.
var ErrThrottled = errors.New("model provider throttled")

// ConfigurationError reports an invalid parameter or an unknown model,
// detected before any provider call.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InvocationError reports a provider call that failed after the recorded
// number of attempts. It wraps the underlying provider error.
type InvocationError struct {
	ModelID  string
	Attempts int
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("model %s: invocation failed after %d attempt(s): %v", e.ModelID, e.Attempts, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ResponseParsingError reports a provider response that could not be
// turned into a normalized Response, including malformed JSON inside a
// declared tool_call envelope.
type ResponseParsingError struct {
	Message string
	Err     error
}

func (e *ResponseParsingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model response: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("parse model response: %s", e.Message)
}

func (e *ResponseParsingError) Unwrap() error { return e.Err }

func fmtFloatRange(got float64) string {
	return fmt.Sprintf("must be between 0.0 and 1.0, got %g", got)
}

func fmtTokenCeiling(got, ceiling int, modelID string) string {
	return fmt.Sprintf("%d exceeds the limit of %d for model %s", got, ceiling, modelID)
}
