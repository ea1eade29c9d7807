// Package errors defines the application error type and its central handler.
package errors

import (
	"fmt"
	"strconv"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Translation keys for user-facing messages.
const (
	KeySaveFailed      = "errors.save_failed"
	KeyMenuUnavailable = "errors.menu_unavailable"
	KeyState           = "errors.state"
	KeyRateLimited     = "errors.rate_limited"
	KeyGeneric         = "errors.generic"
)

const defaultUserMessage = "Something went wrong. Please try again later."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Key         string
	Args        map[string]string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewPersistenceError reports a failure of the record store.
func NewPersistenceError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Persistence error: %s", underlyingMsg),
		UserMessage: "Sorry, I couldn't save your lunch. Please press Correct to try again.",
		Key:         KeySaveFailed,
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	message := fmt.Sprintf("External API error: %s", apiName)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return &AppError{
		Code:        "E300",
		Message:     message,
		UserMessage: "Sorry, I couldn't load today's menu. Please try again later.",
		Key:         KeyMenuUnavailable,
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "This action is not possible right now.",
		Key:         KeyState,
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Please try again in %d seconds.", retryAfter),
		Key:         KeyRateLimited,
		Args:        map[string]string{"seconds": strconv.Itoa(retryAfter)},
		Severity:    SeverityLow,
	}
}
