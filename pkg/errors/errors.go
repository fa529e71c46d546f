package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "PBRW1001"
	ErrCodeConnectionTimeout    ErrorCode = "PBRW1002"
	ErrCodeAuthenticationFailed ErrorCode = "PBRW1003"
	ErrCodeNetworkUnavailable   ErrorCode = "PBRW1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "PBRW2001"
	ErrCodeConfigInvalid  ErrorCode = "PBRW2002"
	ErrCodeConfigMissing  ErrorCode = "PBRW2003"

	// Model repository errors (3xxx)
	ErrCodeRepoNotFound   ErrorCode = "PBRW3001"
	ErrCodeRepoSyncFailed ErrorCode = "PBRW3002"
	ErrCodeModelNotFound  ErrorCode = "PBRW3003"
	ErrCodeModelConflict  ErrorCode = "PBRW3004"
	ErrCodeModelInvalid   ErrorCode = "PBRW3005"

	// Warehouse/SQL errors (4xxx)
	ErrCodeSQLExecution   ErrorCode = "PBRW4001"
	ErrCodeSQLTimeout     ErrorCode = "PBRW4002"
	ErrCodeSQLTransaction ErrorCode = "PBRW4003"
	ErrCodeSchemaEnsure   ErrorCode = "PBRW4004"
	ErrCodeResultParsing  ErrorCode = "PBRW4005"

	// Pipeline errors (5xxx)
	ErrCodeValidationFailed ErrorCode = "PBRW5001"
	ErrCodeStageFailed      ErrorCode = "PBRW5002"
	ErrCodeAuditWrite       ErrorCode = "PBRW5003"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "PBRW9001"
	ErrCodeTimeout            ErrorCode = "PBRW9002"
	ErrCodeResourceExhausted  ErrorCode = "PBRW9003"
	ErrCodeServiceUnavailable ErrorCode = "PBRW9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a warehouse connection error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify the warehouse endpoint is accessible",
			"Check firewall settings",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'petalbrew setup' to reconfigure",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	if strings.Contains(message, "timeout") {
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions(
			"Increase the query timeout setting",
			"Check warehouse sizing and load",
		)
	}

	return err
}

// ValidationError creates a fatal staging validation error. It is raised
// when a mandatory table has zero valid rows after filtering.
func ValidationError(table string, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", table, reason)).
		WithContext("table", table).
		WithSuggestions(
			"Inspect the raw source table for malformed rows",
			"Check the upstream ingestion job",
		)
}

// StageError creates a pipeline stage failure error
func StageError(stage string, cause error) *AppError {
	return Wrap(cause, ErrCodeStageFailed, fmt.Sprintf("Stage %s failed", stage)).
		WithContext("stage", stage)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
