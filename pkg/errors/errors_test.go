package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeValidationFailed, "no valid rows")

	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.Equal(t, SeverityError, err.Severity)
	assert.False(t, err.Recoverable)
	assert.Contains(t, err.Error(), "PBRW5001")
	assert.Contains(t, err.Error(), "no valid rows")
}

func TestWrap(t *testing.T) {
	t.Run("nil cause", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	})

	t.Run("plain error", func(t *testing.T) {
		cause := fmt.Errorf("connection reset")
		err := Wrap(cause, ErrCodeConnectionFailed, "warehouse unreachable")

		assert.Equal(t, cause, err.Unwrap())
		assert.Contains(t, err.Error(), "Caused by: connection reset")
	})

	t.Run("inherits context from wrapped AppError", func(t *testing.T) {
		inner := New(ErrCodeSQLExecution, "bad statement").WithContext("table", "staging_flowers")
		err := Wrap(inner, ErrCodeStageFailed, "stage failed")

		assert.Equal(t, "staging_flowers", err.Context["table"])
	})
}

func TestIs(t *testing.T) {
	err := ValidationError("raw_flowers", "zero valid rows")

	assert.True(t, errors.Is(err, &AppError{Code: ErrCodeValidationFailed}))
	assert.False(t, errors.Is(err, &AppError{Code: ErrCodeSQLExecution}))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidationFailed, GetErrorCode(ValidationError("raw_orders", "empty")))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(fmt.Errorf("opaque")))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"connection", ConnectionError("dial failed", fmt.Errorf("refused")), ErrCodeConnectionFailed},
		{"config", ConfigError("missing account", "warehouse.account"), ErrCodeConfigInvalid},
		{"sql", SQLError("merge failed", "DELETE FROM staging_flowers", fmt.Errorf("boom")), ErrCodeSQLExecution},
		{"sql timeout", SQLError("statement timeout exceeded", "SELECT 1", fmt.Errorf("boom")), ErrCodeSQLTimeout},
		{"validation", ValidationError("raw_flowers", "zero valid rows"), ErrCodeValidationFailed},
		{"stage", StageError("load_flowers", fmt.Errorf("boom")), ErrCodeStageFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) error {
		calls++
		return ValidationError("raw_flowers", "zero valid rows")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "fatal validation errors must not be retried")
}

func TestRetryExhaustsRecoverable(t *testing.T) {
	config := &RetryConfig{
		MaxRetries:     2,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		RetryableError: DefaultRetryConfig().RetryableError,
	}

	calls := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		calls++
		return New(ErrCodeConnectionTimeout, "timed out")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, ErrCodeResourceExhausted, GetErrorCode(err))
}

func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker("warehouse", 2, time.Minute)
	boom := func() error { return fmt.Errorf("boom") }

	assert.Error(t, cb.Execute(context.Background(), boom))
	assert.Error(t, cb.Execute(context.Background(), boom))
	assert.Equal(t, "open", cb.GetState())

	err := cb.Execute(context.Background(), func() error { return nil })
	require.Error(t, err)
	assert.Equal(t, ErrCodeServiceUnavailable, GetErrorCode(err))
}
