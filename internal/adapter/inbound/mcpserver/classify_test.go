package mcpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/clinicalmcp/internal/adapter/inbound/mcpserver"
	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantKind        domain.ErrorKind
		wantRecoverable bool
		wantStrategy    string
		wantDelay       int
		wantSafety      string
	}{
		{
			name:         "validation",
			err:          domain.NewValidationError("drug_name", "is required"),
			wantKind:     domain.KindValidation,
			wantStrategy: mcpserver.StrategyAbort,
			wantDelay:    0,
			wantSafety:   "low",
		},
		{
			name:         "wrapped validation",
			err:          fmt.Errorf("decode: %w", domain.NewValidationError("dose", "must be a number")),
			wantKind:     domain.KindValidation,
			wantStrategy: mcpserver.StrategyAbort,
			wantDelay:    0,
			wantSafety:   "low",
		},
		{
			name:         "unknown resource",
			err:          fmt.Errorf("%w: formulary", usecase.ErrUnknownResource),
			wantKind:     domain.KindValidation,
			wantStrategy: mcpserver.StrategyAbort,
			wantDelay:    0,
			wantSafety:   "low",
		},
		{
			name:            "timeout",
			err:             &domain.ProcessingTimeoutError{Operation: "interpret_tdm_result", Timeout: time.Second, Err: context.DeadlineExceeded},
			wantKind:        domain.KindProcessingTimeout,
			wantRecoverable: true,
			wantStrategy:    mcpserver.StrategyRetry,
			wantDelay:       1000,
			wantSafety:      "moderate",
		},
		{
			name:            "bare deadline",
			err:             context.DeadlineExceeded,
			wantKind:        domain.KindProcessingTimeout,
			wantRecoverable: true,
			wantStrategy:    mcpserver.StrategyRetry,
			wantDelay:       1000,
			wantSafety:      "moderate",
		},
		{
			name:            "processing",
			err:             &domain.ProcessingError{Operation: "assess_tdm_candidate", Err: errors.New("bad steady state")},
			wantKind:        domain.KindProcessing,
			wantRecoverable: true,
			wantStrategy:    mcpserver.StrategyRetry,
			wantDelay:       500,
			wantSafety:      "high",
		},
		{
			name:            "unknown",
			err:             errors.New("boom"),
			wantKind:        domain.KindUnknown,
			wantRecoverable: true,
			wantStrategy:    mcpserver.StrategyRetry,
			wantDelay:       1000,
			wantSafety:      "high",
		},
		{
			name:            "nil error",
			err:             nil,
			wantKind:        domain.KindUnknown,
			wantRecoverable: true,
			wantStrategy:    mcpserver.StrategyRetry,
			wantDelay:       1000,
			wantSafety:      "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mcpserver.Classify(tt.err, map[string]any{"tool": "test"})
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.wantRecoverable, c.Recoverable)
			assert.NotEmpty(t, c.Suggestions)
			assert.NotEmpty(t, c.Message)
			assert.Equal(t, "test", c.Context["tool"])

			env := c.Envelope()
			assert.Equal(t, tt.wantKind, env.Error.Kind)
			assert.Equal(t, tt.wantStrategy, env.Error.RecoveryInfo.Strategy)
			assert.Equal(t, tt.wantRecoverable, env.Error.RecoveryInfo.IsRecoverable)
			assert.Equal(t, tt.wantDelay, env.Error.RecoveryInfo.RetryDelayMs)
			assert.Equal(t, tt.wantSafety, env.Error.ClinicalSafety.Level)
			assert.Equal(t, c.Suggestions, env.RecoveryActions)
		})
	}
}

func TestClassify_ValidationSuggestionsNameFields(t *testing.T) {
	err := &domain.ValidationError{Fields: []domain.FieldError{
		{Field: "age", Reason: "is required"},
		{Field: "gender", Reason: "value is not one of the allowed values"},
	}}
	c := mcpserver.Classify(err, nil)

	require.Len(t, c.Suggestions, 3)
	assert.Contains(t, c.Suggestions[0], "age")
	assert.Contains(t, c.Suggestions[1], "gender")
	assert.Equal(t, "invalid input: age: is required; gender: value is not one of the allowed values", c.Message)
}

func TestErrorEnvelope_JSONShape(t *testing.T) {
	c := mcpserver.Classify(&domain.ProcessingError{Operation: "x", Err: errors.New("y")}, nil)
	raw, err := json.Marshal(c.Envelope())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	body, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ProcessingError", body["kind"])
	assert.Contains(t, body, "clinical_safety")
	assert.Contains(t, body, "recovery_info")
	safety := body["clinical_safety"].(map[string]any)
	assert.Equal(t, true, safety["provider_notification"])
	assert.IsType(t, []any{}, decoded["recovery_actions"])
}
