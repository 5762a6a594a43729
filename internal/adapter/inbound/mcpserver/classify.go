package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

// Recovery strategies surfaced to the calling agent. The server never retries on its own.
const (
	StrategyRetry = "retry"
	StrategyAbort = "abort"
)

// ClassifiedError is a fault mapped onto the error taxonomy.
type ClassifiedError struct {
	Kind        domain.ErrorKind
	Message     string
	Severity    string
	Suggestions []string
	Recoverable bool
	Context     map[string]any
}

// Classify maps any error onto the taxonomy. Every classification carries
// at least one suggestion.
func Classify(err error, details map[string]any) ClassifiedError {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	c := ClassifiedError{Message: err.Error(), Context: details}

	var (
		verr    *domain.ValidationError
		timeout *domain.ProcessingTimeoutError
		perr    *domain.ProcessingError
	)
	switch {
	case errors.As(err, &verr):
		c.Kind = domain.KindValidation
		c.Severity = "medium"
		for _, f := range verr.Fields {
			c.Suggestions = append(c.Suggestions, fmt.Sprintf("Provide a valid value for %s (%s)", f.Field, f.Reason))
		}
		c.Suggestions = append(c.Suggestions, "Check the tool input schema and resubmit")
	case errors.Is(err, usecase.ErrUnknownResource):
		c.Kind = domain.KindValidation
		c.Severity = "medium"
		c.Suggestions = []string{"Use one of the published reference resources: " + fmt.Sprint(usecase.ReferenceNames())}
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		c.Kind = domain.KindProcessingTimeout
		c.Severity = "medium"
		c.Recoverable = true
		c.Suggestions = []string{"Retry the request", "Reduce the size of the input if the problem persists"}
	case errors.As(err, &perr):
		c.Kind = domain.KindProcessing
		c.Severity = "high"
		c.Recoverable = true
		c.Suggestions = []string{"Retry with adjusted input", "Verify units and reference values in the request"}
	default:
		c.Kind = domain.KindUnknown
		c.Severity = "high"
		c.Recoverable = true
		c.Suggestions = []string{"Retry the request", "Contact the system administrator if the error persists"}
	}
	return c
}

// ClinicalSafety tells the caller how to treat the failed check clinically.
type ClinicalSafety struct {
	Level                string `json:"level"`
	ActionRequired       string `json:"action_required"`
	PatientGuidance      string `json:"patient_guidance"`
	ProviderNotification bool   `json:"provider_notification"`
}

// RecoveryInfo is the retry policy for a classified error.
type RecoveryInfo struct {
	IsRecoverable bool   `json:"is_recoverable"`
	Strategy      string `json:"strategy"`
	RetryDelayMs  int    `json:"retry_delay_ms"`
}

// ErrorBody is the error member of the error envelope.
type ErrorBody struct {
	Kind           domain.ErrorKind `json:"kind"`
	Message        string           `json:"message"`
	ClinicalSafety ClinicalSafety   `json:"clinical_safety"`
	RecoveryInfo   RecoveryInfo     `json:"recovery_info"`
}

// ErrorEnvelope is returned for every failed tool call.
type ErrorEnvelope struct {
	Error           ErrorBody `json:"error"`
	RecoveryActions []string  `json:"recovery_actions"`
}

func retryDelay(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindProcessing:
		return 500
	case domain.KindValidation:
		return 0
	default:
		return 1000
	}
}

func clinicalSafety(kind domain.ErrorKind) ClinicalSafety {
	switch kind {
	case domain.KindValidation:
		return ClinicalSafety{
			Level:           "low",
			ActionRequired:  "Correct the input and resubmit; no clinical result was produced",
			PatientGuidance: "Continue the current care plan until the check is completed",
		}
	case domain.KindProcessingTimeout:
		return ClinicalSafety{
			Level:           "moderate",
			ActionRequired:  "Retry the check before acting; do not rely on partial results",
			PatientGuidance: "Continue the current care plan until the check is completed",
		}
	default:
		return ClinicalSafety{
			Level:                "high",
			ActionRequired:       "Verify the decision manually using clinical judgment and local protocols",
			PatientGuidance:      "Do not change therapy on the basis of this failed check",
			ProviderNotification: true,
		}
	}
}

// Envelope renders the classification as the wire error envelope.
func (c ClassifiedError) Envelope() ErrorEnvelope {
	strategy := StrategyAbort
	if c.Recoverable {
		strategy = StrategyRetry
	}
	return ErrorEnvelope{
		Error: ErrorBody{
			Kind:           c.Kind,
			Message:        c.Message,
			ClinicalSafety: clinicalSafety(c.Kind),
			RecoveryInfo: RecoveryInfo{
				IsRecoverable: c.Recoverable,
				Strategy:      strategy,
				RetryDelayMs:  retryDelay(c.Kind),
			},
		},
		RecoveryActions: append([]string{}, c.Suggestions...),
	}
}
