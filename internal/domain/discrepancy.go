package domain

import (
	"strings"
	"time"
)

// ResolutionAction is how a reconciliation discrepancy was handled.
type ResolutionAction string

const (
	ActionIntentionalChange ResolutionAction = "intentional_change"
	ActionPrescriberError   ResolutionAction = "prescriber_error"
	ActionContinueHomeMed   ResolutionAction = "continue_home_med"
	ActionDiscontinue       ResolutionAction = "discontinue"
	ActionModifyOrder       ResolutionAction = "modify_order"
)

// ResolutionActions lists the accepted actions.
var ResolutionActions = []ResolutionAction{
	ActionIntentionalChange,
	ActionPrescriberError,
	ActionContinueHomeMed,
	ActionDiscontinue,
	ActionModifyOrder,
}

// ResolutionStatus is derived by DeriveResolutionStatus and never set directly.
type ResolutionStatus string

const (
	StatusResolved          ResolutionStatus = "resolved"
	StatusPendingPrescriber ResolutionStatus = "pending_prescriber"
	StatusEscalated         ResolutionStatus = "escalated"
)

// DeriveResolutionStatus evaluates the resolution decision table top to bottom.
func DeriveResolutionStatus(action ResolutionAction, prescriberContacted, hasPrescriberResponse bool) ResolutionStatus {
	switch {
	case prescriberContacted && hasPrescriberResponse:
		return StatusResolved
	case action == ActionPrescriberError && !prescriberContacted:
		return StatusPendingPrescriber
	case action == ActionIntentionalChange && !prescriberContacted:
		return StatusEscalated
	default:
		return StatusResolved
	}
}

// SeverityAvoided grades the harm a resolution averted.
type SeverityAvoided string

const (
	SeverityAvoidedSevere   SeverityAvoided = "severe"
	SeverityAvoidedModerate SeverityAvoided = "moderate"
	SeverityAvoidedMinor    SeverityAvoided = "minor"
)

// SafetyAssessment is the safety judgment attached to a resolution.
type SafetyAssessment struct {
	HarmPrevented    bool            `json:"harm_prevented"`
	SeverityAvoided  SeverityAvoided `json:"severity_avoided"`
	FollowUpRequired bool            `json:"follow_up_required"`
}

// DiscrepancyResolution is a clinician's decision on one discrepancy.
type DiscrepancyResolution struct {
	ComparisonID        string
	DiscrepancyID       string
	MedicationName      string
	Action              ResolutionAction
	ResolvedBy          string
	ResolvedAt          time.Time
	PrescriberContacted bool
	PrescriberResponse  string
	FinalOrder          *MedicationEntry
}

// HasPrescriberResponse reports whether a non-blank response was recorded.
func (r DiscrepancyResolution) HasPrescriberResponse() bool {
	return strings.TrimSpace(r.PrescriberResponse) != ""
}

// Status derives the resolution status.
func (r DiscrepancyResolution) Status() ResolutionStatus {
	return DeriveResolutionStatus(r.Action, r.PrescriberContacted, r.HasPrescriberResponse())
}

// Safety derives the safety judgment.
func (r DiscrepancyResolution) Safety() SafetyAssessment {
	avoided := SeverityAvoidedMinor
	switch {
	case r.Action == ActionDiscontinue && r.PrescriberContacted:
		avoided = SeverityAvoidedSevere
	case r.Action == ActionModifyOrder:
		avoided = SeverityAvoidedModerate
	}
	return SafetyAssessment{
		HarmPrevented:    r.Action != ActionPrescriberError,
		SeverityAvoided:  avoided,
		FollowUpRequired: r.Status() != StatusResolved,
	}
}

// DiscrepancyType classifies a mismatch between home medications and active orders.
type DiscrepancyType string

const (
	DiscrepancyOmission   DiscrepancyType = "omission"
	DiscrepancyCommission DiscrepancyType = "commission"
	DiscrepancyDose       DiscrepancyType = "dose"
	DiscrepancyFrequency  DiscrepancyType = "frequency"
	DiscrepancyRoute      DiscrepancyType = "route"
)

// DiscrepancySeverity orders high > moderate > low.
type DiscrepancySeverity string

const (
	DiscrepancyHigh     DiscrepancySeverity = "high"
	DiscrepancyModerate DiscrepancySeverity = "moderate"
	DiscrepancyLow      DiscrepancySeverity = "low"
)

// Rank returns a larger number for a more severe discrepancy.
func (s DiscrepancySeverity) Rank() int {
	switch s {
	case DiscrepancyHigh:
		return 3
	case DiscrepancyModerate:
		return 2
	case DiscrepancyLow:
		return 1
	}
	return 0
}

// Discrepancy is one mismatch found when comparing medication lists.
type Discrepancy struct {
	ID          string              `json:"discrepancy_id"`
	Type        DiscrepancyType     `json:"type"`
	Severity    DiscrepancySeverity `json:"severity"`
	DrugName    string              `json:"drug_name"`
	HomeValue   string              `json:"home_value,omitempty"`
	OrderValue  string              `json:"order_value,omitempty"`
	HighAlert   bool                `json:"high_alert"`
	Description string              `json:"description"`
}
