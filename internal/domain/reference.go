package domain

// ClinicalRule is a decision-support rule from the reference catalog.
type ClinicalRule struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Category       string `json:"category" yaml:"category"`
	Severity       string `json:"severity" yaml:"severity"`
	EvidenceLevel  string `json:"evidence_level" yaml:"evidence_level"`
	Population     string `json:"population,omitempty" yaml:"population"`
	Description    string `json:"description" yaml:"description"`
	Recommendation string `json:"recommendation" yaml:"recommendation"`
}

// GenderBoth tags reference rows that apply to every gender.
const GenderBoth = "both"

// LabReferenceRange is the normal range of a laboratory test.
// Critical bounds are optional.
type LabReferenceRange struct {
	Test         string   `json:"test" yaml:"test"`
	Category     string   `json:"category" yaml:"category"`
	Unit         string   `json:"unit" yaml:"unit"`
	Low          float64  `json:"low" yaml:"low"`
	High         float64  `json:"high" yaml:"high"`
	CriticalLow  *float64 `json:"critical_low,omitempty" yaml:"critical_low"`
	CriticalHigh *float64 `json:"critical_high,omitempty" yaml:"critical_high"`
	Gender       string   `json:"gender" yaml:"gender"`
	AgeGroup     string   `json:"age_group" yaml:"age_group"`
	Notes        string   `json:"notes,omitempty" yaml:"notes"`
}

// VitalSignRange is the normal range of a vital sign for one age group.
type VitalSignRange struct {
	Parameter    string   `json:"parameter" yaml:"parameter"`
	AgeGroup     string   `json:"age_group" yaml:"age_group"`
	Unit         string   `json:"unit" yaml:"unit"`
	NormalMin    float64  `json:"normal_min" yaml:"normal_min"`
	NormalMax    float64  `json:"normal_max" yaml:"normal_max"`
	CriticalLow  *float64 `json:"critical_low,omitempty" yaml:"critical_low"`
	CriticalHigh *float64 `json:"critical_high,omitempty" yaml:"critical_high"`
}

// RangeFlag places a measured value against a reference range.
type RangeFlag string

const (
	FlagNormal       RangeFlag = "normal"
	FlagLow          RangeFlag = "low"
	FlagHigh         RangeFlag = "high"
	FlagCriticalLow  RangeFlag = "critical_low"
	FlagCriticalHigh RangeFlag = "critical_high"
)

// IsCritical reports whether the flag needs immediate attention.
func (f RangeFlag) IsCritical() bool {
	return f == FlagCriticalLow || f == FlagCriticalHigh
}

// FlagValue compares value with a normal range and optional critical bounds.
// Critical bounds are inclusive; normal bounds are inclusive.
func FlagValue(value, low, high float64, criticalLow, criticalHigh *float64) RangeFlag {
	switch {
	case criticalLow != nil && value <= *criticalLow:
		return FlagCriticalLow
	case criticalHigh != nil && value >= *criticalHigh:
		return FlagCriticalHigh
	case value < low:
		return FlagLow
	case value > high:
		return FlagHigh
	default:
		return FlagNormal
	}
}

// InteractionSeverity orders contraindicated > major > moderate > minor.
type InteractionSeverity string

const (
	InteractionContraindicated InteractionSeverity = "contraindicated"
	InteractionMajor           InteractionSeverity = "major"
	InteractionModerate        InteractionSeverity = "moderate"
	InteractionMinor           InteractionSeverity = "minor"
)

// InteractionSeverities lists severities from most to least severe.
var InteractionSeverities = []InteractionSeverity{
	InteractionContraindicated,
	InteractionMajor,
	InteractionModerate,
	InteractionMinor,
}

// Rank returns a larger number for a more severe interaction.
func (s InteractionSeverity) Rank() int {
	switch s {
	case InteractionContraindicated:
		return 4
	case InteractionMajor:
		return 3
	case InteractionModerate:
		return 2
	case InteractionMinor:
		return 1
	}
	return 0
}

// DrugInteraction is a documented interaction between two drugs.
type DrugInteraction struct {
	DrugA      string              `json:"drug_a" yaml:"drug_a"`
	DrugB      string              `json:"drug_b" yaml:"drug_b"`
	Severity   InteractionSeverity `json:"severity" yaml:"severity"`
	Mechanism  string              `json:"mechanism" yaml:"mechanism"`
	Effect     string              `json:"effect" yaml:"effect"`
	Management string              `json:"management" yaml:"management"`
}

// HighAlertDrug is a medication with heightened risk of harm when used in error.
type HighAlertDrug struct {
	Name   string `json:"name" yaml:"name"`
	Class  string `json:"class" yaml:"class"`
	Reason string `json:"reason" yaml:"reason"`
}
