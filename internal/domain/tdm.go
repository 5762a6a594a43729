package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// SampleType is when a TDM sample is drawn relative to the dose.
type SampleType string

const (
	SampleTrough SampleType = "trough"
	SamplePeak   SampleType = "peak"
	SampleRandom SampleType = "random"
)

// TherapeuticRange bounds a target concentration. Both bounds are inclusive.
type TherapeuticRange struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Unit  string  `json:"unit,omitempty" yaml:"unit"`
}

// TdmProfile holds the monitoring parameters of a drug that needs TDM.
type TdmProfile struct {
	Drug                string           `json:"drug" yaml:"drug"`
	TherapeuticRange    TherapeuticRange `json:"therapeutic_range" yaml:"therapeutic_range"`
	ToxicLevel          float64          `json:"toxic_level" yaml:"toxic_level"`
	HalfLife            string           `json:"half_life" yaml:"half_life"`
	TimeToSteadyState   string           `json:"time_to_steady_state" yaml:"time_to_steady_state"`
	MonitoringFrequency string           `json:"monitoring_frequency" yaml:"monitoring_frequency"`
	SampleType          SampleType       `json:"sample_type" yaml:"sample_type"`
	RiskFactors         []string         `json:"risk_factors" yaml:"risk_factors"`
}

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// SteadyStateDays parses the numeric prefix of TimeToSteadyState ("2-3 days" is 2).
func (p TdmProfile) SteadyStateDays() (float64, error) {
	m := leadingNumber.FindStringSubmatch(p.TimeToSteadyState)
	if m == nil {
		return 0, fmt.Errorf("time to steady state %q of %s has no numeric prefix", p.TimeToSteadyState, p.Drug)
	}
	return strconv.ParseFloat(m[1], 64)
}

// LevelStatus places a measured concentration relative to the therapeutic range.
type LevelStatus string

const (
	LevelSubtherapeutic   LevelStatus = "subtherapeutic"
	LevelTherapeutic      LevelStatus = "therapeutic"
	LevelSupratherapeutic LevelStatus = "supratherapeutic"
	LevelToxic            LevelStatus = "toxic"
)

// ToxicMultiplier scales the upper limit into the toxic threshold.
const ToxicMultiplier = 1.5

// ClassifyLevel partitions concentrations:
// below lower is sub, [lower, upper] is therapeutic, (upper, 1.5*upper] is supra, above that toxic.
func ClassifyLevel(concentration float64, r TherapeuticRange) LevelStatus {
	switch {
	case concentration < r.Lower:
		return LevelSubtherapeutic
	case concentration <= r.Upper:
		return LevelTherapeutic
	case concentration <= r.Upper*ToxicMultiplier:
		return LevelSupratherapeutic
	default:
		return LevelToxic
	}
}

// ClinicalEffect is the observed response to therapy.
type ClinicalEffect string

const (
	EffectNone      ClinicalEffect = "none"
	EffectPartial   ClinicalEffect = "partial"
	EffectAdequate  ClinicalEffect = "adequate"
	EffectExcessive ClinicalEffect = "excessive"
)

// DoseAction is the recommended change to the current dose.
type DoseAction string

const (
	DoseIncrease    DoseAction = "increase"
	DoseMaintain    DoseAction = "maintain"
	DoseDecrease    DoseAction = "decrease"
	DoseDiscontinue DoseAction = "discontinue"
)
