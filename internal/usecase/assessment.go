package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/i2y/clinicalmcp/internal/domain"
)

const defaultAgeGroup = "adult"

// AssessmentUseCase checks vital signs and lab values against reference
// ranges and estimates renal function.
type AssessmentUseCase struct {
	repository ReferenceRepository
	logger     *slog.Logger
}

// NewAssessmentUseCase creates a new AssessmentUseCase.
func NewAssessmentUseCase(repository ReferenceRepository, logger *slog.Logger) *AssessmentUseCase {
	return &AssessmentUseCase{
		repository: repository,
		logger:     logger.With("usecase", "Assessment"),
	}
}

// --- assess_vital_signs ---

// VitalSigns is a set of measurements; absent values are not assessed.
type VitalSigns struct {
	HeartRate        *float64 `json:"heart_rate,omitempty"`
	RespiratoryRate  *float64 `json:"respiratory_rate,omitempty"`
	SystolicBP       *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP      *float64 `json:"diastolic_bp,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
}

func (v VitalSigns) measurements() []struct {
	parameter string
	value     *float64
} {
	return []struct {
		parameter string
		value     *float64
	}{
		{"heart_rate", v.HeartRate},
		{"respiratory_rate", v.RespiratoryRate},
		{"systolic_bp", v.SystolicBP},
		{"diastolic_bp", v.DiastolicBP},
		{"temperature", v.Temperature},
		{"oxygen_saturation", v.OxygenSaturation},
	}
}

// AssessVitalSignsInput is the input of assess_vital_signs.
type AssessVitalSignsInput struct {
	AgeGroup string `json:"age_group,omitempty"`
	VitalSigns
}

// VitalFinding is one assessed measurement.
type VitalFinding struct {
	Parameter string           `json:"parameter"`
	Value     float64          `json:"value"`
	Unit      string           `json:"unit"`
	NormalMin float64          `json:"normal_min"`
	NormalMax float64          `json:"normal_max"`
	AgeGroup  string           `json:"age_group"`
	Flag      domain.RangeFlag `json:"flag"`
}

// VitalSignsAssessment is the output of assess_vital_signs.
type VitalSignsAssessment struct {
	AgeGroup      string         `json:"age_group"`
	Findings      []VitalFinding `json:"findings"`
	Unreferenced  []string       `json:"unreferenced"`
	OverallStatus string         `json:"overall_status"`
	Alerts        []string       `json:"alerts"`
}

func (uc *AssessmentUseCase) vitalRange(parameter, ageGroup string) (domain.VitalSignRange, bool) {
	var fallback *domain.VitalSignRange
	for _, r := range uc.repository.VitalSignRanges() {
		if !strings.EqualFold(r.Parameter, parameter) {
			continue
		}
		if strings.EqualFold(r.AgeGroup, ageGroup) {
			return r, true
		}
		if strings.EqualFold(r.AgeGroup, defaultAgeGroup) && fallback == nil {
			r := r
			fallback = &r
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return domain.VitalSignRange{}, false
}

func (uc *AssessmentUseCase) assessVitals(ageGroup string, v VitalSigns) VitalSignsAssessment {
	if ageGroup == "" {
		ageGroup = defaultAgeGroup
	}
	out := VitalSignsAssessment{
		AgeGroup:      ageGroup,
		Findings:      []VitalFinding{},
		Unreferenced:  []string{},
		OverallStatus: "stable",
		Alerts:        []string{},
	}
	for _, m := range v.measurements() {
		if m.value == nil {
			continue
		}
		r, ok := uc.vitalRange(m.parameter, ageGroup)
		if !ok {
			out.Unreferenced = append(out.Unreferenced, m.parameter)
			continue
		}
		flag := domain.FlagValue(*m.value, r.NormalMin, r.NormalMax, r.CriticalLow, r.CriticalHigh)
		out.Findings = append(out.Findings, VitalFinding{
			Parameter: m.parameter,
			Value:     *m.value,
			Unit:      r.Unit,
			NormalMin: r.NormalMin,
			NormalMax: r.NormalMax,
			AgeGroup:  r.AgeGroup,
			Flag:      flag,
		})
		switch {
		case flag.IsCritical():
			out.OverallStatus = "critical"
			out.Alerts = append(out.Alerts, fmt.Sprintf("CRITICAL %s: %g %s", m.parameter, *m.value, r.Unit))
		case flag != domain.FlagNormal && out.OverallStatus == "stable":
			out.OverallStatus = "abnormal"
		}
	}
	return out
}

// AssessVitalSigns flags each measurement against the age-group range, falling back to adult ranges.
func (uc *AssessmentUseCase) AssessVitalSigns(ctx context.Context, in AssessVitalSignsInput) (VitalSignsAssessment, error) {
	measured := false
	for _, m := range in.measurements() {
		if m.value != nil {
			measured = true
			break
		}
	}
	if !measured {
		return VitalSignsAssessment{}, domain.NewValidationError("vital_signs", "at least one measurement is required")
	}
	out := uc.assessVitals(in.AgeGroup, in.VitalSigns)
	uc.logger.Debug("Vital signs assessed", slog.String("status", out.OverallStatus), slog.Int("findings", len(out.Findings)))
	return out, nil
}

// Narrative lists each finding.
func (a VitalSignsAssessment) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vital signs (%s): %s.\n", a.AgeGroup, a.OverallStatus)
	for _, f := range a.Findings {
		fmt.Fprintf(&b, "- %s %g %s: %s (normal %g-%g)\n", f.Parameter, f.Value, f.Unit, f.Flag, f.NormalMin, f.NormalMax)
	}
	return b.String()
}

// --- interpret_lab_values ---

// LabValue is one measured laboratory result.
type LabValue struct {
	Test  string  `json:"test"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// InterpretLabValuesInput is the input of interpret_lab_values.
type InterpretLabValuesInput struct {
	Gender string     `json:"gender,omitempty"`
	Labs   []LabValue `json:"labs"`
}

// LabFinding is one interpreted lab value.
type LabFinding struct {
	Test     string           `json:"test"`
	Value    float64          `json:"value"`
	Unit     string           `json:"unit"`
	Low      float64          `json:"low"`
	High     float64          `json:"high"`
	Category string           `json:"category"`
	Gender   string           `json:"reference_gender"`
	Flag     domain.RangeFlag `json:"flag"`
	Notes    string           `json:"notes,omitempty"`
}

// LabInterpretation is the output of interpret_lab_values.
type LabInterpretation struct {
	Results        []LabFinding `json:"results"`
	CriticalValues []string     `json:"critical_values"`
	Unrecognized   []string     `json:"unrecognized"`
	AbnormalCount  int          `json:"abnormal_count"`
	Alerts         []string     `json:"alerts"`
}

// labRange prefers a gender-specific row, then a row tagged both, then any row.
func (uc *AssessmentUseCase) labRange(test, gender string) (domain.LabReferenceRange, bool) {
	var both, anyRow *domain.LabReferenceRange
	for _, r := range uc.repository.LabRanges() {
		if !strings.EqualFold(r.Test, strings.TrimSpace(test)) {
			continue
		}
		r := r
		switch {
		case gender != "" && strings.EqualFold(r.Gender, gender):
			return r, true
		case strings.EqualFold(r.Gender, domain.GenderBoth) && both == nil:
			both = &r
		case anyRow == nil:
			anyRow = &r
		}
	}
	if both != nil {
		return *both, true
	}
	if anyRow != nil {
		return *anyRow, true
	}
	return domain.LabReferenceRange{}, false
}

func (uc *AssessmentUseCase) interpretLabs(gender string, labs []LabValue) LabInterpretation {
	out := LabInterpretation{
		Results:        []LabFinding{},
		CriticalValues: []string{},
		Unrecognized:   []string{},
		Alerts:         []string{},
	}
	for _, l := range labs {
		r, ok := uc.labRange(l.Test, gender)
		if !ok {
			out.Unrecognized = append(out.Unrecognized, l.Test)
			continue
		}
		flag := domain.FlagValue(l.Value, r.Low, r.High, r.CriticalLow, r.CriticalHigh)
		notes := r.Notes
		if l.Unit != "" && !strings.EqualFold(l.Unit, r.Unit) {
			notes = strings.TrimSpace(notes + fmt.Sprintf(" reported unit %s differs from reference unit %s", l.Unit, r.Unit))
		}
		out.Results = append(out.Results, LabFinding{
			Test:     l.Test,
			Value:    l.Value,
			Unit:     r.Unit,
			Low:      r.Low,
			High:     r.High,
			Category: r.Category,
			Gender:   r.Gender,
			Flag:     flag,
			Notes:    notes,
		})
		if flag != domain.FlagNormal {
			out.AbnormalCount++
		}
		if flag.IsCritical() {
			out.CriticalValues = append(out.CriticalValues, l.Test)
			out.Alerts = append(out.Alerts, fmt.Sprintf("CRITICAL %s: %g %s; notify the prescriber", l.Test, l.Value, r.Unit))
		}
	}
	return out
}

// InterpretLabValues flags each lab value against its reference range.
func (uc *AssessmentUseCase) InterpretLabValues(ctx context.Context, in InterpretLabValuesInput) (LabInterpretation, error) {
	out := uc.interpretLabs(in.Gender, in.Labs)
	uc.logger.Debug("Lab values interpreted",
		slog.Int("results", len(out.Results)),
		slog.Int("critical", len(out.CriticalValues)),
	)
	return out, nil
}

// Narrative lists each result.
func (l LabInterpretation) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d lab value(s) interpreted, %d abnormal, %d critical.\n", len(l.Results), l.AbnormalCount, len(l.CriticalValues))
	for _, r := range l.Results {
		fmt.Fprintf(&b, "- %s %g %s: %s (reference %g-%g)\n", r.Test, r.Value, r.Unit, r.Flag, r.Low, r.High)
	}
	if len(l.Unrecognized) > 0 {
		fmt.Fprintf(&b, "No reference range for: %s\n", strings.Join(l.Unrecognized, ", "))
	}
	return b.String()
}

// --- calculate_creatinine_clearance ---

// CreatinineClearanceInput is the input of calculate_creatinine_clearance.
type CreatinineClearanceInput struct {
	Age             float64 `json:"age"`
	WeightKg        float64 `json:"weight_kg"`
	SerumCreatinine float64 `json:"serum_creatinine"`
	Gender          string  `json:"gender"`
}

// CreatinineClearanceResult is the output of calculate_creatinine_clearance.
type CreatinineClearanceResult struct {
	CreatinineClearance float64  `json:"creatinine_clearance"`
	Unit                string   `json:"unit"`
	Formula             string   `json:"formula"`
	RenalFunction       string   `json:"renal_function"`
	Recommendations     []string `json:"recommendations"`
}

// FemaleCrClFactor scales Cockcroft-Gault clearance for female patients.
const FemaleCrClFactor = 0.85

// CockcroftGault returns creatinine clearance in mL/min from age in years,
// weight in kg and serum creatinine in mg/dL.
func CockcroftGault(age, weightKg, serumCreatinine float64, female bool) float64 {
	crcl := ((140 - age) * weightKg) / (72 * serumCreatinine)
	if female {
		crcl *= FemaleCrClFactor
	}
	return crcl
}

// RenalFunctionCategory buckets a clearance value.
func RenalFunctionCategory(crcl float64) string {
	switch {
	case crcl >= 90:
		return "normal"
	case crcl >= 60:
		return "mild impairment"
	case crcl >= 30:
		return "moderate impairment"
	case crcl >= 15:
		return "severe impairment"
	default:
		return "kidney failure"
	}
}

// CreatinineClearance estimates renal function with Cockcroft-Gault.
func (uc *AssessmentUseCase) CreatinineClearance(ctx context.Context, in CreatinineClearanceInput) (CreatinineClearanceResult, error) {
	if in.SerumCreatinine <= 0 {
		return CreatinineClearanceResult{}, domain.NewValidationError("serum_creatinine", "must be greater than 0")
	}
	if in.WeightKg <= 0 {
		return CreatinineClearanceResult{}, domain.NewValidationError("weight_kg", "must be greater than 0")
	}
	female := strings.EqualFold(in.Gender, "female")
	crcl := round2(CockcroftGault(in.Age, in.WeightKg, in.SerumCreatinine, female))
	category := RenalFunctionCategory(crcl)

	recs := []string{}
	if crcl < 60 {
		recs = append(recs, "Review renally cleared medications for dose or interval adjustment")
	}
	if crcl < 30 {
		recs = append(recs, "Avoid nephrotoxic agents where possible", "Consider specialist renal dosing advice")
	}
	if crcl < 15 {
		recs = append(recs, "Discuss renal replacement therapy dosing with nephrology")
	}
	if len(recs) == 0 {
		recs = append(recs, "No renal dose adjustment required on clearance alone")
	}

	formula := "((140 - age) x weight) / (72 x serum creatinine)"
	if female {
		formula += " x 0.85"
	}
	uc.logger.Debug("Creatinine clearance calculated", slog.Float64("crcl", crcl))
	return CreatinineClearanceResult{
		CreatinineClearance: crcl,
		Unit:                "mL/min",
		Formula:             formula,
		RenalFunction:       category,
		Recommendations:     recs,
	}, nil
}

// Narrative states the clearance and category.
func (r CreatinineClearanceResult) Narrative() string {
	return fmt.Sprintf("Estimated creatinine clearance %g %s (%s).\n", r.CreatinineClearance, r.Unit, r.RenalFunction)
}
