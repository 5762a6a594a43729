package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// Dose multipliers applied by the TDM dose recommendation.
const (
	IncreaseMultiplier   = 1.25
	DecreaseMultiplier   = 0.8
	PrecautionaryHalving = 0.5
)

const (
	NonTDMSampleDelay = 24 * time.Hour
	RepeatTDMDelay    = 48 * time.Hour
)

const (
	polypharmacyThreshold = 5
	elderlyAgeThreshold   = 65
	renalImpairmentEGFR   = 60
	troughWindowMinutes   = 60
	peakWindowMinMinutes  = 60
	peakWindowMaxMinutes  = 180
)

const approximationNoteLinear = "expected_new_level assumes concentration scales linearly with dose; it is not a pharmacokinetic prediction"

// Patient-derived risk factor labels. They match the strings used in TDM profiles.
const (
	RiskRenalImpairment   = "renal impairment"
	RiskHepaticImpairment = "hepatic impairment"
	RiskElderly           = "elderly"
	RiskPolypharmacy      = "polypharmacy"
)

// TDMUseCase assesses TDM candidacy and interprets measured drug levels.
type TDMUseCase struct {
	repository ReferenceRepository
	now        Clock
	logger     *slog.Logger
}

// NewTDMUseCase creates a new TDMUseCase.
func NewTDMUseCase(repository ReferenceRepository, clock Clock, logger *slog.Logger) *TDMUseCase {
	return &TDMUseCase{
		repository: repository,
		now:        clock,
		logger:     logger.With("usecase", "TDM"),
	}
}

// --- Candidate assessment ---

// AssessTDMCandidateInput is the input of assess_tdm_candidate.
type AssessTDMCandidateInput struct {
	DrugName              string   `json:"drug_name"`
	PatientAge            float64  `json:"patient_age"`
	EGFR                  *float64 `json:"egfr,omitempty"`
	ChildPughScore        string   `json:"child_pugh_score,omitempty"`
	ConcurrentMedications []string `json:"concurrent_medications,omitempty"`
	MedicationStart       string   `json:"medication_start,omitempty"`
	Indication            string   `json:"indication,omitempty"`
}

// SampleSchedule is when the first level should be drawn.
type SampleSchedule struct {
	FirstSampleAt time.Time `json:"first_sample_at"`
	Basis         string    `json:"basis"`
}

// TDMCandidateAssessment is the output of assess_tdm_candidate.
type TDMCandidateAssessment struct {
	DrugName           string             `json:"drug_name"`
	TdmIndicated       bool               `json:"tdm_indicated"`
	SampleType         domain.SampleType  `json:"sample_type"`
	SampleTiming       SampleSchedule     `json:"sample_timing"`
	Profile            *domain.TdmProfile `json:"profile,omitempty"`
	RiskFactors        []string           `json:"risk_factors"`
	PatientRiskFactors []string           `json:"patient_risk_factors"`
	MonitoringPlan     []string           `json:"monitoring_plan"`
	Rationale          string             `json:"rationale"`
}

// PatientRiskFactors derives risk factors from patient characteristics alone.
func PatientRiskFactors(in AssessTDMCandidateInput) []string {
	out := []string{}
	if in.EGFR != nil && *in.EGFR < renalImpairmentEGFR {
		out = append(out, RiskRenalImpairment)
	}
	if cp := strings.ToUpper(strings.TrimSpace(in.ChildPughScore)); cp != "" && cp != "A" {
		out = append(out, RiskHepaticImpairment)
	}
	if in.PatientAge > elderlyAgeThreshold {
		out = append(out, RiskElderly)
	}
	if len(in.ConcurrentMedications) > polypharmacyThreshold {
		out = append(out, RiskPolypharmacy)
	}
	return out
}

// AssessCandidate decides whether drug levels should be monitored and when to sample first.
func (uc *TDMUseCase) AssessCandidate(ctx context.Context, in AssessTDMCandidateInput) (TDMCandidateAssessment, error) {
	now := uc.now()
	start := now
	if t, ok, err := parseTime("medication_start", in.MedicationStart); err != nil {
		return TDMCandidateAssessment{}, err
	} else if ok {
		start = t
	}

	patientRisks := PatientRiskFactors(in)
	profile, found := uc.repository.FindTdmProfile(in.DrugName)
	if !found {
		uc.logger.Debug("Drug has no TDM profile", slog.String("drug", in.DrugName))
		return TDMCandidateAssessment{
			DrugName:     in.DrugName,
			TdmIndicated: false,
			SampleType:   domain.SampleRandom,
			SampleTiming: SampleSchedule{
				FirstSampleAt: now.Add(NonTDMSampleDelay),
				Basis:         "routine review in 24 hours; no drug-specific sampling schedule",
			},
			RiskFactors:        []string{},
			PatientRiskFactors: patientRisks,
			MonitoringPlan: []string{
				"Monitor clinical response and adverse effects",
				"Routine laboratory monitoring as indicated",
			},
			Rationale: fmt.Sprintf("%s is not in the therapeutic drug monitoring table; routine clinical monitoring applies", in.DrugName),
		}, nil
	}

	days, err := profile.SteadyStateDays()
	if err != nil {
		return TDMCandidateAssessment{}, &domain.ProcessingError{Operation: "steady state lookup", Err: err}
	}
	firstSample := start.Add(time.Duration(days * float64(24*time.Hour)))

	matched := []string{}
	for _, rf := range profile.RiskFactors {
		if slices.Contains(patientRisks, rf) {
			matched = append(matched, rf)
		}
	}

	plan := []string{
		fmt.Sprintf("Draw a %s level after steady state (%s)", profile.SampleType, profile.TimeToSteadyState),
		fmt.Sprintf("Target range %g-%g %s", profile.TherapeuticRange.Lower, profile.TherapeuticRange.Upper, profile.TherapeuticRange.Unit),
		"Monitoring frequency: " + profile.MonitoringFrequency,
	}
	if len(matched) > 0 {
		plan = append(plan, "Consider earlier and more frequent levels because of: "+strings.Join(matched, ", "))
	}

	uc.logger.Debug("TDM candidate assessed",
		slog.String("drug", profile.Drug),
		slog.Int("matched_risk_factors", len(matched)),
	)
	return TDMCandidateAssessment{
		DrugName:     in.DrugName,
		TdmIndicated: true,
		SampleType:   profile.SampleType,
		SampleTiming: SampleSchedule{
			FirstSampleAt: firstSample,
			Basis:         fmt.Sprintf("medication start + %g day(s) to steady state", days),
		},
		Profile:            &profile,
		RiskFactors:        matched,
		PatientRiskFactors: patientRisks,
		MonitoringPlan:     plan,
		Rationale:          fmt.Sprintf("%s has a narrow therapeutic range (%s half-life)", profile.Drug, profile.HalfLife),
	}, nil
}

// Narrative summarizes the assessment for the agent.
func (a TDMCandidateAssessment) Narrative() string {
	var b strings.Builder
	if !a.TdmIndicated {
		fmt.Fprintf(&b, "TDM not indicated for %s. %s.\n", a.DrugName, a.Rationale)
		return b.String()
	}
	fmt.Fprintf(&b, "TDM indicated for %s. Draw a %s sample at %s.\n",
		a.DrugName, a.SampleType, a.SampleTiming.FirstSampleAt.Format(time.RFC3339))
	if len(a.RiskFactors) > 0 {
		fmt.Fprintf(&b, "Patient risk factors relevant to this drug: %s.\n", strings.Join(a.RiskFactors, ", "))
	}
	bulletList(&b, a.MonitoringPlan)
	return b.String()
}

// --- Result interpretation ---

// InterpretTDMResultInput is the input of interpret_tdm_result.
type InterpretTDMResultInput struct {
	DrugName              string                   `json:"drug_name"`
	MeasuredConcentration float64                  `json:"measured_concentration"`
	TherapeuticRange      *domain.TherapeuticRange `json:"therapeutic_range,omitempty"`
	CurrentDose           float64                  `json:"current_dose"`
	DoseUnit              string                   `json:"dose_unit,omitempty"`
	SampleType            domain.SampleType        `json:"sample_type,omitempty"`
	DoseTime              string                   `json:"dose_time,omitempty"`
	CollectionTime        string                   `json:"collection_time,omitempty"`
	ClinicalResponse      domain.ClinicalEffect    `json:"clinical_response"`
	AdverseEffects        []string                 `json:"adverse_effects,omitempty"`
	ToxicitySigns         []string                 `json:"toxicity_signs,omitempty"`
}

// SampleTimingCheck is advisory and never blocks interpretation.
type SampleTimingCheck struct {
	SampleType       domain.SampleType `json:"sample_type"`
	Assessed         bool              `json:"assessed"`
	Appropriate      bool              `json:"appropriate"`
	MinutesAfterDose *float64          `json:"minutes_after_dose,omitempty"`
	Message          string            `json:"message"`
}

// DoseRecommendation is the dose change derived from level and response.
type DoseRecommendation struct {
	Action            domain.DoseAction `json:"action"`
	CurrentDose       float64           `json:"current_dose"`
	NewDose           float64           `json:"new_dose"`
	DoseUnit          string            `json:"dose_unit,omitempty"`
	Multiplier        *float64          `json:"multiplier,omitempty"`
	ExpectedNewLevel  *float64          `json:"expected_new_level,omitempty"`
	Rationale         string            `json:"rationale"`
	ApproximationNote string            `json:"approximation_note,omitempty"`
}

// FollowUpPlan lists the monitoring after an interpretation.
type FollowUpPlan struct {
	RepeatTDM          bool       `json:"repeat_tdm"`
	RepeatTDMAt        *time.Time `json:"repeat_tdm_at,omitempty"`
	ClinicalMonitoring []string   `json:"clinical_monitoring"`
	LabMonitoring      []string   `json:"lab_monitoring"`
}

// TDMInterpretation is the output of interpret_tdm_result.
type TDMInterpretation struct {
	DrugName              string                  `json:"drug_name"`
	MeasuredConcentration float64                 `json:"measured_concentration"`
	TherapeuticRange      domain.TherapeuticRange `json:"therapeutic_range"`
	LevelStatus           domain.LevelStatus      `json:"level_status"`
	SampleTiming          SampleTimingCheck       `json:"sample_timing"`
	ClinicalResponse      domain.ClinicalEffect   `json:"clinical_response"`
	DoseRecommendation    DoseRecommendation      `json:"dose_recommendation"`
	FollowUp              FollowUpPlan            `json:"follow_up"`
	Alerts                []string                `json:"alerts"`
}

// CheckSampleTiming validates when the sample was drawn relative to the dose.
// Trough: -60 <= delta <= 0 minutes. Peak: 60 <= delta <= 180 minutes.
func CheckSampleTiming(sampleType domain.SampleType, doseTime, collectionTime time.Time, haveTimes bool) SampleTimingCheck {
	check := SampleTimingCheck{SampleType: sampleType, Appropriate: true}
	if sampleType == domain.SampleRandom {
		check.Assessed = haveTimes
		check.Message = "Random sample; timing not restricted"
		return check
	}
	if !haveTimes {
		check.Message = "Dose and collection times not provided; timing not assessed"
		return check
	}

	delta := collectionTime.Sub(doseTime).Minutes()
	check.Assessed = true
	check.MinutesAfterDose = &delta
	switch sampleType {
	case domain.SampleTrough:
		check.Appropriate = delta >= -troughWindowMinutes && delta <= 0
		if check.Appropriate {
			check.Message = "Trough drawn within 60 minutes before the dose"
		} else {
			check.Message = fmt.Sprintf("Trough drawn %.0f minutes relative to the dose; expected within 60 minutes before it. Interpret with caution", delta)
		}
	case domain.SamplePeak:
		check.Appropriate = delta >= peakWindowMinMinutes && delta <= peakWindowMaxMinutes
		if check.Appropriate {
			check.Message = "Peak drawn 60-180 minutes after the dose"
		} else {
			check.Message = fmt.Sprintf("Peak drawn %.0f minutes after the dose; expected 60-180 minutes. Interpret with caution", delta)
		}
	}
	return check
}

// RecommendDose applies the dose recommendation table.
func RecommendDose(status domain.LevelStatus, effect domain.ClinicalEffect, measured, currentDose float64, adverseEffects, toxicitySigns []string) DoseRecommendation {
	rec := DoseRecommendation{CurrentDose: currentDose}
	scale := func(action domain.DoseAction, m float64, rationale string) {
		rec.Action = action
		rec.Multiplier = &m
		rec.NewDose = round2(currentDose * m)
		expected := round2(measured * m)
		rec.ExpectedNewLevel = &expected
		rec.Rationale = rationale
		rec.ApproximationNote = approximationNoteLinear
	}
	keep := func(rationale string) {
		rec.Action = domain.DoseMaintain
		rec.NewDose = round2(currentDose)
		rec.Rationale = rationale
	}

	switch status {
	case domain.LevelSubtherapeutic:
		if effect == domain.EffectNone || effect == domain.EffectPartial {
			scale(domain.DoseIncrease, IncreaseMultiplier, "inadequate response")
		} else {
			keep("adequate response despite low level")
		}
	case domain.LevelTherapeutic:
		keep("on target")
	case domain.LevelSupratherapeutic:
		if len(adverseEffects) > 0 {
			scale(domain.DoseDecrease, DecreaseMultiplier, "adverse effects present")
		} else {
			keep("monitor closely")
		}
	case domain.LevelToxic:
		if len(toxicitySigns) > 0 {
			rec.Action = domain.DoseDiscontinue
			rec.NewDose = 0
			rec.Rationale = "immediate safety stop"
		} else {
			scale(domain.DoseDecrease, PrecautionaryHalving, "precautionary halving")
		}
	}
	return rec
}

// InterpretResult classifies a measured level and recommends a dose change.
func (uc *TDMUseCase) InterpretResult(ctx context.Context, in InterpretTDMResultInput) (TDMInterpretation, error) {
	profile, hasProfile := uc.repository.FindTdmProfile(in.DrugName)

	var rng domain.TherapeuticRange
	switch {
	case in.TherapeuticRange != nil:
		rng = *in.TherapeuticRange
		if rng.Unit == "" && hasProfile {
			rng.Unit = profile.TherapeuticRange.Unit
		}
	case hasProfile:
		rng = profile.TherapeuticRange
	default:
		return TDMInterpretation{}, domain.NewValidationError("therapeutic_range", "is required for drugs without a TDM profile")
	}
	if rng.Lower > rng.Upper {
		return TDMInterpretation{}, domain.NewValidationError("therapeutic_range", "lower must not exceed upper")
	}

	sampleType := in.SampleType
	if sampleType == "" {
		sampleType = domain.SampleRandom
		if hasProfile {
			sampleType = profile.SampleType
		}
	}
	doseTime, haveDose, err := parseTime("dose_time", in.DoseTime)
	if err != nil {
		return TDMInterpretation{}, err
	}
	collectionTime, haveCollection, err := parseTime("collection_time", in.CollectionTime)
	if err != nil {
		return TDMInterpretation{}, err
	}

	status := domain.ClassifyLevel(in.MeasuredConcentration, rng)
	rec := RecommendDose(status, in.ClinicalResponse, in.MeasuredConcentration, in.CurrentDose, in.AdverseEffects, in.ToxicitySigns)
	rec.DoseUnit = in.DoseUnit

	uc.logger.Debug("TDM result interpreted",
		slog.String("drug", in.DrugName),
		slog.String("level_status", string(status)),
		slog.String("action", string(rec.Action)),
	)
	return TDMInterpretation{
		DrugName:              in.DrugName,
		MeasuredConcentration: in.MeasuredConcentration,
		TherapeuticRange:      rng,
		LevelStatus:           status,
		SampleTiming:          CheckSampleTiming(sampleType, doseTime, collectionTime, haveDose && haveCollection),
		ClinicalResponse:      in.ClinicalResponse,
		DoseRecommendation:    rec,
		FollowUp:              uc.followUp(in.DrugName, status),
		Alerts:                tdmAlerts(in, status, rng),
	}, nil
}

func (uc *TDMUseCase) followUp(drug string, status domain.LevelStatus) FollowUpPlan {
	plan := FollowUpPlan{
		ClinicalMonitoring: []string{"Monitor clinical response and adverse effects"},
		LabMonitoring:      []string{},
	}
	if status != domain.LevelTherapeutic {
		at := uc.now().Add(RepeatTDMDelay)
		plan.RepeatTDM = true
		plan.RepeatTDMAt = &at
		plan.LabMonitoring = append(plan.LabMonitoring, "Repeat drug level in 2 days")
	}

	name := normalizeName(drug)
	if strings.Contains(name, "vancomycin") {
		plan.ClinicalMonitoring = append(plan.ClinicalMonitoring,
			"Monitor urine output for nephrotoxicity",
			"Assess hearing, tinnitus and balance for ototoxicity")
		plan.LabMonitoring = append(plan.LabMonitoring,
			"Serum creatinine and BUN at least every 48 hours",
			"Audiometry if therapy exceeds 7 days")
	}
	if strings.Contains(name, "digoxin") {
		plan.ClinicalMonitoring = append(plan.ClinicalMonitoring,
			"Apical heart rate before each dose; hold if below 60 bpm",
			"ECG for rhythm disturbances")
		plan.LabMonitoring = append(plan.LabMonitoring,
			"Serum potassium and magnesium",
			"Renal function")
	}
	if status == domain.LevelToxic {
		plan.ClinicalMonitoring = append(plan.ClinicalMonitoring,
			"Monitor for organ toxicity (renal, hepatic, cardiac, neurological) until the level is therapeutic")
	}
	return plan
}

func tdmAlerts(in InterpretTDMResultInput, status domain.LevelStatus, rng domain.TherapeuticRange) []string {
	alerts := []string{}
	if status == domain.LevelToxic {
		alerts = append(alerts,
			fmt.Sprintf("URGENT: %s level %g exceeds the toxic threshold of %g %s", in.DrugName, in.MeasuredConcentration, rng.Upper*domain.ToxicMultiplier, rng.Unit),
			"URGENT: hold the next dose and notify the prescriber immediately")
	}
	if status == domain.LevelSupratherapeutic && len(in.AdverseEffects) > 0 {
		alerts = append(alerts, fmt.Sprintf("%s level above range with adverse effects: %s", in.DrugName, strings.Join(in.AdverseEffects, ", ")))
	}
	if status == domain.LevelSubtherapeutic && in.ClinicalResponse == domain.EffectNone {
		alerts = append(alerts, fmt.Sprintf("%s level subtherapeutic with no clinical effect; risk of treatment failure", in.DrugName))
	}
	return alerts
}

// Narrative summarizes the interpretation for the agent.
func (r TDMInterpretation) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s level %g %s is %s (target %g-%g).\n",
		r.DrugName, r.MeasuredConcentration, r.TherapeuticRange.Unit, r.LevelStatus,
		r.TherapeuticRange.Lower, r.TherapeuticRange.Upper)
	rec := r.DoseRecommendation
	switch rec.Action {
	case domain.DoseIncrease, domain.DoseDecrease:
		fmt.Fprintf(&b, "Recommendation: %s dose from %g to %g %s (%s).\n", rec.Action, rec.CurrentDose, rec.NewDose, rec.DoseUnit, rec.Rationale)
	case domain.DoseDiscontinue:
		fmt.Fprintf(&b, "Recommendation: discontinue (%s).\n", rec.Rationale)
	default:
		fmt.Fprintf(&b, "Recommendation: maintain current dose (%s).\n", rec.Rationale)
	}
	if !r.SampleTiming.Appropriate {
		b.WriteString("Sample timing: " + r.SampleTiming.Message + ".\n")
	}
	bulletList(&b, r.Alerts)
	return b.String()
}
