package usecase_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

func newTDMUseCase() *usecase.TDMUseCase {
	return usecase.NewTDMUseCase(newFixtureRepository(), fixedClock, testLogger())
}

func TestTDMUseCase_AssessCandidate(t *testing.T) {
	ctx := context.Background()
	uc := newTDMUseCase()

	tests := []struct {
		name            string
		in              usecase.AssessTDMCandidateInput
		wantErr         bool
		wantIndicated   bool
		wantSampleType  domain.SampleType
		wantRiskFactors []string
		wantFirstSample time.Time
	}{
		{
			name:            "vancomycin without organ impairment",
			in:              usecase.AssessTDMCandidateInput{DrugName: "vancomycin", PatientAge: 40, EGFR: f64(95)},
			wantIndicated:   true,
			wantSampleType:  domain.SampleTrough,
			wantRiskFactors: []string{},
			wantFirstSample: fixedNow.Add(48 * time.Hour),
		},
		{
			name:            "case-insensitive lookup with medication start",
			in:              usecase.AssessTDMCandidateInput{DrugName: "VANCOMYCIN", PatientAge: 40, MedicationStart: "2024-04-30T20:00:00Z"},
			wantIndicated:   true,
			wantSampleType:  domain.SampleTrough,
			wantRiskFactors: []string{},
			wantFirstSample: time.Date(2024, 5, 2, 20, 0, 0, 0, time.UTC),
		},
		{
			name: "intersection keeps drug order",
			in: usecase.AssessTDMCandidateInput{
				DrugName: "vancomycin", PatientAge: 70, EGFR: f64(45),
				ConcurrentMedications: []string{"a", "b", "c", "d", "e", "f"},
			},
			wantIndicated:   true,
			wantSampleType:  domain.SampleTrough,
			wantRiskFactors: []string{"renal impairment", "elderly"},
			wantFirstSample: fixedNow.Add(48 * time.Hour),
		},
		{
			name:            "hepatic impairment not relevant to digoxin",
			in:              usecase.AssessTDMCandidateInput{DrugName: "digoxin", PatientAge: 50, ChildPughScore: "B"},
			wantIndicated:   true,
			wantSampleType:  domain.SampleTrough,
			wantRiskFactors: []string{},
			wantFirstSample: fixedNow.Add(7 * 24 * time.Hour),
		},
		{
			name:            "non TDM drug",
			in:              usecase.AssessTDMCandidateInput{DrugName: "amoxicillin", PatientAge: 80, EGFR: f64(20)},
			wantIndicated:   false,
			wantSampleType:  domain.SampleRandom,
			wantRiskFactors: []string{},
			wantFirstSample: fixedNow.Add(24 * time.Hour),
		},
		{
			name:    "bad medication start",
			in:      usecase.AssessTDMCandidateInput{DrugName: "vancomycin", MedicationStart: "yesterday"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.AssessCandidate(ctx, tt.in)
			if tt.wantErr {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "medication_start", verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndicated, got.TdmIndicated)
			assert.Equal(t, tt.wantSampleType, got.SampleType)
			assert.Equal(t, tt.wantRiskFactors, got.RiskFactors)
			assert.True(t, tt.wantFirstSample.Equal(got.SampleTiming.FirstSampleAt), "first sample %s", got.SampleTiming.FirstSampleAt)
			assert.NotEmpty(t, got.Narrative())
		})
	}
}

func TestTDMUseCase_AssessCandidate_AbsentDrugsAreNeverIndicated(t *testing.T) {
	uc := newTDMUseCase()
	for _, drug := range []string{"", "paracetamol", "vanco", "digoxin tablets", "zzz"} {
		got, err := uc.AssessCandidate(context.Background(), usecase.AssessTDMCandidateInput{DrugName: drug})
		require.NoError(t, err)
		assert.False(t, got.TdmIndicated, drug)
		assert.Equal(t, domain.SampleRandom, got.SampleType, drug)
	}
}

func TestTDMUseCase_AssessCandidate_UsesRepository(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("FindTdmProfile", "lithium").Return(domain.TdmProfile{}, false).Once()
	uc := usecase.NewTDMUseCase(repo, fixedClock, testLogger())

	got, err := uc.AssessCandidate(context.Background(), usecase.AssessTDMCandidateInput{DrugName: "lithium"})
	require.NoError(t, err)
	assert.False(t, got.TdmIndicated)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "TdmProfiles")
}

func TestPatientRiskFactors(t *testing.T) {
	got := usecase.PatientRiskFactors(usecase.AssessTDMCandidateInput{
		PatientAge:            66,
		EGFR:                  f64(59.9),
		ChildPughScore:        "c",
		ConcurrentMedications: []string{"1", "2", "3", "4", "5", "6"},
	})
	assert.Equal(t, []string{"renal impairment", "hepatic impairment", "elderly", "polypharmacy"}, got)

	got = usecase.PatientRiskFactors(usecase.AssessTDMCandidateInput{
		PatientAge:            65,
		EGFR:                  f64(60),
		ChildPughScore:        "A",
		ConcurrentMedications: []string{"1", "2", "3", "4", "5"},
	})
	assert.Empty(t, got)
}

func TestTDMUseCase_InterpretResult_Scenarios(t *testing.T) {
	ctx := context.Background()
	uc := newTDMUseCase()
	rng := &domain.TherapeuticRange{Lower: 10, Upper: 20}

	t.Run("supratherapeutic without adverse effects maintains", func(t *testing.T) {
		got, err := uc.InterpretResult(ctx, usecase.InterpretTDMResultInput{
			DrugName: "vancomycin", MeasuredConcentration: 25, TherapeuticRange: rng,
			CurrentDose: 1000, ClinicalResponse: domain.EffectAdequate,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LevelSupratherapeutic, got.LevelStatus)
		assert.Equal(t, domain.DoseMaintain, got.DoseRecommendation.Action)
		assert.Nil(t, got.DoseRecommendation.ExpectedNewLevel)
	})

	t.Run("supratherapeutic with nausea decreases", func(t *testing.T) {
		got, err := uc.InterpretResult(ctx, usecase.InterpretTDMResultInput{
			DrugName: "vancomycin", MeasuredConcentration: 25, TherapeuticRange: rng,
			CurrentDose: 1250, ClinicalResponse: domain.EffectAdequate, AdverseEffects: []string{"nausea"},
		})
		require.NoError(t, err)
		rec := got.DoseRecommendation
		assert.Equal(t, domain.DoseDecrease, rec.Action)
		assert.Equal(t, 1000.0, rec.NewDose)
		require.NotNil(t, rec.ExpectedNewLevel)
		assert.Equal(t, 20.0, *rec.ExpectedNewLevel)
		assert.NotEmpty(t, rec.ApproximationNote)
		assert.Len(t, got.Alerts, 1)
	})
}

func TestRecommendDose(t *testing.T) {
	tests := []struct {
		name         string
		status       domain.LevelStatus
		effect       domain.ClinicalEffect
		adverse      []string
		toxicity     []string
		wantAction   domain.DoseAction
		wantMultiple float64
		wantRational string
	}{
		{"sub none", domain.LevelSubtherapeutic, domain.EffectNone, nil, nil, domain.DoseIncrease, 1.25, "inadequate response"},
		{"sub partial", domain.LevelSubtherapeutic, domain.EffectPartial, nil, nil, domain.DoseIncrease, 1.25, "inadequate response"},
		{"sub adequate", domain.LevelSubtherapeutic, domain.EffectAdequate, nil, nil, domain.DoseMaintain, 0, "adequate response despite low level"},
		{"sub excessive", domain.LevelSubtherapeutic, domain.EffectExcessive, nil, nil, domain.DoseMaintain, 0, "adequate response despite low level"},
		{"therapeutic", domain.LevelTherapeutic, domain.EffectNone, []string{"rash"}, nil, domain.DoseMaintain, 0, "on target"},
		{"supra adverse", domain.LevelSupratherapeutic, domain.EffectAdequate, []string{"nausea"}, nil, domain.DoseDecrease, 0.8, "adverse effects present"},
		{"supra quiet", domain.LevelSupratherapeutic, domain.EffectAdequate, nil, nil, domain.DoseMaintain, 0, "monitor closely"},
		{"toxic signs", domain.LevelToxic, domain.EffectExcessive, nil, []string{"arrhythmia"}, domain.DoseDiscontinue, 0, "immediate safety stop"},
		{"toxic quiet", domain.LevelToxic, domain.EffectAdequate, nil, nil, domain.DoseDecrease, 0.5, "precautionary halving"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const measured, dose = 13.37, 333.33
			rec := usecase.RecommendDose(tt.status, tt.effect, measured, dose, tt.adverse, tt.toxicity)
			assert.Equal(t, tt.wantAction, rec.Action)
			assert.Equal(t, tt.wantRational, rec.Rationale)
			if tt.wantMultiple == 0 {
				assert.Nil(t, rec.Multiplier)
				assert.Nil(t, rec.ExpectedNewLevel)
				return
			}
			require.NotNil(t, rec.ExpectedNewLevel)
			assert.Equal(t, tt.wantMultiple, *rec.Multiplier)
			// multiplier applied to the measured level and rounded reproduces the expected level
			assert.Equal(t, math.Round(measured*tt.wantMultiple*100)/100, *rec.ExpectedNewLevel)
			assert.Equal(t, math.Round(dose*tt.wantMultiple*100)/100, rec.NewDose)
		})
	}
}

func TestCheckSampleTiming(t *testing.T) {
	dose := fixedNow
	tests := []struct {
		name      string
		sample    domain.SampleType
		offset    time.Duration
		haveTimes bool
		wantOK    bool
		assessed  bool
	}{
		{"trough 60 before", domain.SampleTrough, -60 * time.Minute, true, true, true},
		{"trough at dose", domain.SampleTrough, 0, true, true, true},
		{"trough 61 before", domain.SampleTrough, -61 * time.Minute, true, false, true},
		{"trough after dose", domain.SampleTrough, time.Minute, true, false, true},
		{"peak 60 after", domain.SamplePeak, 60 * time.Minute, true, true, true},
		{"peak 180 after", domain.SamplePeak, 180 * time.Minute, true, true, true},
		{"peak 59 after", domain.SamplePeak, 59 * time.Minute, true, false, true},
		{"peak 181 after", domain.SamplePeak, 181 * time.Minute, true, false, true},
		{"random anytime", domain.SampleRandom, 500 * time.Minute, true, true, true},
		{"trough without times", domain.SampleTrough, 0, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.CheckSampleTiming(tt.sample, dose, dose.Add(tt.offset), tt.haveTimes)
			assert.Equal(t, tt.wantOK, got.Appropriate)
			assert.Equal(t, tt.assessed, got.Assessed)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestTDMUseCase_InterpretResult_TimingIsAdvisory(t *testing.T) {
	got, err := newTDMUseCase().InterpretResult(context.Background(), usecase.InterpretTDMResultInput{
		DrugName:              "gentamicin",
		MeasuredConcentration: 7,
		CurrentDose:           400,
		ClinicalResponse:      domain.EffectAdequate,
		DoseTime:              "2024-05-01T08:00:00Z",
		CollectionTime:        "2024-05-01T08:30:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SamplePeak, got.SampleTiming.SampleType)
	assert.False(t, got.SampleTiming.Appropriate)
	assert.Equal(t, 30.0, *got.SampleTiming.MinutesAfterDose)
	assert.Equal(t, domain.LevelTherapeutic, got.LevelStatus)
	assert.Equal(t, domain.TherapeuticRange{Lower: 5, Upper: 10, Unit: "mg/L"}, got.TherapeuticRange)
}

func TestTDMUseCase_InterpretResult_FollowUpAndAlerts(t *testing.T) {
	ctx := context.Background()
	uc := newTDMUseCase()

	t.Run("toxic vancomycin", func(t *testing.T) {
		got, err := uc.InterpretResult(ctx, usecase.InterpretTDMResultInput{
			DrugName: "vancomycin", MeasuredConcentration: 40, CurrentDose: 1000,
			ClinicalResponse: domain.EffectAdequate,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LevelToxic, got.LevelStatus)
		assert.Len(t, got.Alerts, 2)
		assert.True(t, got.FollowUp.RepeatTDM)
		require.NotNil(t, got.FollowUp.RepeatTDMAt)
		assert.True(t, fixedNow.Add(48*time.Hour).Equal(*got.FollowUp.RepeatTDMAt))
		assert.Contains(t, got.FollowUp.ClinicalMonitoring[len(got.FollowUp.ClinicalMonitoring)-1], "organ toxicity")
		assert.Contains(t, got.FollowUp.LabMonitoring, "Serum creatinine and BUN at least every 48 hours")
	})

	t.Run("therapeutic digoxin has no repeat level", func(t *testing.T) {
		got, err := uc.InterpretResult(ctx, usecase.InterpretTDMResultInput{
			DrugName: "Digoxin", MeasuredConcentration: 1.2, CurrentDose: 0.125,
			ClinicalResponse: domain.EffectAdequate,
		})
		require.NoError(t, err)
		assert.False(t, got.FollowUp.RepeatTDM)
		assert.Nil(t, got.FollowUp.RepeatTDMAt)
		assert.Contains(t, got.FollowUp.LabMonitoring, "Serum potassium and magnesium")
		assert.Empty(t, got.Alerts)
	})

	t.Run("subtherapeutic with no effect alerts once", func(t *testing.T) {
		got, err := uc.InterpretResult(ctx, usecase.InterpretTDMResultInput{
			DrugName: "vancomycin", MeasuredConcentration: 5, CurrentDose: 1000,
			ClinicalResponse: domain.EffectNone,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.DoseIncrease, got.DoseRecommendation.Action)
		assert.Equal(t, 1250.0, got.DoseRecommendation.NewDose)
		assert.Equal(t, 6.25, *got.DoseRecommendation.ExpectedNewLevel)
		assert.Len(t, got.Alerts, 1)
	})

	t.Run("unknown drug without range is invalid", func(t *testing.T) {
		_, err := uc.InterpretResult(ctx, usecase.InterpretTDMResultInput{
			DrugName: "mystery", MeasuredConcentration: 5, CurrentDose: 1, ClinicalResponse: domain.EffectNone,
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "therapeutic_range", verr.Fields[0].Field)
	})
}
