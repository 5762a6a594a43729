package usecase_test

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/i2y/clinicalmcp/internal/domain"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f64(v float64) *float64 { return &v }

// fixtureRepository serves small hand-written tables so evaluators can be
// tested independently of the built-in reference data.
type fixtureRepository struct {
	tdm          []domain.TdmProfile
	interactions []domain.DrugInteraction
	labs         []domain.LabReferenceRange
	vitals       []domain.VitalSignRange
	rules        []domain.ClinicalRule
	highAlert    []domain.HighAlertDrug
}

func newFixtureRepository() *fixtureRepository {
	return &fixtureRepository{
		tdm: []domain.TdmProfile{
			{
				Drug:                "vancomycin",
				TherapeuticRange:    domain.TherapeuticRange{Lower: 10, Upper: 20, Unit: "mg/L"},
				ToxicLevel:          30,
				HalfLife:            "6-12 hours",
				TimeToSteadyState:   "2-3 days",
				MonitoringFrequency: "weekly",
				SampleType:          domain.SampleTrough,
				RiskFactors:         []string{"renal impairment", "elderly"},
			},
			{
				Drug:                "digoxin",
				TherapeuticRange:    domain.TherapeuticRange{Lower: 0.5, Upper: 2, Unit: "ng/mL"},
				TimeToSteadyState:   "7 days",
				SampleType:          domain.SampleTrough,
				RiskFactors:         []string{"renal impairment", "polypharmacy"},
				MonitoringFrequency: "weekly",
			},
			{
				Drug:              "gentamicin",
				TherapeuticRange:  domain.TherapeuticRange{Lower: 5, Upper: 10, Unit: "mg/L"},
				TimeToSteadyState: "1 day",
				SampleType:        domain.SamplePeak,
				RiskFactors:       []string{"renal impairment"},
			},
		},
		interactions: []domain.DrugInteraction{
			{DrugA: "warfarin", DrugB: "aspirin", Severity: domain.InteractionMajor, Effect: "bleeding", Management: "monitor INR"},
			{DrugA: "simvastatin", DrugB: "clarithromycin", Severity: domain.InteractionContraindicated, Effect: "rhabdomyolysis", Management: "withhold statin"},
			{DrugA: "levothyroxine", DrugB: "calcium", Severity: domain.InteractionMinor, Effect: "reduced absorption", Management: "separate doses"},
			{DrugA: "lithium", DrugB: "lisinopril", Severity: domain.InteractionModerate, Effect: "lithium toxicity", Management: "monitor levels"},
		},
		labs: []domain.LabReferenceRange{
			{Test: "potassium", Category: "electrolytes", Unit: "mmol/L", Low: 3.5, High: 5.0, CriticalLow: f64(2.5), CriticalHigh: f64(6.5), Gender: domain.GenderBoth, AgeGroup: "adult"},
			{Test: "hemoglobin", Category: "hematology", Unit: "g/dL", Low: 13.5, High: 17.5, Gender: "male", AgeGroup: "adult"},
			{Test: "hemoglobin", Category: "hematology", Unit: "g/dL", Low: 12.0, High: 15.5, Gender: "female", AgeGroup: "adult"},
			{Test: "creatinine", Category: "renal", Unit: "mg/dL", Low: 0.7, High: 1.3, Gender: "male", AgeGroup: "adult"},
		},
		vitals: []domain.VitalSignRange{
			{Parameter: "heart_rate", AgeGroup: "adult", Unit: "bpm", NormalMin: 60, NormalMax: 100, CriticalLow: f64(40), CriticalHigh: f64(150)},
			{Parameter: "heart_rate", AgeGroup: "pediatric", Unit: "bpm", NormalMin: 70, NormalMax: 120},
			{Parameter: "oxygen_saturation", AgeGroup: "adult", Unit: "%", NormalMin: 95, NormalMax: 100, CriticalLow: f64(88)},
			{Parameter: "temperature", AgeGroup: "adult", Unit: "°C", NormalMin: 36.1, NormalMax: 37.8},
		},
		rules: []domain.ClinicalRule{
			{ID: "R1", Name: "Vancomycin trough", Category: "therapeutic drug monitoring", Severity: "moderate", EvidenceLevel: "B", Description: "trough before fourth dose"},
			{ID: "R2", Name: "Two identifiers", Category: "medication administration", Severity: "high", EvidenceLevel: "A", Description: "confirm identity"},
			{ID: "R3", Name: "High-alert double check", Category: "medication administration", Severity: "high", EvidenceLevel: "B", Description: "double check insulin"},
		},
		highAlert: []domain.HighAlertDrug{
			{Name: "insulin", Class: "hypoglycemic"},
			{Name: "warfarin", Class: "anticoagulant"},
		},
	}
}

func (r *fixtureRepository) FindTdmProfile(drug string) (domain.TdmProfile, bool) {
	for _, p := range r.tdm {
		if strings.EqualFold(p.Drug, strings.TrimSpace(drug)) {
			return p, true
		}
	}
	return domain.TdmProfile{}, false
}

func (r *fixtureRepository) TdmProfiles() []domain.TdmProfile { return r.tdm }
func (r *fixtureRepository) Interactions() []domain.DrugInteraction { return r.interactions }
func (r *fixtureRepository) LabRanges() []domain.LabReferenceRange { return r.labs }
func (r *fixtureRepository) VitalSignRanges() []domain.VitalSignRange { return r.vitals }
func (r *fixtureRepository) ClinicalRules() []domain.ClinicalRule { return r.rules }

func (r *fixtureRepository) FindHighAlertDrug(drug string) (domain.HighAlertDrug, bool) {
	for _, h := range r.highAlert {
		if strings.Contains(strings.ToLower(drug), h.Name) {
			return h, true
		}
	}
	return domain.HighAlertDrug{}, false
}

// MockReferenceRepository is a mock implementation of ReferenceRepository.
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) FindTdmProfile(drug string) (domain.TdmProfile, bool) {
	args := m.Called(drug)
	return args.Get(0).(domain.TdmProfile), args.Bool(1)
}

func (m *MockReferenceRepository) TdmProfiles() []domain.TdmProfile {
	return m.Called().Get(0).([]domain.TdmProfile)
}

func (m *MockReferenceRepository) Interactions() []domain.DrugInteraction {
	return m.Called().Get(0).([]domain.DrugInteraction)
}

func (m *MockReferenceRepository) LabRanges() []domain.LabReferenceRange {
	return m.Called().Get(0).([]domain.LabReferenceRange)
}

func (m *MockReferenceRepository) VitalSignRanges() []domain.VitalSignRange {
	return m.Called().Get(0).([]domain.VitalSignRange)
}

func (m *MockReferenceRepository) ClinicalRules() []domain.ClinicalRule {
	return m.Called().Get(0).([]domain.ClinicalRule)
}

func (m *MockReferenceRepository) FindHighAlertDrug(drug string) (domain.HighAlertDrug, bool) {
	args := m.Called(drug)
	return args.Get(0).(domain.HighAlertDrug), args.Bool(1)
}
