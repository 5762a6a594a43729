package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/clinicalmcp/internal/usecase"
)

func completeSOAPInput() usecase.SOAPNoteInput {
	return usecase.SOAPNoteInput{
		PatientID:               "P1",
		Clinician:               "RN Smith",
		ChiefComplaint:          "palpitations",
		HistoryOfPresentIllness: "two days of intermittent palpitations",
		Allergies:               []string{"penicillin"},
		Vitals:                  &usecase.VitalSigns{HeartRate: f64(118), Temperature: f64(37)},
		Labs:                    []usecase.LabValue{{Test: "potassium", Value: 3.1}},
		PhysicalExam:            "irregular rhythm",
		Assessment:              []string{"new onset atrial fibrillation"},
		Plan:                    []string{"ECG", "cardiology review"},
	}
}

func TestDocumentationUseCase_GenerateSOAPNote(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*usecase.SOAPNoteInput)
		wantFormat  string
		wantScore   int
		wantMissing []string
		wantContent []string
	}{
		{
			name:        "complete markdown note",
			wantFormat:  usecase.FormatMarkdown,
			wantScore:   100,
			wantMissing: []string{},
			wantContent: []string{"# SOAP Note", "## Objective", "heart rate: 118 bpm (high)", "potassium: 3.1 mmol/L (low"},
		},
		{
			name:        "html output",
			mutate:      func(in *usecase.SOAPNoteInput) { in.OutputFormat = "HTML" },
			wantFormat:  usecase.FormatHTML,
			wantScore:   100,
			wantMissing: []string{},
			wantContent: []string{"<h1>SOAP Note</h1>", "<h2>Plan</h2>", "<li>ECG</li>"},
		},
		{
			name: "sparse text note",
			mutate: func(in *usecase.SOAPNoteInput) {
				in.OutputFormat = usecase.FormatText
				in.HistoryOfPresentIllness = ""
				in.Vitals = nil
				in.Labs = nil
				in.PhysicalExam = ""
				in.Plan = nil
				in.Allergies = nil
			},
			wantFormat:  usecase.FormatText,
			wantScore:   35,
			wantMissing: []string{"history of present illness", "vital signs", "physical exam", "laboratory results", "plan", "allergies"},
			wantContent: []string{"SOAP NOTE", "OBJECTIVE\n  Not documented", "Allergies: not documented"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := completeSOAPInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			uc := usecase.NewDocumentationUseCase(newFixtureRepository(), fixedClock, testLogger())
			got, err := uc.GenerateSOAPNote(context.Background(), in)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFormat, got.Format)
			assert.Equal(t, tt.wantScore, got.CompletenessScore)
			assert.Equal(t, tt.wantMissing, got.MissingElements)
			assert.Equal(t, "2024-05-01", got.EncounterDate)
			for _, want := range tt.wantContent {
				assert.Contains(t, got.Content, want)
			}
			assert.Equal(t, got.Content, got.Narrative())
		})
	}
}

func TestDocumentationUseCase_GenerateSOAPNote_FlagsAbnormalFindings(t *testing.T) {
	uc := usecase.NewDocumentationUseCase(newFixtureRepository(), fixedClock, testLogger())
	got, err := uc.GenerateSOAPNote(context.Background(), completeSOAPInput())
	require.NoError(t, err)

	assert.Len(t, got.Flags, 2)
	assert.Len(t, got.VitalFindings, 2)
	assert.Len(t, got.LabFindings, 1)
	require.NotEmpty(t, got.Sections.Assessment)
	assert.Contains(t, got.Sections.Assessment[len(got.Sections.Assessment)-1], "Abnormal findings requiring review")
}
