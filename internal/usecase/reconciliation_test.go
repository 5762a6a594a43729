package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

func newReconciliationUseCase() *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(newFixtureRepository(), fixedClock, sequentialIDs(), testLogger())
}

func TestReconciliationUseCase_GatherBPMH(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	got, err := newReconciliationUseCase().GatherBPMH(context.Background(), usecase.GatherBPMHInput{
		PatientID: "P1",
		Medications: []usecase.BPMHMedication{
			{Category: domain.CategoryHerbal, MedicationEntry: domain.MedicationEntry{DrugName: "ginkgo", Dose: "120 mg", Frequency: "daily", Route: "oral", LastTaken: "today", Source: domain.SelfAdministered()}},
			{Category: domain.CategoryPrescription, MedicationEntry: domain.MedicationEntry{DrugName: "warfarin", Dose: "5 mg", Frequency: "daily", Route: "oral", LastTaken: "yesterday", Source: domain.Prescribed("Dr Lee")}},
			{Category: domain.CategoryPrescription, MedicationEntry: domain.MedicationEntry{DrugName: "metformin", Frequency: "bid", Route: "oral"}},
		},
		SourcesConsulted: []string{"patient_interview"},
	})
	require.NoError(err)

	require.Len(got.History.Groups, 2)
	assert.Equal(domain.CategoryPrescription, got.History.Groups[0].Category)
	assert.Equal(domain.CategoryHerbal, got.History.Groups[1].Category)
	assert.Equal(3, got.History.Total)
	assert.False(got.MeetsSourceStandard)
	assert.Equal([]string{"warfarin"}, got.HighAlertMedications)
	assert.Contains(got.VerificationGaps, "metformin: dose not documented")
	assert.Contains(got.VerificationGaps, "metformin: source not recorded")
	assert.Contains(got.VerificationGaps, "metformin: time of last dose unknown")
	assert.Equal(fixedNow, got.CompiledAt)
	assert.Contains(got.Narrative(), "prescribed by Dr Lee")
}

func TestReconciliationUseCase_CompareLists(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	got, err := newReconciliationUseCase().CompareLists(context.Background(), usecase.CompareMedicationListsInput{
		PatientID: "P1",
		HomeMedications: []domain.MedicationEntry{
			{DrugName: "Warfarin", Dose: "5 mg", Frequency: "daily", Route: "oral"},
			{DrugName: "metformin", Dose: "500 mg", Frequency: "bid", Route: "oral"},
			{DrugName: "atorvastatin", Dose: "20 mg", Frequency: "nightly", Route: "oral"},
			{DrugName: "lisinopril", Dose: "10mg", Frequency: "daily", Route: "oral"},
		},
		ActiveOrders: []domain.MedicationEntry{
			{DrugName: "warfarin", Dose: "5 mg", Frequency: "daily", Route: "oral"},
			{DrugName: "metformin", Dose: "1000 mg", Frequency: "daily", Route: "oral"},
			{DrugName: "lisinopril", Dose: "10 MG", Frequency: "Daily", Route: "oral"},
			{DrugName: "insulin lispro", Dose: "4 units", Frequency: "tid", Route: "sc"},
		},
	})
	require.NoError(err)

	assert.Equal("id-1", got.ComparisonID)
	assert.ElementsMatch([]string{"Warfarin", "lisinopril"}, got.Matched)
	require.Len(got.Discrepancies, 4)

	assert.Equal("D1", got.Discrepancies[0].ID)
	assert.Equal(domain.DiscrepancyDose, got.Discrepancies[0].Type)
	assert.Equal(domain.DiscrepancyModerate, got.Discrepancies[0].Severity)
	assert.Equal(domain.DiscrepancyFrequency, got.Discrepancies[1].Type)
	assert.Equal(domain.DiscrepancyLow, got.Discrepancies[1].Severity)
	assert.Equal(domain.DiscrepancyOmission, got.Discrepancies[2].Type)
	assert.Equal("atorvastatin", got.Discrepancies[2].DrugName)
	assert.Equal(domain.DiscrepancyCommission, got.Discrepancies[3].Type)
	assert.Equal(domain.DiscrepancyHigh, got.Discrepancies[3].Severity)
	assert.True(got.Discrepancies[3].HighAlert)

	assert.Equal(usecase.SeverityCounts{High: 1, Moderate: 2, Low: 1}, got.Counts)
	assert.True(got.RequiresPrescriberReview)
}

func TestReconciliationUseCase_GatherBPMH_Categories(t *testing.T) {
	tests := []struct {
		name       string
		meds       []usecase.BPMHMedication
		wantGroups []domain.MedicationCategory
		wantTotal  int
	}{
		{
			name: "unlisted category kept under other",
			meds: []usecase.BPMHMedication{
				{Category: "vitamin", MedicationEntry: domain.MedicationEntry{DrugName: "vitamin d", Dose: "1000 IU"}},
			},
			wantGroups: []domain.MedicationCategory{domain.CategoryOther},
			wantTotal:  1,
		},
		{
			name: "blank category kept under other",
			meds: []usecase.BPMHMedication{
				{MedicationEntry: domain.MedicationEntry{DrugName: "saline spray"}},
				{Category: domain.CategoryTopical, MedicationEntry: domain.MedicationEntry{DrugName: "hydrocortisone"}},
			},
			wantGroups: []domain.MedicationCategory{domain.CategoryTopical, domain.CategoryOther},
			wantTotal:  2,
		},
		{
			name:       "no medications",
			wantGroups: []domain.MedicationCategory{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newReconciliationUseCase().GatherBPMH(context.Background(), usecase.GatherBPMHInput{
				PatientID:   "P1",
				Medications: tt.meds,
			})
			require.NoError(t, err)
			require.NotNil(t, got.History.Groups)
			cats := []domain.MedicationCategory{}
			for _, g := range got.History.Groups {
				cats = append(cats, g.Category)
			}
			assert.Equal(t, tt.wantGroups, cats)
			assert.Equal(t, tt.wantTotal, got.History.Total)
			assert.Len(t, got.History.All(), len(tt.meds))
		})
	}
}

func TestReconciliationUseCase_ResolveDiscrepancy(t *testing.T) {
	ctx := context.Background()
	current := []domain.MedicationEntry{
		{DrugName: "metformin", Dose: "500 mg", Frequency: "bid", Route: "oral"},
		{DrugName: "atorvastatin", Dose: "20 mg", Frequency: "nightly", Route: "oral"},
	}
	newOrder := &domain.MedicationEntry{DrugName: "metformin", Dose: "1000 mg", Frequency: "daily", Route: "oral"}

	tests := []struct {
		name           string
		in             usecase.ResolveDiscrepancyInput
		wantStatus     domain.ResolutionStatus
		wantFollowUp   bool
		wantList       []string
		wantAuditLen   int
		wantErrField   string
		checkFirstDose string
	}{
		{
			name: "prescriber error not contacted is pending",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionPrescriberError, MedicationName: "metformin",
				FinalOrder: newOrder, CurrentMedications: current,
			},
			wantStatus:     domain.StatusPendingPrescriber,
			wantFollowUp:   true,
			wantList:       []string{"metformin", "atorvastatin"},
			wantAuditLen:   2,
			checkFirstDose: "500 mg",
		},
		{
			name: "prescriber error confirmed replaces entry",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionPrescriberError, MedicationName: "Metformin",
				PrescriberContacted: true, PrescriberResponse: "use 1000 mg daily",
				FinalOrder: newOrder, CurrentMedications: current,
			},
			wantStatus:     domain.StatusResolved,
			wantList:       []string{"metformin", "atorvastatin"},
			wantAuditLen:   3,
			checkFirstDose: "1000 mg",
		},
		{
			name: "discontinue removes entry",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionDiscontinue, MedicationName: "atorvastatin",
				CurrentMedications: current,
			},
			wantStatus:   domain.StatusResolved,
			wantList:     []string{"metformin"},
			wantAuditLen: 2,
		},
		{
			name: "intentional change not contacted escalates",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionIntentionalChange, MedicationName: "atorvastatin",
				CurrentMedications: current,
			},
			wantStatus:   domain.StatusEscalated,
			wantFollowUp: true,
			wantList:     []string{"metformin", "atorvastatin"},
			wantAuditLen: 2,
		},
		{
			name: "continue home med adds missing entry",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionContinueHomeMed, MedicationName: "aspirin",
				FinalOrder:         &domain.MedicationEntry{DrugName: "aspirin", Dose: "81 mg"},
				CurrentMedications: current,
			},
			wantStatus:   domain.StatusResolved,
			wantList:     []string{"metformin", "atorvastatin", "aspirin"},
			wantAuditLen: 2,
		},
		{
			name: "modify order without final order",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionModifyOrder, MedicationName: "metformin",
			},
			wantErrField: "final_order",
		},
		{
			name: "unparseable resolution time",
			in: usecase.ResolveDiscrepancyInput{
				ResolutionAction: domain.ActionDiscontinue, MedicationName: "metformin", ResolutionDatetime: "noon",
			},
			wantErrField: "resolution_datetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ComparisonID = "C1"
			tt.in.DiscrepancyID = "D1"
			tt.in.ResolvedBy = "pharmacist"
			got, err := newReconciliationUseCase().ResolveDiscrepancy(ctx, tt.in)
			if tt.wantErrField != "" {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErrField, verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantFollowUp, got.Safety.FollowUpRequired)
			names := make([]string, 0, len(got.FinalMedicationList))
			for _, m := range got.FinalMedicationList {
				names = append(names, m.DrugName)
			}
			assert.Equal(t, tt.wantList, names)
			assert.Len(t, got.AuditTrail, tt.wantAuditLen)
			last := got.AuditTrail[len(got.AuditTrail)-1]
			assert.Equal(t, "system", last.Actor)
			assert.Equal(t, fixedNow, last.Timestamp)
			assert.NotEmpty(t, got.NextSteps)
			if tt.checkFirstDose != "" {
				assert.Equal(t, tt.checkFirstDose, got.FinalMedicationList[0].Dose)
			}
		})
	}
}

func TestReconciliationUseCase_ResolveDiscrepancy_DoesNotMutateInput(t *testing.T) {
	current := []domain.MedicationEntry{{DrugName: "a"}, {DrugName: "b"}}
	_, err := newReconciliationUseCase().ResolveDiscrepancy(context.Background(), usecase.ResolveDiscrepancyInput{
		ResolutionAction: domain.ActionDiscontinue, MedicationName: "a", CurrentMedications: current,
	})
	require.NoError(t, err)
	assert.Equal(t, "a", current[0].DrugName)
	assert.Equal(t, "b", current[1].DrugName)
}

func TestReconciliationUseCase_ResolveDiscrepancy_Deterministic(t *testing.T) {
	in := usecase.ResolveDiscrepancyInput{
		ComparisonID: "C1", DiscrepancyID: "D2", MedicationName: "warfarin",
		ResolutionAction: domain.ActionPrescriberError, ResolvedBy: "rn",
		ResolutionDatetime: "2024-05-01T07:30:00Z",
	}
	uc := newReconciliationUseCase()
	first, err := uc.ResolveDiscrepancy(context.Background(), in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := uc.ResolveDiscrepancy(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first.Status, again.Status)
		assert.Equal(t, first.Safety, again.Safety)
	}
	assert.Equal(t, domain.StatusPendingPrescriber, first.Status)
	assert.True(t, first.Safety.FollowUpRequired)
	assert.Equal(t, time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC), first.AuditTrail[0].Timestamp)
	assert.Equal(t, "rn", first.AuditTrail[0].Actor)
}
