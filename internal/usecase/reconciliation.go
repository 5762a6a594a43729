package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/i2y/clinicalmcp/internal/domain"
)

const minimumBPMHSources = 2

// ReconciliationUseCase builds medication histories, compares them with
// active orders and resolves the discrepancies found.
type ReconciliationUseCase struct {
	repository ReferenceRepository
	now        Clock
	newID      IDGenerator
	logger     *slog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(repository ReferenceRepository, clock Clock, ids IDGenerator, logger *slog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		repository: repository,
		now:        clock,
		newID:      ids,
		logger:     logger.With("usecase", "Reconciliation"),
	}
}

// --- gather_bpmh ---

// BPMHMedication is one reported medication with its category.
type BPMHMedication struct {
	domain.MedicationEntry
	Category domain.MedicationCategory `json:"category"`
}

// GatherBPMHInput is the input of gather_bpmh.
type GatherBPMHInput struct {
	PatientID        string           `json:"patient_id"`
	Medications      []BPMHMedication `json:"medications"`
	SourcesConsulted []string         `json:"sources_consulted"`
	Allergies        []string         `json:"allergies,omitempty"`
	Interviewer      string           `json:"interviewer,omitempty"`
}

// BPMHResult is the output of gather_bpmh.
type BPMHResult struct {
	PatientID            string                   `json:"patient_id"`
	History              domain.MedicationHistory `json:"medication_history"`
	SourcesConsulted     []string                 `json:"sources_consulted"`
	MeetsSourceStandard  bool                     `json:"meets_source_standard"`
	HighAlertMedications []string                 `json:"high_alert_medications"`
	VerificationGaps     []string                 `json:"verification_gaps"`
	Allergies            []string                 `json:"allergies"`
	CompiledAt           time.Time                `json:"compiled_at"`
	CompiledBy           string                   `json:"compiled_by,omitempty"`
	NextSteps            []string                 `json:"next_steps"`
}

// GatherBPMH groups the reported medications by category and lists what still needs verifying.
func (uc *ReconciliationUseCase) GatherBPMH(ctx context.Context, in GatherBPMHInput) (BPMHResult, error) {
	byCategory := make(map[domain.MedicationCategory][]domain.MedicationEntry)
	gaps := []string{}
	highAlert := []string{}
	for _, m := range in.Medications {
		cat := m.Category
		if !cat.Known() {
			cat = domain.CategoryOther
		}
		byCategory[cat] = append(byCategory[cat], m.MedicationEntry)

		var missing []string
		if strings.TrimSpace(m.Dose) == "" {
			missing = append(missing, "dose")
		}
		if strings.TrimSpace(m.Frequency) == "" {
			missing = append(missing, "frequency")
		}
		if strings.TrimSpace(m.Route) == "" {
			missing = append(missing, "route")
		}
		if len(missing) > 0 {
			gaps = append(gaps, fmt.Sprintf("%s: %s not documented", m.DrugName, strings.Join(missing, ", ")))
		}
		if m.Source.Kind() == domain.SourceUnspecified {
			gaps = append(gaps, fmt.Sprintf("%s: source not recorded", m.DrugName))
		}
		if strings.TrimSpace(m.LastTaken) == "" {
			gaps = append(gaps, fmt.Sprintf("%s: time of last dose unknown", m.DrugName))
		}
		if _, ok := uc.repository.FindHighAlertDrug(m.DrugName); ok {
			highAlert = append(highAlert, m.DrugName)
		}
	}

	sources := nonNil(in.SourcesConsulted)
	meets := len(sources) >= minimumBPMHSources
	if !meets {
		gaps = append(gaps, fmt.Sprintf("only %d source(s) consulted; at least %d are required", len(sources), minimumBPMHSources))
	}

	next := []string{}
	if !meets {
		next = append(next, "Verify the list against a second source such as community pharmacy records")
	}
	if len(gaps) > 0 {
		next = append(next, "Close the verification gaps with the patient, caregiver or pharmacy")
	}
	if len(highAlert) > 0 {
		next = append(next, "Confirm dose and last administration for high-alert medications: "+strings.Join(highAlert, ", "))
	}
	next = append(next, "Compare the BPMH with admission orders using compare_medication_lists")

	history := domain.NewMedicationHistory(byCategory)
	uc.logger.Debug("BPMH compiled",
		slog.String("patient_id", in.PatientID),
		slog.Int("medications", history.Total),
		slog.Int("gaps", len(gaps)),
	)
	return BPMHResult{
		PatientID:            in.PatientID,
		History:              history,
		SourcesConsulted:     sources,
		MeetsSourceStandard:  meets,
		HighAlertMedications: highAlert,
		VerificationGaps:     gaps,
		Allergies:            nonNil(in.Allergies),
		CompiledAt:           uc.now(),
		CompiledBy:           in.Interviewer,
		NextSteps:            next,
	}, nil
}

// Narrative lists the history by category.
func (r BPMHResult) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Best Possible Medication History for %s: %d medication(s) from %d source(s).\n",
		r.PatientID, r.History.Total, len(r.SourcesConsulted))
	for _, g := range r.History.Groups {
		fmt.Fprintf(&b, "\n%s:\n", g.Category.Label())
		for _, m := range g.Medications {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Summary(), m.Source)
		}
	}
	if len(r.VerificationGaps) > 0 {
		b.WriteString("\nVerification gaps:\n")
		bulletList(&b, r.VerificationGaps)
	}
	return b.String()
}

// --- compare_medication_lists ---

// CompareMedicationListsInput is the input of compare_medication_lists.
type CompareMedicationListsInput struct {
	PatientID       string                   `json:"patient_id"`
	Transition      string                   `json:"transition,omitempty"`
	HomeMedications []domain.MedicationEntry `json:"home_medications"`
	ActiveOrders    []domain.MedicationEntry `json:"active_orders"`
}

// SeverityCounts counts discrepancies per severity.
type SeverityCounts struct {
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
}

// MedicationComparison is the output of compare_medication_lists.
type MedicationComparison struct {
	ComparisonID             string               `json:"comparison_id"`
	PatientID                string               `json:"patient_id"`
	Transition               string               `json:"transition,omitempty"`
	ComparedAt               time.Time            `json:"compared_at"`
	Discrepancies            []domain.Discrepancy `json:"discrepancies"`
	Matched                  []string             `json:"matched"`
	Counts                   SeverityCounts       `json:"severity_counts"`
	RequiresPrescriberReview bool                 `json:"requires_prescriber_review"`
	NextSteps                []string             `json:"next_steps"`
}

func normalizeSig(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

func (uc *ReconciliationUseCase) severityFor(drug string, t domain.DiscrepancyType) (domain.DiscrepancySeverity, bool) {
	if _, ok := uc.repository.FindHighAlertDrug(drug); ok {
		return domain.DiscrepancyHigh, true
	}
	switch t {
	case domain.DiscrepancyOmission, domain.DiscrepancyDose:
		return domain.DiscrepancyModerate, false
	default:
		return domain.DiscrepancyLow, false
	}
}

// CompareLists finds omissions, commissions and dose, frequency or route differences.
func (uc *ReconciliationUseCase) CompareLists(ctx context.Context, in CompareMedicationListsInput) (MedicationComparison, error) {
	orders := make(map[string]domain.MedicationEntry, len(in.ActiveOrders))
	for _, o := range in.ActiveOrders {
		orders[normalizeName(o.DrugName)] = o
	}

	result := MedicationComparison{
		ComparisonID:  uc.newID(),
		PatientID:     in.PatientID,
		Transition:    in.Transition,
		ComparedAt:    uc.now(),
		Discrepancies: []domain.Discrepancy{},
		Matched:       []string{},
	}
	add := func(t domain.DiscrepancyType, drug, home, order, desc string) {
		sev, highAlert := uc.severityFor(drug, t)
		result.Discrepancies = append(result.Discrepancies, domain.Discrepancy{
			ID:          fmt.Sprintf("D%d", len(result.Discrepancies)+1),
			Type:        t,
			Severity:    sev,
			DrugName:    drug,
			HomeValue:   home,
			OrderValue:  order,
			HighAlert:   highAlert,
			Description: desc,
		})
		switch sev {
		case domain.DiscrepancyHigh:
			result.Counts.High++
		case domain.DiscrepancyModerate:
			result.Counts.Moderate++
		default:
			result.Counts.Low++
		}
	}

	seen := make(map[string]bool, len(in.HomeMedications))
	for _, home := range in.HomeMedications {
		key := normalizeName(home.DrugName)
		seen[key] = true
		order, ok := orders[key]
		if !ok {
			add(domain.DiscrepancyOmission, home.DrugName, home.Summary(), "",
				fmt.Sprintf("%s is taken at home but has no active order", home.DrugName))
			continue
		}
		before := len(result.Discrepancies)
		if normalizeSig(home.Dose) != normalizeSig(order.Dose) {
			add(domain.DiscrepancyDose, home.DrugName, home.Dose, order.Dose,
				fmt.Sprintf("%s dose differs: home %s, ordered %s", home.DrugName, home.Dose, order.Dose))
		}
		if normalizeSig(home.Frequency) != normalizeSig(order.Frequency) {
			add(domain.DiscrepancyFrequency, home.DrugName, home.Frequency, order.Frequency,
				fmt.Sprintf("%s frequency differs: home %s, ordered %s", home.DrugName, home.Frequency, order.Frequency))
		}
		if normalizeSig(home.Route) != normalizeSig(order.Route) {
			add(domain.DiscrepancyRoute, home.DrugName, home.Route, order.Route,
				fmt.Sprintf("%s route differs: home %s, ordered %s", home.DrugName, home.Route, order.Route))
		}
		if len(result.Discrepancies) == before {
			result.Matched = append(result.Matched, home.DrugName)
		}
	}
	for _, order := range in.ActiveOrders {
		if seen[normalizeName(order.DrugName)] {
			continue
		}
		add(domain.DiscrepancyCommission, order.DrugName, "", order.Summary(),
			fmt.Sprintf("%s is ordered but was not on the home medication list", order.DrugName))
	}

	result.RequiresPrescriberReview = result.Counts.High > 0
	result.NextSteps = []string{}
	if len(result.Discrepancies) > 0 {
		result.NextSteps = append(result.NextSteps,
			"Resolve each discrepancy with resolve_discrepancy using comparison_id "+result.ComparisonID)
	}
	if result.RequiresPrescriberReview {
		result.NextSteps = append(result.NextSteps, "Contact the prescriber about high-alert discrepancies before the next dose")
	}
	if len(result.Discrepancies) == 0 {
		result.NextSteps = append(result.NextSteps, "No discrepancies; document the reconciliation as complete")
	}

	uc.logger.Debug("Medication lists compared",
		slog.String("comparison_id", result.ComparisonID),
		slog.Int("discrepancies", len(result.Discrepancies)),
	)
	return result, nil
}

// Narrative lists the discrepancies.
func (r MedicationComparison) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison %s: %d discrepancy(ies) (%d high, %d moderate, %d low); %d medication(s) matched.\n",
		r.ComparisonID, len(r.Discrepancies), r.Counts.High, r.Counts.Moderate, r.Counts.Low, len(r.Matched))
	for _, d := range r.Discrepancies {
		fmt.Fprintf(&b, "- [%s] %s %s: %s\n", d.ID, strings.ToUpper(string(d.Severity)), d.Type, d.Description)
	}
	return b.String()
}

// --- resolve_discrepancy ---

// ResolveDiscrepancyInput is the input of resolve_discrepancy.
type ResolveDiscrepancyInput struct {
	ComparisonID        string                   `json:"comparison_id"`
	DiscrepancyID       string                   `json:"discrepancy_id"`
	MedicationName      string                   `json:"medication_name"`
	ResolutionAction    domain.ResolutionAction  `json:"resolution_action"`
	ResolvedBy          string                   `json:"resolved_by"`
	ResolutionDatetime  string                   `json:"resolution_datetime,omitempty"`
	PrescriberContacted bool                     `json:"prescriber_contacted"`
	PrescriberResponse  string                   `json:"prescriber_response,omitempty"`
	FinalOrder          *domain.MedicationEntry  `json:"final_order,omitempty"`
	CurrentMedications  []domain.MedicationEntry `json:"current_medications,omitempty"`
	Rationale           string                   `json:"rationale,omitempty"`
}

// AuditEntry is one append-only record of the resolution.
type AuditEntry struct {
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// DiscrepancyResolutionResult is the output of resolve_discrepancy.
type DiscrepancyResolutionResult struct {
	ResolutionID        string                   `json:"resolution_id"`
	ComparisonID        string                   `json:"comparison_id"`
	DiscrepancyID       string                   `json:"discrepancy_id"`
	MedicationName      string                   `json:"medication_name"`
	ResolutionAction    domain.ResolutionAction  `json:"resolution_action"`
	Status              domain.ResolutionStatus  `json:"status"`
	Safety              domain.SafetyAssessment  `json:"safety_assessment"`
	FinalMedicationList []domain.MedicationEntry `json:"final_medication_list"`
	AuditTrail          []AuditEntry             `json:"audit_trail"`
	NextSteps           []string                 `json:"next_steps"`
}

// ResolveDiscrepancy derives the resolution status, safety judgment, final list and audit trail.
func (uc *ReconciliationUseCase) ResolveDiscrepancy(ctx context.Context, in ResolveDiscrepancyInput) (DiscrepancyResolutionResult, error) {
	now := uc.now()
	resolvedAt := now
	if t, ok, err := parseTime("resolution_datetime", in.ResolutionDatetime); err != nil {
		return DiscrepancyResolutionResult{}, err
	} else if ok {
		resolvedAt = t
	}
	if in.ResolutionAction == domain.ActionModifyOrder && in.FinalOrder == nil {
		return DiscrepancyResolutionResult{}, domain.NewValidationError("final_order", "is required when resolution_action is modify_order")
	}

	res := domain.DiscrepancyResolution{
		ComparisonID:        in.ComparisonID,
		DiscrepancyID:       in.DiscrepancyID,
		MedicationName:      in.MedicationName,
		Action:              in.ResolutionAction,
		ResolvedBy:          in.ResolvedBy,
		ResolvedAt:          resolvedAt,
		PrescriberContacted: in.PrescriberContacted,
		PrescriberResponse:  in.PrescriberResponse,
		FinalOrder:          in.FinalOrder,
	}
	status := res.Status()

	trail := []AuditEntry{}
	appendAudit := func(at time.Time, actor, action, details string) {
		trail = append(trail, AuditEntry{Sequence: len(trail) + 1, Timestamp: at, Actor: actor, Action: action, Details: details})
	}
	details := fmt.Sprintf("%s recorded for %s (%s)", res.Action, res.MedicationName, res.DiscrepancyID)
	if in.Rationale != "" {
		details += ": " + in.Rationale
	}
	appendAudit(resolvedAt, res.ResolvedBy, string(res.Action), details)
	if res.PrescriberContacted {
		response := "no response recorded"
		if res.HasPrescriberResponse() {
			response = "response: " + strings.TrimSpace(res.PrescriberResponse)
		}
		appendAudit(resolvedAt, res.ResolvedBy, "prescriber_contacted", response)
	}
	appendAudit(now, "system", "status_confirmed", fmt.Sprintf("status derived as %s", status))

	uc.logger.Debug("Discrepancy resolved",
		slog.String("comparison_id", res.ComparisonID),
		slog.String("discrepancy_id", res.DiscrepancyID),
		slog.String("status", string(status)),
	)
	return DiscrepancyResolutionResult{
		ResolutionID:        uc.newID(),
		ComparisonID:        res.ComparisonID,
		DiscrepancyID:       res.DiscrepancyID,
		MedicationName:      res.MedicationName,
		ResolutionAction:    res.Action,
		Status:              status,
		Safety:              res.Safety(),
		FinalMedicationList: applyResolution(in.CurrentMedications, res, status),
		AuditTrail:          trail,
		NextSteps:           resolutionNextSteps(res, status),
	}, nil
}

// applyResolution changes the list only when the resolution is final.
func applyResolution(current []domain.MedicationEntry, res domain.DiscrepancyResolution, status domain.ResolutionStatus) []domain.MedicationEntry {
	out := append([]domain.MedicationEntry{}, current...)
	if status != domain.StatusResolved {
		return out
	}
	key := normalizeName(res.MedicationName)
	if res.Action == domain.ActionDiscontinue {
		kept := out[:0]
		for _, m := range out {
			if normalizeName(m.DrugName) != key {
				kept = append(kept, m)
			}
		}
		return kept
	}
	if res.FinalOrder == nil {
		return out
	}
	for i, m := range out {
		if normalizeName(m.DrugName) == key {
			out[i] = *res.FinalOrder
			return out
		}
	}
	return append(out, *res.FinalOrder)
}

func resolutionNextSteps(res domain.DiscrepancyResolution, status domain.ResolutionStatus) []string {
	switch status {
	case domain.StatusPendingPrescriber:
		return []string{
			"Contact the prescriber to confirm the suspected prescribing error for " + res.MedicationName,
			"Hold the affected order if clinically appropriate until the prescriber responds",
			"Record the prescriber response with resolve_discrepancy",
		}
	case domain.StatusEscalated:
		return []string{
			"Confirm the intentional change for " + res.MedicationName + " with the prescriber",
			"Document the clinical rationale in the medication record",
			"Notify the responsible pharmacist",
		}
	default:
		steps := []string{
			"Update the medication administration record",
			"Communicate the final medication list to the patient and care team",
		}
		if res.Action == domain.ActionDiscontinue {
			steps = append(steps, "Tell the patient to stop taking "+res.MedicationName)
		}
		return steps
	}
}

// Narrative summarizes the resolution.
func (r DiscrepancyResolutionResult) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Discrepancy %s (%s): %s, status %s.\n", r.DiscrepancyID, r.MedicationName, r.ResolutionAction, r.Status)
	fmt.Fprintf(&b, "Harm prevented: %t; severity avoided: %s; follow-up required: %t.\n",
		r.Safety.HarmPrevented, r.Safety.SeverityAvoided, r.Safety.FollowUpRequired)
	bulletList(&b, r.NextSteps)
	return b.String()
}
