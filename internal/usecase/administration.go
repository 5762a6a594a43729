package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// DefaultTimeWindowMinutes is the administration window either side of the scheduled time.
const DefaultTimeWindowMinutes = 30

const doseTolerance = 1e-9

var routeAliases = map[string]string{
	"po":            "oral",
	"by mouth":      "oral",
	"oral":          "oral",
	"iv":            "intravenous",
	"intravenous":   "intravenous",
	"im":            "intramuscular",
	"intramuscular": "intramuscular",
	"sc":            "subcutaneous",
	"sq":            "subcutaneous",
	"subcut":        "subcutaneous",
	"subcutaneous":  "subcutaneous",
	"sl":            "sublingual",
	"sublingual":    "sublingual",
	"pr":            "rectal",
	"rectal":        "rectal",
	"top":           "topical",
	"topical":       "topical",
	"inh":           "inhaled",
	"inhaled":       "inhaled",
	"td":            "transdermal",
	"transdermal":   "transdermal",
}

func canonicalRoute(r string) string {
	r = normalizeName(r)
	if c, ok := routeAliases[r]; ok {
		return c
	}
	return r
}

// AdministrationUseCase runs the five-rights check before a dose is given.
type AdministrationUseCase struct {
	repository ReferenceRepository
	logger     *slog.Logger
}

// NewAdministrationUseCase creates a new AdministrationUseCase.
func NewAdministrationUseCase(repository ReferenceRepository, logger *slog.Logger) *AdministrationUseCase {
	return &AdministrationUseCase{
		repository: repository,
		logger:     logger.With("usecase", "Administration"),
	}
}

// FiveRightsInput is the input of verify_five_rights.
type FiveRightsInput struct {
	OrderedPatientID       string   `json:"ordered_patient_id"`
	IdentifiedPatientID    string   `json:"identified_patient_id"`
	IdentifiersChecked     *int     `json:"identifiers_checked,omitempty"`
	OrderedMedication      string   `json:"ordered_medication"`
	MedicationToAdminister string   `json:"medication_to_administer"`
	Allergies              []string `json:"allergies,omitempty"`
	OrderedDose            float64  `json:"ordered_dose"`
	DoseToAdminister       float64  `json:"dose_to_administer"`
	DoseUnit               string   `json:"dose_unit,omitempty"`
	OrderedRoute           string   `json:"ordered_route"`
	RouteToAdminister      string   `json:"route_to_administer"`
	ScheduledTime          string   `json:"scheduled_time"`
	AdministrationTime     string   `json:"administration_time"`
	TimeWindowMinutes      *int     `json:"time_window_minutes,omitempty"`
}

// RightCheck is the outcome of one of the five rights.
type RightCheck struct {
	Right  string `json:"right"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// FiveRightsVerification is the output of verify_five_rights.
type FiveRightsVerification struct {
	Checks              []RightCheck          `json:"checks"`
	AllergyConflicts    []string              `json:"allergy_conflicts"`
	HighAlert           *domain.HighAlertDrug `json:"high_alert,omitempty"`
	DoubleCheckRequired bool                  `json:"double_check_required"`
	SafeToAdminister    bool                  `json:"safe_to_administer"`
	Actions             []string              `json:"actions"`
}

// VerifyFiveRights checks patient, medication, dose, route and time.
// The time window is inclusive at both ends.
func (uc *AdministrationUseCase) VerifyFiveRights(ctx context.Context, in FiveRightsInput) (FiveRightsVerification, error) {
	scheduled, ok, err := parseTime("scheduled_time", in.ScheduledTime)
	if err != nil {
		return FiveRightsVerification{}, err
	}
	if !ok {
		return FiveRightsVerification{}, domain.NewValidationError("scheduled_time", "is required")
	}
	administered, ok, err := parseTime("administration_time", in.AdministrationTime)
	if err != nil {
		return FiveRightsVerification{}, err
	}
	if !ok {
		return FiveRightsVerification{}, domain.NewValidationError("administration_time", "is required")
	}
	window := DefaultTimeWindowMinutes
	if in.TimeWindowMinutes != nil {
		if *in.TimeWindowMinutes < 0 {
			return FiveRightsVerification{}, domain.NewValidationError("time_window_minutes", "must not be negative")
		}
		window = *in.TimeWindowMinutes
	}

	out := FiveRightsVerification{AllergyConflicts: []string{}, Actions: []string{}}

	patientOK := strings.TrimSpace(in.OrderedPatientID) != "" &&
		strings.EqualFold(strings.TrimSpace(in.OrderedPatientID), strings.TrimSpace(in.IdentifiedPatientID))
	patientDetail := "patient identity matches the order"
	if !patientOK {
		patientDetail = fmt.Sprintf("identified patient %q does not match ordered patient %q", in.IdentifiedPatientID, in.OrderedPatientID)
	} else if in.IdentifiersChecked != nil && *in.IdentifiersChecked < 2 {
		patientOK = false
		patientDetail = "fewer than two patient identifiers checked"
	}
	out.Checks = append(out.Checks, RightCheck{Right: "patient", Passed: patientOK, Detail: patientDetail})

	medOK := normalizeName(in.OrderedMedication) == normalizeName(in.MedicationToAdminister)
	medDetail := "medication matches the order"
	if !medOK {
		medDetail = fmt.Sprintf("%s does not match ordered %s", in.MedicationToAdminister, in.OrderedMedication)
	}
	med := normalizeName(in.MedicationToAdminister)
	for _, a := range in.Allergies {
		allergy := normalizeName(a)
		if allergy == "" || med == "" {
			continue
		}
		if strings.Contains(med, allergy) || strings.Contains(allergy, med) {
			out.AllergyConflicts = append(out.AllergyConflicts, a)
		}
	}
	if len(out.AllergyConflicts) > 0 {
		medOK = false
		medDetail = "documented allergy to " + strings.Join(out.AllergyConflicts, ", ")
	}
	out.Checks = append(out.Checks, RightCheck{Right: "medication", Passed: medOK, Detail: medDetail})

	doseOK := math.Abs(in.OrderedDose-in.DoseToAdminister) <= doseTolerance
	doseDetail := fmt.Sprintf("dose %g %s matches the order", in.DoseToAdminister, in.DoseUnit)
	if !doseOK {
		doseDetail = fmt.Sprintf("dose %g %s differs from ordered %g %s", in.DoseToAdminister, in.DoseUnit, in.OrderedDose, in.DoseUnit)
	}
	out.Checks = append(out.Checks, RightCheck{Right: "dose", Passed: doseOK, Detail: strings.Join(strings.Fields(doseDetail), " ")})

	routeOK := canonicalRoute(in.OrderedRoute) == canonicalRoute(in.RouteToAdminister)
	routeDetail := "route matches the order"
	if !routeOK {
		routeDetail = fmt.Sprintf("route %s differs from ordered %s", in.RouteToAdminister, in.OrderedRoute)
	}
	out.Checks = append(out.Checks, RightCheck{Right: "route", Passed: routeOK, Detail: routeDetail})

	offset := administered.Sub(scheduled)
	timeOK := offset.Abs() <= time.Duration(window)*time.Minute
	timeDetail := fmt.Sprintf("within %d minutes of the scheduled time", window)
	if !timeOK {
		timeDetail = fmt.Sprintf("%.0f minutes from the scheduled time; window is %d minutes", offset.Minutes(), window)
	}
	out.Checks = append(out.Checks, RightCheck{Right: "time", Passed: timeOK, Detail: timeDetail})

	if h, ok := uc.repository.FindHighAlertDrug(in.MedicationToAdminister); ok {
		out.HighAlert = &h
		out.DoubleCheckRequired = true
		out.Actions = append(out.Actions, fmt.Sprintf("Independent double check required: %s is a high-alert %s", in.MedicationToAdminister, h.Class))
	}

	out.SafeToAdminister = true
	for _, c := range out.Checks {
		if !c.Passed {
			out.SafeToAdminister = false
			out.Actions = append(out.Actions, fmt.Sprintf("Do not administer: right %s failed (%s)", c.Right, c.Detail))
		}
	}
	if out.SafeToAdminister {
		out.Actions = append(out.Actions, "All five rights verified; administer and document")
	} else {
		out.Actions = append(out.Actions, "Clarify with the prescriber or pharmacist before proceeding")
	}

	uc.logger.Debug("Five rights verified",
		slog.String("medication", in.MedicationToAdminister),
		slog.Bool("safe", out.SafeToAdminister),
	)
	return out, nil
}

// Narrative lists each right.
func (v FiveRightsVerification) Narrative() string {
	var b strings.Builder
	if v.SafeToAdminister {
		b.WriteString("Safe to administer.\n")
	} else {
		b.WriteString("NOT safe to administer.\n")
	}
	for _, c := range v.Checks {
		mark := "PASS"
		if !c.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "- %s %s: %s\n", mark, c.Right, c.Detail)
	}
	return b.String()
}
