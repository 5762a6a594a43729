package mcpserver

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/clinicalmcp/internal/adapter/outbound/openapi"
	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

const timestampHint = "RFC 3339 timestamp, e.g. 2024-05-01T08:00:00Z"

func medicationEntryShape(desc string) *openapi3.Schema {
	return openapi.Nested(desc,
		openapi.Required("drug_name", openapi.NonEmptyString("Medication name")),
		openapi.Optional("dose", openapi.String("Dose with unit, e.g. 500 mg")),
		openapi.Optional("frequency", openapi.String("e.g. twice daily")),
		openapi.Optional("route", openapi.String("e.g. oral, IV")),
		openapi.Optional("indication", openapi.String("Reason for use")),
		openapi.Optional("last_taken", openapi.String("When the last dose was taken")),
		openapi.Optional("start_date", openapi.String("When the medication was started")),
		openapi.Optional("source", openapi.Nested("Who started the medication",
			openapi.Required("kind", openapi.Enum("Source variant",
				domain.SourcePrescribed, domain.SourceSelfAdministered, domain.SourceUnspecified)),
			openapi.Optional("prescriber", openapi.String("Prescriber, for prescribed sources")),
		)),
		openapi.Optional("adherence_notes", openapi.String("Adherence observations")),
	)
}

func vitalSignFields() []openapi.Field {
	return []openapi.Field{
		openapi.Optional("heart_rate", openapi.NumberAtLeast(0, "beats/min")),
		openapi.Optional("respiratory_rate", openapi.NumberAtLeast(0, "breaths/min")),
		openapi.Optional("systolic_bp", openapi.NumberAtLeast(0, "mmHg")),
		openapi.Optional("diastolic_bp", openapi.NumberAtLeast(0, "mmHg")),
		openapi.Optional("temperature", openapi.Number("degrees Celsius")),
		openapi.Optional("oxygen_saturation", openapi.NumberBetween(0, 100, "SpO2 percent")),
	}
}

func labValueShape() *openapi3.Schema {
	return openapi.Nested("A laboratory result",
		openapi.Required("test", openapi.NonEmptyString("Test name, e.g. potassium")),
		openapi.Required("value", openapi.Number("Measured value")),
		openapi.Optional("unit", openapi.String("Unit as reported")),
	)
}

func genderShape() *openapi3.Schema {
	return openapi.Enum("Patient gender", "male", "female")
}

func (r *Registry) registerTools(uc UseCases) error {
	registrations := []func() error{
		func() error {
			return Register(r, ToolSpec[usecase.GatherBPMHInput, usecase.BPMHResult]{
				Name:        "gather_bpmh",
				Title:       "Gather Best Possible Medication History",
				Description: "Builds a Best Possible Medication History grouped by category, recording the sources consulted and the verification gaps that remain.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("patient_id", openapi.NonEmptyString("Patient identifier")),
					openapi.Required("medications", openapi.ArrayOf(
						func() *openapi3.Schema {
							s := medicationEntryShape("A medication the patient reports taking")
							s.WithProperty("category", openapi.Enum("History category", domain.MedicationCategories...))
							s.Required = append(s.Required, "category")
							return s
						}(),
						"Every medication reported by any source")),
					openapi.Required("sources_consulted", openapi.StringList("Information sources, e.g. patient interview, pharmacy records")),
					openapi.Optional("allergies", openapi.StringList("Known allergies")),
					openapi.Optional("interviewer", openapi.String("Clinician compiling the history")),
				),
				Evaluate: uc.Reconciliation.GatherBPMH,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.CompareMedicationListsInput, usecase.MedicationComparison]{
				Name:        "compare_medication_lists",
				Title:       "Compare Medication Lists",
				Description: "Compares the home medication list with active orders and reports omissions, commissions, and dose, frequency or route discrepancies with their severity.",
				Shape: openapi.Object(
					openapi.Required("patient_id", openapi.NonEmptyString("Patient identifier")),
					openapi.Optional("transition", openapi.String("Care transition, e.g. admission, transfer, discharge")),
					openapi.Required("home_medications", openapi.ArrayOf(medicationEntryShape("Home medication"), "Best possible medication history")),
					openapi.Required("active_orders", openapi.ArrayOf(medicationEntryShape("Active order"), "Current inpatient orders")),
				),
				Evaluate: uc.Reconciliation.CompareLists,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.ResolveDiscrepancyInput, usecase.DiscrepancyResolutionResult]{
				Name:        "resolve_discrepancy",
				Title:       "Resolve Medication Discrepancy",
				Description: "Records the resolution of a reconciliation discrepancy, derives its status and safety assessment, and returns the audit trail and final medication list.",
				Shape: openapi.Object(
					openapi.Required("comparison_id", openapi.NonEmptyString("Comparison that reported the discrepancy")),
					openapi.Required("discrepancy_id", openapi.NonEmptyString("Discrepancy being resolved")),
					openapi.Required("medication_name", openapi.NonEmptyString("Medication the discrepancy concerns")),
					openapi.Required("resolution_action", openapi.Enum("Resolution chosen", domain.ResolutionActions...)),
					openapi.Required("resolved_by", openapi.NonEmptyString("Clinician resolving the discrepancy")),
					openapi.Optional("resolution_datetime", openapi.String(timestampHint)),
					openapi.Optional("prescriber_contacted", openapi.Bool("Whether the prescriber was contacted")),
					openapi.Optional("prescriber_response", openapi.String("The prescriber's response")),
					openapi.Optional("final_order", medicationEntryShape("Order to apply; required for modify_order")),
					openapi.Optional("current_medications", openapi.ArrayOf(medicationEntryShape("Current medication"), "Medication list the resolution applies to")),
					openapi.Optional("rationale", openapi.String("Clinical rationale")),
				),
				Evaluate: uc.Reconciliation.ResolveDiscrepancy,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.AssessTDMCandidateInput, usecase.TDMCandidateAssessment]{
				Name:        "assess_tdm_candidate",
				Title:       "Assess TDM Candidate",
				Description: "Decides whether a drug needs therapeutic drug monitoring for this patient and when to draw the first sample.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("drug_name", openapi.NonEmptyString("Drug to assess")),
					openapi.Required("patient_age", openapi.NumberBetween(0, 130, "Age in years")),
					openapi.Optional("egfr", openapi.NumberAtLeast(0, "eGFR in mL/min/1.73m2")),
					openapi.Optional("child_pugh_score", openapi.Enum("Child-Pugh class", "A", "B", "C")),
					openapi.Optional("concurrent_medications", openapi.StringList("Other medications the patient takes")),
					openapi.Optional("medication_start", openapi.String(timestampHint)),
					openapi.Optional("indication", openapi.String("Indication for the drug")),
				),
				Evaluate: uc.TDM.AssessCandidate,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.InterpretTDMResultInput, usecase.TDMInterpretation]{
				Name:        "interpret_tdm_result",
				Title:       "Interpret TDM Result",
				Description: "Classifies a measured drug concentration, checks sample timing and recommends a dose adjustment and follow-up.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("drug_name", openapi.NonEmptyString("Monitored drug")),
					openapi.Required("measured_concentration", openapi.NumberAtLeast(0, "Measured level")),
					openapi.Optional("therapeutic_range", openapi.Nested("Target range; defaults to the drug profile",
						openapi.Required("lower", openapi.NumberAtLeast(0, "Inclusive lower bound")),
						openapi.Required("upper", openapi.NumberAtLeast(0, "Inclusive upper bound")),
						openapi.Optional("unit", openapi.String("Concentration unit")),
					)),
					openapi.Required("current_dose", openapi.NumberAtLeast(0, "Current dose")),
					openapi.Optional("dose_unit", openapi.String("Dose unit, e.g. mg")),
					openapi.Optional("sample_type", openapi.Enum("Sample type", domain.SampleTrough, domain.SamplePeak, domain.SampleRandom)),
					openapi.Optional("dose_time", openapi.String(timestampHint)),
					openapi.Optional("collection_time", openapi.String(timestampHint)),
					openapi.Required("clinical_response", openapi.Enum("Observed clinical effect",
						domain.EffectNone, domain.EffectPartial, domain.EffectAdequate, domain.EffectExcessive)),
					openapi.Optional("adverse_effects", openapi.StringList("Adverse effects observed")),
					openapi.Optional("toxicity_signs", openapi.StringList("Signs of toxicity observed")),
				),
				Evaluate: uc.TDM.InterpretResult,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.CheckInteractionsInput, usecase.InteractionReport]{
				Name:        "check_drug_interactions",
				Title:       "Check Drug Interactions",
				Description: "Checks every pair of medications against the interaction table and reports interactions by severity.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("medications", openapi.NonEmptyArrayOf(openapi.NonEmptyString("Medication name"), "Medications to check")),
					openapi.Optional("include_minor", openapi.Bool("Report minor interactions (default true)")),
				),
				Evaluate: uc.Interaction.Check,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.SOAPNoteInput, usecase.SOAPNote]{
				Name:        "generate_soap_note",
				Title:       "Generate SOAP Note",
				Description: "Writes a SOAP note from structured encounter data, flags abnormal vitals and labs, and scores completeness.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("patient_id", openapi.NonEmptyString("Patient identifier")),
					openapi.Optional("encounter_date", openapi.String("Encounter date, YYYY-MM-DD")),
					openapi.Optional("clinician", openapi.String("Documenting clinician")),
					openapi.Required("chief_complaint", openapi.NonEmptyString("Chief complaint")),
					openapi.Optional("history_of_present_illness", openapi.String("History of present illness")),
					openapi.Optional("symptoms", openapi.StringList("Reported symptoms")),
					openapi.Optional("medications", openapi.StringList("Current medications")),
					openapi.Optional("allergies", openapi.StringList("Known allergies")),
					openapi.Optional("age_group", openapi.String("Age group for vital ranges, default adult")),
					openapi.Optional("gender", genderShape()),
					openapi.Optional("vitals", openapi.Nested("Measured vital signs", vitalSignFields()...)),
					openapi.Optional("labs", openapi.ArrayOf(labValueShape(), "Laboratory results")),
					openapi.Optional("physical_exam", openapi.String("Physical examination findings")),
					openapi.Optional("assessment", openapi.StringList("Assessment and diagnoses")),
					openapi.Optional("plan", openapi.StringList("Plan items")),
					openapi.Optional("output_format", openapi.Enum("Rendering of the note",
						usecase.FormatText, usecase.FormatMarkdown, usecase.FormatHTML)),
				),
				Evaluate: uc.Documentation.GenerateSOAPNote,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.FiveRightsInput, usecase.FiveRightsVerification]{
				Name:        "verify_five_rights",
				Title:       "Verify Five Rights of Administration",
				Description: "Checks right patient, medication, dose, route and time before administration and reports whether it is safe to administer.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("ordered_patient_id", openapi.NonEmptyString("Patient on the order")),
					openapi.Required("identified_patient_id", openapi.NonEmptyString("Patient identified at the bedside")),
					openapi.Optional("identifiers_checked", openapi.IntegerBetween(0, 10, "Number of patient identifiers checked")),
					openapi.Required("ordered_medication", openapi.NonEmptyString("Medication on the order")),
					openapi.Required("medication_to_administer", openapi.NonEmptyString("Medication in hand")),
					openapi.Optional("allergies", openapi.StringList("Patient allergies")),
					openapi.Required("ordered_dose", openapi.NumberAtLeast(0, "Ordered dose")),
					openapi.Required("dose_to_administer", openapi.NumberAtLeast(0, "Dose in hand")),
					openapi.Optional("dose_unit", openapi.String("Dose unit")),
					openapi.Required("ordered_route", openapi.NonEmptyString("Ordered route")),
					openapi.Required("route_to_administer", openapi.NonEmptyString("Route about to be used")),
					openapi.Required("scheduled_time", openapi.NonEmptyString(timestampHint)),
					openapi.Required("administration_time", openapi.NonEmptyString(timestampHint)),
					openapi.Optional("time_window_minutes", openapi.IntegerBetween(0, 1440, "Allowed deviation in minutes, default 30")),
				),
				Evaluate: uc.Administration.VerifyFiveRights,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.AssessVitalSignsInput, usecase.VitalSignsAssessment]{
				Name:        "assess_vital_signs",
				Title:       "Assess Vital Signs",
				Description: "Compares vital signs with the ranges for the patient's age group and flags abnormal and critical values.",
				Idempotent:  true,
				Shape: openapi.Object(append(
					[]openapi.Field{openapi.Optional("age_group", openapi.String("Age group, default adult"))},
					vitalSignFields()...,
				)...),
				Evaluate: uc.Assessment.AssessVitalSigns,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.InterpretLabValuesInput, usecase.LabInterpretation]{
				Name:        "interpret_lab_values",
				Title:       "Interpret Lab Values",
				Description: "Interprets laboratory results against gender-specific reference ranges and flags critical values.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Optional("gender", genderShape()),
					openapi.Required("labs", openapi.NonEmptyArrayOf(labValueShape(), "Laboratory results")),
				),
				Evaluate: uc.Assessment.InterpretLabValues,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.CreatinineClearanceInput, usecase.CreatinineClearanceResult]{
				Name:        "calculate_creatinine_clearance",
				Title:       "Calculate Creatinine Clearance",
				Description: "Estimates creatinine clearance with the Cockcroft-Gault equation and grades renal function.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("age", openapi.NumberBetween(0, 130, "Age in years")),
					openapi.Required("weight_kg", openapi.NumberAtLeast(0, "Body weight in kg")),
					openapi.Required("serum_creatinine", openapi.NumberAtLeast(0, "Serum creatinine in mg/dL")),
					openapi.Required("gender", genderShape()),
				),
				Evaluate: uc.Assessment.CreatinineClearance,
			})
		},
		func() error {
			return Register(r, ToolSpec[usecase.ReferenceQueryInput, usecase.ReferenceQueryResult]{
				Name:        "query_clinical_reference",
				Title:       "Query Clinical Reference",
				Description: "Filters a clinical reference table. Filters are case-insensitive substrings combined with AND.",
				Idempotent:  true,
				Shape: openapi.Object(
					openapi.Required("resource", openapi.Enum("Reference table", usecase.ReferenceNames()...)),
					openapi.Optional("query", openapi.String("Free-text filter")),
					openapi.Optional("category", openapi.String("Category filter")),
					openapi.Optional("severity", openapi.String("Severity filter")),
					openapi.Optional("evidence_level", openapi.String("Evidence level filter")),
					openapi.Optional("gender", openapi.String("Gender filter")),
					openapi.Optional("age_group", openapi.String("Age group filter")),
					openapi.Optional("sample_type", openapi.String("Sample type filter")),
				),
				Evaluate: uc.Reference.QueryTool,
			})
		},
	}

	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
