package refdata

import "github.com/i2y/clinicalmcp/internal/domain"

func defaultClinicalRules() []domain.ClinicalRule {
	return []domain.ClinicalRule{
		{
			ID: "MR-001", Name: "BPMH within 24 hours of admission", Category: "medication reconciliation",
			Severity: "high", EvidenceLevel: "A", Population: "all inpatients",
			Description:    "A best possible medication history is gathered from at least two sources.",
			Recommendation: "Interview patient or caregiver and review one independent source such as pharmacy records.",
		},
		{
			ID: "MR-002", Name: "Resolve discrepancies before discharge", Category: "medication reconciliation",
			Severity: "high", EvidenceLevel: "B", Population: "all inpatients",
			Description:    "Every identified discrepancy is resolved and documented before the discharge prescription is written.",
			Recommendation: "Contact the prescriber for any unintentional discrepancy.",
		},
		{
			ID: "TDM-001", Name: "Vancomycin trough before fourth dose", Category: "therapeutic drug monitoring",
			Severity: "moderate", EvidenceLevel: "B", Population: "adults on intermittent vancomycin",
			Description:    "Steady state is assumed by the fourth dose in normal renal function.",
			Recommendation: "Draw trough within 60 minutes before the fourth dose.",
		},
		{
			ID: "TDM-002", Name: "Aminoglycoside peak timing", Category: "therapeutic drug monitoring",
			Severity: "moderate", EvidenceLevel: "B", Population: "adults on aminoglycosides",
			Description:    "Peak samples reflect distribution completion.",
			Recommendation: "Draw peak 60-180 minutes after the dose, 30 minutes after infusion end.",
		},
		{
			ID: "TDM-003", Name: "Digoxin sampling after distribution", Category: "therapeutic drug monitoring",
			Severity: "moderate", EvidenceLevel: "C", Population: "adults on digoxin",
			Description:    "Samples drawn within 6 hours of a dose overestimate tissue concentration.",
			Recommendation: "Sample at least 6 hours post dose, ideally as a trough.",
		},
		{
			ID: "ADM-001", Name: "Independent double check for high-alert drugs", Category: "medication administration",
			Severity: "high", EvidenceLevel: "B", Population: "all patients",
			Description:    "Insulin, heparin, opioids and concentrated electrolytes require a second clinician check.",
			Recommendation: "Document an independent double check before administration.",
		},
		{
			ID: "ADM-002", Name: "Two patient identifiers", Category: "medication administration",
			Severity: "high", EvidenceLevel: "A", Population: "all patients",
			Description:    "Patient identity is confirmed with two identifiers before every administration.",
			Recommendation: "Use name and date of birth or medical record number; never room number.",
		},
		{
			ID: "REN-001", Name: "Renal dose adjustment", Category: "renal dosing",
			Severity: "moderate", EvidenceLevel: "A", Population: "creatinine clearance below 50 mL/min",
			Description:    "Renally cleared drugs accumulate when clearance falls.",
			Recommendation: "Adjust dose or interval using Cockcroft-Gault creatinine clearance.",
		},
		{
			ID: "GER-001", Name: "Beers criteria review", Category: "geriatrics",
			Severity: "moderate", EvidenceLevel: "B", Population: "patients over 65",
			Description:    "Potentially inappropriate medications increase falls and delirium in older adults.",
			Recommendation: "Review anticholinergics, benzodiazepines and sedative hypnotics.",
		},
		{
			ID: "DOC-001", Name: "SOAP note completeness", Category: "documentation",
			Severity: "low", EvidenceLevel: "C", Population: "all encounters",
			Description:    "Each note documents subjective, objective, assessment and plan sections.",
			Recommendation: "Link every plan item to an assessment problem.",
		},
	}
}
