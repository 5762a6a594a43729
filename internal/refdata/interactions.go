package refdata

import "github.com/i2y/clinicalmcp/internal/domain"

func defaultInteractions() []domain.DrugInteraction {
	return []domain.DrugInteraction{
		{
			DrugA: "warfarin", DrugB: "aspirin", Severity: domain.InteractionMajor,
			Mechanism:  "additive antiplatelet and anticoagulant effect",
			Effect:     "increased bleeding risk",
			Management: "avoid unless indicated; monitor INR and signs of bleeding",
		},
		{
			DrugA: "warfarin", DrugB: "amiodarone", Severity: domain.InteractionMajor,
			Mechanism:  "CYP2C9 inhibition reduces warfarin clearance",
			Effect:     "elevated INR and bleeding",
			Management: "reduce warfarin dose 30-50% and monitor INR weekly",
		},
		{
			DrugA: "warfarin", DrugB: "ibuprofen", Severity: domain.InteractionMajor,
			Mechanism:  "platelet inhibition and gastric mucosal injury",
			Effect:     "gastrointestinal bleeding",
			Management: "prefer paracetamol for analgesia",
		},
		{
			DrugA: "simvastatin", DrugB: "clarithromycin", Severity: domain.InteractionContraindicated,
			Mechanism:  "strong CYP3A4 inhibition",
			Effect:     "rhabdomyolysis",
			Management: "withhold simvastatin during the macrolide course",
		},
		{
			DrugA: "sildenafil", DrugB: "nitroglycerin", Severity: domain.InteractionContraindicated,
			Mechanism:  "additive cGMP-mediated vasodilation",
			Effect:     "profound hypotension",
			Management: "do not co-administer",
		},
		{
			DrugA: "digoxin", DrugB: "amiodarone", Severity: domain.InteractionMajor,
			Mechanism:  "P-glycoprotein inhibition raises digoxin levels",
			Effect:     "digoxin toxicity",
			Management: "halve the digoxin dose and check levels",
		},
		{
			DrugA: "lithium", DrugB: "lisinopril", Severity: domain.InteractionModerate,
			Mechanism:  "reduced renal lithium clearance",
			Effect:     "lithium toxicity",
			Management: "monitor lithium levels after starting or changing the ACE inhibitor",
		},
		{
			DrugA: "lithium", DrugB: "ibuprofen", Severity: domain.InteractionModerate,
			Mechanism:  "reduced renal lithium clearance",
			Effect:     "lithium toxicity",
			Management: "avoid regular NSAID use; monitor levels",
		},
		{
			DrugA: "sertraline", DrugB: "tramadol", Severity: domain.InteractionMajor,
			Mechanism:  "additive serotonergic activity",
			Effect:     "serotonin syndrome and lowered seizure threshold",
			Management: "avoid combination or monitor closely",
		},
		{
			DrugA: "metformin", DrugB: "contrast media", Severity: domain.InteractionModerate,
			Mechanism:  "contrast nephropathy impairs metformin clearance",
			Effect:     "lactic acidosis",
			Management: "hold metformin 48 hours after iodinated contrast",
		},
		{
			DrugA: "vancomycin", DrugB: "gentamicin", Severity: domain.InteractionMajor,
			Mechanism:  "additive nephrotoxicity",
			Effect:     "acute kidney injury and ototoxicity",
			Management: "monitor serum creatinine and drug levels",
		},
		{
			DrugA: "levothyroxine", DrugB: "calcium carbonate", Severity: domain.InteractionMinor,
			Mechanism:  "chelation reduces absorption",
			Effect:     "reduced levothyroxine effect",
			Management: "separate administration by 4 hours",
		},
		{
			DrugA: "potassium chloride", DrugB: "spironolactone", Severity: domain.InteractionMajor,
			Mechanism:  "additive potassium retention",
			Effect:     "hyperkalaemia",
			Management: "monitor potassium; avoid routine supplementation",
		},
		{
			DrugA: "phenytoin", DrugB: "valproic acid", Severity: domain.InteractionModerate,
			Mechanism:  "protein binding displacement and enzyme inhibition",
			Effect:     "altered free phenytoin levels",
			Management: "monitor free phenytoin levels",
		},
	}
}

func defaultHighAlertDrugs() []domain.HighAlertDrug {
	return []domain.HighAlertDrug{
		{Name: "insulin", Class: "hypoglycemic", Reason: "severe hypoglycaemia from dosing errors"},
		{Name: "heparin", Class: "anticoagulant", Reason: "bleeding from dosing errors"},
		{Name: "warfarin", Class: "anticoagulant", Reason: "narrow therapeutic index and bleeding"},
		{Name: "enoxaparin", Class: "anticoagulant", Reason: "bleeding, renal dose adjustment"},
		{Name: "morphine", Class: "opioid", Reason: "respiratory depression"},
		{Name: "hydromorphone", Class: "opioid", Reason: "respiratory depression, potency confusion with morphine"},
		{Name: "fentanyl", Class: "opioid", Reason: "respiratory depression"},
		{Name: "potassium chloride", Class: "concentrated electrolyte", Reason: "fatal arrhythmia when given concentrated"},
		{Name: "methotrexate", Class: "antineoplastic", Reason: "daily instead of weekly dosing errors"},
		{Name: "digoxin", Class: "cardiac glycoside", Reason: "narrow therapeutic index"},
		{Name: "amiodarone", Class: "antiarrhythmic", Reason: "proarrhythmia"},
		{Name: "vancomycin", Class: "glycopeptide antibiotic", Reason: "nephrotoxicity requiring level monitoring"},
	}
}
