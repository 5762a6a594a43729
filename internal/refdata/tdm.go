package refdata

import "github.com/i2y/clinicalmcp/internal/domain"

func defaultTdmProfiles() []domain.TdmProfile {
	return []domain.TdmProfile{
		{
			Drug:                "vancomycin",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 10, Upper: 20, Unit: "mg/L"},
			ToxicLevel:          30,
			HalfLife:            "6-12 hours",
			TimeToSteadyState:   "1-2 days",
			MonitoringFrequency: "before 4th dose, then weekly",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"renal impairment", "elderly", "polypharmacy"},
		},
		{
			Drug:                "digoxin",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 0.5, Upper: 2.0, Unit: "ng/mL"},
			ToxicLevel:          2.5,
			HalfLife:            "36-48 hours",
			TimeToSteadyState:   "7 days",
			MonitoringFrequency: "5-7 days after start or dose change",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"renal impairment", "elderly", "polypharmacy"},
		},
		{
			Drug:                "phenytoin",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 10, Upper: 20, Unit: "mg/L"},
			ToxicLevel:          30,
			HalfLife:            "7-42 hours",
			TimeToSteadyState:   "5-7 days",
			MonitoringFrequency: "5-7 days after dose change",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"hepatic impairment", "elderly", "polypharmacy"},
		},
		{
			Drug:                "lithium",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 0.6, Upper: 1.2, Unit: "mmol/L"},
			ToxicLevel:          1.5,
			HalfLife:            "18-36 hours",
			TimeToSteadyState:   "5 days",
			MonitoringFrequency: "weekly until stable, then every 3 months",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"renal impairment", "elderly"},
		},
		{
			Drug:                "gentamicin",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 5, Upper: 10, Unit: "mg/L"},
			ToxicLevel:          12,
			HalfLife:            "2-3 hours",
			TimeToSteadyState:   "1 day",
			MonitoringFrequency: "around the 3rd dose, then every 2-3 days",
			SampleType:          domain.SamplePeak,
			RiskFactors:         []string{"renal impairment", "elderly"},
		},
		{
			Drug:                "amikacin",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 20, Upper: 30, Unit: "mg/L"},
			ToxicLevel:          35,
			HalfLife:            "2-3 hours",
			TimeToSteadyState:   "1 day",
			MonitoringFrequency: "around the 3rd dose, then every 2-3 days",
			SampleType:          domain.SamplePeak,
			RiskFactors:         []string{"renal impairment", "elderly"},
		},
		{
			Drug:                "carbamazepine",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 4, Upper: 12, Unit: "mg/L"},
			ToxicLevel:          15,
			HalfLife:            "12-17 hours",
			TimeToSteadyState:   "14 days",
			MonitoringFrequency: "2 weeks after start, then as needed",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"hepatic impairment", "polypharmacy"},
		},
		{
			Drug:                "theophylline",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 10, Upper: 20, Unit: "mg/L"},
			ToxicLevel:          25,
			HalfLife:            "3-12 hours",
			TimeToSteadyState:   "2 days",
			MonitoringFrequency: "24 hours after start or dose change",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"hepatic impairment", "elderly", "polypharmacy"},
		},
		{
			Drug:                "valproic acid",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 50, Upper: 100, Unit: "mg/L"},
			ToxicLevel:          150,
			HalfLife:            "9-16 hours",
			TimeToSteadyState:   "3-4 days",
			MonitoringFrequency: "3-5 days after dose change",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"hepatic impairment", "polypharmacy"},
		},
		{
			Drug:                "tacrolimus",
			TherapeuticRange:    domain.TherapeuticRange{Lower: 5, Upper: 15, Unit: "ng/mL"},
			ToxicLevel:          20,
			HalfLife:            "8-12 hours",
			TimeToSteadyState:   "3 days",
			MonitoringFrequency: "2-3 times weekly early post-transplant",
			SampleType:          domain.SampleTrough,
			RiskFactors:         []string{"hepatic impairment", "renal impairment", "polypharmacy"},
		},
	}
}
