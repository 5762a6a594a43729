package refdata

import "github.com/i2y/clinicalmcp/internal/domain"

func ptr(v float64) *float64 { return &v }

func defaultLabRanges() []domain.LabReferenceRange {
	return []domain.LabReferenceRange{
		{Test: "sodium", Category: "electrolytes", Unit: "mmol/L", Low: 135, High: 145, CriticalLow: ptr(120), CriticalHigh: ptr(160), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "potassium", Category: "electrolytes", Unit: "mmol/L", Low: 3.5, High: 5.0, CriticalLow: ptr(2.5), CriticalHigh: ptr(6.5), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "chloride", Category: "electrolytes", Unit: "mmol/L", Low: 98, High: 107, Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "magnesium", Category: "electrolytes", Unit: "mmol/L", Low: 0.7, High: 1.0, CriticalLow: ptr(0.4), CriticalHigh: ptr(2.0), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "creatinine", Category: "renal", Unit: "mg/dL", Low: 0.7, High: 1.3, CriticalHigh: ptr(4.0), Gender: "male", AgeGroup: "adult"},
		{Test: "creatinine", Category: "renal", Unit: "mg/dL", Low: 0.6, High: 1.1, CriticalHigh: ptr(4.0), Gender: "female", AgeGroup: "adult"},
		{Test: "blood urea nitrogen", Category: "renal", Unit: "mg/dL", Low: 7, High: 20, CriticalHigh: ptr(100), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "glucose", Category: "metabolic", Unit: "mg/dL", Low: 70, High: 100, CriticalLow: ptr(40), CriticalHigh: ptr(500), Gender: domain.GenderBoth, AgeGroup: "adult", Notes: "fasting"},
		{Test: "hemoglobin a1c", Category: "metabolic", Unit: "%", Low: 4.0, High: 5.6, Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "hemoglobin", Category: "hematology", Unit: "g/dL", Low: 13.5, High: 17.5, CriticalLow: ptr(7), CriticalHigh: ptr(20), Gender: "male", AgeGroup: "adult"},
		{Test: "hemoglobin", Category: "hematology", Unit: "g/dL", Low: 12.0, High: 15.5, CriticalLow: ptr(7), CriticalHigh: ptr(20), Gender: "female", AgeGroup: "adult"},
		{Test: "white blood cells", Category: "hematology", Unit: "10^9/L", Low: 4.0, High: 11.0, CriticalLow: ptr(2.0), CriticalHigh: ptr(30), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "platelets", Category: "hematology", Unit: "10^9/L", Low: 150, High: 400, CriticalLow: ptr(50), CriticalHigh: ptr(1000), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "inr", Category: "coagulation", Unit: "ratio", Low: 0.8, High: 1.2, CriticalHigh: ptr(5.0), Gender: domain.GenderBoth, AgeGroup: "adult", Notes: "target 2-3 on warfarin"},
		{Test: "alt", Category: "hepatic", Unit: "U/L", Low: 7, High: 56, Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "ast", Category: "hepatic", Unit: "U/L", Low: 10, High: 40, Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "total bilirubin", Category: "hepatic", Unit: "mg/dL", Low: 0.1, High: 1.2, CriticalHigh: ptr(15), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "albumin", Category: "hepatic", Unit: "g/dL", Low: 3.5, High: 5.0, Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "troponin i", Category: "cardiac", Unit: "ng/mL", Low: 0, High: 0.04, CriticalHigh: ptr(0.4), Gender: domain.GenderBoth, AgeGroup: "adult"},
		{Test: "tsh", Category: "endocrine", Unit: "mIU/L", Low: 0.4, High: 4.0, Gender: domain.GenderBoth, AgeGroup: "adult"},
	}
}

func defaultVitalSignRanges() []domain.VitalSignRange {
	return []domain.VitalSignRange{
		{Parameter: "heart_rate", AgeGroup: "adult", Unit: "bpm", NormalMin: 60, NormalMax: 100, CriticalLow: ptr(40), CriticalHigh: ptr(150)},
		{Parameter: "respiratory_rate", AgeGroup: "adult", Unit: "breaths/min", NormalMin: 12, NormalMax: 20, CriticalLow: ptr(8), CriticalHigh: ptr(30)},
		{Parameter: "systolic_bp", AgeGroup: "adult", Unit: "mmHg", NormalMin: 90, NormalMax: 140, CriticalLow: ptr(70), CriticalHigh: ptr(180)},
		{Parameter: "diastolic_bp", AgeGroup: "adult", Unit: "mmHg", NormalMin: 60, NormalMax: 90, CriticalLow: ptr(40), CriticalHigh: ptr(120)},
		{Parameter: "temperature", AgeGroup: "adult", Unit: "°C", NormalMin: 36.1, NormalMax: 37.8, CriticalLow: ptr(35), CriticalHigh: ptr(40)},
		{Parameter: "oxygen_saturation", AgeGroup: "adult", Unit: "%", NormalMin: 95, NormalMax: 100, CriticalLow: ptr(88)},
		{Parameter: "heart_rate", AgeGroup: "pediatric", Unit: "bpm", NormalMin: 70, NormalMax: 120, CriticalLow: ptr(50), CriticalHigh: ptr(180)},
		{Parameter: "respiratory_rate", AgeGroup: "pediatric", Unit: "breaths/min", NormalMin: 18, NormalMax: 30, CriticalLow: ptr(10), CriticalHigh: ptr(50)},
		{Parameter: "systolic_bp", AgeGroup: "pediatric", Unit: "mmHg", NormalMin: 80, NormalMax: 120, CriticalLow: ptr(60), CriticalHigh: ptr(150)},
		{Parameter: "temperature", AgeGroup: "pediatric", Unit: "°C", NormalMin: 36.1, NormalMax: 37.8, CriticalLow: ptr(35), CriticalHigh: ptr(40)},
		{Parameter: "oxygen_saturation", AgeGroup: "pediatric", Unit: "%", NormalMin: 95, NormalMax: 100, CriticalLow: ptr(90)},
		{Parameter: "heart_rate", AgeGroup: "geriatric", Unit: "bpm", NormalMin: 60, NormalMax: 100, CriticalLow: ptr(40), CriticalHigh: ptr(140)},
		{Parameter: "systolic_bp", AgeGroup: "geriatric", Unit: "mmHg", NormalMin: 100, NormalMax: 150, CriticalLow: ptr(80), CriticalHigh: ptr(190)},
		{Parameter: "oxygen_saturation", AgeGroup: "geriatric", Unit: "%", NormalMin: 93, NormalMax: 100, CriticalLow: ptr(88)},
	}
}
