package memrepo

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/refdata"
)

// InMemoryReferenceRepository serves the clinical reference tables from memory.
// It is populated once by the constructor and only read afterwards, so it
// needs no locking. Accessors return copies.
type InMemoryReferenceRepository struct {
	tdm            map[string]domain.TdmProfile // lower-cased drug name to profile
	tdmOrder       []string
	interactions   []domain.DrugInteraction
	labRanges      []domain.LabReferenceRange
	vitalSigns     []domain.VitalSignRange
	clinicalRules  []domain.ClinicalRule
	highAlertDrugs []domain.HighAlertDrug
	logger         *slog.Logger
}

// NewInMemoryReferenceRepository indexes the given tables.
func NewInMemoryReferenceRepository(tables refdata.Tables, logger *slog.Logger) *InMemoryReferenceRepository {
	r := &InMemoryReferenceRepository{
		tdm:            make(map[string]domain.TdmProfile, len(tables.TdmProfiles)),
		interactions:   slices.Clone(tables.Interactions),
		labRanges:      slices.Clone(tables.LabRanges),
		vitalSigns:     slices.Clone(tables.VitalSigns),
		clinicalRules:  slices.Clone(tables.ClinicalRules),
		highAlertDrugs: slices.Clone(tables.HighAlertDrugs),
		logger:         logger.With("component", "mem_repo"),
	}
	for _, p := range tables.TdmProfiles {
		key := normalize(p.Drug)
		if key == "" {
			r.logger.Warn("Skipping TDM profile with empty drug name")
			continue
		}
		if _, dup := r.tdm[key]; !dup {
			r.tdmOrder = append(r.tdmOrder, key)
		}
		p.RiskFactors = slices.Clone(p.RiskFactors)
		r.tdm[key] = p
	}
	r.logger.Info("Indexed reference data",
		slog.Int("tdm_profiles", len(r.tdm)),
		slog.Int("interactions", len(r.interactions)),
		slog.Int("lab_ranges", len(r.labRanges)),
		slog.Int("vital_signs", len(r.vitalSigns)),
		slog.Int("clinical_rules", len(r.clinicalRules)),
		slog.Int("high_alert_drugs", len(r.highAlertDrugs)),
	)
	return r
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FindTdmProfile retrieves a TDM profile by case-insensitive drug name.
func (r *InMemoryReferenceRepository) FindTdmProfile(drug string) (domain.TdmProfile, bool) {
	p, ok := r.tdm[normalize(drug)]
	if !ok {
		r.logger.Debug("No TDM profile", slog.String("drug", drug))
		return domain.TdmProfile{}, false
	}
	p.RiskFactors = slices.Clone(p.RiskFactors)
	return p, true
}

// TdmProfiles returns every profile in load order.
func (r *InMemoryReferenceRepository) TdmProfiles() []domain.TdmProfile {
	out := make([]domain.TdmProfile, 0, len(r.tdmOrder))
	for _, k := range r.tdmOrder {
		p := r.tdm[k]
		p.RiskFactors = slices.Clone(p.RiskFactors)
		out = append(out, p)
	}
	return out
}

func (r *InMemoryReferenceRepository) Interactions() []domain.DrugInteraction {
	return slices.Clone(r.interactions)
}

func (r *InMemoryReferenceRepository) LabRanges() []domain.LabReferenceRange {
	return slices.Clone(r.labRanges)
}

func (r *InMemoryReferenceRepository) VitalSignRanges() []domain.VitalSignRange {
	return slices.Clone(r.vitalSigns)
}

func (r *InMemoryReferenceRepository) ClinicalRules() []domain.ClinicalRule {
	return slices.Clone(r.clinicalRules)
}

// FindHighAlertDrug matches when drug contains a high-alert name, so
// "insulin glargine" matches "insulin".
func (r *InMemoryReferenceRepository) FindHighAlertDrug(drug string) (domain.HighAlertDrug, bool) {
	name := normalize(drug)
	if name == "" {
		return domain.HighAlertDrug{}, false
	}
	for _, h := range r.highAlertDrugs {
		if strings.Contains(name, normalize(h.Name)) {
			return h, true
		}
	}
	return domain.HighAlertDrug{}, false
}
