// Package refdata holds the built-in clinical reference tables and the
// YAML overlay that can extend them at startup.
package refdata

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// Tables is the full set of reference data served by the process.
// It is built once at startup and never mutated afterwards.
type Tables struct {
	TdmProfiles    []domain.TdmProfile        `yaml:"tdm_profiles"`
	Interactions   []domain.DrugInteraction   `yaml:"drug_interactions"`
	LabRanges      []domain.LabReferenceRange `yaml:"lab_ranges"`
	VitalSigns     []domain.VitalSignRange    `yaml:"vital_signs"`
	ClinicalRules  []domain.ClinicalRule      `yaml:"clinical_rules"`
	HighAlertDrugs []domain.HighAlertDrug     `yaml:"high_alert_drugs"`
}

// Default returns a fresh copy of the built-in tables.
func Default() Tables {
	return Tables{
		TdmProfiles:    defaultTdmProfiles(),
		Interactions:   defaultInteractions(),
		LabRanges:      defaultLabRanges(),
		VitalSigns:     defaultVitalSignRanges(),
		ClinicalRules:  defaultClinicalRules(),
		HighAlertDrugs: defaultHighAlertDrugs(),
	}
}

// Load returns the default tables, overlaid with path when it is non-empty.
func Load(path string, logger *slog.Logger) (Tables, error) {
	logger = logger.With("component", "refdata")
	base := Default()
	if path == "" {
		logger.Debug("Using built-in reference data")
		return base, base.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read reference data file '%s': %w", path, err)
	}
	var overlay Tables
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return Tables{}, fmt.Errorf("failed to unmarshal reference data file '%s': %w", path, err)
	}

	merged := base.Merge(overlay)
	if err := merged.Validate(); err != nil {
		return Tables{}, fmt.Errorf("invalid reference data in '%s': %w", path, err)
	}
	logger.Info("Loaded reference data overlay",
		slog.String("path", path),
		slog.Int("tdm_profiles", len(merged.TdmProfiles)),
		slog.Int("interactions", len(merged.Interactions)),
	)
	return merged, nil
}

// Merge overlays o onto t. TDM profiles and high-alert drugs replace entries
// with the same name; every other table is appended to.
func (t Tables) Merge(o Tables) Tables {
	out := Tables{
		TdmProfiles:    mergeByKey(t.TdmProfiles, o.TdmProfiles, func(p domain.TdmProfile) string { return p.Drug }),
		HighAlertDrugs: mergeByKey(t.HighAlertDrugs, o.HighAlertDrugs, func(d domain.HighAlertDrug) string { return d.Name }),
		Interactions:   append(append([]domain.DrugInteraction(nil), t.Interactions...), o.Interactions...),
		LabRanges:      append(append([]domain.LabReferenceRange(nil), t.LabRanges...), o.LabRanges...),
		VitalSigns:     append(append([]domain.VitalSignRange(nil), t.VitalSigns...), o.VitalSigns...),
		ClinicalRules:  append(append([]domain.ClinicalRule(nil), t.ClinicalRules...), o.ClinicalRules...),
	}
	return out
}

func mergeByKey[T any](base, overlay []T, key func(T) string) []T {
	out := append([]T(nil), base...)
	index := make(map[string]int, len(out))
	for i, v := range out {
		index[strings.ToLower(key(v))] = i
	}
	for _, v := range overlay {
		k := strings.ToLower(key(v))
		if i, ok := index[k]; ok {
			out[i] = v
			continue
		}
		index[k] = len(out)
		out = append(out, v)
	}
	return out
}

// Validate checks the invariants evaluators rely on.
func (t Tables) Validate() error {
	var errs []error
	for _, p := range t.TdmProfiles {
		if strings.TrimSpace(p.Drug) == "" {
			errs = append(errs, errors.New("tdm profile with empty drug name"))
			continue
		}
		if p.TherapeuticRange.Lower > p.TherapeuticRange.Upper {
			errs = append(errs, fmt.Errorf("tdm profile %s: lower limit %g above upper limit %g",
				p.Drug, p.TherapeuticRange.Lower, p.TherapeuticRange.Upper))
		}
		if _, err := p.SteadyStateDays(); err != nil {
			errs = append(errs, err)
		}
		switch p.SampleType {
		case domain.SampleTrough, domain.SamplePeak, domain.SampleRandom:
		default:
			errs = append(errs, fmt.Errorf("tdm profile %s: unknown sample type %q", p.Drug, p.SampleType))
		}
	}
	for _, in := range t.Interactions {
		if in.Severity.Rank() == 0 {
			errs = append(errs, fmt.Errorf("interaction %s/%s: unknown severity %q", in.DrugA, in.DrugB, in.Severity))
		}
	}
	for _, r := range t.LabRanges {
		if r.Low > r.High {
			errs = append(errs, fmt.Errorf("lab range %s: low %g above high %g", r.Test, r.Low, r.High))
		}
	}
	for _, r := range t.VitalSigns {
		if r.NormalMin > r.NormalMax {
			errs = append(errs, fmt.Errorf("vital sign %s/%s: min %g above max %g", r.Parameter, r.AgeGroup, r.NormalMin, r.NormalMax))
		}
	}
	return errors.Join(errs...)
}
