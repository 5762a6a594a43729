package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// Reference resource names.
const (
	ResourceClinicalRules    = "clinical-rules"
	ResourceLabRanges        = "lab-ranges"
	ResourceVitalSigns       = "vital-signs"
	ResourceTdmDrugs         = "tdm-drugs"
	ResourceDrugInteractions = "drug-interactions"
)

// ReferenceResource describes a queryable reference table.
type ReferenceResource struct {
	Name        string
	Title       string
	Description string
	Filters     []string
}

// ReferenceResources lists every queryable table.
var ReferenceResources = []ReferenceResource{
	{
		Name:        ResourceClinicalRules,
		Title:       "Clinical decision rules",
		Description: "Clinical decision-support rules. Filters: query, category, severity, evidence_level.",
		Filters:     []string{"query", "category", "severity", "evidence_level"},
	},
	{
		Name:        ResourceLabRanges,
		Title:       "Laboratory reference ranges",
		Description: "Laboratory reference ranges. Filters: query, category, gender (rows for both genders always match), age_group.",
		Filters:     []string{"query", "category", "gender", "age_group"},
	},
	{
		Name:        ResourceVitalSigns,
		Title:       "Vital sign ranges",
		Description: "Normal and critical vital sign ranges by age group. Filters: query, age_group.",
		Filters:     []string{"query", "age_group"},
	},
	{
		Name:        ResourceTdmDrugs,
		Title:       "TDM drug profiles",
		Description: "Therapeutic drug monitoring profiles. Filters: query, sample_type.",
		Filters:     []string{"query", "sample_type"},
	},
	{
		Name:        ResourceDrugInteractions,
		Title:       "Drug interactions",
		Description: "Documented drug-drug interactions. Filters: query, severity.",
		Filters:     []string{"query", "severity"},
	},
}

// FindReferenceResource looks a resource up by name.
func FindReferenceResource(name string) (ReferenceResource, bool) {
	for _, r := range ReferenceResources {
		if r.Name == name {
			return r, true
		}
	}
	return ReferenceResource{}, false
}

// ReferenceNames returns the resource names in registration order.
func ReferenceNames() []string {
	names := make([]string, 0, len(ReferenceResources))
	for _, r := range ReferenceResources {
		names = append(names, r.Name)
	}
	return names
}

// ReferenceUseCase filters the reference tables.
type ReferenceUseCase struct {
	repository ReferenceRepository
	logger     *slog.Logger
}

// NewReferenceUseCase creates a new ReferenceUseCase.
func NewReferenceUseCase(repository ReferenceRepository, logger *slog.Logger) *ReferenceUseCase {
	return &ReferenceUseCase{
		repository: repository,
		logger:     logger.With("usecase", "Reference"),
	}
}

// ReferenceQueryInput is the input of query_clinical_reference.
type ReferenceQueryInput struct {
	Resource      string `json:"resource"`
	Query         string `json:"query,omitempty"`
	Category      string `json:"category,omitempty"`
	Severity      string `json:"severity,omitempty"`
	EvidenceLevel string `json:"evidence_level,omitempty"`
	Gender        string `json:"gender,omitempty"`
	AgeGroup      string `json:"age_group,omitempty"`
	SampleType    string `json:"sample_type,omitempty"`
}

// Filters returns the non-empty filters keyed by name.
func (in ReferenceQueryInput) Filters() map[string]string {
	all := map[string]string{
		"query":          in.Query,
		"category":       in.Category,
		"severity":       in.Severity,
		"evidence_level": in.EvidenceLevel,
		"gender":         in.Gender,
		"age_group":      in.AgeGroup,
		"sample_type":    in.SampleType,
	}
	out := make(map[string]string)
	for k, v := range all {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// ReferenceMetadata is the machine-checkable summary of a query.
type ReferenceMetadata struct {
	Resource       string            `json:"resource"`
	Total          int               `json:"total"`
	Returned       int               `json:"returned"`
	Categories     []string          `json:"categories"`
	Filters        map[string]string `json:"filters"`
	IgnoredFilters []string          `json:"ignored_filters,omitempty"`
}

// ReferenceQueryResult is the output of query_clinical_reference and of resource reads.
type ReferenceQueryResult struct {
	ReferenceMetadata
	Items any    `json:"items"`
	Text  string `json:"-"`
}

// Narrative is the text rendering of the matched rows.
func (r ReferenceQueryResult) Narrative() string {
	return r.Text
}

// QueryTool runs Query with the tool input.
func (uc *ReferenceUseCase) QueryTool(ctx context.Context, in ReferenceQueryInput) (ReferenceQueryResult, error) {
	return uc.Query(ctx, in.Resource, in.Filters())
}

// Query filters a reference table. Filters are case-insensitive substrings
// combined with AND; keys are normalized to snake_case and keys the resource
// does not support are reported as ignored.
func (uc *ReferenceUseCase) Query(ctx context.Context, resource string, filters map[string]string) (ReferenceQueryResult, error) {
	desc, ok := FindReferenceResource(resource)
	if !ok {
		return ReferenceQueryResult{}, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}

	applied := make(map[string]string)
	ignored := []string{}
	for k, v := range filters {
		key := strcase.ToSnake(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !slices.Contains(desc.Filters, key) {
			ignored = append(ignored, k)
			continue
		}
		applied[key] = v
	}
	sort.Strings(ignored)

	var result ReferenceQueryResult
	switch resource {
	case ResourceClinicalRules:
		result = uc.queryRules(applied)
	case ResourceLabRanges:
		result = uc.queryLabs(applied)
	case ResourceVitalSigns:
		result = uc.queryVitals(applied)
	case ResourceTdmDrugs:
		result = uc.queryTdm(applied)
	case ResourceDrugInteractions:
		result = uc.queryInteractions(applied)
	}
	result.Resource = resource
	result.Filters = applied
	if len(ignored) > 0 {
		result.IgnoredFilters = ignored
	}
	result.Text = fmt.Sprintf("%s (%d of %d)\n%s", desc.Title, result.Returned, result.Total, result.Text)

	uc.logger.Debug("Reference queried",
		slog.String("resource", resource),
		slog.Int("returned", result.Returned),
		slog.Int("total", result.Total),
	)
	return result, nil
}

// matches reports whether filter key is absent or any field contains it.
func matches(filters map[string]string, key string, fields ...string) bool {
	f, ok := filters[key]
	if !ok {
		return true
	}
	for _, field := range fields {
		if containsFold(field, f) {
			return true
		}
	}
	return false
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := []string{}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (uc *ReferenceUseCase) queryRules(f map[string]string) ReferenceQueryResult {
	rows := uc.repository.ClinicalRules()
	out := []domain.ClinicalRule{}
	var cats []string
	var b strings.Builder
	for _, r := range rows {
		if !matches(f, "query", r.ID, r.Name, r.Description, r.Recommendation, r.Population) ||
			!matches(f, "category", r.Category) ||
			!matches(f, "severity", r.Severity) ||
			!matches(f, "evidence_level", r.EvidenceLevel) {
			continue
		}
		out = append(out, r)
		cats = append(cats, r.Category)
		fmt.Fprintf(&b, "- %s %s [%s, severity %s, evidence %s]: %s Recommendation: %s\n",
			r.ID, r.Name, r.Category, r.Severity, r.EvidenceLevel, r.Description, r.Recommendation)
	}
	return ReferenceQueryResult{
		ReferenceMetadata: ReferenceMetadata{Total: len(rows), Returned: len(out), Categories: distinct(cats)},
		Items:             out,
		Text:              b.String(),
	}
}

func (uc *ReferenceUseCase) queryLabs(f map[string]string) ReferenceQueryResult {
	rows := uc.repository.LabRanges()
	out := []domain.LabReferenceRange{}
	var cats []string
	var b strings.Builder
	for _, r := range rows {
		if !matches(f, "query", r.Test, r.Category, r.Notes) ||
			!matches(f, "category", r.Category) ||
			!matches(f, "age_group", r.AgeGroup) {
			continue
		}
		if g, ok := f["gender"]; ok && !strings.EqualFold(r.Gender, domain.GenderBoth) && !containsFold(r.Gender, g) {
			continue
		}
		out = append(out, r)
		cats = append(cats, r.Category)
		fmt.Fprintf(&b, "- %s (%s, %s, %s): %g-%g %s", r.Test, r.Category, r.Gender, r.AgeGroup, r.Low, r.High, r.Unit)
		if r.CriticalLow != nil {
			fmt.Fprintf(&b, "; critical low %g", *r.CriticalLow)
		}
		if r.CriticalHigh != nil {
			fmt.Fprintf(&b, "; critical high %g", *r.CriticalHigh)
		}
		if r.Notes != "" {
			fmt.Fprintf(&b, " (%s)", r.Notes)
		}
		b.WriteString("\n")
	}
	return ReferenceQueryResult{
		ReferenceMetadata: ReferenceMetadata{Total: len(rows), Returned: len(out), Categories: distinct(cats)},
		Items:             out,
		Text:              b.String(),
	}
}

func (uc *ReferenceUseCase) queryVitals(f map[string]string) ReferenceQueryResult {
	rows := uc.repository.VitalSignRanges()
	out := []domain.VitalSignRange{}
	var cats []string
	var b strings.Builder
	for _, r := range rows {
		if !matches(f, "query", r.Parameter, strings.ReplaceAll(r.Parameter, "_", " ")) ||
			!matches(f, "age_group", r.AgeGroup) {
			continue
		}
		out = append(out, r)
		cats = append(cats, r.AgeGroup)
		fmt.Fprintf(&b, "- %s (%s): %g-%g %s\n", r.Parameter, r.AgeGroup, r.NormalMin, r.NormalMax, r.Unit)
	}
	return ReferenceQueryResult{
		ReferenceMetadata: ReferenceMetadata{Total: len(rows), Returned: len(out), Categories: distinct(cats)},
		Items:             out,
		Text:              b.String(),
	}
}

func (uc *ReferenceUseCase) queryTdm(f map[string]string) ReferenceQueryResult {
	rows := uc.repository.TdmProfiles()
	out := []domain.TdmProfile{}
	var cats []string
	var b strings.Builder
	for _, p := range rows {
		if !matches(f, "query", append([]string{p.Drug}, p.RiskFactors...)...) ||
			!matches(f, "sample_type", string(p.SampleType)) {
			continue
		}
		out = append(out, p)
		cats = append(cats, string(p.SampleType))
		fmt.Fprintf(&b, "- %s: %g-%g %s, %s sample, steady state %s, half-life %s\n",
			p.Drug, p.TherapeuticRange.Lower, p.TherapeuticRange.Upper, p.TherapeuticRange.Unit,
			p.SampleType, p.TimeToSteadyState, p.HalfLife)
	}
	return ReferenceQueryResult{
		ReferenceMetadata: ReferenceMetadata{Total: len(rows), Returned: len(out), Categories: distinct(cats)},
		Items:             out,
		Text:              b.String(),
	}
}

func (uc *ReferenceUseCase) queryInteractions(f map[string]string) ReferenceQueryResult {
	rows := uc.repository.Interactions()
	out := []domain.DrugInteraction{}
	var cats []string
	var b strings.Builder
	for _, r := range rows {
		if !matches(f, "query", r.DrugA, r.DrugB, r.Effect, r.Mechanism) ||
			!matches(f, "severity", string(r.Severity)) {
			continue
		}
		out = append(out, r)
		cats = append(cats, string(r.Severity))
		fmt.Fprintf(&b, "- %s + %s [%s]: %s. %s\n", r.DrugA, r.DrugB, r.Severity, r.Effect, r.Management)
	}
	return ReferenceQueryResult{
		ReferenceMetadata: ReferenceMetadata{Total: len(rows), Returned: len(out), Categories: distinct(cats)},
		Items:             out,
		Text:              b.String(),
	}
}
