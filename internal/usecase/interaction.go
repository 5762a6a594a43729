package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// InteractionUseCase screens medication lists against the interaction table.
type InteractionUseCase struct {
	repository ReferenceRepository
	logger     *slog.Logger
}

// NewInteractionUseCase creates a new InteractionUseCase.
func NewInteractionUseCase(repository ReferenceRepository, logger *slog.Logger) *InteractionUseCase {
	return &InteractionUseCase{
		repository: repository,
		logger:     logger.With("usecase", "Interaction"),
	}
}

// CheckInteractionsInput is the input of check_drug_interactions.
type CheckInteractionsInput struct {
	Medications  []string `json:"medications"`
	IncludeMinor *bool    `json:"include_minor,omitempty"`
}

// FoundInteraction is an interaction between two of the submitted medications.
type FoundInteraction struct {
	DrugA      string                     `json:"drug_a"`
	DrugB      string                     `json:"drug_b"`
	Severity   domain.InteractionSeverity `json:"severity"`
	Mechanism  string                     `json:"mechanism"`
	Effect     string                     `json:"effect"`
	Management string                     `json:"management"`
}

// InteractionReport is the output of check_drug_interactions.
type InteractionReport struct {
	Medications     []string           `json:"medications"`
	PairsChecked    int                `json:"pairs_checked"`
	Interactions    []FoundInteraction `json:"interactions"`
	SeverityCounts  map[string]int     `json:"severity_counts"`
	HighestSeverity string             `json:"highest_severity"`
	Alerts          []string           `json:"alerts"`
	Recommendations []string           `json:"recommendations"`
}

// interacts reports whether the pair (a, b) matches row in either order.
func interacts(a, b string, row domain.DrugInteraction) bool {
	ra, rb := normalizeName(row.DrugA), normalizeName(row.DrugB)
	a, b = normalizeName(a), normalizeName(b)
	return (strings.Contains(a, ra) && strings.Contains(b, rb)) ||
		(strings.Contains(a, rb) && strings.Contains(b, ra))
}

// Check looks up every pair of medications in the interaction table.
func (uc *InteractionUseCase) Check(ctx context.Context, in CheckInteractionsInput) (InteractionReport, error) {
	includeMinor := in.IncludeMinor == nil || *in.IncludeMinor
	table := uc.repository.Interactions()

	report := InteractionReport{
		Medications:     in.Medications,
		Interactions:    []FoundInteraction{},
		SeverityCounts:  make(map[string]int, len(domain.InteractionSeverities)),
		HighestSeverity: "none",
		Alerts:          []string{},
		Recommendations: []string{},
	}
	for _, s := range domain.InteractionSeverities {
		report.SeverityCounts[string(s)] = 0
	}

	for i := 0; i < len(in.Medications); i++ {
		for j := i + 1; j < len(in.Medications); j++ {
			report.PairsChecked++
			a, b := in.Medications[i], in.Medications[j]
			for _, row := range table {
				if !interacts(a, b, row) {
					continue
				}
				if row.Severity == domain.InteractionMinor && !includeMinor {
					continue
				}
				report.Interactions = append(report.Interactions, FoundInteraction{
					DrugA: a, DrugB: b,
					Severity:   row.Severity,
					Mechanism:  row.Mechanism,
					Effect:     row.Effect,
					Management: row.Management,
				})
			}
		}
	}

	sort.SliceStable(report.Interactions, func(i, j int) bool {
		return report.Interactions[i].Severity.Rank() > report.Interactions[j].Severity.Rank()
	})
	for _, f := range report.Interactions {
		report.SeverityCounts[string(f.Severity)]++
		switch f.Severity {
		case domain.InteractionContraindicated:
			report.Alerts = append(report.Alerts, fmt.Sprintf("CONTRAINDICATED: %s + %s (%s)", f.DrugA, f.DrugB, f.Effect))
		case domain.InteractionMajor:
			report.Alerts = append(report.Alerts, fmt.Sprintf("MAJOR: %s + %s (%s)", f.DrugA, f.DrugB, f.Effect))
		}
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("%s + %s: %s", f.DrugA, f.DrugB, f.Management))
	}
	if len(report.Interactions) > 0 {
		report.HighestSeverity = string(report.Interactions[0].Severity)
	} else {
		report.Recommendations = append(report.Recommendations, "No documented interactions in the reference table; this does not exclude interactions")
	}

	uc.logger.Debug("Interactions checked",
		slog.Int("medications", len(in.Medications)),
		slog.Int("interactions", len(report.Interactions)),
		slog.String("highest_severity", report.HighestSeverity),
	)
	return report, nil
}

// Narrative lists interactions from most to least severe.
func (r InteractionReport) Narrative() string {
	var b strings.Builder
	if len(r.Interactions) == 0 {
		fmt.Fprintf(&b, "No documented interactions among %d medication(s) (%d pair(s) checked).\n", len(r.Medications), r.PairsChecked)
		return b.String()
	}
	fmt.Fprintf(&b, "%d interaction(s) found; highest severity %s.\n", len(r.Interactions), r.HighestSeverity)
	for _, f := range r.Interactions {
		fmt.Fprintf(&b, "- %s + %s [%s]: %s. %s\n", f.DrugA, f.DrugB, f.Severity, f.Effect, f.Management)
	}
	return b.String()
}
