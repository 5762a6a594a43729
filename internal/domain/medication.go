package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// MedicationCategory groups entries of a medication history.
type MedicationCategory string

const (
	CategoryPrescription MedicationCategory = "prescription"
	CategoryOTC          MedicationCategory = "otc"
	CategoryHerbal       MedicationCategory = "herbal"
	CategorySupplement   MedicationCategory = "supplement"
	CategoryTopical      MedicationCategory = "topical"
	CategoryInhaled      MedicationCategory = "inhaled"
	CategoryInjectable   MedicationCategory = "injectable"
	CategoryOther        MedicationCategory = "other"
)

// MedicationCategories lists every category in reporting order.
var MedicationCategories = []MedicationCategory{
	CategoryPrescription,
	CategoryOTC,
	CategoryHerbal,
	CategorySupplement,
	CategoryTopical,
	CategoryInhaled,
	CategoryInjectable,
	CategoryOther,
}

// Known reports whether c is one of MedicationCategories.
func (c MedicationCategory) Known() bool {
	return slices.Contains(MedicationCategories, c)
}

// Label returns the heading used in narratives.
func (c MedicationCategory) Label() string {
	switch c {
	case CategoryPrescription:
		return "Prescription medications"
	case CategoryOTC:
		return "Over-the-counter medications"
	case CategoryHerbal:
		return "Herbal products"
	case CategorySupplement:
		return "Vitamins and supplements"
	case CategoryTopical:
		return "Topical products"
	case CategoryInhaled:
		return "Inhaled medications"
	case CategoryInjectable:
		return "Injectable medications"
	default:
		return "Other"
	}
}

// SourceKind discriminates MedicationSource.
type SourceKind string

const (
	SourcePrescribed       SourceKind = "prescribed"
	SourceSelfAdministered SourceKind = "self_administered"
	SourceUnspecified      SourceKind = "unspecified"
)

// MedicationSource records who started a medication.
// Only a prescribed source carries a prescriber; the zero value is unspecified.
type MedicationSource struct {
	kind       SourceKind
	prescriber string
}

// Prescribed returns a source started by the named prescriber.
func Prescribed(prescriber string) MedicationSource {
	return MedicationSource{kind: SourcePrescribed, prescriber: strings.TrimSpace(prescriber)}
}

// SelfAdministered returns a source for medications the patient started on their own.
func SelfAdministered() MedicationSource {
	return MedicationSource{kind: SourceSelfAdministered}
}

// UnspecifiedSource returns a source for which nothing is known.
func UnspecifiedSource() MedicationSource {
	return MedicationSource{kind: SourceUnspecified}
}

// Kind reports the variant.
func (s MedicationSource) Kind() SourceKind {
	if s.kind == "" {
		return SourceUnspecified
	}
	return s.kind
}

// Prescriber returns the prescriber and true for prescribed sources.
func (s MedicationSource) Prescriber() (string, bool) {
	if s.Kind() != SourcePrescribed {
		return "", false
	}
	return s.prescriber, true
}

func (s MedicationSource) String() string {
	switch s.Kind() {
	case SourcePrescribed:
		if s.prescriber == "" {
			return "prescribed"
		}
		return "prescribed by " + s.prescriber
	case SourceSelfAdministered:
		return "self-administered"
	default:
		return "source not recorded"
	}
}

type medicationSourceJSON struct {
	Kind       SourceKind `json:"kind"`
	Prescriber string     `json:"prescriber,omitempty"`
}

func (s MedicationSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(medicationSourceJSON{Kind: s.Kind(), Prescriber: s.prescriber})
}

func (s *MedicationSource) UnmarshalJSON(data []byte) error {
	var raw medicationSourceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("medication source: %w", err)
	}
	switch raw.Kind {
	case SourcePrescribed:
		*s = Prescribed(raw.Prescriber)
	case SourceSelfAdministered:
		*s = SelfAdministered()
	case SourceUnspecified, "":
		*s = UnspecifiedSource()
	default:
		return fmt.Errorf("medication source: unknown kind %q", raw.Kind)
	}
	return nil
}

// MedicationEntry is a single medication as reported or ordered.
type MedicationEntry struct {
	DrugName       string           `json:"drug_name"`
	Dose           string           `json:"dose"`
	Frequency      string           `json:"frequency"`
	Route          string           `json:"route"`
	Indication     string           `json:"indication,omitempty"`
	LastTaken      string           `json:"last_taken,omitempty"`
	StartDate      string           `json:"start_date,omitempty"`
	Source         MedicationSource `json:"source"`
	AdherenceNotes string           `json:"adherence_notes,omitempty"`
}

// Summary renders the entry on one line.
func (m MedicationEntry) Summary() string {
	parts := []string{m.DrugName}
	for _, p := range []string{m.Dose, m.Route, m.Frequency} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CategoryGroup is one non-empty category of a MedicationHistory.
type CategoryGroup struct {
	Category    MedicationCategory `json:"category"`
	Medications []MedicationEntry  `json:"medications"`
}

// MedicationHistory is a categorized medication list. Groups follow
// MedicationCategories order and empty categories are never present.
type MedicationHistory struct {
	Groups []CategoryGroup `json:"categories"`
	Total  int             `json:"total_medications"`
}

// NewMedicationHistory groups entries by category. Entries under a
// category outside MedicationCategories are grouped as CategoryOther.
func NewMedicationHistory(byCategory map[MedicationCategory][]MedicationEntry) MedicationHistory {
	h := MedicationHistory{Groups: []CategoryGroup{}}
	var unknown []MedicationCategory
	for c := range byCategory {
		if !c.Known() {
			unknown = append(unknown, c)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	var other []MedicationEntry
	for _, c := range unknown {
		other = append(other, byCategory[c]...)
	}
	for _, c := range MedicationCategories {
		entries := byCategory[c]
		if c == CategoryOther && len(other) > 0 {
			entries = append(append([]MedicationEntry(nil), entries...), other...)
		}
		if len(entries) == 0 {
			continue
		}
		h.Groups = append(h.Groups, CategoryGroup{Category: c, Medications: append([]MedicationEntry(nil), entries...)})
		h.Total += len(entries)
	}
	return h
}

// All returns every entry in category order.
func (h MedicationHistory) All() []MedicationEntry {
	out := make([]MedicationEntry, 0, h.Total)
	for _, g := range h.Groups {
		out = append(out, g.Medications...)
	}
	return out
}
