package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// Output formats for generate_soap_note.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// DocumentationUseCase writes SOAP notes from structured encounter data.
type DocumentationUseCase struct {
	assessment *AssessmentUseCase
	now        Clock
	markdown   goldmark.Markdown
	logger     *slog.Logger
}

// NewDocumentationUseCase creates a new DocumentationUseCase.
func NewDocumentationUseCase(repository ReferenceRepository, clock Clock, logger *slog.Logger) *DocumentationUseCase {
	return &DocumentationUseCase{
		assessment: NewAssessmentUseCase(repository, logger),
		now:        clock,
		markdown:   goldmark.New(),
		logger:     logger.With("usecase", "Documentation"),
	}
}

// SOAPNoteInput is the input of generate_soap_note.
type SOAPNoteInput struct {
	PatientID               string      `json:"patient_id"`
	EncounterDate           string      `json:"encounter_date,omitempty"`
	Clinician               string      `json:"clinician,omitempty"`
	ChiefComplaint          string      `json:"chief_complaint"`
	HistoryOfPresentIllness string      `json:"history_of_present_illness,omitempty"`
	Symptoms                []string    `json:"symptoms,omitempty"`
	Medications             []string    `json:"medications,omitempty"`
	Allergies               []string    `json:"allergies,omitempty"`
	AgeGroup                string      `json:"age_group,omitempty"`
	Gender                  string      `json:"gender,omitempty"`
	Vitals                  *VitalSigns `json:"vitals,omitempty"`
	Labs                    []LabValue  `json:"labs,omitempty"`
	PhysicalExam            string      `json:"physical_exam,omitempty"`
	Assessment              []string    `json:"assessment,omitempty"`
	Plan                    []string    `json:"plan,omitempty"`
	OutputFormat            string      `json:"output_format,omitempty"`
}

// SOAPSections holds the lines of each section.
type SOAPSections struct {
	Subjective []string `json:"subjective"`
	Objective  []string `json:"objective"`
	Assessment []string `json:"assessment"`
	Plan       []string `json:"plan"`
}

// SOAPNote is the output of generate_soap_note.
type SOAPNote struct {
	PatientID         string         `json:"patient_id"`
	EncounterDate     string         `json:"encounter_date"`
	Clinician         string         `json:"clinician,omitempty"`
	Format            string         `json:"format"`
	Sections          SOAPSections   `json:"sections"`
	VitalFindings     []VitalFinding `json:"vital_findings"`
	LabFindings       []LabFinding   `json:"lab_findings"`
	Flags             []string       `json:"flags"`
	CompletenessScore int            `json:"completeness_score"`
	MissingElements   []string       `json:"missing_elements"`
	Content           string         `json:"content"`
}

type completenessItem struct {
	name    string
	weight  int
	present bool
}

// GenerateSOAPNote assembles, scores and renders the note.
func (uc *DocumentationUseCase) GenerateSOAPNote(ctx context.Context, in SOAPNoteInput) (SOAPNote, error) {
	format := strings.ToLower(strings.TrimSpace(in.OutputFormat))
	if format == "" {
		format = FormatMarkdown
	}
	date := in.EncounterDate
	if date == "" {
		date = uc.now().Format("2006-01-02")
	}

	note := SOAPNote{
		PatientID:       in.PatientID,
		EncounterDate:   date,
		Clinician:       in.Clinician,
		Format:          format,
		VitalFindings:   []VitalFinding{},
		LabFindings:     []LabFinding{},
		Flags:           []string{},
		MissingElements: []string{},
	}

	s := &note.Sections
	s.Subjective = append(s.Subjective, "Chief complaint: "+in.ChiefComplaint)
	if in.HistoryOfPresentIllness != "" {
		s.Subjective = append(s.Subjective, "History of present illness: "+in.HistoryOfPresentIllness)
	}
	if len(in.Symptoms) > 0 {
		s.Subjective = append(s.Subjective, "Symptoms: "+strings.Join(in.Symptoms, ", "))
	}
	if len(in.Medications) > 0 {
		s.Subjective = append(s.Subjective, "Current medications: "+strings.Join(in.Medications, ", "))
	}
	if len(in.Allergies) > 0 {
		s.Subjective = append(s.Subjective, "Allergies: "+strings.Join(in.Allergies, ", "))
	} else {
		s.Subjective = append(s.Subjective, "Allergies: not documented")
	}

	s.Objective = []string{}
	if in.Vitals != nil {
		vitals := uc.assessment.assessVitals(in.AgeGroup, *in.Vitals)
		note.VitalFindings = vitals.Findings
		for _, f := range vitals.Findings {
			s.Objective = append(s.Objective, fmt.Sprintf("%s: %g %s (%s)", strings.ReplaceAll(f.Parameter, "_", " "), f.Value, f.Unit, f.Flag))
			if f.Flag != domain.FlagNormal {
				note.Flags = append(note.Flags, fmt.Sprintf("%s %s: %g %s", f.Parameter, f.Flag, f.Value, f.Unit))
			}
		}
	}
	if len(in.Labs) > 0 {
		labs := uc.assessment.interpretLabs(in.Gender, in.Labs)
		note.LabFindings = labs.Results
		for _, r := range labs.Results {
			s.Objective = append(s.Objective, fmt.Sprintf("%s: %g %s (%s, reference %g-%g)", r.Test, r.Value, r.Unit, r.Flag, r.Low, r.High))
			if r.Flag != domain.FlagNormal {
				note.Flags = append(note.Flags, fmt.Sprintf("%s %s: %g %s", r.Test, r.Flag, r.Value, r.Unit))
			}
		}
		for _, u := range labs.Unrecognized {
			s.Objective = append(s.Objective, u+": no reference range available")
		}
	}
	if in.PhysicalExam != "" {
		s.Objective = append(s.Objective, "Physical exam: "+in.PhysicalExam)
	}

	s.Assessment = append([]string{}, in.Assessment...)
	if len(note.Flags) > 0 {
		s.Assessment = append(s.Assessment, "Abnormal findings requiring review: "+strings.Join(note.Flags, "; "))
	}
	s.Plan = append([]string{}, in.Plan...)

	items := []completenessItem{
		{"chief complaint", 15, strings.TrimSpace(in.ChiefComplaint) != ""},
		{"history of present illness", 10, strings.TrimSpace(in.HistoryOfPresentIllness) != ""},
		{"vital signs", 15, len(note.VitalFindings) > 0},
		{"physical exam", 10, strings.TrimSpace(in.PhysicalExam) != ""},
		{"laboratory results", 10, len(note.LabFindings) > 0},
		{"assessment", 20, len(in.Assessment) > 0},
		{"plan", 20, len(in.Plan) > 0},
	}
	for _, it := range items {
		if it.present {
			note.CompletenessScore += it.weight
		} else {
			note.MissingElements = append(note.MissingElements, it.name)
		}
	}
	if len(in.Allergies) == 0 {
		note.MissingElements = append(note.MissingElements, "allergies")
	}

	md := renderSOAPMarkdown(note)
	switch format {
	case FormatMarkdown:
		note.Content = md
	case FormatHTML:
		var buf bytes.Buffer
		if err := uc.markdown.Convert([]byte(md), &buf); err != nil {
			return SOAPNote{}, &domain.ProcessingError{Operation: "render SOAP note", Err: err}
		}
		note.Content = buf.String()
	default:
		note.Content = renderSOAPText(note)
	}

	uc.logger.Debug("SOAP note generated",
		slog.String("patient_id", in.PatientID),
		slog.Int("completeness", note.CompletenessScore),
		slog.String("format", format),
	)
	return note, nil
}

func soapSections(n SOAPNote) []struct {
	title string
	lines []string
} {
	return []struct {
		title string
		lines []string
	}{
		{"Subjective", n.Sections.Subjective},
		{"Objective", n.Sections.Objective},
		{"Assessment", n.Sections.Assessment},
		{"Plan", n.Sections.Plan},
	}
}

func renderSOAPMarkdown(n SOAPNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# SOAP Note\n\n**Patient:** %s  \n**Date:** %s  \n", n.PatientID, n.EncounterDate)
	if n.Clinician != "" {
		fmt.Fprintf(&b, "**Clinician:** %s  \n", n.Clinician)
	}
	for _, sec := range soapSections(n) {
		fmt.Fprintf(&b, "\n## %s\n\n", sec.title)
		if len(sec.lines) == 0 {
			b.WriteString("_Not documented_\n")
			continue
		}
		bulletList(&b, sec.lines)
	}
	return b.String()
}

func renderSOAPText(n SOAPNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SOAP NOTE\nPatient: %s\nDate: %s\n", n.PatientID, n.EncounterDate)
	if n.Clinician != "" {
		fmt.Fprintf(&b, "Clinician: %s\n", n.Clinician)
	}
	for _, sec := range soapSections(n) {
		fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(sec.title))
		if len(sec.lines) == 0 {
			b.WriteString("  Not documented\n")
			continue
		}
		for _, l := range sec.lines {
			b.WriteString("  " + l + "\n")
		}
	}
	return b.String()
}

// Narrative is the rendered note.
func (n SOAPNote) Narrative() string {
	return n.Content
}
