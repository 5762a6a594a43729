package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/clinicalmcp/internal/domain"
)

type promptArgument struct {
	Name        string
	Description string
	Required    bool
}

type promptSpec struct {
	Name        string
	Title       string
	Description string
	Arguments   []promptArgument
	// Render turns the supplied arguments into the user messages.
	Render func(args map[string]string) []string
}

func argOr(args map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(args[key]); v != "" {
		return v
	}
	return fallback
}

func promptCatalog() []promptSpec {
	return []promptSpec{
		{
			Name:        "medication_reconciliation",
			Title:       "Medication reconciliation",
			Description: "Walks through BPMH collection, list comparison and discrepancy resolution for a care transition.",
			Arguments: []promptArgument{
				{Name: "patient_id", Description: "Patient identifier", Required: true},
				{Name: "transition", Description: "admission, transfer or discharge"},
			},
			Render: func(args map[string]string) []string {
				return []string{
					fmt.Sprintf("Reconcile medications for patient %s at %s.", args["patient_id"], argOr(args, "transition", "admission")),
					"1. Call gather_bpmh with every medication reported by the patient, family, pharmacy and prior records. List each source you consulted.\n" +
						"2. Call compare_medication_lists with the BPMH as home_medications and the current orders as active_orders.\n" +
						"3. For each discrepancy, starting with high severity, decide an action and call resolve_discrepancy. Contact the prescriber for anything unintentional.\n" +
						"4. Summarize unresolved items and the follow-up they need.",
				}
			},
		},
		{
			Name:        "tdm_consult",
			Title:       "Therapeutic drug monitoring consult",
			Description: "Assesses whether a drug needs monitoring and interprets a measured level.",
			Arguments: []promptArgument{
				{Name: "drug_name", Description: "Monitored drug", Required: true},
				{Name: "measured_concentration", Description: "Measured level, if one is available"},
			},
			Render: func(args map[string]string) []string {
				msgs := []string{
					fmt.Sprintf("Provide a TDM consult for %s.", args["drug_name"]),
					"1. Call assess_tdm_candidate with the patient's age, renal and hepatic function and concurrent medications.\n" +
						"2. Check the monitoring parameters in the tdm-drugs resource.",
				}
				if level := strings.TrimSpace(args["measured_concentration"]); level != "" {
					msgs = append(msgs, fmt.Sprintf("3. Call interpret_tdm_result with measured_concentration %s, the dose and collection times, and the observed clinical response. Report the dose recommendation and follow-up plan.", level))
				} else {
					msgs = append(msgs, "3. Once a level is drawn, call interpret_tdm_result to recommend a dose adjustment.")
				}
				return msgs
			},
		},
		{
			Name:        "soap_documentation",
			Title:       "SOAP note documentation",
			Description: "Collects encounter data and produces a SOAP note.",
			Arguments: []promptArgument{
				{Name: "patient_id", Description: "Patient identifier", Required: true},
				{Name: "chief_complaint", Description: "Reason for the encounter", Required: true},
				{Name: "output_format", Description: "text, markdown or html"},
			},
			Render: func(args map[string]string) []string {
				return []string{
					fmt.Sprintf("Document the encounter for patient %s presenting with %s.", args["patient_id"], args["chief_complaint"]),
					"1. Gather the history, symptoms, medications, allergies, vital signs, labs and examination findings.\n" +
						"2. Call assess_vital_signs and interpret_lab_values for any measurements.\n" +
						fmt.Sprintf("3. Call generate_soap_note with output_format %s and review the missing elements it reports.", argOr(args, "output_format", "markdown")),
				}
			},
		},
		{
			Name:        "five_rights_check",
			Title:       "Five rights check",
			Description: "Verifies patient, medication, dose, route and time before administration.",
			Arguments: []promptArgument{
				{Name: "patient_id", Description: "Patient on the order", Required: true},
				{Name: "medication", Description: "Medication to administer", Required: true},
			},
			Render: func(args map[string]string) []string {
				return []string{
					fmt.Sprintf("Before giving %s to patient %s, verify the five rights.", args["medication"], args["patient_id"]),
					"1. Confirm the patient with two identifiers and note any allergies.\n" +
						"2. Call verify_five_rights with the order and what is in hand.\n" +
						"3. Do not administer unless safe_to_administer is true. Complete an independent double check for high-alert medications.",
				}
			},
		},
		{
			Name:        "interaction_review",
			Title:       "Drug interaction review",
			Description: "Screens a medication list for interactions.",
			Arguments: []promptArgument{
				{Name: "medications", Description: "Comma-separated medication names", Required: true},
			},
			Render: func(args map[string]string) []string {
				meds := strings.Split(args["medications"], ",")
				for i := range meds {
					meds[i] = strings.TrimSpace(meds[i])
				}
				return []string{
					fmt.Sprintf("Review these medications for interactions: %s.", strings.Join(meds, ", ")),
					"1. Call check_drug_interactions with the list.\n" +
						"2. For each contraindicated or major interaction, propose an alternative or a monitoring plan.\n" +
						"3. Consult the drug-interactions resource for management details.",
				}
			},
		},
	}
}

func (r *Registry) registerPrompts() error {
	for _, p := range promptCatalog() {
		names := make([]string, 0, len(p.Arguments))
		opts := []mcp.PromptOption{mcp.WithPromptDescription(p.Description)}
		for _, a := range p.Arguments {
			names = append(names, a.Name)
			argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(a.Description)}
			if a.Required {
				argOpts = append(argOpts, mcp.RequiredArgument())
			}
			opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
		}
		if err := r.record(domain.Capability{
			Kind:        domain.CapabilityPrompt,
			Name:        p.Name,
			Title:       p.Title,
			Description: p.Description,
			Arguments:   names,
		}); err != nil {
			return err
		}
		r.server.AddPrompt(mcp.NewPrompt(p.Name, opts...), r.promptHandler(p))
	}
	return nil
}

func (r *Registry) promptHandler(p promptSpec) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := req.Params.Arguments
		var missing []domain.FieldError
		for _, a := range p.Arguments {
			if a.Required && strings.TrimSpace(args[a.Name]) == "" {
				missing = append(missing, domain.FieldError{Field: a.Name, Reason: "is required"})
			}
		}
		if len(missing) > 0 {
			err := &domain.ValidationError{Fields: missing}
			r.logger.Info("Prompt arguments rejected.", slog.String("prompt", p.Name), slog.Any("error", err))
			return nil, err
		}

		texts := p.Render(args)
		messages := make([]mcp.PromptMessage, 0, len(texts))
		for _, text := range texts {
			messages = append(messages, mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)))
		}
		return mcp.NewGetPromptResult(p.Title, messages), nil
	}
}
