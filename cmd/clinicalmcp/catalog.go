package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/i2y/clinicalmcp/configs"
	"github.com/i2y/clinicalmcp/internal/domain"
)

func catalogCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the tools, resources and prompts the server registers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configs.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			_, reg, err := buildServer(cfg, logger)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), reg.Catalog(), domain.CapabilityKind(kind))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list one kind: tool, resource or prompt")
	return cmd
}

func printCatalog(w io.Writer, catalog []domain.Capability, only domain.CapabilityKind) error {
	switch only {
	case "", domain.CapabilityTool, domain.CapabilityResource, domain.CapabilityPrompt:
	default:
		return fmt.Errorf("unknown capability kind %q", only)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	for _, kind := range []domain.CapabilityKind{domain.CapabilityTool, domain.CapabilityResource, domain.CapabilityPrompt} {
		if only != "" && kind != only {
			continue
		}
		var group []domain.Capability
		for _, c := range catalog {
			if c.Kind == kind {
				group = append(group, c)
			}
		}
		if len(group) == 0 {
			continue
		}
		cyan.Fprintf(w, "%ss (%d)\n", strings.ToUpper(string(kind[:1]))+string(kind[1:]), len(group))
		for _, c := range group {
			green.Fprintf(w, "  %s", c.Name)
			if c.URI != "" {
				dim.Fprintf(w, "  %s", c.URI)
			}
			fmt.Fprintln(w)
			if c.Description != "" {
				fmt.Fprintf(w, "      %s\n", c.Description)
			}
			if len(c.Arguments) > 0 {
				dim.Fprintf(w, "      args: %s\n", strings.Join(c.Arguments, ", "))
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
