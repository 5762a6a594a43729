package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

// ResourceURI returns the bare URI of a reference resource.
func (r *Registry) ResourceURI(name string) string {
	return fmt.Sprintf("mcp://%s/%s", r.namespace, name)
}

func (r *Registry) registerResources(uc *usecase.ReferenceUseCase) error {
	for _, desc := range usecase.ReferenceResources {
		uri := r.ResourceURI(desc.Name)
		if err := r.record(domain.Capability{
			Kind:        domain.CapabilityResource,
			Name:        desc.Name,
			Title:       desc.Title,
			Description: desc.Description,
			URI:         uri,
			Arguments:   desc.Filters,
		}); err != nil {
			return err
		}

		read := r.resourceReader(uc, desc.Name)
		r.server.AddResource(
			mcp.NewResource(uri, desc.Name,
				mcp.WithResourceDescription(desc.Description),
				mcp.WithMIMEType("text/plain"),
			),
			read,
		)
		r.server.AddResourceTemplate(
			mcp.NewResourceTemplate(uri+"{?"+strings.Join(desc.Filters, ",")+"}", desc.Name,
				mcp.WithTemplateDescription(desc.Description),
				mcp.WithTemplateMIMEType("text/plain"),
			),
			read,
		)
		r.logger.Debug("Resource registered.", slog.String("uri", uri))
	}
	return nil
}

// resourceReader serves a reference table. Filters come from the URI query
// string and from any variables the template matched.
func (r *Registry) resourceReader(uc *usecase.ReferenceUseCase, name string) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	log := r.logger.With(slog.String("resource", name))
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ctx, span := r.tracer.Start(ctx, "resource/"+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.resource.uri", req.Params.URI)),
		)
		defer span.End()

		filters, err := resourceFilters(req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bad uri")
			return nil, err
		}
		result, err := uc.Query(ctx, name, filters)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
			log.Error("Resource read failed.", slog.Any("error", err))
			return nil, err
		}
		meta, err := json.Marshal(result.ReferenceMetadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata for %s: %w", name, err)
		}

		span.SetAttributes(attribute.Int("mcp.resource.returned", result.Returned))
		log.Debug("Resource read.", slog.Int("returned", result.Returned), slog.Int("total", result.Total))
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "text/plain", Text: result.Text},
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(meta)},
		}, nil
	}
}

func resourceFilters(req mcp.ReadResourceRequest) (map[string]string, error) {
	u, err := url.Parse(req.Params.URI)
	if err != nil {
		return nil, domain.NewValidationError("uri", err.Error())
	}
	filters := make(map[string]string)
	for key, values := range u.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	for key, v := range req.Params.Arguments {
		if _, ok := filters[key]; ok {
			continue
		}
		switch v := v.(type) {
		case string:
			filters[key] = v
		case []string:
			if len(v) > 0 {
				filters[key] = v[0]
			}
		}
	}
	return filters, nil
}
