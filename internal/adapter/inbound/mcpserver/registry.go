// Package mcpserver binds the clinical use cases to an MCP server as tools,
// resources and prompts.
package mcpserver

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/clinicalmcp/internal/adapter/outbound/openapi"
	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/telemetry"
	"github.com/i2y/clinicalmcp/internal/usecase"
)

// DefaultToolTimeout bounds a single tool evaluation.
const DefaultToolTimeout = 10 * time.Second

// Registry registers capabilities on an MCP server and keeps a catalog of
// what it registered.
type Registry struct {
	server      usecase.MCPServerAdapter
	validator   *openapi.InputValidator
	namespace   string
	timeout     time.Duration
	now         usecase.Clock
	tracer      trace.Tracer
	instruments *telemetry.ToolInstruments
	logger      *slog.Logger

	mu      sync.RWMutex
	catalog []domain.Capability
}

// Option configures a Registry.
type Option func(*Registry)

// WithToolTimeout sets the per-call evaluation deadline.
func WithToolTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithNamespace sets the resource URI namespace (mcp://<namespace>/...).
func WithNamespace(ns string) Option {
	return func(r *Registry) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

// WithClock overrides the clock used for response metadata.
func WithClock(c usecase.Clock) Option {
	return func(r *Registry) { r.now = c }
}

// WithTracer overrides the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// WithInstruments records tool metrics on inst.
func WithInstruments(inst *telemetry.ToolInstruments) Option {
	return func(r *Registry) { r.instruments = inst }
}

// NewRegistry creates a Registry that registers on server.
func NewRegistry(server usecase.MCPServerAdapter, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		server:    server,
		validator: openapi.NewInputValidator(logger),
		namespace: "clinical",
		timeout:   DefaultToolTimeout,
		now:       time.Now,
		tracer:    telemetry.Tracer(),
		logger:    logger.With("component", "mcp_registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Namespace returns the resource URI namespace.
func (r *Registry) Namespace() string { return r.namespace }

func (r *Registry) record(c domain.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.catalog {
		if existing.Kind == c.Kind && existing.Name == c.Name {
			return fmt.Errorf("%s %q is already registered", c.Kind, c.Name)
		}
	}
	r.catalog = append(r.catalog, c)
	return nil
}

// Catalog returns every registered capability, tools first, then resources, then prompts.
func (r *Registry) Catalog() []domain.Capability {
	r.mu.RLock()
	out := append([]domain.Capability{}, r.catalog...)
	r.mu.RUnlock()
	rank := map[domain.CapabilityKind]int{domain.CapabilityTool: 0, domain.CapabilityResource: 1, domain.CapabilityPrompt: 2}
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Kind] < rank[out[j].Kind] })
	return out
}

// UseCases bundles the evaluators exposed by the server.
type UseCases struct {
	Reconciliation *usecase.ReconciliationUseCase
	TDM            *usecase.TDMUseCase
	Interaction    *usecase.InteractionUseCase
	Assessment     *usecase.AssessmentUseCase
	Documentation  *usecase.DocumentationUseCase
	Administration *usecase.AdministrationUseCase
	Reference      *usecase.ReferenceUseCase
}

// NewUseCases wires every use case to repo.
func NewUseCases(repo usecase.ReferenceRepository, clock usecase.Clock, ids usecase.IDGenerator, logger *slog.Logger) UseCases {
	return UseCases{
		Reconciliation: usecase.NewReconciliationUseCase(repo, clock, ids, logger),
		TDM:            usecase.NewTDMUseCase(repo, clock, logger),
		Interaction:    usecase.NewInteractionUseCase(repo, logger),
		Assessment:     usecase.NewAssessmentUseCase(repo, logger),
		Documentation:  usecase.NewDocumentationUseCase(repo, clock, logger),
		Administration: usecase.NewAdministrationUseCase(repo, logger),
		Reference:      usecase.NewReferenceUseCase(repo, logger),
	}
}

// RegisterAll registers every tool, resource and prompt.
func (r *Registry) RegisterAll(uc UseCases) error {
	if err := r.registerTools(uc); err != nil {
		return err
	}
	if err := r.registerResources(uc.Reference); err != nil {
		return err
	}
	if err := r.registerPrompts(); err != nil {
		return err
	}
	r.logger.Info("Capabilities registered.", slog.Int("count", len(r.Catalog())))
	return nil
}
