package openapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// InputValidator checks tool arguments against their declared shape before
// they are decoded into typed inputs.
type InputValidator struct {
	logger *slog.Logger
}

// NewInputValidator creates a new InputValidator.
func NewInputValidator(logger *slog.Logger) *InputValidator {
	return &InputValidator{
		logger: logger.With("component", "input_validator"),
	}
}

// Validate returns a *domain.ValidationError listing every violated field.
// A nil argument map is validated as an empty object.
func (v *InputValidator) Validate(tool string, shape *openapi3.Schema, args map[string]any) error {
	if shape == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	value, err := normalize(args)
	if err != nil {
		return domain.NewValidationError("arguments", err.Error())
	}

	err = shape.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	verr := &domain.ValidationError{}
	collect(err, verr)
	v.logger.Debug("Tool arguments rejected.",
		slog.String("tool", tool),
		slog.Int("violations", len(verr.Fields)),
	)
	return verr
}

// normalize round-trips args through JSON so Go values such as int or
// []string take the shapes VisitJSON expects.
func normalize(args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("arguments are not JSON-encodable: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("arguments are not JSON-decodable: %w", err)
	}
	return out, nil
}

func collect(err error, into *domain.ValidationError) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collect(inner, into)
		}
	case *openapi3.SchemaError:
		field := strings.Join(e.JSONPointer(), ".")
		if field == "" {
			field = "arguments"
		}
		reason := e.Reason
		switch {
		case e.SchemaField == "required":
			reason = "is required"
		case reason == "":
			reason = fmt.Sprintf("does not match schema %q", e.SchemaField)
		}
		into.Fields = append(into.Fields, domain.FieldError{Field: field, Reason: reason})
	default:
		into.Fields = append(into.Fields, domain.FieldError{Field: "arguments", Reason: err.Error()})
	}
}

// InputSchema renders shape as the JSON Schema advertised to clients.
func InputSchema(shape *openapi3.Schema) (json.RawMessage, error) {
	if shape == nil {
		shape = openapi3.NewObjectSchema()
	}
	raw, err := json.Marshal(shape)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}
	return raw, nil
}
