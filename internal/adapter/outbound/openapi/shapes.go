package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Field pairs a property name with its schema.
type Field struct {
	Name     string
	Schema   *openapi3.Schema
	Required bool
}

// Object builds an object schema from fields, keeping required names in field order.
func Object(fields ...Field) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	var required []string
	for _, f := range fields {
		s.WithProperty(f.Name, f.Schema)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	if len(required) > 0 {
		s.WithRequired(required)
	}
	return s
}

// Required marks a field as required.
func Required(name string, schema *openapi3.Schema) Field {
	return Field{Name: name, Schema: schema, Required: true}
}

// Optional declares an optional field.
func Optional(name string, schema *openapi3.Schema) Field {
	return Field{Name: name, Schema: schema}
}

func described(s *openapi3.Schema, desc string) *openapi3.Schema {
	s.Description = desc
	return s
}

func String(desc string) *openapi3.Schema {
	return described(openapi3.NewStringSchema(), desc)
}

// NonEmptyString rejects the empty string.
func NonEmptyString(desc string) *openapi3.Schema {
	return described(openapi3.NewStringSchema().WithMinLength(1), desc)
}

func Number(desc string) *openapi3.Schema {
	return described(openapi3.NewFloat64Schema(), desc)
}

// NumberAtLeast is a number with an inclusive minimum.
func NumberAtLeast(min float64, desc string) *openapi3.Schema {
	return described(openapi3.NewFloat64Schema().WithMin(min), desc)
}

// NumberBetween is a number with inclusive bounds.
func NumberBetween(min, max float64, desc string) *openapi3.Schema {
	return described(openapi3.NewFloat64Schema().WithMin(min).WithMax(max), desc)
}

func Integer(desc string) *openapi3.Schema {
	return described(openapi3.NewIntegerSchema(), desc)
}

// IntegerBetween is an integer with inclusive bounds.
func IntegerBetween(min, max float64, desc string) *openapi3.Schema {
	return described(openapi3.NewIntegerSchema().WithMin(min).WithMax(max), desc)
}

func Bool(desc string) *openapi3.Schema {
	return described(openapi3.NewBoolSchema(), desc)
}

// Enum is a string restricted to values.
func Enum[T ~string](desc string, values ...T) *openapi3.Schema {
	enum := make([]any, 0, len(values))
	for _, v := range values {
		enum = append(enum, string(v))
	}
	return described(openapi3.NewStringSchema().WithEnum(enum...), desc)
}

// ArrayOf is an array whose items match item.
func ArrayOf(item *openapi3.Schema, desc string) *openapi3.Schema {
	return described(openapi3.NewArraySchema().WithItems(item), desc)
}

// NonEmptyArrayOf is ArrayOf with at least one item.
func NonEmptyArrayOf(item *openapi3.Schema, desc string) *openapi3.Schema {
	return described(openapi3.NewArraySchema().WithItems(item).WithMinItems(1), desc)
}

// StringList is an array of strings.
func StringList(desc string) *openapi3.Schema {
	return ArrayOf(openapi3.NewStringSchema(), desc)
}

// Nested describes an object-valued property.
func Nested(desc string, fields ...Field) *openapi3.Schema {
	return described(Object(fields...), desc)
}
