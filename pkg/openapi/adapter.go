// Package openapi derives field registries from OpenAPI operations, so
// screens that already ship an API document can get their form descriptors
// for free instead of redeclaring every property.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
)

// Derive loads an OpenAPI document and converts the request body of the
// operation (selected by operationId) into a field registry. Properties map
// by type and format: booleans become switches, enums become selects, enum
// arrays become multi-selects, date formats become date fields, everything
// else falls back to text. Numeric bounds carry over as validation rules.
//
// Descriptor order follows sorted property names; OpenAPI objects have no
// declaration order once parsed.
func Derive(ctx context.Context, doc []byte, operationID string) (*field.Registry, error) {
	if len(doc) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	if operationID == "" {
		return nil, errors.New("openapi: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return nil, fmt.Errorf("openapi: operation %q not found", operationID)
	}

	schema := requestSchema(op)
	if schema == nil {
		return nil, fmt.Errorf("openapi: operation %q has no object request body", operationID)
	}

	descriptors, err := convert(schema)
	if err != nil {
		return nil, err
	}
	return field.NewRegistry(descriptors...)
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range []*openapi3.Operation{
			item.Post, item.Put, item.Patch, item.Get, item.Delete,
		} {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func convert(schema *openapi3.Schema) ([]field.Descriptor, error) {
	if len(schema.Properties) == 0 {
		return nil, errors.New("openapi: request schema declares no properties")
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make([]field.Descriptor, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		descriptors = append(descriptors, descriptorFor(name, ref.Value, required[name]))
	}
	return descriptors, nil
}

func descriptorFor(name string, prop *openapi3.Schema, required bool) field.Descriptor {
	d := field.Descriptor{
		Key:      name,
		Label:    labelFor(name, prop),
		Kind:     kindFor(prop),
		Required: required,
		Default:  prop.Default,
		Rules:    rulesFor(prop),
		Help:     prop.Description,
	}
	if enum := enumOptions(prop); len(enum) > 0 {
		d.Options = enum
	}
	return d
}

func labelFor(name string, prop *openapi3.Schema) string {
	if prop.Title != "" {
		return prop.Title
	}
	return name
}

func kindFor(prop *openapi3.Schema) field.Kind {
	switch schemaType(prop) {
	case "boolean":
		return field.KindSwitch
	case "integer", "number":
		if len(prop.Enum) > 0 {
			return field.KindSelect
		}
		return field.KindNumber
	case "array":
		if prop.Items != nil && prop.Items.Value != nil && len(prop.Items.Value.Enum) > 0 {
			return field.KindMultiSelect
		}
		return field.KindText
	default:
		switch prop.Format {
		case "date", "date-time":
			return field.KindDate
		}
		if len(prop.Enum) > 0 {
			return field.KindSelect
		}
		return field.KindText
	}
}

func schemaType(prop *openapi3.Schema) string {
	if prop.Type == nil {
		return ""
	}
	types := prop.Type.Slice()
	if len(types) == 0 {
		return ""
	}
	return types[0]
}

func enumOptions(prop *openapi3.Schema) []options.Option {
	enum := prop.Enum
	if len(enum) == 0 && schemaType(prop) == "array" &&
		prop.Items != nil && prop.Items.Value != nil {
		enum = prop.Items.Value.Enum
	}
	if len(enum) == 0 {
		return nil
	}
	out := make([]options.Option, 0, len(enum))
	for _, value := range enum {
		out = append(out, options.Option{Label: fmt.Sprint(value), Value: value})
	}
	return out
}

func rulesFor(prop *openapi3.Schema) string {
	var rules []string
	switch schemaType(prop) {
	case "integer", "number":
		if prop.Min != nil {
			rules = append(rules, "min="+trimFloat(*prop.Min))
		}
		if prop.Max != nil {
			rules = append(rules, "max="+trimFloat(*prop.Max))
		}
	case "string":
		if prop.MinLength > 0 {
			rules = append(rules, "min="+strconv.FormatUint(prop.MinLength, 10))
		}
		if prop.MaxLength != nil {
			rules = append(rules, "max="+strconv.FormatUint(*prop.MaxLength, 10))
		}
		if prop.Format == "email" {
			rules = append(rules, "email")
		}
	}
	return strings.Join(rules, ",")
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
