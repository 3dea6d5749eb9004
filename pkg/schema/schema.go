// Package schema loads declarative form documents (YAML or JSON) into field
// registries, so simple admin screens can live in config instead of code.
// Behavior that cannot be serialized (async option loaders, custom
// validators, visibility predicates, custom widgets) is attached afterwards
// with Bind entries keyed by field.
package schema

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
)

// strict strips every HTML tag from document text. Form documents often come
// from operator-editable config; labels and help text must render as plain
// text wherever the widget layer puts them.
var strict = bluemonday.StrictPolicy()

// FieldSpec is the serialized shape of one descriptor.
type FieldSpec struct {
	Key         string           `yaml:"key" json:"key"`
	Label       string           `yaml:"label,omitempty" json:"label,omitempty"`
	Kind        string           `yaml:"kind" json:"kind"`
	Required    bool             `yaml:"required,omitempty" json:"required,omitempty"`
	Default     any              `yaml:"default,omitempty" json:"default,omitempty"`
	Rules       string           `yaml:"rules,omitempty" json:"rules,omitempty"`
	Show        string           `yaml:"show,omitempty" json:"show,omitempty"`
	Placeholder string           `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Help        string           `yaml:"help,omitempty" json:"help,omitempty"`
	Options     []options.Option `yaml:"options,omitempty" json:"options,omitempty"`
}

// Document is one parsed form definition.
type Document struct {
	Title  string      `yaml:"title,omitempty" json:"title,omitempty"`
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

// Parse decodes a YAML (or JSON, which YAML subsumes) form document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("schema: document declares no fields")
	}
	return &doc, nil
}

// Load reads and parses a document from a reader.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema: read document: %w", err)
	}
	return Parse(data)
}

// LoadFS reads and parses a document from a filesystem, typically an
// embed.FS shipped with the screen.
func LoadFS(fsys fs.FS, name string) (*Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	return Parse(data)
}

// Bind attaches the non-serializable behavior to a declared field.
type Bind struct {
	Key      string
	Load     options.Loader
	Validate field.ValidateFunc
	Show     field.ShowFunc
	Render   field.RenderFunc
}

// Registry converts the document into a validated field registry, applying
// any binds. Text fields (label, placeholder, help) are sanitized to plain
// text. Unknown bind keys are an error so typos surface at wiring time.
func (d *Document) Registry(binds ...Bind) (*field.Registry, error) {
	byKey := make(map[string]Bind, len(binds))
	for _, b := range binds {
		if b.Key == "" {
			return nil, fmt.Errorf("schema: bind without a key")
		}
		byKey[b.Key] = b
	}

	descriptors := make([]field.Descriptor, 0, len(d.Fields))
	for _, spec := range d.Fields {
		desc := field.Descriptor{
			Key:         spec.Key,
			Label:       strict.Sanitize(spec.Label),
			Kind:        field.Kind(spec.Kind),
			Required:    spec.Required,
			Default:     spec.Default,
			Rules:       spec.Rules,
			ShowRule:    spec.Show,
			Placeholder: strict.Sanitize(spec.Placeholder),
			Help:        strict.Sanitize(spec.Help),
			Options:     append([]options.Option(nil), spec.Options...),
		}
		if b, ok := byKey[spec.Key]; ok {
			desc.Load = b.Load
			desc.Validate = b.Validate
			desc.Show = b.Show
			desc.Render = b.Render
			delete(byKey, spec.Key)
		}
		descriptors = append(descriptors, desc)
	}

	for key := range byKey {
		return nil, fmt.Errorf("schema: bind for undeclared field %q", key)
	}

	return field.NewRegistry(descriptors...)
}
