package openapi

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gork-labs/polymorphic/pkg/polymorphic"
	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// Version is the OpenAPI version written to documents.
const Version = "3.1.0"

// RefPrefix prefixes component schema references.
const RefPrefix = "#/components/schemas/"

// DispatcherSchema returns the oneOf schema of d and the component schema
// of every subtype, keyed by subtype name.
func DispatcherSchema(d *polymorphic.Dispatcher) (*Schema, map[string]*Schema) {
	root := &Schema{
		Title: d.Name(),
		Discriminator: &Discriminator{
			PropertyName: d.Field(),
			Mapping:      make(map[string]string),
		},
	}
	components := make(map[string]*Schema)

	for _, name := range d.Names() {
		handler, _ := d.Handler(name)
		components[name] = subtypeSchema(d.Field(), name, handler)
		root.OneOf = append(root.OneOf, &Schema{Ref: RefPrefix + name})
		root.Discriminator.Mapping[name] = RefPrefix + name
	}
	return root, components
}

// NewDocument builds a document holding d and its subtypes as components.
func NewDocument(title, version string, d *polymorphic.Dispatcher) *Document {
	root, components := DispatcherSchema(d)
	components[d.Name()] = root
	return &Document{
		OpenAPI:    Version,
		Info:       &Info{Title: title, Version: version},
		Components: &Components{Schemas: components},
	}
}

func subtypeSchema(field, name string, handler serializer.Serializer) *Schema {
	s := &Schema{
		Title:      name,
		Type:       "object",
		Properties: map[string]*Schema{field: {Type: "string", Enum: []string{name}}},
		Required:   []string{field},
	}
	for _, f := range handler.Fields() {
		s.Properties[f.Name] = fieldSchema(f)
		if f.Required && !f.ReadOnly {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func fieldSchema(f serializer.Field) *Schema {
	s := &Schema{Title: f.Label, Description: f.HelpText, ReadOnly: f.ReadOnly}
	switch f.Kind {
	case serializer.KindInteger:
		s.Type = "integer"
	case serializer.KindFloat:
		s.Type = "number"
	case serializer.KindBoolean:
		s.Type = "boolean"
	case serializer.KindChoice:
		s.Type = "string"
		s.Enum = append([]string(nil), f.Choices...)
	default:
		s.Type = "string"
	}
	return s
}

// MarshalJSON encodes doc as indented JSON.
func MarshalJSON(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// MarshalYAML encodes doc as YAML, going through its JSON form so that the
// JSON field names are kept.
func MarshalYAML(doc *Document) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode: %w", err)
	}
	var tmp any
	if err := yaml.Unmarshal(b, &tmp); err != nil {
		return nil, fmt.Errorf("openapi: convert: %w", err)
	}
	return yaml.Marshal(tmp)
}
