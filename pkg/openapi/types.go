// Package openapi describes dispatchers as OpenAPI 3.1 schemas: a oneOf of
// the subtype schemas with a discriminator mapping.
package openapi

import "encoding/json"

// Document is the subset of an OpenAPI document produced for a dispatcher.
type Document struct {
	OpenAPI    string      `json:"openapi"`
	Info       *Info       `json:"info"`
	Components *Components `json:"components,omitempty"`
}

// Info represents the info object containing API metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Components holds the reusable schemas of the document.
type Components struct {
	Schemas map[string]*Schema `json:"schemas,omitempty"`
}

// Schema represents an OpenAPI schema object.
type Schema struct {
	Title         string             `json:"title,omitempty"`
	Ref           string             `json:"$ref,omitempty"`
	Type          string             `json:"-"`
	Types         []string           `json:"-"`
	Properties    map[string]*Schema `json:"properties,omitempty"`
	Required      []string           `json:"required,omitempty"`
	OneOf         []*Schema          `json:"oneOf,omitempty"`
	Discriminator *Discriminator     `json:"discriminator,omitempty"`
	Description   string             `json:"description,omitempty"`
	Enum          []string           `json:"enum,omitempty"`
	ReadOnly      bool               `json:"readOnly,omitempty"`
}

// MarshalJSON writes Types as an array and Type as a string.
func (s *Schema) MarshalJSON() ([]byte, error) {
	type Alias Schema
	aux := &struct {
		Type interface{} `json:"type,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}

	if len(s.Types) > 0 {
		aux.Type = s.Types
	} else if s.Type != "" {
		aux.Type = s.Type
	}

	return json.Marshal(aux)
}

// Discriminator represents an OpenAPI discriminator object for polymorphic schemas.
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}
