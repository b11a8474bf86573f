package openapi

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is wrapped by every error returned by Validate.
var ErrInvalidDocument = errors.New("invalid OpenAPI document")

var supportedVersions = []string{"3.0.0", "3.0.1", "3.0.2", "3.0.3", "3.1.0"}

// Validate checks the structure of a JSON or YAML OpenAPI document: the
// version and info block, every component schema, and that oneOf and
// discriminator references point at existing components. All problems are
// reported together.
func Validate(data []byte) error {
	var spec map[string]any
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("%w: parse: %v", ErrInvalidDocument, err)
	}

	var errs *multierror.Error
	if err := validateBasicStructure(spec); err != nil {
		errs = multierror.Append(errs, err)
	}

	schemas := map[string]any{}
	if components, ok := spec["components"].(map[string]any); ok {
		if s, ok := components["schemas"].(map[string]any); ok {
			schemas = s
		}
	}
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validateSchema(schemas[name], schemas); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("schema %s: %w", name, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

func validateBasicStructure(spec map[string]any) error {
	version, ok := spec["openapi"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid 'openapi' field")
	}
	if !slices.Contains(supportedVersions, version) {
		return fmt.Errorf("unsupported OpenAPI version: %s", version)
	}

	info, ok := spec["info"].(map[string]any)
	if !ok {
		return fmt.Errorf("missing or invalid 'info' field")
	}
	if _, ok := info["title"].(string); !ok {
		return fmt.Errorf("missing or invalid 'info.title' field")
	}
	if _, ok := info["version"].(string); !ok {
		return fmt.Errorf("missing or invalid 'info.version' field")
	}
	return nil
}

func validateSchema(schema any, components map[string]any) error {
	s, ok := schema.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid schema")
	}

	if ref, hasRef := s["$ref"].(string); hasRef {
		return validateRef(ref, components)
	}

	oneOf, _ := s["oneOf"].([]any)
	for i, item := range oneOf {
		sub, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("oneOf[%d]: invalid schema", i)
		}
		if ref, ok := sub["$ref"].(string); ok {
			if err := validateRef(ref, components); err != nil {
				return fmt.Errorf("oneOf[%d]: %w", i, err)
			}
		}
	}

	if disc, ok := s["discriminator"].(map[string]any); ok {
		if err := validateDiscriminator(disc, components); err != nil {
			return err
		}
	}

	props, _ := s["properties"].(map[string]any)
	required, _ := s["required"].([]any)
	for _, r := range required {
		name, _ := r.(string)
		if _, ok := props[name]; !ok {
			return fmt.Errorf("required property %q is not declared", name)
		}
	}

	if _, hasType := s["type"]; !hasType && props == nil && oneOf == nil {
		return fmt.Errorf("schema has no type, properties or oneOf")
	}
	return nil
}

func validateDiscriminator(disc map[string]any, components map[string]any) error {
	if name, ok := disc["propertyName"].(string); !ok || name == "" {
		return fmt.Errorf("discriminator: missing 'propertyName'")
	}
	mapping, _ := disc["mapping"].(map[string]any)
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ref, _ := mapping[k].(string)
		if err := validateRef(ref, components); err != nil {
			return fmt.Errorf("discriminator mapping %q: %w", k, err)
		}
	}
	return nil
}

func validateRef(ref string, components map[string]any) error {
	if ref == "" {
		return fmt.Errorf("empty $ref")
	}
	name, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return fmt.Errorf("unsupported $ref %q", ref)
	}
	if _, ok := components[name]; !ok {
		return fmt.Errorf("unresolved $ref %q", ref)
	}
	return nil
}
