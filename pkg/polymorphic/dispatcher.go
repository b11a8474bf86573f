// Package polymorphic serializes a family of related record types through
// a single entry point. A Dispatcher holds a registry from subtype name to
// the serializer handling that subtype and routes every operation to the
// right one, using the discriminator field of incoming data or the type of
// the instance.
package polymorphic

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// DefaultField is the discriminator field used when Config.Field is unset.
const DefaultField = "resourcetype"

// Config configures a Dispatcher.
type Config struct {
	// Registry maps each subtype name to its serializer. Every serializer
	// must implement serializer.Modeler and serve a distinct model type.
	Registry map[string]serializer.Serializer
	// Field names the discriminator field. It must be a string; nil or ""
	// selects DefaultField.
	Field any
	// RejectTypeChange turns a differing discriminator on update into a
	// validation error. By default the bound instance's subtype wins and
	// the incoming value is ignored.
	RejectTypeChange bool
}

// Dispatcher is a serializer.Serializer that delegates to the registered
// handler of each subtype. It is immutable after New and safe for
// concurrent use.
type Dispatcher struct {
	name             string
	field            string
	rejectTypeChange bool
	registry         map[string]serializer.Serializer
	models           map[string]reflect.Type
	byType           map[reflect.Type]string
	names            []string
}

var _ serializer.Serializer = (*Dispatcher)(nil)

// New validates cfg and builds a dispatcher. name is used in error
// messages.
func New(name string, cfg Config) (*Dispatcher, error) {
	if len(cfg.Registry) == 0 {
		return nil, newConfigurationError(name, "`%s` is missing a `%s.Registry` attribute", name, name)
	}

	field := DefaultField
	switch f := cfg.Field.(type) {
	case nil:
	case string:
		if f != "" {
			field = f
		}
	default:
		return nil, newConfigurationError(name, "`%s.Field` must be a string", name)
	}

	d := &Dispatcher{
		name:             name,
		field:            field,
		rejectTypeChange: cfg.RejectTypeChange,
		registry:         make(map[string]serializer.Serializer, len(cfg.Registry)),
		models:           make(map[string]reflect.Type, len(cfg.Registry)),
		byType:           make(map[reflect.Type]string, len(cfg.Registry)),
	}
	for key := range cfg.Registry {
		d.names = append(d.names, key)
	}
	sort.Strings(d.names)

	for _, key := range d.names {
		handler := cfg.Registry[key]
		if key == "" {
			return nil, newConfigurationError(name, "`%s.Registry` keys must not be empty", name)
		}
		if isNil(handler) {
			return nil, newConfigurationError(name, "`%s.Registry[%q]` must not be nil", name, key)
		}
		model := modelType(handler)
		if model == nil {
			return nil, newConfigurationError(name, "`%s.Registry[%q]` must report its model type", name, key)
		}
		if other, dup := d.byType[model]; dup {
			return nil, newConfigurationError(name, "`%s.Registry` maps both %q and %q to %s", name, other, key, model)
		}
		d.registry[key] = handler
		d.models[key] = model
		d.byType[model] = key
	}
	return d, nil
}

// MustNew is like New but panics on configuration errors.
func MustNew(name string, cfg Config) *Dispatcher {
	d, err := New(name, cfg)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the dispatcher name.
func (d *Dispatcher) Name() string { return d.name }

// Field returns the discriminator field name.
func (d *Dispatcher) Field() string { return d.field }

// RejectsTypeChange reports whether updates may not change the subtype.
func (d *Dispatcher) RejectsTypeChange() bool { return d.rejectTypeChange }

// Names returns the registered subtype names, sorted.
func (d *Dispatcher) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Registry returns a copy of the registry.
func (d *Dispatcher) Registry() map[string]serializer.Serializer {
	out := make(map[string]serializer.Serializer, len(d.registry))
	for k, v := range d.registry {
		out[k] = v
	}
	return out
}

// Handler returns the serializer registered under name.
func (d *Dispatcher) Handler(name string) (serializer.Serializer, bool) {
	h, ok := d.registry[name]
	return h, ok
}

// Model returns the model type registered under name.
func (d *Dispatcher) Model(name string) (reflect.Type, bool) {
	t, ok := d.models[name]
	return t, ok
}

// ResolveInstance returns the subtype name of instance.
func (d *Dispatcher) ResolveInstance(instance any) (string, error) {
	m, err := d.resolve(instance)
	if err != nil {
		return "", err
	}
	return m.name, nil
}

// ResolveData returns the subtype named by the discriminator of data. A
// missing or unknown value is reported as a *serializer.ValidationError
// under the discriminator field.
func (d *Dispatcher) ResolveData(data serializer.Record) (string, error) {
	name, msg := d.discriminate(data)
	if msg != "" {
		return "", serializer.NewValidationError(d.field, msg)
	}
	return name, nil
}

func (d *Dispatcher) discriminate(data serializer.Record) (string, string) {
	raw, ok := data[d.field]
	if !ok || raw == nil || raw == "" {
		return "", "This field is required."
	}
	name, ok := raw.(string)
	if !ok {
		return "", fmt.Sprintf("No matching handler for value %q.", fmt.Sprint(raw))
	}
	if _, ok := d.registry[name]; !ok {
		return "", fmt.Sprintf("No matching handler for value %q.", name)
	}
	return name, ""
}

// Fields returns the discriminator as a required choice field.
func (d *Dispatcher) Fields() []serializer.Field {
	return []serializer.Field{{
		Name:     d.field,
		Label:    "Resource type",
		Kind:     serializer.KindChoice,
		Required: true,
		Choices:  d.Names(),
	}}
}

// ToRepresentation serializes instance with its subtype handler and adds
// the discriminator.
func (d *Dispatcher) ToRepresentation(c *serializer.Context, instance any) (serializer.Record, error) {
	m, err := d.resolve(instance)
	if err != nil {
		return nil, err
	}
	rec, err := m.handler.ToRepresentation(c, m.value)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", d.name, m.name, err)
	}
	if rec == nil {
		rec = serializer.Record{}
	}
	rec[d.field] = m.name
	return rec, nil
}

// Validate routes data to the handler named by its discriminator, or to
// the handler of instance on update. Handler errors are returned as they
// are; the validated record carries the discriminator.
func (d *Dispatcher) Validate(c *serializer.Context, instance any, data serializer.Record, partial bool) (serializer.Record, serializer.ErrorDetail, error) {
	var m match
	if instance != nil {
		var err error
		if m, err = d.resolve(instance); err != nil {
			return nil, nil, err
		}
		if raw := data[d.field]; d.rejectTypeChange && raw != nil && raw != "" && raw != m.name {
			detail := serializer.ErrorDetail{}
			detail.Add(d.field, fmt.Sprintf("Cannot change %s from %q to %q.", d.field, m.name, fmt.Sprint(raw)))
			return nil, detail, nil
		}
	} else {
		name, msg := d.discriminate(data)
		if msg != "" {
			detail := serializer.ErrorDetail{}
			detail.Add(d.field, msg)
			return nil, detail, nil
		}
		m = match{name: name, handler: d.registry[name]}
	}

	validated, detail, err := m.handler.Validate(c, m.value, data.Without(d.field), partial)
	if err != nil {
		return nil, nil, err
	}
	if !detail.Empty() {
		return nil, detail, nil
	}
	if validated == nil {
		validated = serializer.Record{}
	}
	validated[d.field] = m.name
	return validated, nil, nil
}

// Create builds a new instance with the handler named by the
// discriminator of validated.
func (d *Dispatcher) Create(c *serializer.Context, validated serializer.Record) (any, error) {
	name, err := d.ResolveData(validated)
	if err != nil {
		return nil, err
	}
	return d.registry[name].Create(c, validated.Without(d.field))
}

// Update applies validated onto instance with the instance's handler. The
// instance itself is returned even when an embedded ancestor was updated.
func (d *Dispatcher) Update(c *serializer.Context, instance any, validated serializer.Record) (any, error) {
	m, err := d.resolve(instance)
	if err != nil {
		return nil, err
	}
	updated, err := m.handler.Update(c, m.value, validated.Without(d.field))
	if err != nil {
		return nil, err
	}
	if m.embedded {
		return instance, nil
	}
	return updated, nil
}

// Child binds the handler registered under name with the shared context c.
func (d *Dispatcher) Child(name string, c *serializer.Context, opts ...serializer.Option) (*serializer.Bound, error) {
	handler, ok := d.registry[name]
	if !ok {
		return nil, serializer.NewValidationError(d.field, fmt.Sprintf("No matching handler for value %q.", name))
	}
	if c == nil {
		c = serializer.NewContext(nil, nil)
	}
	return serializer.Bind(handler, append(opts, serializer.WithContext(c))...), nil
}

// Children binds every registered handler with the shared context c.
func (d *Dispatcher) Children(c *serializer.Context) map[string]*serializer.Bound {
	if c == nil {
		c = serializer.NewContext(nil, nil)
	}
	out := make(map[string]*serializer.Bound, len(d.registry))
	for name, handler := range d.registry {
		out[name] = serializer.Bind(handler, serializer.WithContext(c))
	}
	return out
}
