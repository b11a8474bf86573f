package serializer

import (
	"fmt"
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ModelSerializer is a struct tag driven Serializer for model type T.
//
// Field names come from the gork tag (falling back to the json tag),
// field rules from the validate tag, and embedded structs are flattened so
// that a subtype embedding its base exposes the base fields as its own.
type ModelSerializer[T any] struct {
	model      reflect.Type
	specs      []fieldSpec
	validate   *validator.Validate
	translator ut.Translator
	validators []ObjectValidator
	saver      Saver
}

type modelOptions struct {
	fields     []string
	validators []ObjectValidator
	saver      Saver
	validate   *validator.Validate
	translator ut.Translator
}

// ModelOption configures a ModelSerializer.
type ModelOption func(*modelOptions)

// WithFields restricts and orders the serialized fields.
func WithFields(names ...string) ModelOption {
	return func(o *modelOptions) {
		o.fields = append(o.fields, names...)
	}
}

// WithValidators adds object level validators run after field validation.
func WithValidators(validators ...ObjectValidator) ModelOption {
	return func(o *modelOptions) {
		o.validators = append(o.validators, validators...)
	}
}

// WithSaver sets the persistence used by Create and Update.
func WithSaver(saver Saver) ModelOption {
	return func(o *modelOptions) {
		o.saver = saver
	}
}

// WithValidate replaces the shared validator and translator. A nil
// translator keeps the raw validator messages.
func WithValidate(v *validator.Validate, trans ut.Translator) ModelOption {
	return func(o *modelOptions) {
		o.validate = v
		o.translator = trans
	}
}

// NewModelSerializer builds a serializer for T. It panics when T is not a
// struct or when WithFields names an unknown field so that configuration
// mistakes surface during development.
func NewModelSerializer[T any](opts ...ModelOption) *ModelSerializer[T] {
	model := reflect.TypeOf((*T)(nil)).Elem()
	if model.Kind() != reflect.Struct {
		panic(fmt.Sprintf("serializer: model %s must be a struct type", model))
	}

	o := &modelOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.validate == nil {
		o.validate, o.translator = defaultValidation()
	}

	specs := structFields(model)
	if len(o.fields) > 0 {
		byName := make(map[string]fieldSpec, len(specs))
		for _, s := range specs {
			byName[s.Name] = s
		}
		selected := make([]fieldSpec, 0, len(o.fields))
		for _, name := range o.fields {
			s, ok := byName[name]
			if !ok {
				panic(fmt.Sprintf("serializer: unknown field %q on %s", name, model))
			}
			selected = append(selected, s)
		}
		specs = selected
	}

	return &ModelSerializer[T]{
		model:      model,
		specs:      specs,
		validate:   o.validate,
		translator: o.translator,
		validators: o.validators,
		saver:      o.saver,
	}
}

// Model returns the struct type T.
func (s *ModelSerializer[T]) Model() reflect.Type {
	return s.model
}

// Fields returns the serialized fields in order.
func (s *ModelSerializer[T]) Fields() []Field {
	fields := make([]Field, len(s.specs))
	for i, spec := range s.specs {
		fields[i] = spec.Field
	}
	return fields
}

// ToRepresentation converts a T or *T into a record.
func (s *ModelSerializer[T]) ToRepresentation(_ *Context, instance any) (Record, error) {
	v, err := s.structValue(instance)
	if err != nil {
		return nil, err
	}
	return encode(v, s.specs, nil), nil
}

// Validate decodes data onto a candidate T and runs field, model and
// object validation.
func (s *ModelSerializer[T]) Validate(c *Context, instance any, data Record, partial bool) (Record, ErrorDetail, error) {
	target := reflect.New(s.model)
	if instance != nil {
		v, err := s.structValue(instance)
		if err != nil {
			return nil, nil, err
		}
		target.Elem().Set(v)
	}

	detail := ErrorDetail{}
	decode(data, target.Elem(), s.specs, writable, detail)
	if !partial {
		for _, spec := range s.specs {
			if _, ok := data[spec.Name]; !ok && spec.Required && !spec.ReadOnly && !detail.Has(spec.Name) {
				detail.Add(spec.Name, requiredMessage)
			}
		}
	}

	fieldErrs := ErrorDetail{}
	if err := collectFieldErrors(s.validate, s.translator, target.Interface(), fieldErrs); err != nil {
		return nil, nil, err
	}
	for field, msgs := range fieldErrs {
		if detail.Has(field) || !s.declares(field) {
			continue
		}
		if partial {
			if _, provided := data[field]; !provided {
				continue
			}
		}
		detail[field] = append(detail[field], msgs...)
	}
	if !detail.Empty() {
		return nil, detail, nil
	}

	if err := invokeCustomValidation(c, target.Interface(), detail); err != nil {
		return nil, nil, err
	}
	attrs := encode(target.Elem(), s.specs, nil)
	for _, v := range s.validators {
		if err := classify(v.ValidateObject(c, instance, attrs), detail); err != nil {
			return nil, nil, err
		}
	}
	if !detail.Empty() {
		return nil, detail, nil
	}

	include := writable
	if partial {
		include = func(spec fieldSpec) bool {
			_, provided := data[spec.Name]
			return provided && !spec.ReadOnly
		}
	}
	return encode(target.Elem(), s.specs, include), nil, nil
}

// Create builds a new *T from validated data and persists it.
func (s *ModelSerializer[T]) Create(c *Context, validated Record) (any, error) {
	target := new(T)
	if err := s.apply(validated, target); err != nil {
		return nil, err
	}
	if s.saver != nil {
		if err := s.saver.Insert(c.Context(), target); err != nil {
			return nil, fmt.Errorf("create %s: %w", s.model.Name(), err)
		}
	}
	return target, nil
}

// Update applies validated data onto instance, which must be a *T.
func (s *ModelSerializer[T]) Update(c *Context, instance any, validated Record) (any, error) {
	target, ok := instance.(*T)
	if !ok || target == nil {
		return nil, fmt.Errorf("serializer: update requires a non-nil *%s, got %T", s.model.Name(), instance)
	}
	if err := s.apply(validated, target); err != nil {
		return nil, err
	}
	if s.saver != nil {
		if err := s.saver.Update(c.Context(), target); err != nil {
			return nil, fmt.Errorf("update %s: %w", s.model.Name(), err)
		}
	}
	return target, nil
}

func (s *ModelSerializer[T]) apply(validated Record, target *T) error {
	detail := ErrorDetail{}
	decode(validated, reflect.ValueOf(target).Elem(), s.specs, writable, detail)
	if !detail.Empty() {
		return &ValidationError{Detail: detail}
	}
	return nil
}

func (s *ModelSerializer[T]) declares(field string) bool {
	for _, spec := range s.specs {
		if spec.Name == field {
			return true
		}
	}
	return false
}

// structValue unwraps a T or non-nil *T into its struct value.
func (s *ModelSerializer[T]) structValue(instance any) (reflect.Value, error) {
	switch v := instance.(type) {
	case *T:
		if v == nil {
			return reflect.Value{}, fmt.Errorf("serializer: nil *%s", s.model.Name())
		}
		return reflect.ValueOf(v).Elem(), nil
	case T:
		return reflect.ValueOf(v), nil
	}
	return reflect.Value{}, fmt.Errorf("serializer: expected %s, got %T", s.model, instance)
}

func writable(spec fieldSpec) bool {
	return !spec.ReadOnly
}
