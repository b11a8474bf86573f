// Package serializer implements the request/response serialization engine:
// a Serializer contract for a single record type, the Bound helper that runs
// one validate/save/represent cycle, and ModelSerializer, a struct tag
// driven implementation of the contract.
package serializer

import (
	"context"
	"reflect"
)

// FieldKind classifies a field for form rendering and schema generation.
type FieldKind int

// Field kinds.
const (
	KindString FieldKind = iota
	KindText
	KindInteger
	KindFloat
	KindBoolean
	KindChoice
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindChoice:
		return "choice"
	default:
		return "string"
	}
}

// Field describes one serialized field.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	ReadOnly bool
	Choices  []string
	HelpText string
}

// Serializer converts between instances and records for one record type.
//
// Validate reports client problems through the returned ErrorDetail and
// reserves the error return for server failures. instance is the object
// being updated, or nil on create.
type Serializer interface {
	Fields() []Field
	ToRepresentation(c *Context, instance any) (Record, error)
	Validate(c *Context, instance any, data Record, partial bool) (Record, ErrorDetail, error)
	Create(c *Context, validated Record) (any, error)
	Update(c *Context, instance any, validated Record) (any, error)
}

// Modeler is implemented by serializers bound to a concrete model type.
type Modeler interface {
	Model() reflect.Type
}

// Saver persists instances produced by a ModelSerializer.
type Saver interface {
	Insert(ctx context.Context, instance any) error
	Update(ctx context.Context, instance any) error
}

// ObjectValidator checks a whole object after its fields validated.
// attrs holds the full representation of the candidate object; instance is
// the object being updated, or nil.
type ObjectValidator interface {
	ValidateObject(c *Context, instance any, attrs Record) error
}

// ObjectValidatorFunc adapts a function into an ObjectValidator.
type ObjectValidatorFunc func(c *Context, instance any, attrs Record) error

// ValidateObject calls fn.
func (fn ObjectValidatorFunc) ValidateObject(c *Context, instance any, attrs Record) error {
	return fn(c, instance, attrs)
}

// Validator is implemented by models with custom validation.
type Validator interface {
	Validate() error
}

// ContextValidator is implemented by models whose validation needs the
// request context.
type ContextValidator interface {
	Validate(ctx context.Context) error
}
