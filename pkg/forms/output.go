// Package forms renders HTML forms for serializers and the browsable API
// page that hosts them.
package forms

import (
	"html/template"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// Kind tells whether an Output holds one form or a named collection.
type Kind int

// Output kinds.
const (
	Single Kind = iota
	Collection
)

// NamedForm is one labelled entry of a collection.
type NamedForm struct {
	Name string
	HTML template.HTML
}

// Output is the result of rendering a form: either a single form or a
// named collection of forms.
type Output struct {
	Kind   Kind
	Single template.HTML
	Forms  []NamedForm
	// Name labels a single form rendered for one named subtype.
	Name string
}

// SingleForm wraps one rendered form.
func SingleForm(html template.HTML) Output {
	return Output{Kind: Single, Single: html}
}

// CollectionOf wraps labelled forms.
func CollectionOf(forms ...NamedForm) Output {
	return Output{Kind: Collection, Forms: forms}
}

// IsCollection reports whether o is a named collection.
func (o Output) IsCollection() bool {
	return o.Kind == Collection
}

// Names returns the collection labels in order.
func (o Output) Names() []string {
	names := make([]string, len(o.Forms))
	for i, f := range o.Forms {
		names[i] = f.Name
	}
	return names
}

// Form returns the collection entry labelled name.
func (o Output) Form(name string) (template.HTML, bool) {
	for _, f := range o.Forms {
		if f.Name == name {
			return f.HTML, true
		}
	}
	return "", false
}

// FormRenderer renders the form controls for a bound serializer.
type FormRenderer interface {
	RenderForm(b *serializer.Bound) (Output, error)
}

// FormRendererFunc adapts a function into a FormRenderer.
type FormRendererFunc func(b *serializer.Bound) (Output, error)

// RenderForm calls fn.
func (fn FormRendererFunc) RenderForm(b *serializer.Bound) (Output, error) {
	return fn(b)
}
