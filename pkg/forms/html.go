package forms

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// ErrManyForm is returned when asked to render a form for a many binding.
var ErrManyForm = errors.New("forms: cannot render a form for a many binding")

const formTemplate = `{{define "form"}}{{range .}}<div class="form-group{{if .Errors}} has-error{{end}}">
<label for="id_{{.Name}}">{{.Label}}{{if .Required}} *{{end}}</label>
{{if eq .Widget "textarea"}}<textarea name="{{.Name}}" id="id_{{.Name}}">{{.Value}}</textarea>
{{else if eq .Widget "select"}}<select name="{{.Name}}" id="id_{{.Name}}">{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>{{end}}</select>
{{else if eq .Widget "checkbox"}}<input type="checkbox" name="{{.Name}}" id="id_{{.Name}}" value="true"{{if .Checked}} checked{{end}}>
{{else}}<input type="{{.Widget}}" name="{{.Name}}" id="id_{{.Name}}" value="{{.Value}}"{{if .Required}} required{{end}}>
{{end}}{{if .Help}}<p class="help-block">{{.Help}}</p>
{{end}}{{range .Errors}}<span class="help-block error">{{.}}</span>
{{end}}</div>
{{end}}{{end}}`

type option struct {
	Value    string
	Selected bool
}

type control struct {
	Name     string
	Label    string
	Widget   string
	Value    string
	Checked  bool
	Required bool
	Help     string
	Options  []option
	Errors   []string
}

// HTMLRenderer renders one control per writable field of a serializer.
// Rendered output contains the controls only; the page wraps them in a
// form element.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer creates a renderer using the built-in control template.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("forms").Parse(formTemplate))}
}

// RenderForm renders the controls for b with values from b.Data() and
// messages from b.Errors().
func (r *HTMLRenderer) RenderForm(b *serializer.Bound) (Output, error) {
	if b.IsMany() {
		return Output{}, ErrManyForm
	}
	data, err := b.Data()
	if err != nil {
		return Output{}, fmt.Errorf("forms: data: %w", err)
	}
	errs := b.Errors()

	var controls []control
	for _, f := range b.Serializer().Fields() {
		if f.ReadOnly {
			continue
		}
		controls = append(controls, buildControl(f, data[f.Name], errs[f.Name]))
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "form", controls); err != nil {
		return Output{}, fmt.Errorf("forms: render: %w", err)
	}
	// #nosec G203 -- produced by html/template
	return SingleForm(template.HTML(buf.String())), nil
}

func buildControl(f serializer.Field, value any, errs []string) control {
	c := control{
		Name:     f.Name,
		Label:    f.Label,
		Required: f.Required,
		Help:     f.HelpText,
		Errors:   errs,
	}
	if c.Label == "" {
		c.Label = f.Name
	}
	if value != nil {
		c.Value = fmt.Sprint(value)
	}

	switch f.Kind {
	case serializer.KindText:
		c.Widget = "textarea"
	case serializer.KindInteger, serializer.KindFloat:
		c.Widget = "number"
	case serializer.KindBoolean:
		c.Widget = "checkbox"
		c.Checked, _ = value.(bool)
	case serializer.KindChoice:
		c.Widget = "select"
		for _, choice := range f.Choices {
			c.Options = append(c.Options, option{Value: choice, Selected: choice == c.Value})
		}
	default:
		c.Widget = "text"
	}
	return c
}
