package forms

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// PageConfig holds basic configuration for the browsable page.
type PageConfig struct {
	// Title shown in the browser tab and page header.
	Title string
	// Template holds the html/template source of the page. It receives a
	// PageContext. Defaults to DefaultPageTemplate.
	Template string
}

func preparePageConfig(cfg ...PageConfig) PageConfig {
	conf := PageConfig{Title: "Browsable API", Template: DefaultPageTemplate}
	if len(cfg) > 0 {
		conf = cfg[0]
		// Apply defaults for zero values so that callers can omit fields.
		if conf.Title == "" {
			conf.Title = "Browsable API"
		}
		if conf.Template == "" {
			conf.Template = DefaultPageTemplate
		}
	}
	return conf
}

// Request describes one page to render.
type Request struct {
	Title   string
	Method  string
	Path    string
	Status  int
	Content any
	// Form is the bound serializer used for the post form; nil renders
	// the page without a form.
	Form *serializer.Bound
	// FormMethod is the method the form submits with. Defaults to POST.
	FormMethod string
}

// PageContext is the data passed to the page template.
type PageContext struct {
	Title      string
	Method     string
	Path       string
	Status     int
	StatusText string
	Content    string
	PostForm   Output
	HasForm    bool
	FormMethod string
	// IsPolymorphic tells the template that PostForm is a named collection.
	IsPolymorphic bool
	// Discriminator is the field each collection entry posts its name under.
	Discriminator string
	// DiscriminatorValue is posted under Discriminator by a single form
	// rendered for one subtype.
	DiscriminatorValue string
}

// PageRenderer builds page contexts and renders pages.
type PageRenderer interface {
	Context(req Request) (PageContext, error)
	Render(w io.Writer, req Request) error
}

// Page renders the browsable HTML page with a form produced by a
// FormRenderer.
type Page struct {
	title    string
	tmpl     *template.Template
	renderer FormRenderer
}

// NewPage creates a page using renderer for its post form.
func NewPage(renderer FormRenderer, cfg ...PageConfig) (*Page, error) {
	conf := preparePageConfig(cfg...)
	tmpl, err := template.New("page").Parse(conf.Template)
	if err != nil {
		return nil, fmt.Errorf("forms: parse page template: %w", err)
	}
	return &Page{title: conf.Title, tmpl: tmpl, renderer: renderer}, nil
}

// Context builds the template data for req.
func (p *Page) Context(req Request) (PageContext, error) {
	pc := PageContext{
		Title:      req.Title,
		Method:     req.Method,
		Path:       req.Path,
		Status:     req.Status,
		FormMethod: req.FormMethod,
	}
	if pc.Title == "" {
		pc.Title = p.title
	}
	if pc.Status == 0 {
		pc.Status = http.StatusOK
	}
	pc.StatusText = http.StatusText(pc.Status)
	if pc.FormMethod == "" {
		pc.FormMethod = http.MethodPost
	}

	if req.Content != nil {
		b, err := json.MarshalIndent(req.Content, "", "    ")
		if err != nil {
			return PageContext{}, fmt.Errorf("forms: encode content: %w", err)
		}
		pc.Content = string(b)
	}

	if req.Form != nil {
		out, err := p.renderer.RenderForm(req.Form)
		if err != nil {
			return PageContext{}, err
		}
		pc.PostForm = out
		pc.HasForm = true
	}
	return pc, nil
}

// Render writes the page for req to w.
func (p *Page) Render(w io.Writer, req Request) error {
	pc, err := p.Context(req)
	if err != nil {
		return err
	}
	return p.Execute(w, pc)
}

// Execute writes the page for an already built context.
func (p *Page) Execute(w io.Writer, pc PageContext) error {
	if err := p.tmpl.Execute(w, pc); err != nil {
		return fmt.Errorf("forms: render page: %w", err)
	}
	return nil
}

// DefaultPageTemplate is the built-in browsable page. It branches on
// IsPolymorphic: one tab per subtype form, or a single form.
const DefaultPageTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="request-info"><b>{{.Method}}</b> {{.Path}}</div>
    <div class="response-info">
        <pre><b>HTTP {{.Status}} {{.StatusText}}</b>

{{.Content}}</pre>
    </div>
{{if .HasForm}}{{if .IsPolymorphic}}
    <ul class="nav nav-tabs">
    {{range .PostForm.Forms}}<li><a href="#{{.Name}}" data-toggle="tab">{{.Name}}</a></li>
    {{end}}</ul>
    <div class="tab-content">
    {{range .PostForm.Forms}}<div class="tab-pane" id="{{.Name}}">
        <form method="POST" action="{{$.Path}}">
            <input type="hidden" name="{{$.Discriminator}}" value="{{.Name}}">
            {{.HTML}}
            <button type="submit">POST</button>
        </form>
    </div>
    {{end}}</div>
{{else}}
    <form method="POST" action="{{.Path}}">
        {{if ne .FormMethod "POST"}}<input type="hidden" name="_method" value="{{.FormMethod}}">{{end}}
        {{if and .Discriminator .DiscriminatorValue}}<input type="hidden" name="{{.Discriminator}}" value="{{.DiscriminatorValue}}">{{end}}
        {{.PostForm.Single}}
        <button type="submit">{{.FormMethod}}</button>
    </form>
{{end}}{{end}}
</body>
</html>`
