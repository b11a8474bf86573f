package polymorphic

import (
	"io"

	"github.com/go-logr/logr"

	"github.com/gork-labs/polymorphic/pkg/forms"
	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// FormRenderer adapts a base form renderer to dispatchers. An unbound
// dispatcher renders one labelled form per subtype; a dispatcher bound to
// an instance or to data naming a subtype renders that subtype's form.
// Other serializers are passed to Base unchanged.
//
// FormRenderer also renders whole pages, flagging collections so that the
// page template can show one form per subtype.
type FormRenderer struct {
	Base   forms.FormRenderer
	Logger logr.Logger

	page *forms.Page
}

var (
	_ forms.FormRenderer = (*FormRenderer)(nil)
	_ forms.PageRenderer = (*FormRenderer)(nil)
)

// NewFormRenderer wraps base. A nil base uses forms.NewHTMLRenderer.
func NewFormRenderer(base forms.FormRenderer, logger logr.Logger, cfg ...forms.PageConfig) (*FormRenderer, error) {
	if base == nil {
		base = forms.NewHTMLRenderer()
	}
	r := &FormRenderer{Base: base, Logger: logger}
	page, err := forms.NewPage(r, cfg...)
	if err != nil {
		return nil, err
	}
	r.page = page
	return r, nil
}

// RenderForm renders the form for b.
func (r *FormRenderer) RenderForm(b *serializer.Bound) (forms.Output, error) {
	d, ok := b.Serializer().(*Dispatcher)
	if !ok {
		return r.Base.RenderForm(b)
	}

	if b.HasInitialData() {
		if _, err := b.IsValid(); err != nil {
			r.log().Error(err, "validating polymorphic form data", "dispatcher", d.Name())
		}
	}

	data, err := b.Data()
	if err != nil {
		r.log().Error(err, "reading polymorphic form data", "dispatcher", d.Name())
	} else if len(data) > 0 {
		name, child, err := r.bindChild(d, b, data)
		if err == nil {
			out, err := r.Base.RenderForm(child)
			if err != nil {
				return forms.Output{}, err
			}
			out.Name = name
			return out, nil
		}
		r.log().V(1).Info("rendering all subtype forms", "dispatcher", d.Name(), "reason", err.Error())
	}

	out := make([]forms.NamedForm, 0, len(d.names))
	for _, name := range d.names {
		child, err := d.Child(name, b.Context())
		if err != nil {
			return forms.Output{}, err
		}
		rendered, err := r.Base.RenderForm(child)
		if err != nil {
			return forms.Output{}, err
		}
		out = append(out, forms.NamedForm{Name: name, HTML: rendered.Single})
	}
	return forms.CollectionOf(out...), nil
}

// bindChild binds the handler named by the discriminator of data with the
// instance, initial data and context of b.
func (r *FormRenderer) bindChild(d *Dispatcher, b *serializer.Bound, data serializer.Record) (string, *serializer.Bound, error) {
	name, err := d.ResolveData(data)
	if err != nil {
		return "", nil, err
	}

	var opts []serializer.Option
	if instance := b.Instance(); instance != nil {
		m, err := d.resolve(instance)
		if err != nil {
			return "", nil, err
		}
		if m.name == name {
			opts = append(opts, serializer.WithInstance(m.value))
		}
	}
	if b.HasInitialData() {
		if rec, ok := b.InitialData().(serializer.Record); ok {
			opts = append(opts, serializer.WithData(rec.Without(d.field)))
		} else if rec, ok := b.InitialData().(map[string]any); ok {
			opts = append(opts, serializer.WithData(serializer.Record(rec).Without(d.field)))
		}
	}
	if b.IsPartial() {
		opts = append(opts, serializer.Partial())
	}

	child, err := d.Child(name, b.Context(), opts...)
	if err != nil {
		return "", nil, err
	}
	if child.HasInitialData() {
		if _, err := child.IsValid(); err != nil {
			r.log().Error(err, "validating subtype form data", "dispatcher", d.Name(), "subtype", name)
		}
	}
	return name, child, nil
}

// Context builds the page context for req and sets IsPolymorphic when the
// post form is a collection.
func (r *FormRenderer) Context(req forms.Request) (forms.PageContext, error) {
	page, err := r.pageRenderer()
	if err != nil {
		return forms.PageContext{}, err
	}
	pc, err := page.Context(req)
	if err != nil {
		return forms.PageContext{}, err
	}
	pc.IsPolymorphic = pc.PostForm.IsCollection()
	if req.Form != nil {
		if d, ok := req.Form.Serializer().(*Dispatcher); ok {
			pc.Discriminator = d.Field()
			if !pc.IsPolymorphic {
				pc.DiscriminatorValue = pc.PostForm.Name
			}
		}
	}
	return pc, nil
}

// Render writes the page for req.
func (r *FormRenderer) Render(w io.Writer, req forms.Request) error {
	pc, err := r.Context(req)
	if err != nil {
		return err
	}
	page, err := r.pageRenderer()
	if err != nil {
		return err
	}
	return page.Execute(w, pc)
}

// pageRenderer returns the page built by NewFormRenderer, or a default
// page for renderers created as struct literals.
func (r *FormRenderer) pageRenderer() (*forms.Page, error) {
	if r.page == nil {
		page, err := forms.NewPage(r)
		if err != nil {
			return nil, err
		}
		r.page = page
	}
	return r.page, nil
}

func (r *FormRenderer) log() logr.Logger {
	if r.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return r.Logger
}
