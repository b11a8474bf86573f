package forms

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

func TestPreparePageConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  []PageConfig
		want PageConfig
	}{
		{"no config", nil, PageConfig{Title: "Browsable API", Template: DefaultPageTemplate}},
		{"zero values", []PageConfig{{}}, PageConfig{Title: "Browsable API", Template: DefaultPageTemplate}},
		{"custom title", []PageConfig{{Title: "Blogs"}}, PageConfig{Title: "Blogs", Template: DefaultPageTemplate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preparePageConfig(tt.cfg...))
		})
	}
}

func TestPageContext(t *testing.T) {
	p, err := NewPage(NewHTMLRenderer(), PageConfig{Title: "Posts"})
	require.NoError(t, err)

	pc, err := p.Context(Request{
		Method:  http.MethodGet,
		Path:    "/posts/1",
		Content: map[string]any{"title": "x"},
		Form:    serializer.Bind(serializer.NewModelSerializer[post]()),
	})
	require.NoError(t, err)
	assert.Equal(t, "Posts", pc.Title)
	assert.Equal(t, http.StatusOK, pc.Status)
	assert.Equal(t, "OK", pc.StatusText)
	assert.Equal(t, http.MethodPost, pc.FormMethod)
	assert.Equal(t, "{\n    \"title\": \"x\"\n}", pc.Content)
	assert.True(t, pc.HasForm)
	assert.False(t, pc.IsPolymorphic)
	assert.Contains(t, string(pc.PostForm.Single), `name="title"`)

	pc, err = p.Context(Request{Title: "Other", Status: http.StatusBadRequest})
	require.NoError(t, err)
	assert.Equal(t, "Other", pc.Title)
	assert.Equal(t, "Bad Request", pc.StatusText)
	assert.False(t, pc.HasForm)
}

func TestPageRender(t *testing.T) {
	p, err := NewPage(NewHTMLRenderer())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = p.Render(&buf, Request{
		Method:     http.MethodGet,
		Path:       "/posts/1",
		Content:    map[string]any{"title": "x"},
		Form:       serializer.Bind(serializer.NewModelSerializer[post](), serializer.WithInstance(&post{Title: "x"})),
		FormMethod: http.MethodPut,
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<title>Browsable API</title>")
	assert.Contains(t, html, "<b>HTTP 200 OK</b>")
	assert.Contains(t, html, "&#34;title&#34;: &#34;x&#34;")
	assert.Contains(t, html, `<form method="POST" action="/posts/1">`)
	assert.Contains(t, html, `<input type="hidden" name="_method" value="PUT">`)
	assert.Contains(t, html, `name="title" id="id_title" value="x"`)
	assert.NotContains(t, html, "nav-tabs")
}

func TestPageRenderCollection(t *testing.T) {
	renderer := FormRendererFunc(func(*serializer.Bound) (Output, error) {
		return CollectionOf(
			NamedForm{Name: "Short", HTML: `<input name="a">`},
			NamedForm{Name: "Long", HTML: `<input name="b">`},
		), nil
	})
	p, err := NewPage(renderer)
	require.NoError(t, err)

	pc, err := p.Context(Request{Path: "/items", Form: serializer.Bind(serializer.NewModelSerializer[post]())})
	require.NoError(t, err)
	pc.IsPolymorphic = true
	pc.Discriminator = "kind"

	var buf bytes.Buffer
	require.NoError(t, p.Execute(&buf, pc))
	html := buf.String()
	assert.Contains(t, html, `<a href="#Short" data-toggle="tab">Short</a>`)
	assert.Contains(t, html, `<div class="tab-pane" id="Long">`)
	assert.Contains(t, html, `<input type="hidden" name="kind" value="Short">`)
	assert.Contains(t, html, `<input name="b">`)
}

func TestPageErrors(t *testing.T) {
	_, err := NewPage(NewHTMLRenderer(), PageConfig{Template: "{{.Broken"})
	assert.Error(t, err)

	boom := errors.New("boom")
	p, err := NewPage(FormRendererFunc(func(*serializer.Bound) (Output, error) { return Output{}, boom }))
	require.NoError(t, err)
	err = p.Render(&bytes.Buffer{}, Request{Form: serializer.Bind(serializer.NewModelSerializer[post]())})
	assert.ErrorIs(t, err, boom)

	_, err = p.Context(Request{Content: func() {}})
	assert.Error(t, err)
}
