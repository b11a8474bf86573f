package browsable_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gork-labs/polymorphic/internal/blog"
	"github.com/gork-labs/polymorphic/pkg/browsable"
	"github.com/gork-labs/polymorphic/pkg/forms"
	"github.com/gork-labs/polymorphic/pkg/store"
)

func newHandler(t *testing.T, st *store.Memory, opts ...browsable.Option) *browsable.Handler {
	t.Helper()
	d, err := blog.NewDispatcher(st, "", false)
	require.NoError(t, err)
	h, err := browsable.NewHandler(d, st, append([]browsable.Option{browsable.WithPrefix("/blogs")}, opts...)...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreateAndFetch(t *testing.T) {
	st := store.NewMemory()
	h := newHandler(t, st)

	rec := do(t, h, http.MethodPost, "/blogs", `{"name":"a","slug":"a","info":"i","resourcetype":"BlogOne"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decode[map[string]any](t, rec)
	assert.Equal(t, "BlogOne", created["resourcetype"])
	assert.Equal(t, "i", created["info"])
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	require.Len(t, store.InstanceOf[blog.BlogOne](st), 1)

	rec = do(t, h, http.MethodGet, "/blogs/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[map[string]any](t, rec))
}

func TestCreateValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		want  string
	}{
		{
			name:  "missing discriminator",
			body:  `{"name":"a","slug":"a"}`,
			field: "resourcetype",
			want:  "This field is required.",
		},
		{
			name:  "unknown discriminator",
			body:  `{"name":"a","slug":"a","resourcetype":"Nope"}`,
			field: "resourcetype",
			want:  `No matching handler for value "Nope".`,
		},
		{
			name:  "subtype field error",
			body:  `{"name":"a","slug":"a","resourcetype":"BlogOne"}`,
			field: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, store.NewMemory())
			rec := do(t, h, http.MethodPost, "/blogs", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decode[browsable.ValidationErrorResponse](t, rec)
			assert.Equal(t, "Validation failed", resp.Message)
			require.NotEmpty(t, resp.Details[tt.field])
			if tt.want != "" {
				assert.Equal(t, []string{tt.want}, resp.Details[tt.field])
			}
		})
	}
}

func TestBulkCreate(t *testing.T) {
	st := store.NewMemory()
	h := newHandler(t, st)

	body := `[
		{"name":"a","slug":"a","resourcetype":"BlogBase"},
		{"name":"b","slug":"b","info":"i","resourcetype":"BlogOne"},
		{"name":"c","slug":"c","resourcetype":"BlogTwo"}
	]`
	rec := do(t, h, http.MethodPost, "/blogs", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode[[]map[string]any](t, rec)
	require.Len(t, out, 3)
	assert.Equal(t, "BlogBase", out[0]["resourcetype"])
	assert.Equal(t, "BlogOne", out[1]["resourcetype"])
	assert.Equal(t, "BlogTwo", out[2]["resourcetype"])
	assert.Equal(t, 3, st.Count())

	rec = do(t, h, http.MethodGet, "/blogs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)
}

func TestBulkCreateReportsItemErrors(t *testing.T) {
	st := store.NewMemory()
	h := newHandler(t, st)

	body := `[
		{"name":"a","slug":"a","resourcetype":"BlogBase"},
		{"name":"b","slug":"b","resourcetype":"Nope"}
	]`
	rec := do(t, h, http.MethodPost, "/blogs", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[browsable.BulkValidationErrorResponse](t, rec)
	require.Len(t, resp.Details, 2)
	assert.True(t, resp.Details[0].Empty())
	assert.Equal(t, []string{`No matching handler for value "Nope".`}, resp.Details[1]["resourcetype"])
	assert.Equal(t, 0, st.Count())
}

func TestDetailNotFound(t *testing.T) {
	h := newHandler(t, store.NewMemory())
	rec := do(t, h, http.MethodGet, "/blogs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[browsable.ErrorResponse](t, rec).Error, "not found")
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		wantName string
		wantSlug string
	}{
		{
			name:     "put",
			method:   http.MethodPut,
			body:     `{"name":"new","slug":"new-slug","resourcetype":"BlogBase"}`,
			wantName: "new",
			wantSlug: "new-slug",
		},
		{
			name:     "patch",
			method:   http.MethodPatch,
			body:     `{"name":"new"}`,
			wantName: "new",
			wantSlug: "blog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			instance := &blog.BlogBase{Name: "blog", Slug: "blog"}
			require.NoError(t, st.Insert(context.Background(), instance))
			h := newHandler(t, st)

			rec := do(t, h, tt.method, "/blogs/"+instance.ID, tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			out := decode[map[string]any](t, rec)
			assert.Equal(t, tt.wantName, out["name"])
			assert.Equal(t, tt.wantSlug, out["slug"])
			assert.Equal(t, instance.ID, out["id"])
			assert.Equal(t, tt.wantName, instance.Name)
		})
	}
}

func TestUpdateMissingFieldOnPut(t *testing.T) {
	st := store.NewMemory()
	instance := &blog.BlogBase{Name: "blog", Slug: "blog"}
	require.NoError(t, st.Insert(context.Background(), instance))
	h := newHandler(t, st)

	rec := do(t, h, http.MethodPut, "/blogs/"+instance.ID, `{"name":"new"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[browsable.ValidationErrorResponse](t, rec).Details["slug"])
	assert.Equal(t, "blog", instance.Name)
}

func TestFormPost(t *testing.T) {
	st := store.NewMemory()
	instance := &blog.BlogBase{Name: "blog", Slug: "blog"}
	require.NoError(t, st.Insert(context.Background(), instance))
	h := newHandler(t, st)

	post := func(target string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/blogs", url.Values{"name": {"b"}, "slug": {"b"}, "resourcetype": {"BlogTwo"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, store.InstanceOf[blog.BlogTwo](st), 1)

	rec = post("/blogs/"+instance.ID, url.Values{"name": {"renamed"}, "_method": {"PATCH"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "renamed", instance.Name)
	assert.Equal(t, "blog", instance.Slug)

	rec = post("/blogs/"+instance.ID, url.Values{"name": {"again"}})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "renamed", instance.Name)
}

func TestFormPostResubmitsSubtype(t *testing.T) {
	st := store.NewMemory()
	h := newHandler(t, st)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post(url.Values{"name": {"a"}, "slug": {"a"}, "resourcetype": {"BlogOne"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "data-toggle")
	assert.Contains(t, body, `name="info"`)

	hidden := regexp.MustCompile(`<input type="hidden" name="resourcetype" value="([^"]*)">`).FindStringSubmatch(body)
	require.Len(t, hidden, 2, body)
	assert.Equal(t, "BlogOne", hidden[1])

	rec = post(url.Values{"name": {"a"}, "slug": {"a"}, "info": {"i"}, "resourcetype": {hidden[1]}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := store.InstanceOf[blog.BlogOne](st)
	require.Len(t, created, 1)
	assert.Equal(t, "i", created[0].Info)
}

func TestMalformedBody(t *testing.T) {
	h := newHandler(t, store.NewMemory())
	rec := do(t, h, http.MethodPost, "/blogs", `{"name":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[browsable.ErrorResponse](t, rec).Error, "invalid JSON body")
}

func TestBrowsableList(t *testing.T) {
	h := newHandler(t, store.NewMemory(), browsable.WithPage(forms.PageConfig{Title: "Blogs"}))

	rec := do(t, h, http.MethodGet, "/blogs", "", map[string]string{"Accept": "text/html,application/xhtml+xml;q=0.9"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Blogs</title>")
	for _, name := range []string{"BlogBase", "BlogOne", "BlogThree", "BlogTwo"} {
		assert.Contains(t, body, `<a href="#`+name+`" data-toggle="tab">`)
		assert.Contains(t, body, `name="resourcetype" value="`+name+`"`)
	}
}

func TestBrowsableDetail(t *testing.T) {
	st := store.NewMemory()
	instance := &blog.BlogOne{BlogBase: blog.BlogBase{Name: "blog", Slug: "slug"}, Info: "info"}
	require.NoError(t, st.Insert(context.Background(), instance))
	h := newHandler(t, st)

	rec := do(t, h, http.MethodGet, "/blogs/"+instance.ID, "", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "data-toggle")
	assert.Contains(t, body, `<input type="hidden" name="_method" value="PUT">`)
	assert.Contains(t, body, `value="info"`)
}

func TestNegotiation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		html   bool
	}{
		{name: "no header", target: "/blogs"},
		{name: "json", target: "/blogs", accept: "application/json"},
		{name: "html", target: "/blogs", accept: "text/html", html: true},
		{name: "json preferred", target: "/blogs", accept: "application/json, text/html;q=0.5"},
		{name: "html preferred", target: "/blogs", accept: "text/html, application/json;q=0.5", html: true},
		{name: "wildcard", target: "/blogs", accept: "*/*"},
		{name: "format override", target: "/blogs?format=json", accept: "text/html"},
	}

	h := newHandler(t, store.NewMemory())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "", map[string]string{"Accept": tt.accept})
			require.Equal(t, http.StatusOK, rec.Code)
			if tt.html {
				assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
			} else {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServerErrorsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := funcr.New(func(prefix, args string) {
		logs.WriteString(args)
		logs.WriteString("\n")
	}, funcr.Options{})

	st := store.NewMemory().WithInsertError(errors.New("disk full"))
	h := newHandler(t, st, browsable.WithLogger(logger))

	rec := do(t, h, http.MethodPost, "/blogs", `{"name":"a","slug":"a","resourcetype":"BlogBase"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), decode[browsable.ErrorResponse](t, rec).Error)
	assert.Contains(t, logs.String(), "request failed")
	assert.Contains(t, logs.String(), "disk full")
}

func TestOpenAPIDocument(t *testing.T) {
	h := newHandler(t, store.NewMemory(), browsable.WithOpenAPI("openapi.json", "1.2.3"))

	rec := do(t, h, http.MethodGet, "/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "3.1.0", doc["openapi"])
	info := doc["info"].(map[string]any)
	assert.Equal(t, blog.DispatcherName, info["title"])
	assert.Equal(t, "1.2.3", info["version"])

	rec = do(t, h, http.MethodGet, "/openapi.json?format=yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "openapi: 3.1.0")

	rec = do(t, newHandler(t, store.NewMemory()), http.MethodGet, "/openapi.json", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
