// Package browsable serves one polymorphic collection over HTTP as JSON or
// as a browsable HTML page with a form per subtype.
package browsable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-logr/logr"

	"github.com/gork-labs/polymorphic/pkg/forms"
	"github.com/gork-labs/polymorphic/pkg/openapi"
	"github.com/gork-labs/polymorphic/pkg/polymorphic"
	"github.com/gork-labs/polymorphic/pkg/serializer"
	"github.com/gork-labs/polymorphic/pkg/store"
)

// Context keys set on the shared serializer context of every request.
const (
	ContextRequest = "request"
	ContextMethod  = "method"
	ContextPath    = "path"
)

// methodOverride is the form field HTML forms use to submit PUT or PATCH.
const methodOverride = "_method"

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for server errors.
func WithLogger(logger logr.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithPrefix sets the collection path. Defaults to "/".
func WithPrefix(prefix string) Option {
	return func(h *Handler) {
		h.prefix = prefix
	}
}

// WithPage sets the page configuration of the HTML view.
func WithPage(cfg forms.PageConfig) Option {
	return func(h *Handler) {
		h.page = cfg
	}
}

// WithOpenAPI serves the OpenAPI document of the dispatcher at path, as
// JSON or as YAML with ?format=yaml. version is the API version written to
// the document info.
func WithOpenAPI(path, version string) Option {
	return func(h *Handler) {
		h.openAPIPath = path
		h.apiVersion = version
	}
}

// Handler serves the instances of a store through a dispatcher.
type Handler struct {
	dispatcher  *polymorphic.Dispatcher
	store       *store.Memory
	renderer    *polymorphic.FormRenderer
	logger      logr.Logger
	prefix      string
	page        forms.PageConfig
	openAPIPath string
	apiVersion  string
	mux         *http.ServeMux
}

// NewHandler creates a handler for d backed by st.
func NewHandler(d *polymorphic.Dispatcher, st *store.Memory, opts ...Option) (*Handler, error) {
	h := &Handler{
		dispatcher: d,
		store:      st,
		logger:     logr.Discard(),
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.prefix = "/" + strings.Trim(h.prefix, "/")
	if h.openAPIPath != "" {
		h.openAPIPath = "/" + strings.TrimLeft(h.openAPIPath, "/")
	}

	renderer, err := polymorphic.NewFormRenderer(forms.NewHTMLRenderer(), h.logger, h.page)
	if err != nil {
		return nil, err
	}
	h.renderer = renderer
	h.Register(h.mux)
	return h, nil
}

// Route is one endpoint of a Handler. Pattern uses the {id} placeholder
// for the item key, which the handler reads with Request.PathValue.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Routes returns the endpoints of the collection. Router adapters mount
// them and copy their path parameters with Request.SetPathValue.
func (h *Handler) Routes() []Route {
	item := strings.TrimSuffix(h.prefix, "/") + "/{id}"
	routes := []Route{
		{Method: http.MethodGet, Pattern: h.prefix, Handler: h.list},
		{Method: http.MethodPost, Pattern: h.prefix, Handler: h.create},
		{Method: http.MethodGet, Pattern: item, Handler: h.detail},
		{Method: http.MethodPut, Pattern: item, Handler: h.update},
		{Method: http.MethodPatch, Pattern: item, Handler: h.update},
		{Method: http.MethodPost, Pattern: item, Handler: h.update},
	}
	if h.openAPIPath != "" {
		routes = append(routes, Route{Method: http.MethodGet, Pattern: h.openAPIPath, Handler: h.openAPI})
	}
	return routes
}

// Register adds the collection routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, rt := range h.Routes() {
		pattern := rt.Pattern
		if pattern == "/" {
			pattern = "/{$}"
		}
		mux.HandleFunc(rt.Method+" "+pattern, rt.Handler)
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) context(r *http.Request) *serializer.Context {
	return serializer.NewContext(r.Context(), map[string]any{
		ContextRequest: r,
		ContextMethod:  r.Method,
		ContextPath:    r.URL.Path,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	c := h.context(r)
	items := h.store.All(r.Context())
	b := serializer.Bind(h.dispatcher, serializer.WithInstance(items), serializer.Many(), serializer.WithContext(c))
	records, err := b.ListData()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	for i, rec := range records {
		withID(rec, items[i])
	}
	h.respond(w, r, http.StatusOK, records, serializer.Bind(h.dispatcher, serializer.WithContext(c)), http.MethodPost)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	c := h.context(r)
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	b := serializer.Bind(h.dispatcher, serializer.WithInstance(instance), serializer.WithContext(c))
	rec, err := b.Data()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, withID(rec, instance), b, http.MethodPut)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	c := h.context(r)
	payload, err := decodeBody(r)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err)
		return
	}

	opts := []serializer.Option{serializer.WithData(payload), serializer.WithContext(c)}
	_, many := payload.([]any)
	if many {
		opts = append(opts, serializer.Many())
	}
	b := serializer.Bind(h.dispatcher, opts...)

	valid, err := b.IsValid()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !valid {
		if many {
			h.respond(w, r, http.StatusBadRequest, newBulkValidationErrorResponse(b), serializer.Bind(h.dispatcher, serializer.WithContext(c)), http.MethodPost)
			return
		}
		h.respond(w, r, http.StatusBadRequest, newValidationErrorResponse(b.Errors()), b, http.MethodPost)
		return
	}

	saved, err := b.Save()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if many {
		records, err := b.ListData()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		for i, rec := range records {
			withID(rec, saved.([]any)[i])
		}
		h.respond(w, r, http.StatusCreated, records, serializer.Bind(h.dispatcher, serializer.WithContext(c)), http.MethodPost)
		return
	}
	rec, err := b.Data()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, withID(rec, saved), serializer.Bind(h.dispatcher, serializer.WithContext(c)), http.MethodPost)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	c := h.context(r)
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	payload, err := decodeBody(r)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err)
		return
	}

	method := r.Method
	if rec, ok := payload.(map[string]any); ok && method == http.MethodPost {
		override, _ := rec[methodOverride].(string)
		delete(rec, methodOverride)
		switch strings.ToUpper(override) {
		case http.MethodPut, http.MethodPatch:
			method = strings.ToUpper(override)
		default:
			writeError(h.logger, w, http.StatusMethodNotAllowed, errors.New(http.StatusText(http.StatusMethodNotAllowed)))
			return
		}
	}
	c.Set(ContextMethod, method)

	opts := []serializer.Option{serializer.WithInstance(instance), serializer.WithData(payload), serializer.WithContext(c)}
	if method == http.MethodPatch {
		opts = append(opts, serializer.Partial())
	}
	b := serializer.Bind(h.dispatcher, opts...)

	valid, err := b.IsValid()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !valid {
		h.respond(w, r, http.StatusBadRequest, newValidationErrorResponse(b.Errors()), b, http.MethodPut)
		return
	}
	if _, err := b.Save(); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := b.Data()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, withID(rec, instance), serializer.Bind(h.dispatcher, serializer.WithInstance(instance), serializer.WithContext(c)), http.MethodPut)
}

func (h *Handler) openAPI(w http.ResponseWriter, r *http.Request) {
	title := h.page.Title
	if title == "" {
		title = h.dispatcher.Name()
	}
	doc := openapi.NewDocument(title, h.apiVersion, h.dispatcher)

	if r.URL.Query().Get("format") == "yaml" {
		out, err := openapi.MarshalYAML(doc)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (any, bool) {
	instance, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(h.logger, w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return instance, true
}

// respond writes body as JSON, or as the browsable page with a form for
// form when the client prefers HTML.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body any, form *serializer.Bound, formMethod string) {
	if negotiate(r) != MediaHTML {
		writeJSON(w, status, body)
		return
	}

	var buf bytes.Buffer
	err := h.renderer.Render(&buf, forms.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     status,
		Content:    body,
		Form:       form,
		FormMethod: formMethod,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", MediaHTML+"; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *serializer.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, newValidationErrorResponse(ve.Detail))
		return
	}
	writeError(h.logger, w, http.StatusInternalServerError, err)
}

// withID adds the store key of instance to rec.
func withID(rec serializer.Record, instance any) serializer.Record {
	if id, ok := instance.(store.Identifiable); ok && rec != nil {
		rec["id"] = id.GetID()
	}
	return rec
}

// decodeBody reads a JSON object or array, or an HTML form post.
func decodeBody(r *http.Request) (any, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		rec := make(map[string]any, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				rec[k] = v[0]
			}
		}
		return rec, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return payload, nil
}
