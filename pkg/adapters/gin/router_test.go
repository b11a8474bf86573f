package gin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gork-labs/polymorphic/internal/blog"
	"github.com/gork-labs/polymorphic/pkg/browsable"
	"github.com/gork-labs/polymorphic/pkg/store"
)

func TestMount(t *testing.T) {
	st := store.NewMemory()
	d, err := blog.NewDispatcher(st, "", false)
	require.NoError(t, err)
	h, err := browsable.NewHandler(d, st, browsable.WithPrefix("/blogs"))
	require.NoError(t, err)

	mux := Mount(nil, h)
	require.NotNil(t, mux)

	req := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(`{"name":"a","slug":"a","resourcetype":"BlogBase"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := store.InstanceOf[blog.BlogBase](st)
	require.Len(t, created, 1)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blogs/"+created[0].ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"resourcetype":"BlogBase"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blogs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToNativePath(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"/blogs/{id}", "/blogs/:id"},
		{"/blogs", "/blogs"},
		{"/{id}", "/:id"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.out, toNativePath(tt.in), tt.in)
	}
}
