package fiber

import (
	"encoding/json"
	"io"
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

	app := Mount(nil, h)
	require.NotNil(t, app)

	req := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(`{"name":"a","slug":"a","info":"i","resourcetype":"BlogOne"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/blogs/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"info":"i"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/blogs/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToNativePath(t *testing.T) {
	assert.Equal(t, "/blogs/:id", toNativePath("/blogs/{id}"))
	assert.Equal(t, "/blogs", toNativePath("/blogs"))
}
