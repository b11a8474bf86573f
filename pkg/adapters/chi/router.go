package chi

import (
	"net/http"

	chibase "github.com/go-chi/chi/v5"

	"github.com/gork-labs/polymorphic/pkg/browsable"
)

// Mount registers the routes of h on mux. If mux is nil a new one is
// created. The mux is returned for chaining.
func Mount(mux *chibase.Mux, h *browsable.Handler) *chibase.Mux {
	if mux == nil {
		mux = chibase.NewRouter()
	}
	for _, rt := range h.Routes() {
		mux.Method(rt.Method, rt.Pattern, withPathValues(rt.Handler))
	}
	return mux
}

// withPathValues copies chi URL parameters onto the request.
func withPathValues(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rctx := chibase.RouteContext(r.Context()); rctx != nil {
			for i, k := range rctx.URLParams.Keys {
				r.SetPathValue(k, rctx.URLParams.Values[i])
			}
		}
		next(w, r)
	}
}
