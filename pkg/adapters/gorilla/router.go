package gorilla

import (
	"net/http"

	muxpkg "github.com/gorilla/mux"

	"github.com/gork-labs/polymorphic/pkg/browsable"
)

// Mount registers the routes of h on r. If r is nil a new router is
// created.
func Mount(r *muxpkg.Router, h *browsable.Handler) *muxpkg.Router {
	if r == nil {
		r = muxpkg.NewRouter()
	}
	for _, rt := range h.Routes() {
		r.Path(rt.Pattern).Methods(rt.Method).Handler(withPathValues(rt.Handler))
	}
	return r
}

func withPathValues(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range muxpkg.Vars(r) {
			r.SetPathValue(k, v)
		}
		next(w, r)
	}
}
