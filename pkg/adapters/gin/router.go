package gin

import (
	"strings"

	ginpkg "github.com/gin-gonic/gin"

	"github.com/gork-labs/polymorphic/pkg/browsable"
)

// Mount registers the routes of h on e. If e is nil a new engine is
// created.
func Mount(e *ginpkg.Engine, h *browsable.Handler) *ginpkg.Engine {
	if e == nil {
		e = ginpkg.New()
	}
	for _, rt := range h.Routes() {
		handler := rt.Handler
		e.Handle(rt.Method, toNativePath(rt.Pattern), func(c *ginpkg.Context) {
			for _, p := range c.Params {
				c.Request.SetPathValue(p.Key, p.Value)
			}
			handler(c.Writer, c.Request)
		})
	}
	return e
}

// toNativePath converts {param} placeholders to :param.
func toNativePath(p string) string {
	s := strings.ReplaceAll(p, "{", ":")
	return strings.ReplaceAll(s, "}", "")
}
