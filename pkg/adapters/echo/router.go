package echo

import (
	"strings"

	echosdk "github.com/labstack/echo/v4"

	"github.com/gork-labs/polymorphic/pkg/browsable"
)

// Mount registers the routes of h on e. If e is nil a new Echo instance is
// created.
func Mount(e *echosdk.Echo, h *browsable.Handler) *echosdk.Echo {
	if e == nil {
		e = echosdk.New()
	}
	for _, rt := range h.Routes() {
		handler := rt.Handler
		e.Add(rt.Method, toNativePath(rt.Pattern), func(c echosdk.Context) error {
			r := c.Request()
			values := c.ParamValues()
			for i, name := range c.ParamNames() {
				if i < len(values) {
					r.SetPathValue(name, values[i])
				}
			}
			handler(c.Response(), r)
			return nil
		})
	}
	return e
}

// toNativePath converts {param} placeholders to the :param form used by
// Echo.
func toNativePath(p string) string {
	s := strings.ReplaceAll(p, "{", ":")
	return strings.ReplaceAll(s, "}", "")
}
