package fiber

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/gork-labs/polymorphic/pkg/browsable"
)

// Mount registers the routes of h on app. If app is nil a new Fiber app is
// created. Requests are converted to net/http with the adaptor middleware.
func Mount(app *fiber.App, h *browsable.Handler) *fiber.App {
	if app == nil {
		app = fiber.New()
	}
	for _, rt := range h.Routes() {
		handler := rt.Handler
		app.Add(rt.Method, toNativePath(rt.Pattern), func(c *fiber.Ctx) error {
			params := make(map[string]string, len(c.Route().Params))
			for _, name := range c.Route().Params {
				params[name] = strings.Clone(c.Params(name))
			}
			return adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range params {
					r.SetPathValue(k, v)
				}
				handler(w, r)
			})(c)
		})
	}
	return app
}

// toNativePath converts {param} placeholders to :param expected by Fiber.
func toNativePath(p string) string {
	s := strings.ReplaceAll(p, "{", ":")
	return strings.ReplaceAll(s, "}", "")
}
