// Package adapters groups the router integrations of the browsable handler.
// Each subpackage mounts browsable.Handler routes on a third-party router and
// copies the router's path parameters onto the request, so the handler can
// read them with Request.PathValue as it does under net/http.ServeMux.
package adapters
