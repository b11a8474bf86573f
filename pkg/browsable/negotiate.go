package browsable

import (
	"net/http"

	accept "github.com/timewasted/go-accept-headers"
)

// Media types served by the handler.
const (
	MediaJSON = "application/json"
	MediaHTML = "text/html"
)

// negotiate picks the response media type from the Accept header. JSON is
// the default; HTML is chosen only when it ranks above JSON.
func negotiate(r *http.Request) string {
	hdr := r.Header.Get("Accept")
	if hdr == "" {
		return MediaJSON
	}
	if r.URL.Query().Get("format") == "json" {
		return MediaJSON
	}
	for _, a := range accept.Parse(hdr) {
		if a.Q <= 0 {
			continue
		}
		switch {
		case a.Type == "text" && a.Subtype == "html":
			return MediaHTML
		case a.Type == "application" && a.Subtype == "json",
			a.Type == "application" && a.Subtype == "*",
			a.Type == "*":
			return MediaJSON
		}
	}
	return MediaJSON
}
