package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/profile-directory/internal/http/v1/profiles"
	"github.com/janisto/profile-directory/internal/http/v1/uploads"
)

// Register wires all versioned HTTP routes into the provided API.
// publicBaseURL, when set, is used instead of the request origin for photo
// URLs.
func Register(
	api huma.API,
	pipeline profiles.Pipeline,
	query profiles.Query,
	photos uploads.Ingester,
	publicBaseURL string,
) {
	prefix := apiPrefix(api)

	profiles.Register(api, pipeline, query, prefix, publicBaseURL)
	uploads.Register(api, photos, publicBaseURL)
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
