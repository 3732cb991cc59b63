package main

import (
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/profile-directory/internal/http/health"
	"github.com/janisto/profile-directory/internal/http/v1/routes"
	applog "github.com/janisto/profile-directory/internal/platform/logging"
	appmiddleware "github.com/janisto/profile-directory/internal/platform/middleware"
	"github.com/janisto/profile-directory/internal/platform/respond"
	"github.com/janisto/profile-directory/internal/service/photo"
)

const (
	apiPrefix = "/v1"
	docsPath  = "/api-docs"
	// formOverhead is the request size allowance on top of the photo limit
	// for the text fields and multipart framing.
	formOverhead = 1 << 20
)

func newRouter(cfg routerConfig, a *app) chi.Router {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(appmiddleware.SecurityPaths{
			Docs:   []string{apiPrefix + docsPath},
			Assets: []string{photo.PublicPath},
		}),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.corsOrigins...),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(a.photos.MaxBytes()+formOverhead),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	router.Get("/health", health.NewHandler(a.checks))

	if a.uploadDir != "" {
		files := http.StripPrefix(photo.PublicPath+"/", http.FileServer(photoFiles{root: http.Dir(a.uploadDir)}))
		router.Get(photo.PublicPath+"/*", files.ServeHTTP)
	}

	router.Route(apiPrefix, func(r chi.Router) {
		api := newAPI(r, cfg.version)
		routes.Register(api, a.pipeline, a.query, a.photos, a.publicBaseURL)
	})

	return router
}

// newAPI mounts a Huma API on r, which is expected to be served under
// apiPrefix.
func newAPI(r chi.Router, version string) huma.API {
	hcfg := huma.DefaultConfig("Profile Directory API", version)
	hcfg.DocsPath = docsPath
	hcfg.Servers = []*huma.Server{{URL: apiPrefix}}
	// Allow JSON fallback for wildcard Accept headers (e.g., */*) since Huma's
	// negotiation uses exact matching and doesn't interpret wildcards per
	// RFC 9110 section 12.5.1.
	api := humachi.New(r, hcfg)
	addCBORContent(api)
	return api
}

// photoFiles serves stored photos by name only. Directories are reported
// missing so the upload directory cannot be listed.
type photoFiles struct {
	root http.FileSystem
}

func (p photoFiles) Open(name string) (http.File, error) {
	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

type routerConfig struct {
	version     string
	corsOrigins []string
}

// addCBORContent advertises application/cbor wherever an operation accepts
// or returns JSON.
func addCBORContent(api huma.API) {
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)
}
