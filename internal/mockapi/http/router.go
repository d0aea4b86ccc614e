package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/service"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/httpx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
)

// Collection describes one resource collection and where it is mounted.
type Collection struct {
	Name      string // store collection
	Composite string // path under the composite gateway
	Service   string // path on the per-service layout
	Noun      string
	Files     bool // accepts POST {id}/upload
	Logo      bool // accepts POST {id}/logo
}

// Collections is the fixed set of portfolio collections.
var Collections = []Collection{
	{Name: "skills", Composite: "/api/skills", Service: "/skills", Noun: "Skill"},
	{Name: "education", Composite: "/api/education", Service: "/education", Noun: "Education record", Files: true, Logo: true},
	{Name: "work", Composite: "/api/work", Service: "/work", Noun: "Work record", Files: true, Logo: true},
	{Name: "projects", Composite: "/api/projects", Service: "/projects", Noun: "Project"},
	{Name: "community", Composite: "/api/community", Service: "/community", Noun: "Community service record"},
	{Name: "e_portfolio", Composite: "/api/e-portfolio", Service: "/e_portfolio", Noun: "E-portfolio activity", Files: true},
}

// CollectionNames lists the store collections the router serves.
func CollectionNames() []string {
	names := make([]string, 0, len(Collections))
	for _, c := range Collections {
		names = append(names, c.Name)
	}
	return names
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	AuthService   *service.AuthService
	RecordService *service.RecordService
}

func NewRouter(auth *service.AuthService, records *service.RecordService, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		AuthService:   auth,
		RecordService: records,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerRecords()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(httpx.VerifierFunc(r.AuthService.Tokens.Subject))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService}

	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.LoginLimit),
		),
	)
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.LoginLimit),
		),
	)
	r.Mux.HandleFunc("POST /auth/validate", h.HandleValidate)
	r.Mux.HandleFunc("POST /auth/logout", h.HandleLogout)
	r.Mux.Handle("GET /auth/user", httpx.Chain(http.HandlerFunc(h.HandleUser), r.authn()))
}

func (r *Router) registerRecords() {
	for _, c := range Collections {
		h := &RecordsHandler{Records: r.RecordService, Collection: c.Name, Noun: c.Noun}
		r.mountCollection(c.Composite, c, h)
		r.mountCollection(c.Service, c, h)
	}

	r.Mux.HandleFunc("GET /api/portfolio", r.handlePortfolio)
}

func (r *Router) mountCollection(base string, c Collection, h *RecordsHandler) {
	write := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.authn(), httpx.RateLimitBySubject(httpx.WriteLimit))
	}

	r.Mux.HandleFunc("GET "+base, h.HandleList)
	r.Mux.HandleFunc("GET "+base+"/{id}", h.HandleGet)
	r.Mux.Handle("POST "+base, write(h.HandleCreate))
	r.Mux.Handle("PUT "+base+"/{id}", write(h.HandleUpdate))
	r.Mux.Handle("DELETE "+base+"/{id}", write(h.HandleDelete))
	if c.Files {
		r.Mux.Handle("POST "+base+"/{id}/upload", write(h.HandleUpload))
	}
	if c.Logo {
		r.Mux.Handle("POST "+base+"/{id}/logo", write(h.HandleLogo))
	}
}

// handlePortfolio returns every collection keyed by its composite name.
func (r *Router) handlePortfolio(w http.ResponseWriter, req *http.Request) {
	out := make(map[string]any, len(Collections))
	for _, c := range Collections {
		list, err := r.RecordService.List(c.Name)
		if err != nil {
			slogx.FromContext(req.Context()).Error("portfolio aggregate failed", "collection", c.Name, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out[c.Name] = list
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
}
