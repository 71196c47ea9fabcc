package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/estribo-center/estribo/internal/auth"
	"github.com/estribo-center/estribo/internal/charges"
	"github.com/estribo-center/estribo/internal/horses"
	"github.com/estribo-center/estribo/internal/messages"
	"github.com/estribo-center/estribo/internal/observability"
	"github.com/estribo-center/estribo/internal/payments"
	"github.com/estribo-center/estribo/internal/platform/httpx"
	"github.com/estribo-center/estribo/internal/publications"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/riders"
	"github.com/estribo-center/estribo/internal/roles"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/staff"
	"github.com/estribo-center/estribo/internal/users"
	"github.com/estribo-center/estribo/internal/view"
	"github.com/estribo-center/estribo/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	RolesHandler        *roles.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	StaffHandler        *staff.Handler
	HorsesHandler       *horses.Handler
	RidersHandler       *riders.Handler
	ChargesHandler      *charges.Handler
	PaymentsHandler     *payments.Handler
	PublicationsHandler *publications.Handler
	MessagesHandler     *messages.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the admin panel and the
// public site.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess != nil && sess.User() != "" {
			http.Redirect(w, r, "/riders", http.StatusSeeOther)
			return
		}
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "El Estribo",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)
	r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	r.Route("/staff", params.StaffHandler.MountRoutes)
	r.Route("/horses", params.HorsesHandler.MountRoutes)
	r.Route("/riders", params.RidersHandler.MountRoutes)
	r.Route("/charges", params.ChargesHandler.MountRoutes)
	r.Route("/payments", params.PaymentsHandler.MountRoutes)
	r.Route("/publications", params.PublicationsHandler.MountRoutes)
	r.Route("/messages", params.MessagesHandler.MountRoutes)

	// Public site: news and the contact form.
	params.PublicationsHandler.MountPublicRoutes(r)
	params.MessagesHandler.MountPublicRoutes(r)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
