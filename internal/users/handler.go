package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/view"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     *rbac.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roles *rbac.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, roles: roles, templates: templates, csrf: csrf, sessions: sessions, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/toggle", h.toggleActive)
		r.Post("/{id}/delete", h.delete)
	})
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if role := r.URL.Query().Get("role"); role != "" {
		if roleID, err := strconv.ParseInt(role, 10, 64); err == nil {
			filters["role_id"] = roleID
		}
	}
	if active := r.URL.Query().Get("active"); active != "" {
		filters["is_active"] = active == "1"
	}

	search := query.Search{
		Text:    r.URL.Query().Get("q"),
		Fields:  []string{"email", "alias"},
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{
		"Users":      result.Items,
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Query":      r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
	}
	h.render(w, r, "pages/users/form.html", map[string]any{"Errors": formErrors{}, "Roles": roles, "User": nil}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleID := parseRoleID(r.PostFormValue("role_id"))
	_, err := h.service.Create(r.Context(), r.PostFormValue("email"), r.PostFormValue("alias"), r.PostFormValue("password"), roleID)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.render(w, r, "pages/users/form.html", map[string]any{"Errors": formErrors{"email": "Ese email ya está registrado"}}, http.StatusBadRequest)
			return
		}
		h.logger.Error("create user", slog.Any("error", err))
		h.render(w, r, "pages/users/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Usuario creado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Usuario inválido")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
	}
	h.render(w, r, "pages/users/form.html", map[string]any{"Errors": formErrors{}, "Roles": roles, "User": user}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Usuario inválido")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleID := parseRoleID(r.PostFormValue("role_id"))
	if err := h.service.Update(r.Context(), id, r.PostFormValue("alias"), roleID); err != nil {
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Usuario actualizado")
}

func (h *Handler) toggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Usuario inválido")
		return
	}
	user, err := h.service.ToggleActive(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSystemAdminImmutable) {
			h.redirectWithFlash(w, r, "/users", "error", "Un administrador del sistema no puede bloquearse")
			return
		}
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	msg := "Usuario bloqueado"
	if user.IsActive {
		msg = "Usuario habilitado"
	}
	h.redirectWithFlash(w, r, "/users", "success", msg)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Usuario inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Usuario eliminado")
}

func parseRoleID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Usuarios", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
