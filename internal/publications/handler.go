package publications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/view"
)

// Handler manages publication administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, rbac: rbac}
}

// MountRoutes registers publication admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPublicationsView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPublicationsEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/publish", h.publish)
		r.Post("/{id}/archive", h.archive)
		r.Post("/{id}/restore", h.restore)
		r.Post("/{id}/delete", h.delete)
	})
}

// MountPublicRoutes registers the unauthenticated news pages.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/news", h.publicList)
	r.Get("/news/{id}", h.publicShow)
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if status := r.URL.Query().Get("status"); status != "" {
		filters["status"] = status
	}

	search := query.Search{
		Text:    r.URL.Query().Get("q"),
		Field:   "title",
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list publications failed", slog.Any("error", err))
		h.render(w, r, "pages/publications/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/publications/list.html", map[string]any{
		"Publications": result.Items,
		"Statuses":     Statuses(),
		"Pagination":   shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Query":        r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/publications/form.html", map[string]any{"Errors": formErrors{}, "Publication": nil}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.PostFormValue("title"))
	body := strings.TrimSpace(r.PostFormValue("body"))
	if errs := validateEntry(title, body); len(errs) > 0 {
		h.render(w, r, "pages/publications/form.html", map[string]any{"Errors": errs, "Publication": Publication{Title: title, Body: body}}, http.StatusBadRequest)
		return
	}
	var authorID *int64
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if uid, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			authorID = &uid
		}
	}
	if _, err := h.service.Create(r.Context(), title, body, authorID); err != nil {
		h.logger.Error("create publication", slog.Any("error", err))
		h.render(w, r, "pages/publications/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/publications", "success", "Publicación creada")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", "Publicación inválida")
		return
	}
	publication, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/publications/form.html", map[string]any{"Errors": formErrors{}, "Publication": publication}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", "Publicación inválida")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.PostFormValue("title"))
	body := strings.TrimSpace(r.PostFormValue("body"))
	if errs := validateEntry(title, body); len(errs) > 0 {
		h.render(w, r, "pages/publications/form.html", map[string]any{"Errors": errs, "Publication": Publication{ID: id, Title: title, Body: body}}, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, title, body); err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/publications", "success", "Publicación actualizada")
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish, "Publicación publicada")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Archive, "Publicación archivada")
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Restore, "Publicación restaurada")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error, okMessage string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", "Publicación inválida")
		return
	}
	if err := op(r.Context(), id); err != nil {
		if errors.Is(err, ErrBadTransition) {
			h.redirectWithFlash(w, r, "/publications", "error", "El estado actual no permite esa acción")
			return
		}
		h.redirectWithFlash(w, r, "/publications", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/publications", "success", okMessage)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", "Publicación inválida")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/publications", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/publications", "success", "Publicación eliminada")
}

func (h *Handler) publicList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.service.ListPublished(r.Context(), page, 10)
	if err != nil {
		h.logger.Error("list published", slog.Any("error", err))
		h.render(w, r, "pages/news/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/news/list.html", map[string]any{
		"Publications": result.Items,
		"Pagination":   shared.NewPagination(result.Page, result.PerPage, result.Total),
	}, http.StatusOK)
}

func (h *Handler) publicShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/news", "error", "Publicación inválida")
		return
	}
	publication, err := h.service.Get(r.Context(), id)
	if err != nil || publication.Status != StatusPublished {
		h.redirectWithFlash(w, r, "/news", "error", "No encontramos esa publicación")
		return
	}
	h.render(w, r, "pages/news/show.html", map[string]any{"Publication": publication}, http.StatusOK)
}

func validateEntry(title, body string) formErrors {
	errs := formErrors{}
	if title == "" {
		errs["Title"] = "El título es obligatorio"
	}
	if len(title) > 200 {
		errs["Title"] = "El título es demasiado largo"
	}
	if body == "" {
		errs["Body"] = "El contenido es obligatorio"
	}
	return errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Publicaciones", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
