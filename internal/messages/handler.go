package messages

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/view"
)

// Handler manages the public contact form and the message inbox.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
	validate  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		rbac:      rbac,
		validate:  validator.New(),
	}
}

// MountRoutes registers the admin inbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermMessagesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermMessagesEdit))
		r.Post("/{id}/answer", h.answer)
		r.Post("/{id}/archive", h.archive)
		r.Post("/{id}/delete", h.delete)
	})
}

// MountPublicRoutes registers the unauthenticated contact form.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/contact", h.showContactForm)
	r.Post("/contact", h.submitContact)
}

type formErrors map[string]string

type contactForm struct {
	SenderName  string `validate:"required,max=120"`
	SenderEmail string `validate:"required,email"`
	Subject     string `validate:"required,max=200"`
	Body        string `validate:"required,max=4000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if status := r.URL.Query().Get("status"); status != "" {
		filters["status"] = status
	}

	search := query.Search{
		Text:    r.URL.Query().Get("q"),
		Fields:  []string{"sender_name", "sender_email"},
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list messages failed", slog.Any("error", err))
		h.render(w, r, "pages/messages/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/messages/list.html", map[string]any{
		"Messages":   result.Items,
		"Statuses":   Statuses(),
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Query":      r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", "Mensaje inválido")
		return
	}
	message, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/messages/show.html", map[string]any{"Message": message, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", "Mensaje inválido")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	answer := r.PostFormValue("answer")
	if answer == "" {
		h.redirectWithFlash(w, r, "/messages/"+strconv.FormatInt(id, 10), "error", "Escribí una respuesta")
		return
	}
	var answeredBy int64
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		answeredBy, _ = strconv.ParseInt(sess.User(), 10, 64)
	}
	if err := h.service.Answer(r.Context(), id, answer, answeredBy); err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/messages/"+strconv.FormatInt(id, 10), "success", "Respuesta enviada")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", "Mensaje inválido")
		return
	}
	if err := h.service.Archive(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/messages", "success", "Mensaje archivado")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", "Mensaje inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/messages", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/messages", "success", "Mensaje eliminado")
}

func (h *Handler) showContactForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/contact.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := contactForm{
		SenderName:  r.PostFormValue("name"),
		SenderEmail: r.PostFormValue("email"),
		Subject:     r.PostFormValue("subject"),
		Body:        r.PostFormValue("body"),
	}
	errs := formErrors{}
	if err := h.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = "Revisá este campo"
			}
		} else {
			errs["general"] = "Datos inválidos"
		}
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/contact.html", map[string]any{"Errors": errs, "Form": form}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Submit(r.Context(), form.SenderName, form.SenderEmail, form.Subject, form.Body); err != nil {
		h.logger.Error("submit contact message", slog.Any("error", err))
		h.render(w, r, "pages/contact.html", map[string]any{"Errors": formErrors{"general": "No pudimos enviar tu mensaje, intentá de nuevo"}, "Form": form}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/contact", "success", "¡Gracias por escribirnos! Te vamos a responder pronto")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Mensajes", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
