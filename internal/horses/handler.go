package horses

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/view"
)

// Handler manages horse administration endpoints.
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

// MountRoutes registers horse routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermHorsesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermHorsesEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermHorsesArchive))
		r.Post("/{id}/archive", h.archive)
		r.Post("/{id}/restore", h.restore)
	})
}

type formErrors map[string]string

type horseForm struct {
	Name        string `validate:"required,max=100"`
	Breed       string `validate:"max=100"`
	Coat        string `validate:"max=60"`
	Sex         string `validate:"omitempty,oneof=M F"`
	BirthDate   string `validate:"omitempty"`
	AssignedUse string `validate:"required"`
	Facility    string `validate:"max=100"`
	Notes       string `validate:"max=2000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if breed := r.URL.Query().Get("breed"); breed != "" {
		filters["breed"] = breed
	}
	if use := r.URL.Query().Get("use"); use != "" {
		filters["assigned_use"] = use
	}
	if facility := r.URL.Query().Get("facility"); facility != "" {
		filters["facility"] = facility
	}
	switch r.URL.Query().Get("archived") {
	case "1":
		filters["is_archived"] = true
	default:
		filters["is_archived"] = false
	}

	search := query.Search{
		Text:    r.URL.Query().Get("q"),
		Field:   "name",
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list horses failed", slog.Any("error", err))
		h.render(w, r, "pages/horses/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/horses/list.html", map[string]any{
		"Horses":     result.Items,
		"Uses":       Uses(),
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Query":      r.URL.Query().Get("q"),
		"Archived":   r.URL.Query().Get("archived") == "1",
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", "Caballo inválido")
		return
	}
	horse, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/horses/show.html", map[string]any{"Horse": horse}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/horses/form.html", map[string]any{"Errors": formErrors{}, "Uses": Uses(), "Horse": nil}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	horse, errs := h.parseHorse(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/horses/form.html", map[string]any{"Errors": errs, "Uses": Uses(), "Horse": horse}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Create(r.Context(), horse); err != nil {
		h.logger.Error("create horse", slog.Any("error", err))
		h.render(w, r, "pages/horses/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Uses": Uses(), "Horse": horse}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/horses", "success", "Caballo registrado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", "Caballo inválido")
		return
	}
	horse, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/horses/form.html", map[string]any{"Errors": formErrors{}, "Uses": Uses(), "Horse": horse}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", "Caballo inválido")
		return
	}
	horse, errs := h.parseHorse(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		horse.ID = id
		h.render(w, r, "pages/horses/form.html", map[string]any{"Errors": errs, "Uses": Uses(), "Horse": horse}, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, horse); err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/horses", "success", "Caballo actualizado")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true, "Caballo archivado")
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false, "Caballo restaurado")
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool, okMessage string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/horses", "error", "Caballo inválido")
		return
	}
	var opErr error
	if archived {
		opErr = h.service.Archive(r.Context(), id)
	} else {
		opErr = h.service.Restore(r.Context(), id)
	}
	if opErr != nil {
		h.redirectWithFlash(w, r, "/horses", "error", shared.UserSafeMessage(opErr))
		return
	}
	h.redirectWithFlash(w, r, "/horses", "success", okMessage)
}

func (h *Handler) parseHorse(w http.ResponseWriter, r *http.Request) (Horse, formErrors) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Horse{}, nil
	}
	form := horseForm{
		Name:        r.PostFormValue("name"),
		Breed:       r.PostFormValue("breed"),
		Coat:        r.PostFormValue("coat"),
		Sex:         r.PostFormValue("sex"),
		BirthDate:   r.PostFormValue("birth_date"),
		AssignedUse: r.PostFormValue("assigned_use"),
		Facility:    r.PostFormValue("facility"),
		Notes:       r.PostFormValue("notes"),
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
	if !ValidUse(form.AssignedUse) {
		errs["AssignedUse"] = "Destino desconocido"
	}

	horse := Horse{
		Name:        form.Name,
		Breed:       form.Breed,
		Coat:        form.Coat,
		Sex:         form.Sex,
		AssignedUse: form.AssignedUse,
		Facility:    form.Facility,
		Notes:       form.Notes,
	}
	if form.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", form.BirthDate)
		if err != nil {
			errs["BirthDate"] = "Fecha inválida"
		} else {
			horse.BirthDate = &birth
		}
	}
	return horse, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Caballos", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
