package staff

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

// Handler manages staff administration endpoints.
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

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermStaffView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermStaffEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermStaffArchive))
		r.Post("/{id}/archive", h.archive)
		r.Post("/{id}/restore", h.restore)
	})
}

type formErrors map[string]string

type employeeForm struct {
	FirstName  string `validate:"required,max=100"`
	LastName   string `validate:"required,max=100"`
	DNI        string `validate:"required,max=20"`
	Email      string `validate:"omitempty,email"`
	Phone      string `validate:"max=30"`
	Position   string `validate:"required"`
	Profession string `validate:"max=150"`
	StartDate  string `validate:"required"`
	EndDate    string `validate:"omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if pos := r.URL.Query().Get("position"); pos != "" {
		filters["position"] = pos
	}
	switch r.URL.Query().Get("archived") {
	case "1":
		filters["is_archived"] = true
	default:
		filters["is_archived"] = false
	}

	search := query.Search{
		Text:    r.URL.Query().Get("q"),
		Fields:  []string{"first_name", "lastname", "dni", "email"},
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list employees failed", slog.Any("error", err))
		h.render(w, r, "pages/staff/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/staff/list.html", map[string]any{
		"Employees":  result.Items,
		"Positions":  Positions(),
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Query":      r.URL.Query().Get("q"),
		"Archived":   r.URL.Query().Get("archived") == "1",
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", "Empleado inválido")
		return
	}
	employee, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/staff/show.html", map[string]any{"Employee": employee}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/staff/form.html", map[string]any{"Errors": formErrors{}, "Positions": Positions(), "Employee": nil}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	employee, errs := h.parseEmployee(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/staff/form.html", map[string]any{"Errors": errs, "Positions": Positions(), "Employee": employee}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Create(r.Context(), employee); err != nil {
		h.logger.Error("create employee", slog.Any("error", err))
		h.render(w, r, "pages/staff/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Positions": Positions(), "Employee": employee}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/staff", "success", "Empleado registrado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", "Empleado inválido")
		return
	}
	employee, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/staff/form.html", map[string]any{"Errors": formErrors{}, "Positions": Positions(), "Employee": employee}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", "Empleado inválido")
		return
	}
	employee, errs := h.parseEmployee(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		employee.ID = id
		h.render(w, r, "pages/staff/form.html", map[string]any{"Errors": errs, "Positions": Positions(), "Employee": employee}, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, employee); err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/staff", "success", "Empleado actualizado")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true, "Empleado archivado")
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false, "Empleado restaurado")
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool, okMessage string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/staff", "error", "Empleado inválido")
		return
	}
	var opErr error
	if archived {
		opErr = h.service.Archive(r.Context(), id)
	} else {
		opErr = h.service.Restore(r.Context(), id)
	}
	if opErr != nil {
		h.redirectWithFlash(w, r, "/staff", "error", shared.UserSafeMessage(opErr))
		return
	}
	h.redirectWithFlash(w, r, "/staff", "success", okMessage)
}

// parseEmployee returns a nil map when the request itself was malformed and
// already answered, otherwise the parsed employee with any field errors.
func (h *Handler) parseEmployee(w http.ResponseWriter, r *http.Request) (Employee, formErrors) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Employee{}, nil
	}
	form := employeeForm{
		FirstName:  r.PostFormValue("first_name"),
		LastName:   r.PostFormValue("last_name"),
		DNI:        r.PostFormValue("dni"),
		Email:      r.PostFormValue("email"),
		Phone:      r.PostFormValue("phone"),
		Position:   r.PostFormValue("position"),
		Profession: r.PostFormValue("profession"),
		StartDate:  r.PostFormValue("start_date"),
		EndDate:    r.PostFormValue("end_date"),
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
	if !ValidPosition(form.Position) {
		errs["Position"] = "Puesto desconocido"
	}

	employee := Employee{
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		DNI:        form.DNI,
		Email:      form.Email,
		Phone:      form.Phone,
		Position:   form.Position,
		Profession: form.Profession,
	}
	if form.StartDate != "" {
		start, err := time.Parse("2006-01-02", form.StartDate)
		if err != nil {
			errs["StartDate"] = "Fecha inválida"
		} else {
			employee.StartDate = start
		}
	}
	if form.EndDate != "" {
		end, err := time.Parse("2006-01-02", form.EndDate)
		if err != nil {
			errs["EndDate"] = "Fecha inválida"
		} else if end.Before(employee.StartDate) {
			errs["EndDate"] = "El egreso no puede ser anterior al ingreso"
		} else {
			employee.EndDate = &end
		}
	}
	return employee, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Personal", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
