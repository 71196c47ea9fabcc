package payments

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

// Handler manages payment administration endpoints.
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

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPaymentsView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPaymentsEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

type formErrors map[string]string

type paymentForm struct {
	PaymentType   string `validate:"required"`
	DateOfPayment string `validate:"required"`
	Amount        string `validate:"required"`
	Beneficiary   string `validate:"required,max=200"`
	EmployeeID    string `validate:"omitempty"`
	Concept       string `validate:"max=300"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if paymentType := r.URL.Query().Get("type"); paymentType != "" {
		filters["payment_type"] = paymentType
	}
	if from := r.URL.Query().Get("from"); from != "" {
		filters["date_from"] = from
	}
	if to := r.URL.Query().Get("to"); to != "" {
		filters["date_to"] = to
	}

	search := query.Search{
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list payments failed", slog.Any("error", err))
		h.render(w, r, "pages/payments/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/payments/list.html", map[string]any{
		"Payments":   result.Items,
		"Types":      Types(),
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/payments/form.html", map[string]any{"Errors": formErrors{}, "Types": Types(), "Payment": nil}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	payment, errs := h.parsePayment(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/payments/form.html", map[string]any{"Errors": errs, "Types": Types(), "Payment": payment}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Create(r.Context(), payment); err != nil {
		h.logger.Error("create payment", slog.Any("error", err))
		h.render(w, r, "pages/payments/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Types": Types(), "Payment": payment}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/payments", "success", "Pago registrado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/payments", "error", "Pago inválido")
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/payments", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/payments/form.html", map[string]any{"Errors": formErrors{}, "Types": Types(), "Payment": payment}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/payments", "error", "Pago inválido")
		return
	}
	payment, errs := h.parsePayment(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		payment.ID = id
		h.render(w, r, "pages/payments/form.html", map[string]any{"Errors": errs, "Types": Types(), "Payment": payment}, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, payment); err != nil {
		h.redirectWithFlash(w, r, "/payments", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/payments", "success", "Pago actualizado")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/payments", "error", "Pago inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/payments", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/payments", "success", "Pago eliminado")
}

func (h *Handler) parsePayment(w http.ResponseWriter, r *http.Request) (Payment, formErrors) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Payment{}, nil
	}
	form := paymentForm{
		PaymentType:   r.PostFormValue("payment_type"),
		DateOfPayment: r.PostFormValue("date_of_payment"),
		Amount:        r.PostFormValue("amount"),
		Beneficiary:   r.PostFormValue("beneficiary"),
		EmployeeID:    r.PostFormValue("employee_id"),
		Concept:       r.PostFormValue("concept"),
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

	payment := Payment{
		PaymentType: form.PaymentType,
		Beneficiary: form.Beneficiary,
		Concept:     form.Concept,
	}
	if !ValidType(form.PaymentType) {
		errs["PaymentType"] = "Tipo de pago desconocido"
	}
	if form.DateOfPayment != "" {
		date, err := time.Parse("2006-01-02", form.DateOfPayment)
		if err != nil {
			errs["DateOfPayment"] = "Fecha inválida"
		} else {
			payment.DateOfPayment = date
		}
	}
	if form.Amount != "" {
		amount, err := strconv.ParseFloat(form.Amount, 64)
		if err != nil || amount <= 0 {
			errs["Amount"] = "Importe inválido"
		} else {
			payment.Amount = amount
		}
	}
	if form.EmployeeID != "" {
		employeeID, err := strconv.ParseInt(form.EmployeeID, 10, 64)
		if err != nil || employeeID <= 0 {
			errs["EmployeeID"] = "Empleado inválido"
		} else {
			payment.EmployeeID = &employeeID
		}
	}
	return payment, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Pagos", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
