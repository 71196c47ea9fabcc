package charges

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

// Handler manages charge administration endpoints.
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

// MountRoutes registers charge routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermChargesView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermChargesEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

type formErrors map[string]string

type chargeForm struct {
	RiderID       string `validate:"required"`
	DateOfCharge  string `validate:"required"`
	Amount        string `validate:"required"`
	PaymentMethod string `validate:"required"`
	Concept       string `validate:"max=300"`
	ReceiptNumber string `validate:"max=40"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if method := r.URL.Query().Get("method"); method != "" {
		filters["payment_method"] = method
	}
	if from := r.URL.Query().Get("from"); from != "" {
		filters["date_from"] = from
	}
	if to := r.URL.Query().Get("to"); to != "" {
		filters["date_to"] = to
	}
	if payer := r.URL.Query().Get("payer"); payer != "" {
		filters["payer"] = payer
	}

	search := query.Search{
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list charges failed", slog.Any("error", err))
		h.render(w, r, "pages/charges/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/charges/list.html", map[string]any{
		"Charges":    result.Items,
		"Methods":    Methods(),
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Payer":      r.URL.Query().Get("payer"),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/charges/form.html", map[string]any{"Errors": formErrors{}, "Methods": Methods(), "Charge": nil}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	charge, errs := h.parseCharge(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/charges/form.html", map[string]any{"Errors": errs, "Methods": Methods(), "Charge": charge}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Create(r.Context(), charge); err != nil {
		h.logger.Error("create charge", slog.Any("error", err))
		h.render(w, r, "pages/charges/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Methods": Methods(), "Charge": charge}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/charges", "success", "Cobro registrado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/charges", "error", "Cobro inválido")
		return
	}
	charge, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/charges", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/charges/form.html", map[string]any{"Errors": formErrors{}, "Methods": Methods(), "Charge": charge}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/charges", "error", "Cobro inválido")
		return
	}
	charge, errs := h.parseCharge(w, r)
	if errs == nil {
		return
	}
	if len(errs) > 0 {
		charge.ID = id
		h.render(w, r, "pages/charges/form.html", map[string]any{"Errors": errs, "Methods": Methods(), "Charge": charge}, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, charge); err != nil {
		h.redirectWithFlash(w, r, "/charges", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/charges", "success", "Cobro actualizado")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/charges", "error", "Cobro inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/charges", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/charges", "success", "Cobro eliminado")
}

func (h *Handler) parseCharge(w http.ResponseWriter, r *http.Request) (Charge, formErrors) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Charge{}, nil
	}
	form := chargeForm{
		RiderID:       r.PostFormValue("rider_id"),
		DateOfCharge:  r.PostFormValue("date_of_charge"),
		Amount:        r.PostFormValue("amount"),
		PaymentMethod: r.PostFormValue("payment_method"),
		Concept:       r.PostFormValue("concept"),
		ReceiptNumber: r.PostFormValue("receipt_number"),
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

	charge := Charge{
		Concept:       form.Concept,
		ReceiptNumber: form.ReceiptNumber,
		PaymentMethod: form.PaymentMethod,
	}
	if form.RiderID != "" {
		riderID, err := strconv.ParseInt(form.RiderID, 10, 64)
		if err != nil || riderID <= 0 {
			errs["RiderID"] = "Jinete inválido"
		} else {
			charge.RiderID = riderID
		}
	}
	if form.DateOfCharge != "" {
		date, err := time.Parse("2006-01-02", form.DateOfCharge)
		if err != nil {
			errs["DateOfCharge"] = "Fecha inválida"
		} else {
			charge.DateOfCharge = date
		}
	}
	if form.Amount != "" {
		amount, err := strconv.ParseFloat(form.Amount, 64)
		if err != nil || amount <= 0 {
			errs["Amount"] = "Importe inválido"
		} else {
			charge.Amount = amount
		}
	}
	if !ValidMethod(form.PaymentMethod) {
		errs["PaymentMethod"] = "Medio de pago desconocido"
	}
	return charge, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Cobros", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
