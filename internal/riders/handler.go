package riders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/view"
)

const maxDocumentSize = 15 << 20

// Handler manages rider administration endpoints, the creation wizard
// and document uploads.
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

// MountRoutes registers rider routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRidersView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/documents/{docID}/download", h.downloadDocument)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRidersEdit))
		r.Get("/new", h.startWizard)
		r.Get("/new/{token}", h.showWizardStep)
		r.Post("/new/{token}/identity", h.saveIdentity)
		r.Post("/new/{token}/health", h.saveHealth)
		r.Post("/new/{token}/confirm", h.confirmWizard)
		r.Post("/new/{token}/abandon", h.abandonWizard)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/documents", h.uploadDocument)
		r.Post("/documents/{docID}/delete", h.deleteDocument)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRidersArchive))
		r.Post("/{id}/archive", h.archive)
		r.Post("/{id}/restore", h.restore)
	})
}

type formErrors map[string]string

type identityForm struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	DNI       string `validate:"required,max=20"`
	BirthDate string `validate:"omitempty"`
	Phone     string `validate:"max=30"`
	Email     string `validate:"omitempty,email"`
	Address   string `validate:"max=200"`
}

type healthForm struct {
	HealthInsurance  string `validate:"max=150"`
	EmergencyContact string `validate:"max=150"`
	Diagnosis        string `validate:"max=2000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	filters := map[string]any{}
	if v := r.URL.Query().Get("scholarship"); v != "" {
		filters["scholarship"] = v == "1"
	}
	if v := r.URL.Query().Get("disability_cert"); v != "" {
		filters["has_disability_cert"] = v == "1"
	}
	switch r.URL.Query().Get("archived") {
	case "1":
		filters["is_archived"] = true
	default:
		filters["is_archived"] = false
	}

	search := query.Search{
		Text:    r.URL.Query().Get("q"),
		Fields:  []string{"first_name", "lastname", "dni"},
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list riders failed", slog.Any("error", err))
		h.render(w, r, "pages/riders/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/riders/list.html", map[string]any{
		"Riders":     result.Items,
		"Pagination": shared.NewPagination(result.Page, result.PerPage, result.Total),
		"Query":      r.URL.Query().Get("q"),
		"Archived":   r.URL.Query().Get("archived") == "1",
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Jinete inválido")
		return
	}
	rider, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	docs, err := h.service.Documents(r.Context(), id)
	if err != nil {
		h.logger.Error("list rider documents", slog.Any("error", err))
	}
	h.render(w, r, "pages/riders/show.html", map[string]any{
		"Rider":     rider,
		"Documents": docs,
		"DocKinds":  DocumentKinds(),
	}, http.StatusOK)
}

func (h *Handler) startWizard(w http.ResponseWriter, r *http.Request) {
	draft, err := h.service.StartDraft(r.Context())
	if err != nil {
		h.logger.Error("start rider draft", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	http.Redirect(w, r, "/riders/new/"+draft.Token.String(), http.StatusSeeOther)
}

func (h *Handler) showWizardStep(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	h.renderWizard(w, r, draft, formErrors{})
}

func (h *Handler) saveIdentity(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := identityForm{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		DNI:       r.PostFormValue("dni"),
		BirthDate: r.PostFormValue("birth_date"),
		Phone:     r.PostFormValue("phone"),
		Email:     r.PostFormValue("email"),
		Address:   r.PostFormValue("address"),
	}
	errs := h.validateForm(form)
	rd := Rider{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		DNI:       form.DNI,
		Phone:     form.Phone,
		Email:     form.Email,
		Address:   form.Address,
	}
	if form.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", form.BirthDate)
		if err != nil {
			errs["BirthDate"] = "Fecha inválida"
		} else {
			rd.BirthDate = &birth
		}
	}
	if len(errs) > 0 {
		draft.Rider = rd
		draft.Step = StepIdentity
		h.renderWizard(w, r, draft, errs)
		return
	}
	if _, err := h.service.SaveIdentity(r.Context(), draft.Token, rd); err != nil {
		h.handleDraftError(w, r, err)
		return
	}
	http.Redirect(w, r, "/riders/new/"+draft.Token.String(), http.StatusSeeOther)
}

func (h *Handler) saveHealth(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := healthForm{
		HealthInsurance:  r.PostFormValue("health_insurance"),
		EmergencyContact: r.PostFormValue("emergency_contact"),
		Diagnosis:        r.PostFormValue("diagnosis"),
	}
	errs := h.validateForm(form)
	rd := Rider{
		HealthInsurance:   form.HealthInsurance,
		EmergencyContact:  form.EmergencyContact,
		Diagnosis:         form.Diagnosis,
		Scholarship:       r.PostFormValue("scholarship") == "1",
		HasDisabilityCert: r.PostFormValue("has_disability_cert") == "1",
	}
	if len(errs) > 0 {
		draft.Rider.HealthInsurance = rd.HealthInsurance
		draft.Rider.EmergencyContact = rd.EmergencyContact
		draft.Rider.Diagnosis = rd.Diagnosis
		draft.Step = StepHealth
		h.renderWizard(w, r, draft, errs)
		return
	}
	if _, err := h.service.SaveHealth(r.Context(), draft.Token, rd); err != nil {
		h.handleDraftError(w, r, err)
		return
	}
	http.Redirect(w, r, "/riders/new/"+draft.Token.String(), http.StatusSeeOther)
}

func (h *Handler) confirmWizard(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	rider, err := h.service.Confirm(r.Context(), draft.Token)
	if err != nil {
		h.handleDraftError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/riders/"+strconv.FormatInt(rider.ID, 10), "success", "Jinete registrado")
}

func (h *Handler) abandonWizard(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := h.service.Abandon(r.Context(), draft.Token); err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/riders", "success", "Alta cancelada")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Jinete inválido")
		return
	}
	rider, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/riders/form.html", map[string]any{"Errors": formErrors{}, "Rider": rider}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Jinete inválido")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := identityForm{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		DNI:       r.PostFormValue("dni"),
		BirthDate: r.PostFormValue("birth_date"),
		Phone:     r.PostFormValue("phone"),
		Email:     r.PostFormValue("email"),
		Address:   r.PostFormValue("address"),
	}
	errs := h.validateForm(form)
	rd := Rider{
		ID:                id,
		FirstName:         form.FirstName,
		LastName:          form.LastName,
		DNI:               form.DNI,
		Phone:             form.Phone,
		Email:             form.Email,
		Address:           form.Address,
		HealthInsurance:   r.PostFormValue("health_insurance"),
		EmergencyContact:  r.PostFormValue("emergency_contact"),
		Diagnosis:         r.PostFormValue("diagnosis"),
		Scholarship:       r.PostFormValue("scholarship") == "1",
		HasDisabilityCert: r.PostFormValue("has_disability_cert") == "1",
	}
	if form.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", form.BirthDate)
		if err != nil {
			errs["BirthDate"] = "Fecha inválida"
		} else {
			rd.BirthDate = &birth
		}
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/riders/form.html", map[string]any{"Errors": errs, "Rider": rd}, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, rd); err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/riders/"+strconv.FormatInt(id, 10), "success", "Jinete actualizado")
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Jinete inválido")
		return
	}
	riderPath := "/riders/" + strconv.FormatInt(id, 10)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		h.redirectWithFlash(w, r, riderPath, "error", "El archivo supera el tamaño permitido")
		return
	}
	kind := r.PostFormValue("kind")
	if !ValidDocumentKind(kind) {
		h.redirectWithFlash(w, r, riderPath, "error", "Tipo de documento desconocido")
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		h.redirectWithFlash(w, r, riderPath, "error", "Seleccioná un archivo")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	title := r.PostFormValue("title")
	if title == "" {
		title = header.Filename
	}
	if _, err := h.service.UploadDocument(r.Context(), id, kind, title, contentType, header.Size, file); err != nil {
		h.logger.Error("upload rider document", slog.Any("error", err))
		h.redirectWithFlash(w, r, riderPath, "error", "No se pudo subir el documento, intentá de nuevo")
		return
	}
	h.redirectWithFlash(w, r, riderPath, "success", "Documento subido")
}

func (h *Handler) downloadDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.ParseInt(chi.URLParam(r, "docID"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Documento inválido")
		return
	}
	url, err := h.service.DocumentURL(r.Context(), docID)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.ParseInt(chi.URLParam(r, "docID"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Documento inválido")
		return
	}
	if err := h.service.DeleteDocument(r.Context(), docID); err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/riders", "success", "Documento eliminado")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true, "Jinete archivado")
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false, "Jinete restaurado")
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool, okMessage string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "Jinete inválido")
		return
	}
	var opErr error
	if archived {
		opErr = h.service.Archive(r.Context(), id)
	} else {
		opErr = h.service.Restore(r.Context(), id)
	}
	if opErr != nil {
		h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(opErr))
		return
	}
	h.redirectWithFlash(w, r, "/riders", "success", okMessage)
}

func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	token, err := uuid.Parse(chi.URLParam(r, "token"))
	if err != nil {
		h.redirectWithFlash(w, r, "/riders", "error", "El alta no está en curso")
		return Draft{}, false
	}
	draft, err := h.service.Draft(r.Context(), token)
	if err != nil {
		h.handleDraftError(w, r, err)
		return Draft{}, false
	}
	return draft, true
}

func (h *Handler) handleDraftError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrDraftNotFound) {
		h.redirectWithFlash(w, r, "/riders", "error", "El alta no está en curso")
		return
	}
	h.logger.Error("rider wizard", slog.Any("error", err))
	h.redirectWithFlash(w, r, "/riders", "error", shared.UserSafeMessage(err))
}

func (h *Handler) renderWizard(w http.ResponseWriter, r *http.Request, draft Draft, errs formErrors) {
	var page string
	switch draft.Step {
	case StepIdentity:
		page = "pages/riders/wizard_identity.html"
	case StepHealth:
		page = "pages/riders/wizard_health.html"
	default:
		page = "pages/riders/wizard_confirm.html"
	}
	h.render(w, r, page, map[string]any{"Errors": errs, "Draft": draft, "Token": draft.Token.String()}, http.StatusOK)
}

func (h *Handler) validateForm(form any) formErrors {
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
	return errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Jinetes y amazonas", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
