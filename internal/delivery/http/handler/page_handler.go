package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/service"
	"medhead-reservation/internal/usecase"
	"medhead-reservation/pkg/response"
	"medhead-reservation/pkg/validator"

	"github.com/sirupsen/logrus"
)

const reservationPagePath = "/reservation"

//go:embed templates/reservation.html
var templateFS embed.FS

var reservationTemplate = template.Must(template.ParseFS(templateFS, "templates/reservation.html"))

type reservationPage struct {
	Form         *dto.FormResponse
	Specialities []string
	Errors       map[string]string
}

// PageHandler serves the server-rendered reservation form. Every POST
// redirects back to the form so a refresh never resubmits.
type PageHandler struct {
	log         *logrus.Logger
	formUsecase usecase.ReservationFormUsecase
	catalog     *service.SpecialityCatalog
	validator   *validator.CustomValidator
}

func NewPageHandler(log *logrus.Logger, formUsecase usecase.ReservationFormUsecase, catalog *service.SpecialityCatalog, validator *validator.CustomValidator) *PageHandler {
	return &PageHandler{
		log:         log,
		formUsecase: formUsecase,
		catalog:     catalog,
		validator:   validator,
	}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, reservationPagePath, http.StatusFound)
}

func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var (
		form *dto.FormResponse
		err  error
	)
	if values := r.URL.Query(); values.Has("specialite") {
		form, err = h.formUsecase.InputSpeciality(r.Context(), sessionID, values.Get("specialite"))
	} else {
		form, err = h.formUsecase.GetForm(r.Context(), sessionID)
	}
	if err != nil {
		response.InternalServerError(w, "Failed to load form")
		return
	}

	h.render(w, http.StatusOK, reservationPage{Form: form})
}

func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid form body", nil)
		return
	}

	req := dto.UpdateDetailsRequest{
		Responsable: r.PostForm.Get("responsable"),
		Qualite:     r.PostForm.Get("qualite"),
		Latitude:    parseCoordinate(r.PostForm.Get("latitude")),
		Longitude:   parseCoordinate(r.PostForm.Get("longitude")),
	}
	if err := h.validator.Validate(&req); err != nil {
		form, getErr := h.formUsecase.GetForm(r.Context(), sessionID)
		if getErr != nil {
			response.InternalServerError(w, "Failed to load form")
			return
		}
		h.render(w, http.StatusBadRequest, reservationPage{
			Form:   form,
			Errors: h.validator.FormatValidationErrors(err),
		})
		return
	}

	if _, err := h.formUsecase.UpdateDetails(r.Context(), sessionID, &req); err != nil {
		response.InternalServerError(w, "Failed to update form")
		return
	}

	specialite := r.PostForm.Get("specialite")
	if _, err := h.formUsecase.Submit(r.Context(), sessionID, &dto.SubmitFormRequest{Specialite: &specialite}); err != nil {
		if !h.recordedInForm(err) {
			response.InternalServerError(w, "Failed to submit reservation")
			return
		}
	}

	h.redirectToForm(w, r)
}

func (h *PageHandler) Select(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid form body", nil)
		return
	}

	if _, err := h.formUsecase.SelectSpeciality(r.Context(), sessionID, r.PostForm.Get("specialite")); err != nil {
		response.InternalServerError(w, "Failed to update form")
		return
	}

	h.redirectToForm(w, r)
}

func (h *PageHandler) Urgency(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.formUsecase.ReserveInUrgency(r.Context(), sessionID); err != nil {
		if !h.recordedInForm(err) {
			response.InternalServerError(w, "Failed to submit urgency reservation")
			return
		}
	}

	h.redirectToForm(w, r)
}

func (h *PageHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.formUsecase.ClosePopup(r.Context(), sessionID); err != nil {
		response.InternalServerError(w, "Failed to close popup")
		return
	}

	h.redirectToForm(w, r)
}

func (h *PageHandler) CloseUrgency(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.formUsecase.CloseUrgencyPopup(r.Context(), sessionID); err != nil {
		response.InternalServerError(w, "Failed to close popup")
		return
	}

	h.redirectToForm(w, r)
}

// recordedInForm reports whether the error is already visible in the stored
// form (alert or pending popup), so the page only needs to be shown again
func (h *PageHandler) recordedInForm(err error) bool {
	return errors.Is(err, usecase.ErrReservationPending) || errors.Is(err, usecase.ErrBackendUnavailable)
}

func (h *PageHandler) redirectToForm(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, reservationPagePath, http.StatusSeeOther)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, page reservationPage) {
	page.Specialities = h.catalog.Names()

	var buf bytes.Buffer
	if err := reservationTemplate.Execute(&buf, page); err != nil {
		h.log.Errorf("Failed to render reservation page: %+v", err)
		response.InternalServerError(w, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// parseCoordinate returns nil for a missing or malformed value so the
// required rule reports it
func parseCoordinate(raw string) *float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
