package http

import (
	"net/http"

	"medhead-reservation/internal/delivery/http/handler"
	"medhead-reservation/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	pageHandler         *handler.PageHandler
	formHandler         *handler.FormHandler
	specialityHandler   *handler.SpecialityHandler
	reservationHandler  *handler.ReservationHandler
	loggingMiddleware   *middleware.LoggingMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	sessionMiddleware   *middleware.SessionMiddleware
}

func NewRouter(
	pageHandler *handler.PageHandler,
	formHandler *handler.FormHandler,
	specialityHandler *handler.SpecialityHandler,
	reservationHandler *handler.ReservationHandler,
	loggingMiddleware *middleware.LoggingMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	sessionMiddleware *middleware.SessionMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		pageHandler:         pageHandler,
		formHandler:         formHandler,
		specialityHandler:   specialityHandler,
		reservationHandler:  reservationHandler,
		loggingMiddleware:   loggingMiddleware,
		corsMiddleware:      corsMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		sessionMiddleware:   sessionMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.HandleFunc("/", r.pageHandler.Index).Methods(http.MethodGet)

	// Server-rendered form (session bound)
	page := r.router.PathPrefix("/reservation").Subrouter()
	page.Use(r.sessionMiddleware.Handle)
	page.HandleFunc("", r.pageHandler.Show).Methods(http.MethodGet)
	page.HandleFunc("", r.pageHandler.Submit).Methods(http.MethodPost)
	page.HandleFunc("/select", r.pageHandler.Select).Methods(http.MethodPost)
	page.HandleFunc("/urgency", r.pageHandler.Urgency).Methods(http.MethodPost)
	page.HandleFunc("/close", r.pageHandler.Close).Methods(http.MethodPost)
	page.HandleFunc("/urgency/close", r.pageHandler.CloseUrgency).Methods(http.MethodPost)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Speciality catalog (public)
	api.HandleFunc("/specialities", r.specialityHandler.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/specialities/search", r.specialityHandler.Search).Methods(http.MethodGet)

	// Direct reservation (stateless)
	api.HandleFunc("/reservations", r.reservationHandler.CreateReservation).Methods(http.MethodPost)

	// Form routes (session bound)
	form := api.PathPrefix("/form").Subrouter()
	form.Use(r.sessionMiddleware.Handle)
	form.HandleFunc("", r.formHandler.GetForm).Methods(http.MethodGet)
	form.HandleFunc("", r.formHandler.Reset).Methods(http.MethodDelete)
	form.HandleFunc("/details", r.formHandler.UpdateDetails).Methods(http.MethodPut)
	form.HandleFunc("/input", r.formHandler.InputSpeciality).Methods(http.MethodPost)
	form.HandleFunc("/select", r.formHandler.SelectSpeciality).Methods(http.MethodPost)
	form.HandleFunc("/submit", r.formHandler.Submit).Methods(http.MethodPost)
	form.HandleFunc("/urgency", r.formHandler.ReserveInUrgency).Methods(http.MethodPost)
	form.HandleFunc("/close", r.formHandler.ClosePopup).Methods(http.MethodPost)
	form.HandleFunc("/urgency/close", r.formHandler.CloseUrgencyPopup).Methods(http.MethodPost)

	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.rateLimitMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
