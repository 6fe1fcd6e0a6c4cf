package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/terrasense/hub/api/middleware"
	"github.com/terrasense/hub/api/resources"
	"github.com/terrasense/hub/internal/hubservice"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
}

func NewRouter(svc *hubservice.HubService, keycloakConfig middleware.KeycloakConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes. Edge ingestion authenticates with device credentials
	// inside the handler, not with a Keycloak session.
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	api.HandleFunc("/edge/readings", r.resources.Ingest.RecordReading).Methods(http.MethodPost)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Devices
	devices := protected.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("", r.resources.Devices.RegisterDevice).Methods(http.MethodPost)
	devices.HandleFunc("/validate", r.resources.Devices.ValidateDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", r.resources.Devices.GetDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/status", r.resources.Devices.GetDeviceStatus).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", r.resources.Devices.UpdateDevice).Methods(http.MethodPut)
	devices.HandleFunc("/{id}", r.resources.Devices.DeleteDevice).Methods(http.MethodDelete)

	// Readings
	readings := protected.PathPrefix("/readings").Subrouter()
	readings.HandleFunc("", r.resources.Readings.GetReadings).Methods(http.MethodGet)

	// Notifications
	notifications := protected.PathPrefix("/notifications").Subrouter()
	notifications.HandleFunc("", r.resources.Notifications.ListNotifications).Methods(http.MethodGet)
	notifications.HandleFunc("/settings", r.resources.Notifications.ListSettings).Methods(http.MethodGet)
	notifications.HandleFunc("/settings/{readingType}", r.resources.Notifications.UpsertSetting).Methods(http.MethodPut)
	notifications.HandleFunc("/settings/{readingType}", r.resources.Notifications.DeleteSetting).Methods(http.MethodDelete)
	notifications.HandleFunc("/{id}/read", r.resources.Notifications.MarkRead).Methods(http.MethodPost)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	if r.resources.HealthCheck != nil {
		r.resources.HealthCheck(w, req)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SetHealthCheck wires the server's health handler into the router.
func (r *Router) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.resources.SetHealthCheck(h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
