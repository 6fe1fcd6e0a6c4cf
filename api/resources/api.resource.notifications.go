// FilePath: api/resources/api.resource.notifications.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/terrasense/hub/api/middleware"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/hubservice"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// NotificationHandlers encapsulates the notification HTTP handlers
type NotificationHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List notifications
// @Description Get the caller's raised alerts, newest first
// @Tags notifications
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.Notification
// @Router /notifications [get]
// @Security BearerAuth
func (h *NotificationHandlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	offset, limit := getPaginationParams(r)
	notifications, err := h.hubservice.ListNotifications(r.Context(), user.ID, offset, limit)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}

// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /notifications/{id}/read [post]
// @Security BearerAuth
func (h *NotificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.MarkNotificationRead(r.Context(), user.ID, vars["id"]); err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary List notification settings
// @Description Get the caller's per-reading-type threshold settings
// @Tags notifications
// @Produce json
// @Success 200 {array} models.NotificationSetting
// @Router /notifications/settings [get]
// @Security BearerAuth
func (h *NotificationHandlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	settings, err := h.hubservice.ListNotificationSettings(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// @Summary Create or replace a notification setting
// @Description Upsert the threshold setting for one reading type
// @Tags notifications
// @Accept json
// @Produce json
// @Param readingType path string true "Reading type"
// @Param setting body models.NotificationSetting true "Threshold setting"
// @Success 200 {object} models.NotificationSetting
// @Failure 400 {object} errors.APIError
// @Router /notifications/settings/{readingType} [put]
// @Security BearerAuth
func (h *NotificationHandlers) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var setting models.NotificationSetting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	// The path, not the body, names the reading type.
	setting.ReadingType = vars["readingType"]
	saved, err := h.hubservice.UpsertNotificationSetting(r.Context(), user.ID, &setting)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// @Summary Delete a notification setting
// @Tags notifications
// @Produce json
// @Param readingType path string true "Reading type"
// @Success 204 "No Content"
// @Router /notifications/settings/{readingType} [delete]
// @Security BearerAuth
func (h *NotificationHandlers) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.DeleteNotificationSetting(r.Context(), user.ID, vars["readingType"]); err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
