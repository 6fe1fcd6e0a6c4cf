// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"net/http"

	"github.com/gorilla/schema"
	"github.com/terrasense/hub/api/middleware"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/hubservice"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingHandlers encapsulates the reading query HTTP handlers
type ReadingHandlers struct {
	hubservice *hubservice.HubService
}

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// @Summary Query readings
// @Description Get time-ranged readings for the caller's devices; premium-only fields are null for free-tier callers
// @Tags readings
// @Produce json
// @Param device_id query string false "Device ID or 'all'"
// @Param time_range query string false "Preset: 1h, 6h, 24h, 7d, 30d, 90d or custom"
// @Param start query string false "RFC3339 start when time_range=custom"
// @Param end query string false "RFC3339 end when time_range=custom"
// @Param limit query int false "Row limit"
// @Success 200 {array} models.Reading
// @Failure 400 {object} errors.APIError
// @Router /readings [get]
// @Security BearerAuth
func (h *ReadingHandlers) GetReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var query models.ReadingsQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	readings, err := h.hubservice.GetReadings(r.Context(), user.ID, user.Roles, query)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}
