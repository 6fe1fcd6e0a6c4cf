// FilePath: api/resources/api.resource.ingest.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/terrasense/hub/api/middleware"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/hubservice"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// IngestHandlers encapsulates the telemetry ingestion HTTP handlers
type IngestHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Submit a sensor reading
// @Description Accept one raw sensor payload from a device, compute derived metrics and persist a reading row
// @Tags ingest
// @Accept json
// @Produce json
// @Param payload body models.IngestPayload true "Raw sensor submission"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /edge/readings [post]
// @Security BearerAuth
func (h *IngestHandlers) RecordReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	token := middleware.ExtractBearerToken(r)
	if token == "" {
		respondWithError(w, errors.NewAuthError("missing device credential", nil).WithRequestID(requestID))
		return
	}

	var payload models.IngestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	reading, err := h.hubservice.IngestReading(r.Context(), token, &payload)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"reading_id": reading.ID,
	})
}
