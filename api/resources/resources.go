// FilePath: api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/terrasense/hub/internal/hubservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Devices       *DeviceHandlers
	Ingest        *IngestHandlers
	Readings      *ReadingHandlers
	Notifications *NotificationHandlers
	HealthCheck   func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService) *Resources {
	return &Resources{
		Devices:       &DeviceHandlers{hubservice: svc},
		Ingest:        &IngestHandlers{hubservice: svc},
		Readings:      &ReadingHandlers{hubservice: svc},
		Notifications: &NotificationHandlers{hubservice: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}
