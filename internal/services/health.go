package services

import (
	"net/http"

	goahttp "goa.design/goa/v3/http"
	"gorm.io/gorm"

	"urja/internal/database"
	"urja/internal/metrics"
)

// HealthService implements the health check endpoint.
type HealthService struct {
	name        string
	db          *gorm.DB
	mailEnabled bool
}

// NewHealthService creates a new health service
func NewHealthService(name string, db *gorm.DB, mailEnabled bool) *HealthService {
	return &HealthService{name: name, db: db, mailEnabled: mailEnabled}
}

type healthResponseBody struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Database      string `json:"database"`
	Notifications string `json:"notifications"`
}

// Mount registers GET /health on mux.
func (s *HealthService) Mount(mux goahttp.Muxer) {
	mux.Handle(http.MethodGet, "/health", s.handleCheck)
}

func (s *HealthService) handleCheck(w http.ResponseWriter, r *http.Request) {
	body := healthResponseBody{
		Status:        "healthy",
		Service:       s.name,
		Database:      "up",
		Notifications: "enabled",
	}
	if !s.mailEnabled {
		body.Notifications = "disabled"
	}
	status := http.StatusOK

	if err := database.Ping(s.db); err != nil {
		body.Status = "unhealthy"
		body.Database = "down"
		status = http.StatusServiceUnavailable
	} else if stats, err := database.Stats(s.db); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}

	writeJSON(r.Context(), w, status, body)
}
