package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/database"
)

const healthPingTimeout = 2 * time.Second

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports whether the service can reach its store.
// Only the database decides the overall status; the task queue is informative.
type HealthController struct {
	db           *database.Database
	version      string
	tasksEnabled bool
}

func NewHealthController(db *database.Database, version string, tasksEnabled bool) *HealthController {
	return &HealthController{
		db:           db,
		version:      version,
		tasksEnabled: tasksEnabled,
	}
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	checks := map[string]string{
		"database":   h.checkDatabase(c.Request.Context()),
		"task_queue": "disabled",
	}
	if h.tasksEnabled {
		checks["task_queue"] = "enabled"
	}

	status, code := "healthy", http.StatusOK
	if checks["database"] != "ok" && checks["database"] != "not configured" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	if h.db != nil {
		checks["driver"] = string(h.db.Driver)
	}

	c.IndentedJSON(code, HealthResponse{
		Status:  status,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	})
}

func (h *HealthController) checkDatabase(ctx context.Context) string {
	if h.db == nil {
		return "not configured"
	}

	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// Ping handles GET /ping
func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
