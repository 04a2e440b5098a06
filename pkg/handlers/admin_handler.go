package handlers

import (
	"net/http"
	"time"

	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes administrative operations.
type AdminHandler struct {
	data *services.DatasetService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(data *services.DatasetService) *AdminHandler {
	return &AdminHandler{data: data}
}

// HealthCheck handles GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "stories-profit-api",
	})
}

// ReloadDatasets handles POST /api/admin/reload. The dataset cache is
// otherwise immutable for the process lifetime; this is the only way to pick
// up refreshed extracts without a restart.
func (h *AdminHandler) ReloadDatasets(c *gin.Context) {
	h.data.Reload()
	c.JSON(http.StatusOK, gin.H{"message": "Dataset cache cleared"})
}
