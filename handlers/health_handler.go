package handlers

import (
	"net/http"

	"github.com/folio-site/folio-backend/services"
	"github.com/folio-site/folio-backend/types"
	"github.com/gin-gonic/gin"
)

// HealthHandler serves the probes used by the hosting platform and the
// aquarium readiness check. Responses are never cached.
type HealthHandler struct {
	healthService *services.HealthService
}

func NewHealthHandler(healthService *services.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// LivenessCheck godoc
// @Summary  Liveness probe
// @Tags     health
// @Success  200
// @Router   /health/liveness [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	noStore(c)
	c.Status(http.StatusOK)
}

// ReadinessCheck godoc
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  types.HealthCheck
// @Failure  503  {object}  types.HealthCheck
// @Router   /health/readiness [get]
// A degraded live feed still accepts feedback, so only DOWN is unready.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	noStore(c)
	health := h.healthService.CheckHealth(c.Request.Context())

	if health.Status == types.HealthStatusDown {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

// DetailedHealth godoc
// @Summary  Component health
// @Tags     health
// @Produce  json
// @Success  200  {object}  types.HealthCheck
// @Router   /health [get]
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	noStore(c)
	health := h.healthService.CheckHealth(c.Request.Context())
	c.JSON(http.StatusOK, health)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}
