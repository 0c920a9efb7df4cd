package endpoints

import (
	"cascade"
	"cascade/internal/api/handler/middleware"
	"cascade/internal/api/handler/request"
	"cascade/internal/api/handler/response"
	"cascade/internal/api/service"
	"cascade/pkg"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type alertHandler struct {
	alertService *service.AlertService
	logger       zerolog.Logger
}

func AlertHandler(router *graceful.Graceful) {
	h := &alertHandler{
		alertService: service.NewAlertService(),
		logger:       cascade.Logger,
	}
	config := cascade.GetConfig()

	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(config))
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.GET("/alerts", h.listAlerts)
		admin.POST("/alerts/resolve", h.resolveAlert)
	}
}

func (slf *alertHandler) listAlerts(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Query parameter 'companyId' is required"})
		return
	}
	includeResolved := c.Query("includeResolved") == "true"

	alerts, err := slf.alertService.ListByCompany(companyID, includeResolved)
	if err != nil {
		slf.logger.Error().Err(err).Str("companyId", companyID).Msg("Error listing alerts")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (slf *alertHandler) resolveAlert(c *gin.Context) {
	var resolveDTO request.ResolveAlertDTO
	if err := pkg.ParseAndValidate(c, &resolveDTO); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating resolve alert DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.alertService.Resolve(resolveDTO.AlertID); err != nil {
		slf.logger.Error().Err(err).Uint("alertId", resolveDTO.AlertID).Msg("Error resolving alert")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to resolve alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": resolveDTO.AlertID})
}
