package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medcare/medcare/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/analytics/summary", h.Summary)
	api.GET("/analytics/occupancy", h.Occupancy)
	api.GET("/analytics/triage-distribution", h.TriageDistribution)
}

func (h *Handler) Summary(c echo.Context) error {
	sum, err := h.svc.NetworkSummary(c.Request().Context())
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Handler) Occupancy(c echo.Context) error {
	pct, err := h.svc.NetworkOccupancyPercent(c.Request().Context())
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"network_occupancy_percent": pct})
}

func (h *Handler) TriageDistribution(c echo.Context) error {
	dist, err := h.svc.TriageDistribution(c.Request().Context())
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, dist)
}
