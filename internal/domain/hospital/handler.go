package hospital

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medcare/medcare/internal/platform/apperr"
	"github.com/medcare/medcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/hospitals", h.Register)
	api.GET("/hospitals", h.List)
	api.GET("/hospitals/:id", h.Get)
	api.GET("/hospitals/:id/stats", h.Stats)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) Register(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return apperr.JSON(c, apperr.Validationf("invalid request body"))
	}
	if err := h.svc.Register(c.Request().Context(), &hosp); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{
		State: c.QueryParam("state"),
		City:  c.QueryParam("city"),
	}
	items, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Stats(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	stats, err := h.svc.Stats(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
