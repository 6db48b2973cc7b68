package transfer

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
	api.POST("/transfers", h.Request)
	api.GET("/transfers", h.List)
	api.GET("/transfers/:id", h.Get)
	api.GET("/transfers/patient/:id", h.ListByPatient)
	api.POST("/transfers/:id/start", h.Start)
	api.POST("/transfers/:id/complete", h.Complete)
	api.POST("/transfers/:id/cancel", h.Cancel)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) Request(c echo.Context) error {
	var t Transfer
	if err := c.Bind(&t); err != nil {
		return apperr.JSON(c, apperr.Validationf("invalid request body"))
	}
	if err := h.svc.Request(c.Request().Context(), &t); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	status, err := ParseStatus(c.QueryParam("status"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	filter := ListFilter{Status: status}
	if hid := c.QueryParam("hospital_id"); hid != "" {
		id, err := strconv.ParseInt(hid, 10, 64)
		if err != nil {
			return apperr.JSON(c, apperr.Validationf("invalid hospital_id %q", hid))
		}
		filter.HospitalID = id
	}

	items, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

type startRequest struct {
	ApprovedBy string `json:"approved_by"`
}

func (h *Handler) Start(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var req startRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return apperr.JSON(c, apperr.Validationf("invalid request body"))
		}
	}
	t, err := h.svc.Start(c.Request().Context(), id, req.ApprovedBy)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	t, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	t, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
