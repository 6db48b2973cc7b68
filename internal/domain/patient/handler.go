package patient

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
	api.POST("/patients", h.Admit)
	api.GET("/patients", h.List)
	api.GET("/patients/:id", h.Get)
	api.GET("/patients/mrn/:mrn", h.GetByMRN)
	api.PUT("/patients/:id/triage", h.UpdateTriage)
	api.GET("/hospitals/:id/patients", h.ListByHospital)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) Admit(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return apperr.JSON(c, apperr.Validationf("invalid request body"))
	}
	if err := h.svc.Admit(c.Request().Context(), &p); err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByMRN(c echo.Context) error {
	p, err := h.svc.GetByMRN(c.Request().Context(), c.Param("mrn"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var filter ListFilter
	if hid := c.QueryParam("hospital_id"); hid != "" {
		id, err := strconv.ParseInt(hid, 10, 64)
		if err != nil {
			return apperr.JSON(c, apperr.Validationf("invalid hospital_id %q", hid))
		}
		filter.HospitalID = id
	}
	level, err := ParseTriageLevel(c.QueryParam("triage_level"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	filter.TriageLevel = level

	items, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByHospital(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), ListFilter{HospitalID: id}, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type triageRequest struct {
	TriageLevel string `json:"triage_level"`
}

func (h *Handler) UpdateTriage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var req triageRequest
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, apperr.Validationf("invalid request body"))
	}
	level, err := ParseTriageLevel(req.TriageLevel)
	if err != nil {
		return apperr.JSON(c, err)
	}
	p, err := h.svc.UpdateTriage(c.Request().Context(), id, level)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
