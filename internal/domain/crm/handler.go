package crm

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleSales, auth.RoleManager))
	g.GET("/crm/leads", h.ListLeads)
	g.POST("/crm/leads", h.CreateLead)
	g.GET("/crm/leads/:id", h.GetLead)
	g.PUT("/crm/leads/:id", h.UpdateLead)
	g.GET("/crm/dashboard", h.Dashboard)

	api.PUT("/crm/targets", h.SetTarget, auth.RequireRole(auth.RoleManager))
}

func (h *Handler) CreateLead(c echo.Context) error {
	var l Lead
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if l.SalespersonID == uuid.Nil {
		// Salespeople record their own leads by default.
		if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			l.SalespersonID = id
		}
	}
	if err := h.svc.CreateLead(c.Request().Context(), &l); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.GetLead(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) UpdateLead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var l Lead
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.UpdateLead(c.Request().Context(), &l); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLeads(c echo.Context) error {
	p := pagination.FromContext(c)
	f := LeadFilter{
		Status: c.QueryParam("status"),
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	if raw := c.QueryParam("salesperson_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid salesperson_id")
		}
		f.SalespersonID = &id
	}
	items, total, err := h.svc.ListLeads(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

// Dashboard reports the caller's month unless a manager asks for a
// specific salesperson.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	salespersonID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session subject")
	}
	if raw := c.QueryParam("salesperson_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid salesperson_id")
		}
		salespersonID = id
	}

	d, err := h.svc.Dashboard(ctx, salespersonID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": d})
}

func (h *Handler) SetTarget(c echo.Context) error {
	var t Target
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetTarget(c.Request().Context(), &t); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}
