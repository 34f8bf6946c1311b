package dashboard

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/period"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleAccounts))
	g.GET("/dashboard", h.Overview)
	g.GET("/dashboard/session-cash", h.SessionCash)
	g.GET("/dashboard/session-cash/detailed", h.SessionCashDetailed)
	g.GET("/dashboard/session-cash/export", h.Export)
}

func (h *Handler) query(c echo.Context) (ReportQuery, error) {
	q := ReportQuery{
		Preset:       period.Preset(c.QueryParam("datePreset")),
		CustomStart:  c.QueryParam("startDate"),
		CustomEnd:    c.QueryParam("endDate"),
		DepartmentID: c.QueryParam("departmentId"),
		StaffName:    auth.UserNameFromContext(c.Request().Context()),
	}
	if raw := c.QueryParam("staffId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, echo.NewHTTPError(http.StatusBadRequest, "invalid staffId")
		}
		q.StaffID = &id
	}
	return q, nil
}

func (h *Handler) Overview(c echo.Context) error {
	overview, err := h.svc.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": overview})
}

func (h *Handler) SessionCash(c echo.Context) error {
	q, err := h.query(c)
	if err != nil {
		return err
	}
	report, err := h.svc.SessionCash(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": report})
}

func (h *Handler) SessionCashDetailed(c echo.Context) error {
	q, err := h.query(c)
	if err != nil {
		return err
	}
	report, err := h.svc.SessionCashDetailed(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": report})
}

// Export streams the detailed report as an XLSX download.
func (h *Handler) Export(c echo.Context) error {
	q, err := h.query(c)
	if err != nil {
		return err
	}
	f, err := h.svc.ExportXLSX(c.Request().Context(), q)
	if err != nil {
		return err
	}
	defer f.Close()

	filename := "session-cash-" + time.Now().Format("20060102-150405") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)

	_, err = f.WriteTo(c.Response())
	return err
}
