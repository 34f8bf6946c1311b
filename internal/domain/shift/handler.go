package shift

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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
	g := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleReception, auth.RoleAccounts))
	g.POST("/shifts/open", h.Open)
	g.POST("/shifts/:id/close", h.Close)
	g.GET("/shifts", h.List)
	g.GET("/shifts/active", h.Active)
	g.GET("/shifts/:id", h.Get)
	g.POST("/shifts/:id/payments", h.RecordPayment)
	g.POST("/shifts/:id/refunds", h.RecordRefund)

	api.POST("/shifts/:id/force-close", h.ForceClose, auth.RequireRole(auth.RoleManager))
}

type openRequest struct {
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

func (h *Handler) Open(c echo.Context) error {
	ctx := c.Request().Context()
	staffID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session subject")
	}
	var req openRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sh, err := h.svc.Open(ctx, staffID, req.OpeningCash)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sh)
}

type closeRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash"`
}

func (h *Handler) Close(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req closeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sh, err := h.svc.Close(c.Request().Context(), id, req.ClosingCash)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sh)
}

func (h *Handler) ForceClose(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sh, err := h.svc.ForceClose(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sh)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sh, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sh)
}

// Active returns the caller's open shift, if any.
func (h *Handler) Active(c echo.Context) error {
	ctx := c.Request().Context()
	staffID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session subject")
	}
	sh, err := h.svc.ActiveForStaff(ctx, staffID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sh)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)

	var staffID *uuid.UUID
	if raw := c.QueryParam("staff_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid staff_id")
		}
		staffID = &id
	}

	items, total, err := h.svc.List(c.Request().Context(), staffID, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type paymentRequest struct {
	PatientID   uuid.UUID       `json:"patient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Allocations []struct {
		ServiceChargeID uuid.UUID       `json:"service_charge_id"`
		Amount          decimal.Decimal `json:"amount"`
	} `json:"allocations"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := &Payment{
		ShiftID:   shiftID,
		PatientID: req.PatientID,
		Amount:    req.Amount,
		Method:    req.Method,
	}
	for _, a := range req.Allocations {
		p.Allocations = append(p.Allocations, &Allocation{
			ServiceChargeID: a.ServiceChargeID,
			Amount:          a.Amount,
		})
	}
	if err := h.svc.RecordPayment(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

type refundRequest struct {
	PaymentID *uuid.UUID      `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
}

func (h *Handler) RecordRefund(c echo.Context) error {
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req refundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r := &Refund{
		ShiftID:   shiftID,
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	}
	if err := h.svc.RecordRefund(c.Request().Context(), r); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}
