package identity

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/middleware"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc          *Service
	issuer       *auth.TokenIssuer
	secureCookie bool
}

func NewHandler(svc *Service, issuer *auth.TokenIssuer, secureCookie bool) *Handler {
	return &Handler{svc: svc, issuer: issuer, secureCookie: secureCookie}
}

// RegisterPublicRoutes mounts the endpoints reachable without a session.
func (h *Handler) RegisterPublicRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.GET("/auth/csrf", middleware.IssueCSRFHandler(h.secureCookie))
}

// RegisterRoutes mounts the session-guarded endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)
	api.POST("/auth/password", h.ChangePassword)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/staff", h.ListStaff)
	admin.POST("/staff", h.CreateStaff)
	admin.GET("/staff/:id", h.GetStaff)
	admin.PUT("/staff/:id", h.UpdateStaff)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	staff, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, err := h.issuer.Issue(staff.ID.String(), staff.FullName, staff.Roles, time.Now())
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "issue session token")
	}
	c.SetCookie(auth.SessionCookie(token, int(h.issuer.TTL().Seconds()), h.secureCookie))

	csrf, err := middleware.NewCSRFToken()
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "issue csrf token")
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.CSRFCookieName,
		Value:    csrf,
		Path:     "/",
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"staff":     staff,
		"csrfToken": csrf,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(auth.SessionCookie("", -1, h.secureCookie))
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the staff record behind the current session.
func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session subject")
	}
	staff, err := h.svc.GetStaff(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staff)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session subject")
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "password changed"})
}

type createStaffRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Phone    *string  `json:"phone"`
	Email    *string  `json:"email"`
	Roles    []string `json:"roles"`
}

func (h *Handler) CreateStaff(c echo.Context) error {
	var req createStaffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	staff := &Staff{
		Username: req.Username,
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Roles:    req.Roles,
	}
	if err := h.svc.CreateStaff(c.Request().Context(), staff, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, staff)
}

func (h *Handler) GetStaff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	staff, err := h.svc.GetStaff(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staff)
}

func (h *Handler) UpdateStaff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var staff Staff
	if err := c.Bind(&staff); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	staff.ID = id
	if err := h.svc.UpdateStaff(c.Request().Context(), &staff); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staff)
}

func (h *Handler) ListStaff(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListStaff(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
