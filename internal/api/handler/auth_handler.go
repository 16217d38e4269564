package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/service"
)

// AuthHandler exposes each role's session actions on the gateway's own
// origin, so the browser only ever talks to one host.
type AuthHandler struct {
	sessions *service.SessionFactory
}

func NewAuthHandler(sessions *service.SessionFactory) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for a session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        role  path      string        true  "Role domain"  Enums(user, shop, instructor, service-provider, admin)
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.Result
// @Failure      400   {object}  domain.Result
// @Failure      401   {object}  domain.Result
// @Failure      404   {object}  map[string]string
// @Router       /auth/{role}/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	store, err := sessionFor(c, h.sessions)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Result{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Result{Message: err.Error()})
	}

	res := store.Login(c.Request().Context(), req.Email, req.Password)
	if !res.Success {
		return c.JSON(http.StatusUnauthorized, res)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout ends the role's session. Calling it without a session succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Param        role  path      string  true  "Role domain"
// @Success      200   {object}  domain.Result
// @Failure      404   {object}  map[string]string
// @Router       /auth/{role}/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	store, err := sessionFor(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, store.Logout(c.Request().Context()))
}

// Me returns the current principal of the role, served from the principal
// cache when it holds one.
//
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Param        role  path      string  true  "Role domain"
// @Success      200   {object}  domain.Result
// @Failure      401   {object}  domain.Result
// @Failure      404   {object}  map[string]string
// @Router       /auth/{role}/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	store, err := sessionFor(c, h.sessions)
	if err != nil {
		return err
	}
	p := store.Peek(c.Request().Context())
	if p == nil {
		return c.JSON(http.StatusUnauthorized, domain.Result{Message: store.State().Error})
	}
	return c.JSON(http.StatusOK, domain.Result{Success: true, Message: "ok", Data: p})
}

// UpdateProfile changes the allowed profile fields of the current principal.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        role  path      string          true  "Role domain"
// @Param        body  body      domain.ProfileUpdate  true  "Fields to change; anything else is ignored"
// @Success      200   {object}  domain.Result
// @Failure      400   {object}  domain.Result
// @Failure      401   {object}  domain.Result
// @Failure      502   {object}  domain.Result
// @Router       /auth/{role}/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	store, err := sessionFor(c, h.sessions)
	if err != nil {
		return err
	}

	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Result{Message: "invalid payload"})
	}
	if update.Empty() {
		return c.JSON(http.StatusBadRequest, domain.Result{Message: "nothing to update"})
	}
	if err := c.Validate(&update); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Result{Message: err.Error()})
	}

	ctx := c.Request().Context()
	if st := store.Bootstrap(ctx); st.Principal == nil {
		return c.JSON(http.StatusUnauthorized, domain.Result{Message: st.Error})
	}
	res := store.UpdateProfile(ctx, update)
	if !res.Success {
		return c.JSON(http.StatusBadGateway, res)
	}
	return c.JSON(http.StatusOK, res)
}
