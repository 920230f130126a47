package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mknows/bootcamp-api/internal/api/middleware"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Profile returns the caller's profile.
//
// @Summary      Get my profile
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/account/profile/me [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	user, err := h.service.Profile(c.Request().Context(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// UpdateProfile changes the caller's display name and/or picture.
//
// @Summary      Update my profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/account/profile/me [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), middleware.Principal(c), toProfileUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// Sessions lists the caller's login sessions, current one first.
//
// @Summary      List my sessions
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/account/sessions/me [get]
func (h *AccountHandler) Sessions(c echo.Context) error {
	views, err := h.service.Sessions(c.Request().Context(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponses(views))
}
