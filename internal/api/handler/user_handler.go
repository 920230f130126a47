package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mknows/bootcamp-api/internal/api/middleware"
	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List returns a page of accounts.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (1-based)"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {object}  userListResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      429    {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	var q listUsersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	list, err := h.service.List(c.Request().Context(), domain.Page{Number: q.Page, Limit: q.Limit})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserListResponse(list))
}

// Get returns one account.
//
// @Summary      Get an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        uuid  path      string  true  "Account uuid"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{uuid} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return domain.ErrInvalidAccount
	}

	user, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// Check echoes the fingerprint and IP the server derives for this client.
//
// @Summary      Inspect client identity
// @Tags         users
// @Produce      json
// @Success      200  {object}  clientInfoResponse
// @Router       /v1/users/check [get]
func (h *UserHandler) Check(c echo.Context) error {
	info := middleware.ClientInfo(c)
	return c.JSON(http.StatusOK, clientInfoResponse{Fingerprint: info.Fingerprint, IPAddress: info.IPAddress})
}
