package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mknows/bootcamp-api/internal/api/middleware"
	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	secure      bool
}

// NewAuthHandler creates the handler. secure marks the session cookie Secure.
func NewAuthHandler(authService ports.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure}
}

// Register creates a new account and e-mails a verification code.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{UUID: res.UUID.String(), Email: res.Email})
}

// Login authenticates a verified account and opens a session for this device.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Header       200   {string}  Set-Cookie  "Authorization=<token>; HttpOnly; Max-Age=<ttl>"
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   middleware.ClientInfo(c),
	})
	if err != nil {
		return err
	}

	c.SetCookie(h.cookie(res.AccessToken, int(res.ExpiresIn/time.Second)))
	return c.JSON(http.StatusOK, loginResponse{AccessToken: res.AccessToken})
}

// Logout closes the caller's session and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.Principal(c), middleware.ClientInfo(c)); err != nil {
		return err
	}

	c.SetCookie(h.cookie("", -1))
	return c.JSON(http.StatusOK, messageResponse{Message: "logout success"})
}

// Verify redeems an e-mail verification code.
//
// @Summary      Verify e-mail
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Account uuid and code"
// @Success      200   {object}  verifyResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/auth/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accountID, err := uuid.Parse(req.UUID)
	if err != nil {
		return domain.ErrInvalidAccount
	}

	email, err := h.authService.VerifyEmail(c.Request().Context(), accountID, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{Email: email})
}

// ResendVerification issues a new verification code. The response does not
// reveal whether the address is registered.
//
// @Summary      Resend verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resendRequest  true  "Account e-mail"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/auth/verify/resend [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req resendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "if the account exists and is not verified, a new code has been sent"})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
