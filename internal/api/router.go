package api

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/api/handler"
	"github.com/mknows/bootcamp-api/internal/api/middleware"
	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/redis"
)

// Dependencies are the services the API routes are served from.
type Dependencies struct {
	Auth     ports.AuthService
	Accounts ports.AccountService
	Users    ports.UserService
	Gate     ports.Authenticator
	Limiter  ports.RateLimiter
	Log      zerolog.Logger
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

// RegisterRoutes mounts the /v1 API on e.
func RegisterRoutes(e *echo.Echo, deps Dependencies) {
	authHandler := handler.NewAuthHandler(deps.Auth, deps.SecureCookie)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	userHandler := handler.NewUserHandler(deps.Users)

	gate := middleware.Auth(deps.Gate)
	defaultLimit := middleware.RateLimit(deps.Limiter, redis.PolicyDefault, deps.Log)
	verificationLimit := middleware.RateLimit(deps.Limiter, redis.PolicyEmailVerification, deps.Log)

	v1 := e.Group("/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, gate)
	auth.POST("/verify", authHandler.Verify, verificationLimit)
	auth.POST("/verify/resend", authHandler.ResendVerification, verificationLimit)

	// --- Account routes (own account) ---
	account := v1.Group("/account", gate)
	account.GET("/profile/me", accountHandler.Profile)
	account.PUT("/profile/me", accountHandler.UpdateProfile)
	account.GET("/sessions/me", accountHandler.Sessions)

	// --- User administration ---
	users := v1.Group("/users")
	users.GET("/check", userHandler.Check)
	users.GET("", userHandler.List, gate, middleware.AuthorizedRoles(domain.RoleAdmin), defaultLimit)
	users.GET("/:uuid", userHandler.Get, gate, middleware.AuthorizedRoles(domain.RoleAdmin))
}
