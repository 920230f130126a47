package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to HTTP status codes.
//   - Renders every gate rejection as the same 401 body.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (404 from router, 405, body too large, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		// Unexpected error: log the real cause, return a generic message.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return http.StatusInternalServerError, "internal server error"
	}

	switch de.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest, de.Message
	case domain.KindConflict:
		return http.StatusConflict, de.Message
	case domain.KindUnauthorized:
		log.Debug().
			Str("reason", domain.GateReason(err)).
			Str("path", c.Path()).
			Msg("request rejected by gate")
		return http.StatusUnauthorized, domain.ErrUnauthorized.Message
	case domain.KindForbidden:
		return http.StatusForbidden, de.Message
	case domain.KindNotFound:
		return http.StatusNotFound, de.Message
	case domain.KindTooManyRequests:
		return http.StatusTooManyRequests, de.Message
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("internal error")
	return http.StatusInternalServerError, "internal server error"
}
