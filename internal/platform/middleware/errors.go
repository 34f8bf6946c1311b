package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

// ErrorResponse is the body shape for every error the API returns.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// ErrorHandler returns the central echo error handler. Domain errors carry a
// machine-readable kind that decides the HTTP status; raw echo.HTTPErrors
// keep their status; anything else is a 500 with the detail logged, not
// leaked to the client.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"
		kind := apperr.KindInternal

		switch e := err.(type) {
		case *echo.HTTPError:
			status = e.Code
			if m, ok := e.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(e.Code)
			}
			kind = kindForStatus(status)
		default:
			kind = apperr.KindOf(err)
			status = kind.HTTPStatus()
			if kind == apperr.KindInternal {
				rid, _ := c.Get("request_id").(string)
				logger.Error().Err(err).
					Str("request_id", rid).
					Str("path", c.Request().URL.Path).
					Msg("unhandled error")
			} else {
				msg = err.Error()
			}
		}

		resp := ErrorResponse{Success: false, Error: msg, Kind: kind.String()}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest:
		return apperr.KindInvalid
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	default:
		return apperr.KindInternal
	}
}
