package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/validate"
)

// HTTPErrorHandler renders every error returned by a handler or middleware.
// Storage and other unexpected failures become a bare 500; their detail only
// reaches the log.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn("write error response failed", zap.Error(werr))
		}
	}
}

func errorResponse(err error) (int, echo.Map) {
	if ve, ok := validate.AsError(err); ok {
		return http.StatusBadRequest, echo.Map{"message": "Validation error", "details": ve.Details}
	}
	if errors.Is(err, model.ErrMovieNotFound) {
		return http.StatusNotFound, echo.Map{"message": "Movie not found"}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok || he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}
		return he.Code, echo.Map{"message": msg}
	}
	return http.StatusInternalServerError, echo.Map{"message": "Internal server error"}
}
