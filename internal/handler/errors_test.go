package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/validate"
)

func TestErrorResponse(t *testing.T) {
	ve := &validate.Error{Details: []validate.Violation{{Message: `"title" is required`, Path: []string{"title"}, Type: "any.required"}}}

	status, body := errorResponse(fmt.Errorf("wrapped: %w", ve))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation error", body["message"])
	assert.Equal(t, ve.Details, body["details"])

	status, body = errorResponse(fmt.Errorf("find: %w", model.ErrMovieNotFound))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, echo.Map{"message": "Movie not found"}, body)

	status, body = errorResponse(echo.NewHTTPError(http.StatusBadRequest, "Poster file is too large"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Poster file is too large", body["message"])

	status, body = errorResponse(errors.New("Error 1146 (42S02): Table 'catalog.movies' doesn't exist"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, echo.Map{"message": "Internal server error"}, body)
}

func TestHTTPErrorHandlerWritesJSON(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/movies/1", nil), rec)

	HTTPErrorHandler(zap.NewNop())(model.ErrMovieNotFound, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Movie not found"}`, rec.Body.String())
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for raw, want := range map[string]error{"12": nil, "0": model.ErrMovieNotFound, "x": model.ErrMovieNotFound, "-1": model.ErrMovieNotFound} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, err := parseID(c)
		assert.ErrorIs(t, err, want, raw)
	}
}
