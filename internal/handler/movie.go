package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/upload"
	"github.com/iliyamo/movie-catalog/internal/validate"
)

// multipartMemory matches the limit echo uses when parsing multipart forms.
const multipartMemory = 32 << 20

// contextInput holds the model.MovieInput produced by ValidateMovie.
const contextInput = "movie_input"

// MovieHandler serves /api/movies.
type MovieHandler struct {
	Svc   *catalog.Service
	Store upload.Store // used to discard posters of rejected writes
	Log   *zap.Logger
}

func NewMovieHandler(svc *catalog.Service, store upload.Store, log *zap.Logger) *MovieHandler {
	if svc == nil || store == nil {
		panic("nil dependency passed to NewMovieHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MovieHandler{Svc: svc, Store: store, Log: log}
}

// ValidateMovie checks the write payload and stores the sanitized input for
// the next handler.  It runs after PosterUpload; a poster stored for a
// payload that fails here is removed again.
func (h *MovieHandler) ValidateMovie(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := bodyFields(c)
		if err == nil {
			var in model.MovieInput
			if in, err = validate.Movie(body); err == nil {
				c.Set(contextInput, in)
				return next(c)
			}
		}
		h.discardPoster(c)
		return err
	}
}

// Create handles POST /api/movies.
func (h *MovieHandler) Create(c echo.Context) error {
	in, _ := c.Get(contextInput).(model.MovieInput)
	m, err := h.Svc.Create(c.Request().Context(), in, middleware.PosterFrom(c))
	if err != nil {
		h.discardPoster(c)
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// List handles GET /api/movies?page=&limit=.
func (h *MovieHandler) List(c echo.Context) error {
	page, err := h.Svc.List(c.Request().Context(), c.QueryParam("page"), c.QueryParam("limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /api/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Update handles PUT /api/movies/:id.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		h.discardPoster(c)
		return err
	}
	in, _ := c.Get(contextInput).(model.MovieInput)
	m, err := h.Svc.Update(c.Request().Context(), id, in, middleware.PosterFrom(c))
	if err != nil {
		h.discardPoster(c)
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movies/:id.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Deleted successfully"})
}

func (h *MovieHandler) discardPoster(c echo.Context) {
	r := middleware.PosterFrom(c)
	if r == nil {
		return
	}
	if err := h.Store.Remove(context.WithoutCancel(c.Request().Context()), *r); err != nil {
		h.Log.Warn("discard poster failed", zap.String("kind", r.Kind.String()), zap.Error(err))
	}
}

// parseID reads :id.  Ids that cannot exist are reported as not found.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, model.ErrMovieNotFound
	}
	return id, nil
}

// bodyFields reads a form (multipart or urlencoded) or JSON object body into
// a field map.  Only the first value of a repeated form field is used.
func bodyFields(c echo.Context) (map[string]any, error) {
	req := c.Request()
	ct := strings.ToLower(req.Header.Get(echo.HeaderContentType))

	if strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		out := map[string]any{}
		dec := json.NewDecoder(req.Body)
		if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
		}
		return out, nil
	}

	out := map[string]any{}
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) && !strings.HasPrefix(ct, echo.MIMEApplicationForm) {
		return out, nil
	}
	var err error
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		err = req.ParseMultipartForm(multipartMemory)
	} else {
		err = req.ParseForm()
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form body").SetInternal(err)
	}
	// PostForm holds body fields only, never the query string.
	for k, vals := range req.PostForm {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out, nil
}
