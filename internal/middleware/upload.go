package middleware

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-catalog/internal/upload"
)

// ContextPoster holds the *upload.Result stored by PosterUpload.
const ContextPoster = "poster"

// PosterUpload stores the optional file in form field `field` before the
// request reaches validation, which only inspects body fields.  Requests
// that are not multipart, or carry no such file, pass through untouched.
func PosterUpload(store upload.Store, field string, maxBytes int64) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ct := c.Request().Header.Get(echo.HeaderContentType)
            if !strings.HasPrefix(strings.ToLower(ct), echo.MIMEMultipartForm) {
                return next(c)
            }
            fh, err := c.FormFile(field)
            if errors.Is(err, http.ErrMissingFile) {
                return next(c)
            }
            if err != nil {
                return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart body").SetInternal(err)
            }
            if _, err := upload.Check(fh, maxBytes); err != nil {
                return uploadError(err)
            }

            res, err := store.Save(c.Request().Context(), fh)
            if err != nil {
                return uploadError(err)
            }
            c.Set(ContextPoster, &res)
            return next(c)
        }
    }
}

// PosterFrom returns the poster stored for this request, or nil.
func PosterFrom(c echo.Context) *upload.Result {
    r, _ := c.Get(ContextPoster).(*upload.Result)
    return r
}

func uploadError(err error) error {
    switch {
    case errors.Is(err, upload.ErrTooLarge):
        return echo.NewHTTPError(http.StatusBadRequest, "Poster file is too large")
    case errors.Is(err, upload.ErrUnsupportedType):
        return echo.NewHTTPError(http.StatusBadRequest, "Poster must be a JPEG, PNG, WebP or GIF image")
    }
    return err
}
