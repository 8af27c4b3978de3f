package catalog

import (
	"errors"
	"math"
	"strconv"
)

// DefaultLimit is the page size used when the client sends none or garbage.
const DefaultLimit = 20

// Window is the {limit, offset} pair used to slice a paginated result set.
type Window struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ComputePageWindow converts raw page/limit query values into a window.
// A limit that is absent, non-numeric or not positive becomes DefaultLimit
// and is clamped to maxLimit when maxLimit > 0.  The offset is
// (page-1)*limit for a positive integer page and 0 otherwise; pages whose
// offset would overflow get math.MaxInt.
func ComputePageWindow(pageParam, limitParam string, maxLimit int) Window {
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit <= 0 {
		limit = DefaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	page, err := strconv.Atoi(pageParam)
	switch {
	case errors.Is(err, strconv.ErrRange) && page > 0, err == nil && page-1 > math.MaxInt/limit:
		// Pages past the representable range saturate, so they read as empty
		// rather than wrapping back to the start.
		offset = math.MaxInt
	case err == nil && page > 1:
		offset = (page - 1) * limit
	}
	return Window{Limit: limit, Offset: offset}
}
