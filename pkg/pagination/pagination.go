// Package pagination normalizes page/limit query parameters. Out-of-range
// values are clamped rather than rejected so a listing request never fails on
// pagination input alone.
package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used when the caller does not supply one.
	DefaultLimit = 12
	// MaxLimit is the largest page size a caller may request.
	MaxLimit = 100
)

// Params holds normalized pagination parameters.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Skip  int `json:"-"`
}

// New normalizes page and limit: page is floored at 1, limit is clamped to
// [1, MaxLimit] and defaults to DefaultLimit when zero. Page is capped so that
// Skip never overflows.
func New(page, limit int) Params {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	page = min(max(page, 1), math.MaxInt/limit)
	return Params{
		Page:  page,
		Limit: limit,
		Skip:  (page - 1) * limit,
	}
}

// FromQuery extracts "page" and "limit" from query values. Unparseable values
// fall back to their defaults.
func FromQuery(q url.Values) Params {
	return New(atoiOr(q.Get("page"), 1), atoiOr(q.Get("limit"), DefaultLimit))
}

// TotalPages returns ceil(total / limit), 0 for an empty result.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return pages
}

func atoiOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
