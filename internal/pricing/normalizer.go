// Package pricing turns loosely typed product records into safe cart values.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/utafrali/electroshop/internal/domain"
)

var (
	nonNumeric  = regexp.MustCompile(`[^0-9.\-]`)
	floatPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// Normalizer converts heterogeneous inputs into finite prices and bounded
// quantities. Bad input is never an error; it falls back to a safe default
// and is logged.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer that reports fallbacks to logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Price returns v as a finite float. Finite numbers, including JSON numeric
// literals decoded as json.Number, pass through. Anything else is stringified, stripped of every character except digits, '.' and
// '-', and the longest leading float is parsed. Failure yields 0.
func (n *Normalizer) Price(v any) float64 {
	if f, ok := asFloat(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}

	var s string
	switch x := v.(type) {
	case nil:
		s = ""
	case string:
		s = x
	case json.Number:
		// Only out-of-range literals get here; like infinity they carry no price.
		s = ""
	default:
		s = fmt.Sprint(x)
	}

	cleaned := nonNumeric.ReplaceAllString(s, "")
	if m := floatPrefix.FindString(cleaned); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
	}

	level := slog.LevelWarn
	if v == nil {
		level = slog.LevelDebug
	}
	n.logger.Log(context.Background(), level, "price normalized to zero", slog.Any("input", v))
	return 0
}

// Quantity coerces v to an integer in [MinQuantity, MaxQuantity]. Missing,
// non-numeric and non-positive values become 1; fractions truncate.
func (n *Normalizer) Quantity(v any) int {
	f, ok := asFloat(v)
	if s, isString := v.(string); !ok && isString {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		ok = err == nil
		f = parsed
	}

	switch {
	case !ok || math.IsNaN(f):
		return domain.MinQuantity
	case f >= domain.MaxQuantity:
		return domain.MaxQuantity
	case f < domain.MinQuantity:
		return domain.MinQuantity
	default:
		return int(f)
	}
}

// ClampQuantity bounds q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	return min(max(q, domain.MinQuantity), domain.MaxQuantity)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
