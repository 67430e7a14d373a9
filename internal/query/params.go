package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eion/userhub/internal/zerrors"
)

// Collection query parameter names
const (
	ParamUpdatedBefore = "updated-before"
	ParamUpdatedAfter  = "updated-after"
	ParamPage          = "page"
	ParamPageSize      = "page-size"
	ParamIsActive      = "is-active"
)

// PaginationConfig holds the page size limits established at startup
type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// accepted datetime layouts; fractional seconds are accepted by all of them
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime parses an ISO 8601 datetime. Values without a zone are UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", value)
}

// BeforeAfterFromValues builds a datetime filter on field from two optional parameters
func BeforeAfterFromValues(values url.Values, field, beforeParam, afterParam string) (BeforeAfter, error) {
	filter := BeforeAfter{Field: field}

	before, err := optionalDateTime(values, beforeParam)
	if err != nil {
		return BeforeAfter{}, err
	}
	after, err := optionalDateTime(values, afterParam)
	if err != nil {
		return BeforeAfter{}, err
	}

	filter.Before = before
	filter.After = after
	return filter, nil
}

func optionalDateTime(values url.Values, param string) (*time.Time, error) {
	raw := values.Get(param)
	if raw == "" {
		return nil, nil
	}
	t, err := ParseDateTime(raw)
	if err != nil {
		return nil, zerrors.NewValidationError(fmt.Sprintf("invalid %s: expected an ISO 8601 datetime", param), err)
	}
	return &t, nil
}

// LimitOffsetFromValues reads page and page-size, falling back to page 1 and the default limit
func LimitOffsetFromValues(values url.Values, cfg PaginationConfig) (LimitOffset, error) {
	page, err := positiveInt(values, ParamPage, 1)
	if err != nil {
		return LimitOffset{}, err
	}
	pageSize, err := positiveInt(values, ParamPageSize, cfg.DefaultLimit)
	if err != nil {
		return LimitOffset{}, err
	}
	if cfg.MaxLimit > 0 && pageSize > cfg.MaxLimit {
		return LimitOffset{}, zerrors.NewValidationError(
			fmt.Sprintf("invalid %s: must not exceed %d", ParamPageSize, cfg.MaxLimit), nil)
	}
	if page-1 > math.MaxInt/pageSize {
		return LimitOffset{}, zerrors.NewValidationError(
			fmt.Sprintf("invalid %s: offset out of range for %s %d", ParamPage, ParamPageSize, pageSize), nil)
	}

	return NewLimitOffset(page, pageSize), nil
}

func positiveInt(values url.Values, param string, def int) (int, error) {
	raw := values.Get(param)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, zerrors.NewValidationError(fmt.Sprintf("invalid %s: expected an integer", param), err)
	}
	if n < 1 {
		return 0, zerrors.NewValidationError(fmt.Sprintf("invalid %s: must be at least 1", param), nil)
	}
	return n, nil
}

// BoolFromValues reads a boolean parameter, returning def when it is absent
func BoolFromValues(values url.Values, param string, def bool) (bool, error) {
	raw := values.Get(param)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, zerrors.NewValidationError(fmt.Sprintf("invalid %s: expected a boolean", param), err)
	}
	return b, nil
}
