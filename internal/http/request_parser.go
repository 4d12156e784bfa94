package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request that no domain error describes.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads month and year, defaulting to the current ones.
// Range checks are left to the report service.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}
	var err error
	if params.Year, err = intParam(query, "year", params.Year); err != nil {
		return MonthParams{}, err
	}
	if params.Month, err = intParam(query, "month", params.Month); err != nil {
		return MonthParams{}, err
	}
	return params, nil
}

// ParseFilterSpec maps listing query parameters onto a FilterSpec.
func ParseFilterSpec(query url.Values) (core.FilterSpec, error) {
	var (
		f   core.FilterSpec
		err error
	)

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		if f.Type, err = core.ParseTransactionType(v); err != nil {
			return core.FilterSpec{}, fmt.Errorf("%w: type %q", core.ErrInvalidFilter, v)
		}
	}
	f.CategoryID = strings.TrimSpace(query.Get("categoryId"))
	f.Search = sanitizeInput(query.Get("search"))
	f.SortBy = strings.TrimSpace(query.Get("sortBy"))
	f.SortOrder = strings.TrimSpace(query.Get("sortOrder"))

	if f.Page, err = intParam(query, "page", 0); err != nil {
		return core.FilterSpec{}, err
	}
	if f.Limit, err = intParam(query, "limit", 0); err != nil {
		return core.FilterSpec{}, err
	}

	r, err := ParseDateRange(query, false)
	if err != nil {
		return core.FilterSpec{}, err
	}
	if !r.Start.IsZero() {
		f.StartDate = &r.Start
	}
	if !r.End.IsZero() {
		f.EndDate = &r.End
	}
	return f, nil
}

// ParseDateRange reads startDate and endDate. With required set both must
// be present.
func ParseDateRange(query url.Values, required bool) (core.DateRange, error) {
	var r core.DateRange
	for _, p := range []struct {
		name string
		dst  *core.Date
	}{{"startDate", &r.Start}, {"endDate", &r.End}} {
		v := strings.TrimSpace(query.Get(p.name))
		if v == "" {
			if required {
				return core.DateRange{}, fmt.Errorf("%w: %s is required", core.ErrInvalidDateRange, p.name)
			}
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, err
		}
		*p.dst = d
	}
	return r, r.Validate()
}

func intParam(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidFilter, name)
	}
	return n, nil
}

// decodeJSON reads one JSON object into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if core.IsValidationError(err) {
			return err
		}
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return badRequest("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}
