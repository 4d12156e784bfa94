package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestParseFilterSpec(t *testing.T) {
	q := url.Values{
		"type":       {"EXPENSE"},
		"categoryId": {" 7d3b5a52-3c1e-4a4f-9d8e-0b6f5c1f2a11 "},
		"startDate":  {"2024-01-01"},
		"endDate":    {"2024-01-31"},
		"search":     {"  rent\x00 "},
		"page":       {"2"},
		"limit":      {"25"},
		"sortBy":     {"amount"},
		"sortOrder":  {"asc"},
	}
	f, err := ParseFilterSpec(q)
	if err != nil {
		t.Fatalf("ParseFilterSpec: %v", err)
	}
	if f.Type != core.Expense || f.CategoryID != "7d3b5a52-3c1e-4a4f-9d8e-0b6f5c1f2a11" {
		t.Errorf("type/category = %q %q", f.Type, f.CategoryID)
	}
	if f.StartDate == nil || f.StartDate.String() != "2024-01-01" || f.EndDate == nil || f.EndDate.String() != "2024-01-31" {
		t.Errorf("dates = %v %v", f.StartDate, f.EndDate)
	}
	if f.Search != "rent" || f.Page != 2 || f.Limit != 25 || f.SortBy != "amount" || f.SortOrder != "asc" {
		t.Errorf("filter = %+v", f)
	}
}

func TestParseFilterSpecEmpty(t *testing.T) {
	f, err := ParseFilterSpec(url.Values{})
	if err != nil {
		t.Fatalf("ParseFilterSpec: %v", err)
	}
	if f.StartDate != nil || f.EndDate != nil || f.Page != 0 || f.Limit != 0 || f.Type != "" {
		t.Errorf("filter = %+v, want zero values", f)
	}
}

func TestParseFilterSpecErrors(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  error
	}{
		{"bad type", url.Values{"type": {"transfer"}}, core.ErrInvalidFilter},
		{"bad page", url.Values{"page": {"x"}}, core.ErrInvalidFilter},
		{"bad limit", url.Values{"limit": {"1.5"}}, core.ErrInvalidFilter},
		{"bad date", url.Values{"startDate": {"yesterday"}}, core.ErrInvalidDateRange},
		{"reversed range", url.Values{"startDate": {"2024-02-01"}, "endDate": {"2024-01-01"}}, core.ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFilterSpec(tt.query); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseDateRangeRequired(t *testing.T) {
	if _, err := ParseDateRange(url.Values{"endDate": {"2024-01-01"}}, true); !errors.Is(err, core.ErrInvalidDateRange) {
		t.Errorf("err = %v, want ErrInvalidDateRange", err)
	}
	r, err := ParseDateRange(url.Values{"startDate": {"2024-01-01"}}, false)
	if err != nil || !r.End.IsZero() || r.Start.String() != "2024-01-01" {
		t.Errorf("open range = %v, %v", r, err)
	}
}

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	p, err := ParseMonthParams(url.Values{}, now)
	if err != nil || p.Year != 2025 || p.Month != 7 {
		t.Errorf("defaults = %+v, %v", p, err)
	}
	p, err = ParseMonthParams(url.Values{"month": {"2"}, "year": {"2023"}}, now)
	if err != nil || p.Year != 2023 || p.Month != 2 {
		t.Errorf("explicit = %+v, %v", p, err)
	}
	if _, err := ParseMonthParams(url.Values{"month": {"feb"}}, now); err == nil {
		t.Error("expected error for non-numeric month")
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"a"}`, ""},
		{"trailing object", `{"name":"a"}{"name":"b"}`, "single JSON object"},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr == "" {
				if err != nil || p.Name != "a" {
					t.Errorf("decode = %+v, %v", p, err)
				}
				return
			}
			var reqErr *requestError
			if !errors.As(err, &reqErr) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want request error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":      "plain",
		"tab\there":      "tab\there",
		"nul\x00byte":    "nulbyte",
		"line\nbreak\r":  "line\nbreak",
		"\x1b[31mred\x07": "[31mred",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
