package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reports.Monthly(r.Context(), ownerOf(r), p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reports.Yearly(r.Context(), ownerOf(r), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

func (s *Server) handleDateRangeReport(w http.ResponseWriter, r *http.Request) {
	dr, err := ParseDateRange(r.URL.Query(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reports.DateRange(r.Context(), ownerOf(r), dr.Start, dr.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dr, err := ParseDateRange(q, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := s.reports.TopCategories(r.Context(), ownerOf(r), limit, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if top == nil {
		top = []core.CategoryReport{}
	}
	NewJSONResponse().Data(map[string]any{"data": top}).Write(w)
}
