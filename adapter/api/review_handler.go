package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

// DefaultTrendDays is the trend window when no days parameter is given.
const DefaultTrendDays = 7

// handleGetStats handles GET /v1/stats?period=daily|weekly|monthly&date=YYYY-MM-DD
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	period := domain.PeriodDaily
	if p := r.URL.Query().Get("period"); p != "" {
		parsed, err := domain.ParsePeriod(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		period = parsed
	}
	now, ok := s.parseDate(w, r)
	if !ok {
		return
	}

	result, err := s.service.GetPeriodStats(r.Context(), queries.GetPeriodStatsQuery{Period: period, Now: now})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(result))
}

// handleGetTrend handles GET /v1/trend?days=N&date=YYYY-MM-DD
func (s *Server) handleGetTrend(w http.ResponseWriter, r *http.Request) {
	days := DefaultTrendDays
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "days must be a positive integer")
			return
		}
		if n > domain.MaxTrendDays {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("days must not exceed %d", domain.MaxTrendDays))
			return
		}
		days = n
	}
	end, ok := s.parseDate(w, r)
	if !ok {
		return
	}

	result, err := s.service.GetTrend(r.Context(), queries.GetTrendQuery{Days: days, End: end})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrendResponse(result))
}

// parseDate reads the optional date parameter; the zero time means today.
func (s *Server) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownPeriod),
		errors.Is(err, domain.ErrEmptyWindow),
		errors.Is(err, domain.ErrWindowTooLarge):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "review query failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to load task records")
	}
}
