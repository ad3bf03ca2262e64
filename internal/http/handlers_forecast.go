package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
)

const forecastCacheKey = "forecast"

type forecastRow struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
	Note    string `json:"note,omitempty"`
}

// loadForecast returns the persisted forecast series, consulting the
// read cache first. When storage is down it serves the static default
// table so the API keeps answering.
func (s *Server) loadForecast(r *http.Request) ([]core.ForecastEntry, bool, error) {
	if entries, ok := s.forecastCache.Get(forecastCacheKey); ok {
		return entries, false, nil
	}
	entries, err := s.builder.Series(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			s.logger.Warn("serving static fallback forecast", applog.FieldError, err)
			return s.sched.DefaultForecast, true, nil
		}
		return nil, false, err
	}
	s.forecastCache.Set(forecastCacheKey, entries)
	return entries, false, nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, fallback, err := s.loadForecast(r)
	if err != nil {
		s.logger.Error("forecast read failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load forecast")
		return
	}

	rows := make([]forecastRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, forecastRow{
			Date:    e.Date.Key(),
			Balance: e.Balance.StringFixed(2),
			Note:    e.Note,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forecast": rows,
		"fallback": fallback,
	})
}

// handleBalance answers /balance/{date} where date is an ISO day or a
// compact form like "jan20".
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ref := strings.TrimPrefix(r.URL.Path, "/balance/")
	if ref == "" || strings.Contains(ref, "/") {
		writeError(w, http.StatusBadRequest, "missing date")
		return
	}

	// Exact ISO key first, compact key scan second.
	if d, err := core.ParseDay(ref); err == nil {
		entry, err := s.builder.Entry(r.Context(), d)
		if err != nil {
			s.logger.Error("balance read failed", applog.FieldError, err, applog.FieldDate, d.Key())
			writeError(w, http.StatusInternalServerError, "could not load projection")
			return
		}
		if entry == nil {
			writeError(w, http.StatusNotFound, "no projection for "+ref)
			return
		}
		writeBalance(w, ref, *entry)
		return
	}

	entries, _, err := s.loadForecast(r)
	if err != nil {
		s.logger.Error("balance read failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load projection")
		return
	}
	want := dayKey(ref)
	for _, e := range entries {
		if keyOf(e.Date) == want {
			writeBalance(w, ref, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no projection for "+ref)
}

func writeBalance(w http.ResponseWriter, ref string, e core.ForecastEntry) {
	writeJSON(w, http.StatusOK, map[string]any{
		"date":              ref,
		"projected_balance": e.Balance.StringFixed(2),
		"note":              e.Note,
	})
}

func (s *Server) handleLowPoint(w http.ResponseWriter, r *http.Request) {
	s.handleExtreme(w, r, s.builder.LowPoint)
}

func (s *Server) handleHighPoint(w http.ResponseWriter, r *http.Request) {
	s.handleExtreme(w, r, s.builder.HighPoint)
}

func (s *Server) handleExtreme(w http.ResponseWriter, r *http.Request, read func(context.Context) (*core.ForecastEntry, error)) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entry, err := read(r.Context())
	if err != nil {
		s.logger.Error("forecast extreme read failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load forecast")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "no forecast available")
		return
	}
	writeJSON(w, http.StatusOK, forecastRow{
		Date:    entry.Date.Key(),
		Balance: entry.Balance.StringFixed(2),
		Note:    entry.Note,
	})
}

func (s *Server) handleTurningPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	points, err := s.builder.Turning(r.Context())
	if err != nil {
		s.logger.Error("turning points read failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load turning points")
		return
	}

	type pointView struct {
		Date    string `json:"date"`
		Balance string `json:"balance"`
		Kind    string `json:"kind"`
	}
	views := make([]pointView, 0, len(points))
	for _, p := range points {
		views = append(views, pointView{Date: p.Date.Key(), Balance: p.Balance, Kind: p.Kind})
	}
	writeJSON(w, http.StatusOK, map[string]any{"turning_points": views})
}
