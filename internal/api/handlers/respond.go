package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/rollstitch/backend/internal/dates"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// dateRange parses optional from/to query parameters (YYYY-MM-DD)
func dateRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		if from, err = time.Parse(dates.Layout, s); err != nil {
			return from, to, err
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = time.Parse(dates.Layout, s); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

// inRange reports whether t lies in [from, to]; zero bounds are open
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
