package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lautenbacher.net/goeffects/effect"
	u "lautenbacher.net/goeffects/util"
)

// StatsSource provides the counters served by GET /api/stats.
type StatsSource interface {
	Snapshot() Snapshot
}

// colorRequest is the body of POST /api/effect/color
type colorRequest struct {
	LedRGB []float64
}

// RegisterHandlers adds the effect command and stats endpoints to mux.
func RegisterHandlers(mux *http.ServeMux, sel *Selection, stats StatsSource) {
	mux.HandleFunc("POST /api/effect/next", commandHandler(sel, func(*http.Request) (*u.Trigger, error) {
		return u.NewTrigger(u.CommandNext, 0, time.Now()), nil
	}))
	mux.HandleFunc("POST /api/effect/clear", commandHandler(sel, func(*http.Request) (*u.Trigger, error) {
		return u.NewTrigger(u.CommandClear, 0, time.Now()), nil
	}))
	mux.HandleFunc("POST /api/effect/select", commandHandler(sel, func(r *http.Request) (*u.Trigger, error) {
		index, err := strconv.Atoi(r.URL.Query().Get("index"))
		if err != nil {
			return nil, fmt.Errorf("invalid index: %w", err)
		}
		return u.NewTrigger(u.CommandSelect, index, time.Now()), nil
	}))
	mux.HandleFunc("POST /api/effect/color", commandHandler(sel, func(r *http.Request) (*u.Trigger, error) {
		defer r.Body.Close()
		var req colorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		if len(req.LedRGB) != 3 {
			return nil, fmt.Errorf("LedRGB must have 3 values, got %d", len(req.LedRGB))
		}
		return u.NewTrigger(u.CommandColor, effect.ColorFromRGB(req.LedRGB).Hex(), time.Now()), nil
	}))
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats.Snapshot()); err != nil {
			slog.Error("Failed to encode stats to JSON", "error", err)
			http.Error(w, "Failed to serialize stats", http.StatusInternalServerError)
		}
	})
}

// commandHandler parses a request into a trigger and dispatches it. The
// effect switch happens on the next tick, so the answer is 202.
func commandHandler(sel *Selection, parse func(*http.Request) (*u.Trigger, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trigger, err := parse(r)
		if err != nil {
			slog.Error("Rejected effect command", "path", r.URL.Path, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := sel.Dispatch(trigger); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("Accepted effect command", "command", trigger.ID, "value", trigger.Value)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, "Command %s accepted.", trigger.ID)
	}
}
