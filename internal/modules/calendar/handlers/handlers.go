// Package handlers provides HTTP handlers for holiday calendars.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/modules/calendar"
)

// Handler handles holiday calendar HTTP requests
type Handler struct {
	defaultRegions calendar.RegionSet
	log            zerolog.Logger
}

// NewHandler creates a new calendar handler. Requests without a regions
// parameter use defaultRegions.
func NewHandler(defaultRegions calendar.RegionSet, log zerolog.Logger) *Handler {
	return &Handler{
		defaultRegions: defaultRegions,
		log:            log.With().Str("handler", "calendar").Logger(),
	}
}

// RegisterRoutes registers all calendar routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/regions", h.HandleGetRegions)
		r.Get("/holidays", h.HandleGetHolidays)
		r.Get("/adjust", h.HandleAdjust)
	})
}

// HandleGetRegions handles GET /api/calendar/regions
func (h *Handler) HandleGetRegions(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, map[string]interface{}{
		"regions":  calendar.Regions(),
		"defaults": h.defaultRegions,
	})
}

// HandleGetHolidays handles GET /api/calendar/holidays?region=US,EU&year=2025
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	regions, ok := h.regions(w, r.URL.Query().Get("region"))
	if !ok {
		return
	}

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 2200 {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	holidays := calendar.Holidays(regions, year)
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	h.writeData(w, map[string]interface{}{
		"year":     year,
		"regions":  regions,
		"holidays": holidays,
	})
}

// HandleAdjust handles GET /api/calendar/adjust?date=2025-12-25&regions=US,EU
// Rolls the date forward onto the next business day.
func (h *Handler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil || date.IsZero() {
		http.Error(w, "Query parameter date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	regions, ok := h.regions(w, r.URL.Query().Get("regions"))
	if !ok {
		return
	}

	cal := calendar.New(regions)
	adjusted := cal.NextBusinessDay(date)
	h.writeData(w, map[string]interface{}{
		"date":        date,
		"adjusted":    adjusted,
		"businessDay": cal.IsBusinessDay(date),
		"rolledDays":  date.DaysUntil(adjusted),
		"regions":     regions,
	})
}

func (h *Handler) regions(w http.ResponseWriter, raw string) (calendar.RegionSet, bool) {
	if raw == "" {
		return h.defaultRegions, true
	}
	regions, err := calendar.ParseRegions(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return regions, true
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
