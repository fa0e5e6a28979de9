package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/structura/internal/modules/calendar"
)

func setupRouter() chi.Router {
	handler := NewHandler(calendar.RegionSet{calendar.RegionUS, calendar.RegionEU}, zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func get(t *testing.T, router chi.Router, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		return w, nil
	}
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response["metadata"])
	return w, response["data"].(map[string]interface{})
}

func TestHandleGetHolidays(t *testing.T) {
	router := setupRouter()

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{"EU 2025", "?region=EU&year=2025", http.StatusOK, 6},
		{"US 2025", "?region=us&year=2025", http.StatusOK, 10},
		{"unknown region", "?region=XX&year=2025", http.StatusBadRequest, 0},
		{"bad year", "?region=US&year=abc", http.StatusBadRequest, 0},
		{"year out of range", "?region=US&year=1200", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, data := get(t, router, "/api/calendar/holidays"+tt.query)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Len(t, data["holidays"], tt.expectedCount)
				assert.Equal(t, float64(2025), data["year"])
			}
		})
	}
}

func TestHandleGetHolidays_DefaultRegions(t *testing.T) {
	router := setupRouter()

	w, data := get(t, router, "/api/calendar/holidays?year=2025")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"US", "EU"}, data["regions"])

	holidays := data["holidays"].([]interface{})
	first := holidays[0].(map[string]interface{})
	assert.Equal(t, "2025-01-01", first["date"])
}

func TestHandleAdjust(t *testing.T) {
	router := setupRouter()

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		adjusted       string
		businessDay    bool
	}{
		{"business day unchanged", "?date=2025-04-15", http.StatusOK, "2025-04-15", true},
		{"weekend rolls to monday", "?date=2025-03-15", http.StatusOK, "2025-03-17", false},
		{"christmas under US and EU", "?date=2025-12-25", http.StatusOK, "2025-12-29", false},
		{"christmas under US only", "?date=2025-12-25&regions=US", http.StatusOK, "2025-12-26", false},
		{"easter monday under EU", "?date=2025-04-18&regions=EU", http.StatusOK, "2025-04-22", false},
		{"missing date", "", http.StatusBadRequest, "", false},
		{"malformed date", "?date=15/04/2025", http.StatusBadRequest, "", false},
		{"unknown region", "?date=2025-04-15&regions=ZZ", http.StatusBadRequest, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, data := get(t, router, "/api/calendar/adjust"+tt.query)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.adjusted, data["adjusted"])
				assert.Equal(t, tt.businessDay, data["businessDay"])
			}
		})
	}
}

func TestHandleGetRegions(t *testing.T) {
	router := setupRouter()

	w, data := get(t, router, "/api/calendar/regions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"US", "EU", "GB", "CH"}, data["regions"])
	assert.Equal(t, []interface{}{"US", "EU"}, data["defaults"])
}
