// Package handlers provides HTTP handlers for draft products.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/graph"
	"github.com/aristath/structura/internal/modules/payoff"
	"github.com/aristath/structura/internal/modules/products"
	"github.com/aristath/structura/internal/modules/schedule"
)

// Handler handles draft product HTTP requests
type Handler struct {
	service *products.Service
	log     zerolog.Logger
}

// NewHandler creates a new products handler
func NewHandler(service *products.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "products").Logger(),
	}
}

// HandleList handles GET /api/products
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to list products")
		return
	}
	h.writeData(w, http.StatusOK, summaries)
}

// HandleCreate handles POST /api/products
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req products.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "Failed to create product")
		return
	}
	h.writeData(w, http.StatusCreated, d)
}

// HandleGet handles GET /api/products/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to get product")
		return
	}
	h.writeData(w, http.StatusOK, d)
}

// HandleDelete handles DELETE /api/products/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRename handles PUT /api/products/{id}/name
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	h.respond(w, "Failed to rename product")(h.service.Rename(r.Context(), chi.URLParam(r, "id"), body.Name))
}

// HandleUpdateDates handles PUT /api/products/{id}/dates
func (h *Handler) HandleUpdateDates(w http.ResponseWriter, r *http.Request) {
	var dates schedule.ProductDates
	if !h.decode(w, r, &dates) {
		return
	}
	h.respond(w, "Failed to update dates")(h.service.UpdateDates(r.Context(), chi.URLParam(r, "id"), dates))
}

// HandleUpdateConfig handles PUT /api/products/{id}/config
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg schedule.Config
	if !h.decode(w, r, &cfg) {
		return
	}
	h.respond(w, "Failed to update schedule configuration")(h.service.UpdateConfig(r.Context(), chi.URLParam(r, "id"), cfg))
}

// HandleSetUnderlyings handles PUT /api/products/{id}/underlyings
func (h *Handler) HandleSetUnderlyings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Underlyings []string `json:"underlyings"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	h.respond(w, "Failed to set underlyings")(h.service.SetUnderlyings(r.Context(), chi.URLParam(r, "id"), body.Underlyings))
}

// HandleSetRegions handles PUT /api/products/{id}/regions
func (h *Handler) HandleSetRegions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Regions string `json:"regions"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	h.respond(w, "Failed to set holiday regions")(h.service.SetRegions(r.Context(), chi.URLParam(r, "id"), body.Regions))
}

// HandleSwitchVariant handles PUT /api/products/{id}/variant
func (h *Handler) HandleSwitchVariant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Variant string `json:"payoffVariant"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	h.respond(w, "Failed to switch payoff variant")(h.service.SwitchVariant(r.Context(), chi.URLParam(r, "id"), body.Variant))
}

// HandleUpdateParams handles PATCH /api/products/{id}/params
func (h *Handler) HandleUpdateParams(w http.ResponseWriter, r *http.Request) {
	var changes payoff.Values
	if !h.decode(w, r, &changes) {
		return
	}
	h.respond(w, "Failed to update structure parameters")(h.service.UpdateParams(r.Context(), chi.URLParam(r, "id"), changes))
}

// HandleLoadSchedule handles PUT /api/products/{id}/schedule
// Installs an externally extracted schedule and locks generation.
func (h *Handler) HandleLoadSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Periods []schedule.ObservationPeriod `json:"observationPeriods"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	h.respond(w, "Failed to load schedule")(h.service.LoadSchedule(r.Context(), chi.URLParam(r, "id"), body.Periods))
}

// HandleAddPeriod handles POST /api/products/{id}/schedule/periods
// With an observation date the row is inserted in date order, otherwise appended.
func (h *Handler) HandleAddPeriod(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ObservationDate calendar.Date `json:"observationDate"`
	}
	if r.ContentLength != 0 && !h.decode(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "id")
	if body.ObservationDate.IsZero() {
		h.respond(w, "Failed to append period")(h.service.AppendPeriod(r.Context(), id))
		return
	}
	h.respond(w, "Failed to insert period")(h.service.InsertPeriod(r.Context(), id, body.ObservationDate))
}

// HandleEditPeriod handles PATCH /api/products/{id}/schedule/periods/{index}
func (h *Handler) HandleEditPeriod(w http.ResponseWriter, r *http.Request) {
	index, ok := h.periodIndex(w, r)
	if !ok {
		return
	}
	var edit schedule.PeriodEdit
	if !h.decode(w, r, &edit) {
		return
	}
	h.respond(w, "Failed to edit period")(h.service.EditPeriod(r.Context(), chi.URLParam(r, "id"), index, edit))
}

// HandleDeletePeriod handles DELETE /api/products/{id}/schedule/periods/{index}
func (h *Handler) HandleDeletePeriod(w http.ResponseWriter, r *http.Request) {
	index, ok := h.periodIndex(w, r)
	if !ok {
		return
	}
	h.respond(w, "Failed to delete period")(h.service.DeletePeriod(r.Context(), chi.URLParam(r, "id"), index))
}

// HandleAddNode handles POST /api/products/{id}/graph/nodes
func (h *Handler) HandleAddNode(w http.ResponseWriter, r *http.Request) {
	req := products.NodeRequest{Position: -1}
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, "Failed to add graph node")(h.service.AddNode(r.Context(), chi.URLParam(r, "id"), req))
}

// HandleRemoveNode handles DELETE /api/products/{id}/graph/nodes/{nodeID}
func (h *Handler) HandleRemoveNode(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "Failed to remove graph node")(h.service.RemoveNode(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "nodeID")))
}

// HandleMoveNode handles PUT /api/products/{id}/graph/nodes/{nodeID}/position
func (h *Handler) HandleMoveNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Position int `json:"position"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	h.respond(w, "Failed to move graph node")(h.service.MoveNode(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "nodeID"), body.Position))
}

// HandleGetBundle handles GET /api/products/{id}/bundle
func (h *Handler) HandleGetBundle(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.service.Bundle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to build bundle")
		return
	}
	h.writeData(w, http.StatusOK, bundle)
}

// HandleGetReview handles GET /api/products/{id}/review
func (h *Handler) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Review(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to review product")
		return
	}
	h.writeData(w, http.StatusOK, report)
}

// HandleGetVariants handles GET /api/catalog/variants
func (h *Handler) HandleGetVariants(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, payoff.Catalog())
}

// HandleGetNodeTypes handles GET /api/catalog/node-types
func (h *Handler) HandleGetNodeTypes(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"types":   graph.Types(),
		"columns": graph.Columns,
	})
}

func (h *Handler) respond(w http.ResponseWriter, failure string) func(*products.Draft, error) {
	return func(d *products.Draft, err error) {
		if err != nil {
			h.writeError(w, err, failure)
			return
		}
		h.writeData(w, http.StatusOK, d)
	}
}

func (h *Handler) periodIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid period index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, products.ErrNotFound), errors.Is(err, graph.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, products.ErrNotGeneric), errors.Is(err, graph.ErrDefaultNode),
		errors.Is(err, schedule.ErrDuplicateDate), errors.Is(err, schedule.ErrNoSchedule):
		return http.StatusConflict
	case errors.Is(err, products.ErrInvalidInput), errors.Is(err, graph.ErrInvalidNode),
		errors.Is(err, graph.ErrNotCondition), errors.Is(err, schedule.ErrPeriodOutOfRange),
		errors.Is(err, schedule.ErrNoAnchorDate), errors.Is(err, payoff.ErrUnknownVariant):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error, failure string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg(failure)
		http.Error(w, failure, status)
		return
	}
	h.log.Debug().Err(err).Int("status", status).Msg(failure)
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
