package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the product and catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Put("/name", h.HandleRename)
			r.Put("/dates", h.HandleUpdateDates)
			r.Put("/config", h.HandleUpdateConfig)
			r.Put("/underlyings", h.HandleSetUnderlyings)
			r.Put("/regions", h.HandleSetRegions)
			r.Put("/variant", h.HandleSwitchVariant)
			r.Patch("/params", h.HandleUpdateParams)
			r.Get("/bundle", h.HandleGetBundle)
			r.Get("/review", h.HandleGetReview)

			r.Put("/schedule", h.HandleLoadSchedule)
			r.Post("/schedule/periods", h.HandleAddPeriod)
			r.Patch("/schedule/periods/{index}", h.HandleEditPeriod)
			r.Delete("/schedule/periods/{index}", h.HandleDeletePeriod)

			r.Post("/graph/nodes", h.HandleAddNode)
			r.Delete("/graph/nodes/{nodeID}", h.HandleRemoveNode)
			r.Put("/graph/nodes/{nodeID}/position", h.HandleMoveNode)
		})
	})

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/variants", h.HandleGetVariants)
		r.Get("/node-types", h.HandleGetNodeTypes)
	})
}
