package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register mounts the cart routes. applyMW wraps the write that persists a
// promotion (idempotency, rate limiting).
func Register(r chi.Router, h *Handler, applyMW ...func(http.Handler) http.Handler) {
	r.Get("/carritos/{customerID}", h.Get)
	r.With(applyMW...).Post("/carritos/{customerID}/promociones", h.ApplyPromotion)
	r.Post("/carritos/{customerID}/promociones/preview", h.PreviewPromotion)
	r.Post("/promociones/evaluar", h.Evaluate)
}
