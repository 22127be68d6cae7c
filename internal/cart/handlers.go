package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-promo/internal/common"
	"github.com/noah-isme/backend-promo/internal/lock"
	"github.com/noah-isme/backend-promo/internal/promo"
	"github.com/noah-isme/backend-promo/internal/promotion"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type applyPayload struct {
	Codigo string `json:"codigo" validate:"required,max=64"`
	Ciudad string `json:"ciudad" validate:"max=120"`
}

type evaluatePayload struct {
	Productos []promo.CartLineItem `json:"productos"`
	Regla     *promo.DiscountRule  `json:"regla" validate:"required"`
}

type applyMeta struct {
	Codigo            string `json:"codigo"`
	Guardado          bool   `json:"guardado"`
	RegaloSinResolver bool   `json:"regalo_sin_resolver,omitempty"`
}

type applyResponse struct {
	Data promo.Result `json:"data"`
	Meta applyMeta    `json:"meta"`
}

// Get returns the stored cart with its pricing summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Get(r.Context(), customerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// ApplyPromotion applies a promotion code to the stored cart.
func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, true)
}

// PreviewPromotion evaluates a promotion code against the stored cart without saving.
func (h *Handler) PreviewPromotion(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, false)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, save bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	var payload applyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeDecodeError(w, err)
		return
	}
	if err := common.ValidateStruct(h.validator(), payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	in := ApplyInput{CustomerID: customerID, Code: payload.Codigo, City: payload.Ciudad}
	var (
		out Outcome
		err error
	)
	if save {
		out, err = h.Svc.ApplyPromotion(r.Context(), in)
	} else {
		out, err = h.Svc.PreviewPromotion(r.Context(), in)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, applyResponse{
		Data: out.Result,
		Meta: applyMeta{Codigo: out.Codigo, Guardado: out.Guardado, RegaloSinResolver: out.RegaloSinResolver},
	})
}

// Evaluate runs an inline rule against an inline cart. Rule problems are
// reported in the result body rather than as an HTTP error.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload evaluatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeDecodeError(w, err)
		return
	}
	if err := common.ValidateStruct(h.validator(), payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.Evaluate(payload.Productos, *payload.Regla))
}

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "customerID")
	if err := h.validator().Var(id, "required,max=128"); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return "", false
	}
	return id, true
}

func (h *Handler) validator() *validator.Validate {
	if h.Validate == nil {
		h.Validate = common.NewValidator()
	}
	return h.Validate
}

func (h *Handler) writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
		return
	}
	common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "CART_EMPTY", "El carrito está vacío.", nil)
	case errors.Is(err, ErrCorruptCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "CART_UNREADABLE", "stored cart could not be read", nil)
	case errors.Is(err, lock.ErrNotAcquired):
		common.JSONError(w, http.StatusConflict, "CART_BUSY", "cart is being updated by another request, retry shortly", nil)
	case errors.Is(err, promotion.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PROMOTION_NOT_FOUND", "Código de promoción no válido.", nil)
	case errors.Is(err, promotion.ErrInactive):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMOTION_INACTIVE", "La promoción no está activa.", nil)
	case errors.Is(err, promotion.ErrExpired):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMOTION_EXPIRED", "La promoción ha expirado.", nil)
	case errors.Is(err, promotion.ErrCityNotEligible):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMOTION_CITY_NOT_ELIGIBLE", "La promoción no está disponible en tu ciudad.", nil)
	case errors.Is(err, promotion.ErrInvalidRecord):
		common.JSONError(w, http.StatusBadRequest, "PROMOTION_MISCONFIGURED", "La promoción está mal configurada.", nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("cart request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
