package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-promo/internal/catalog"
	"github.com/noah-isme/backend-promo/internal/common"
	"github.com/noah-isme/backend-promo/internal/obs"
	"github.com/noah-isme/backend-promo/internal/pricing"
	"github.com/noah-isme/backend-promo/internal/promo"
	"github.com/noah-isme/backend-promo/internal/promotion"
)

var (
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCart is returned when a promotion is requested for a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// PromotionResolver turns a promotion code into a usable promotion.
type PromotionResolver interface {
	Resolve(ctx context.Context, code, city string) (promotion.Promotion, error)
}

// Locker serialises work on one key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service applies promotions to stored carts.
type Service struct {
	Store      Store
	Promotions PromotionResolver
	// Catalog resolves added gift lines. Optional.
	Catalog catalog.Lookup
	// Lock guards the load, apply and save sequence per customer. Optional.
	Lock    Locker
	Metrics *obs.PromoMetrics
	Logger  zerolog.Logger
}

const applyLockTTL = 10 * time.Second

// View is a stored cart with its pricing summary.
type View struct {
	CustomerID string               `json:"cliente_id"`
	Productos  []promo.CartLineItem `json:"productos"`
	Resumen    pricing.Summary      `json:"resumen"`
}

// ApplyInput identifies the cart and the promotion to apply.
type ApplyInput struct {
	CustomerID string
	Code       string
	City       string
}

// Outcome is the engine result plus what the service did with it.
type Outcome struct {
	Codigo string
	Result promo.Result
	// Guardado is true when the transformed cart was written back.
	Guardado bool
	// RegaloSinResolver is true when an added gift line could not be matched to a catalog product.
	RegaloSinResolver bool
}

// Get loads the customer's cart and prices it.
func (s *Service) Get(ctx context.Context, customerID string) (View, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return View{}, fmt.Errorf("customer id is required: %w", ErrInvalidInput)
	}
	items, err := s.load(ctx, customerID)
	if err != nil {
		return View{}, err
	}
	return View{CustomerID: customerID, Productos: items, Resumen: pricing.Compute(items)}, nil
}

// ApplyPromotion evaluates the promotion against the stored cart and saves the
// result when it applies. A promotion whose conditions are not met is not an
// error: the outcome carries aplicado=false and the customer-facing message.
func (s *Service) ApplyPromotion(ctx context.Context, in ApplyInput) (Outcome, error) {
	return s.run(ctx, in, true)
}

// PreviewPromotion is ApplyPromotion without writing the cart back.
func (s *Service) PreviewPromotion(ctx context.Context, in ApplyInput) (Outcome, error) {
	return s.run(ctx, in, false)
}

// Evaluate runs a rule against an arbitrary cart. Nothing is loaded or stored.
func (s *Service) Evaluate(items []promo.CartLineItem, rule promo.DiscountRule) promo.Result {
	res := promo.Apply(items, rule)
	s.Metrics.ObserveApplication(string(rule.TipoAccion), res.Motivo.String(), discountOf(res))
	return res
}

func (s *Service) run(ctx context.Context, in ApplyInput, save bool) (Outcome, error) {
	if s == nil || s.Store == nil || s.Promotions == nil {
		return Outcome{}, errors.New("cart service not configured")
	}
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.Code = strings.TrimSpace(in.Code)
	if in.CustomerID == "" || in.Code == "" {
		return Outcome{}, fmt.Errorf("customer id and code are required: %w", ErrInvalidInput)
	}
	log := s.logger(ctx).With().
		Str("customer_id", in.CustomerID).
		Str("promo_code", promotion.NormalizeCode(in.Code)).
		Bool("dry_run", !save).
		Logger()

	if !save || s.Lock == nil {
		return s.apply(ctx, log, in, save)
	}
	var out Outcome
	err := s.Lock.WithLock(ctx, "carrito:"+in.CustomerID, applyLockTTL, func(ctx context.Context) error {
		var err error
		out, err = s.apply(ctx, log, in, save)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, log zerolog.Logger, in ApplyInput, save bool) (Outcome, error) {
	items, err := s.load(ctx, in.CustomerID)
	if err != nil {
		return Outcome{}, err
	}
	if len(items) == 0 {
		return Outcome{}, ErrEmptyCart
	}
	p, err := s.Promotions.Resolve(ctx, in.Code, in.City)
	if err != nil {
		log.Info().Err(err).Msg("promotion rejected")
		return Outcome{}, err
	}

	res := promo.Apply(items, p.Rule)
	s.Metrics.ObserveApplication(string(p.Rule.TipoAccion), res.Motivo.String(), discountOf(res))
	out := Outcome{Codigo: p.Codigo, Result: res}

	if res.IsConfigError() {
		log.Error().Str("motivo", res.Motivo.String()).Str("mensaje", res.Mensaje).Msg("promotion misconfigured")
		return Outcome{}, common.NewAppError("PROMOTION_MISCONFIGURED", res.Mensaje, http.StatusBadRequest, nil).
			WithDetails(map[string]any{"codigo": p.Codigo, "motivo": res.Motivo.String()})
	}
	if !res.Aplicado {
		log.Info().Bool("aplicado", false).Str("motivo", res.Motivo.String()).Msg("promotion conditions not met")
		return out, nil
	}

	if res.ProductoAgregado {
		out.RegaloSinResolver = !s.resolveGift(ctx, log, &out.Result, p.Rule.Efecto.ProductoTargetKeywords)
	}
	if save {
		err := s.Store.Save(ctx, in.CustomerID, out.Result.Productos)
		s.Metrics.ObserveCartStore("save", err)
		if err != nil {
			return Outcome{}, err
		}
		out.Guardado = true
	}
	log.Info().
		Bool("aplicado", true).
		Str("tipo_accion", string(p.Rule.TipoAccion)).
		Str("descuento_total", discountOf(res).StringFixed(2)).
		Bool("producto_agregado", res.ProductoAgregado).
		Msg("promotion applied")
	return out, nil
}

// resolveGift fills the catalog id and name of the gift line the engine
// appended. It reports whether the product was found.
func (s *Service) resolveGift(ctx context.Context, log zerolog.Logger, res *promo.Result, targets []string) bool {
	idx := -1
	for i := len(res.Productos) - 1; i >= 0; i-- {
		if res.Productos[i].EsRegalo && !res.Productos[i].HasID() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return true
	}
	if s.Catalog == nil {
		log.Warn().Strs("keywords", targets).Msg("gift added without catalog lookup")
		return false
	}
	product, err := s.Catalog.FindByKeywords(ctx, targets)
	if err != nil {
		ev := log.Warn().Strs("keywords", targets)
		if !errors.Is(err, catalog.ErrNotFound) {
			ev = ev.Err(err)
		}
		ev.Msg("gift product not resolved")
		return false
	}
	id, err := json.Marshal(product.ID)
	if err != nil {
		return false
	}
	line := &res.Productos[idx]
	line.ID = id
	if product.Nombre != "" {
		line.Nombre = product.Nombre
	}
	return true
}

func (s *Service) load(ctx context.Context, customerID string) ([]promo.CartLineItem, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	items, err := s.Store.Load(ctx, customerID)
	s.Metrics.ObserveCartStore("load", err)
	return items, err
}

func (s *Service) logger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return s.Logger
}

func discountOf(res promo.Result) decimal.Decimal {
	if res.DescuentoTotal == nil {
		return decimal.Zero
	}
	return *res.DescuentoTotal
}
