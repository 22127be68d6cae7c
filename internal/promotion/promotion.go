package promotion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/noah-isme/backend-promo/internal/promo"
)

var (
	// ErrNotFound is returned when no promotion carries the requested code.
	ErrNotFound = errors.New("promotion not found")
	// ErrInactive is returned for disabled promotions and those whose window has not opened.
	ErrInactive = errors.New("promotion not active")
	// ErrExpired is returned once the promotion window has closed.
	ErrExpired = errors.New("promotion expired")
	// ErrCityNotEligible is returned when the promotion is restricted to other cities.
	ErrCityNotEligible = errors.New("promotion not available in city")
	// ErrInvalidRecord is returned when a stored promotion cannot be decoded.
	ErrInvalidRecord = errors.New("promotion record invalid")
)

// Promotion is a discount rule plus the constraints on when and where it may be used.
type Promotion struct {
	Codigo      string
	Descripcion string
	Rule        promo.DiscountRule
	FechaInicio *time.Time
	FechaFin    *time.Time
	Ciudades    []string
	Activo      bool
}

// Validate reports whether the promotion can be used at now by a customer in city.
func (p Promotion) Validate(now time.Time, city string) error {
	if !p.Activo {
		return ErrInactive
	}
	if p.FechaInicio != nil && now.Before(*p.FechaInicio) {
		return ErrInactive
	}
	if p.FechaFin != nil && now.After(*p.FechaFin) {
		return ErrExpired
	}
	if len(p.Ciudades) > 0 && !containsCity(p.Ciudades, city) {
		return ErrCityNotEligible
	}
	return nil
}

func containsCity(cities []string, city string) bool {
	city = normalizeCity(city)
	if city == "" {
		return false
	}
	for _, c := range cities {
		if normalizeCity(c) == city {
			return true
		}
	}
	return false
}

func normalizeCity(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeCode is the lookup form of a promotion code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository finds promotions by code. Implementations match codes case-insensitively.
type Repository interface {
	FindByCode(ctx context.Context, code string) (Promotion, error)
}

// Service resolves promotion codes into usable promotions.
type Service struct {
	Repo Repository
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Resolve looks up code and checks it against the current time and city.
func (s *Service) Resolve(ctx context.Context, code, city string) (Promotion, error) {
	if s == nil || s.Repo == nil {
		return Promotion{}, errors.New("promotion service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Promotion{}, ErrNotFound
	}
	p, err := s.Repo.FindByCode(ctx, normalized)
	if err != nil {
		return Promotion{}, err
	}
	if err := p.Validate(s.now(), city); err != nil {
		return Promotion{}, err
	}
	return p, nil
}
