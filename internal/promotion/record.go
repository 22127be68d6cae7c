package promotion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-promo/internal/promo"
)

// record is the serialised promotion shared by the YAML file and API payloads.
type record struct {
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion,omitempty"`
	promo.DiscountRule
	FechaInicio string   `json:"fecha_inicio,omitempty"`
	FechaFin    string   `json:"fecha_fin,omitempty"`
	Ciudades    []string `json:"ciudades,omitempty"`
	Activo      *bool    `json:"activo,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (r record) toPromotion(loc *time.Location) (Promotion, error) {
	code := NormalizeCode(r.Codigo)
	if code == "" {
		return Promotion{}, fmt.Errorf("%w: codigo is required", ErrInvalidRecord)
	}
	start, err := parseDate(r.FechaInicio, loc, false)
	if err != nil {
		return Promotion{}, fmt.Errorf("%w: %s fecha_inicio: %v", ErrInvalidRecord, code, err)
	}
	end, err := parseDate(r.FechaFin, loc, true)
	if err != nil {
		return Promotion{}, fmt.Errorf("%w: %s fecha_fin: %v", ErrInvalidRecord, code, err)
	}
	active := true
	if r.Activo != nil {
		active = *r.Activo
	}
	return Promotion{
		Codigo:      code,
		Descripcion: strings.TrimSpace(r.Descripcion),
		Rule:        r.DiscountRule,
		FechaInicio: start,
		FechaFin:    end,
		Ciudades:    r.Ciudades,
		Activo:      active,
	}, nil
}

// parseDate accepts RFC 3339 timestamps or local dates. A date-only end
// bound covers the whole day.
func parseDate(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" && endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("unrecognised date %q", value)
}

func decodeRecords(data []byte, loc *time.Location) ([]Promotion, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	out := make([]Promotion, 0, len(records))
	for _, r := range records {
		p, err := r.toPromotion(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
