package promotion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FileRepository serves promotions loaded once from a YAML document. The
// document is either a list of promotions or a mapping with a
// "promociones" list.
type FileRepository struct {
	byCode map[string]Promotion
}

// LoadFile reads and parses the YAML promotions file at path. Date-only
// bounds are interpreted in loc.
func LoadFile(path string, loc *time.Location) (*FileRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data, loc)
}

// ParseYAML builds a repository from a YAML document.
func ParseYAML(data []byte, loc *time.Location) (*FileRepository, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	tree, err := plain(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if m, ok := tree.(map[string]any); ok {
		tree = m["promociones"]
	}
	if tree == nil {
		tree = []any{}
	}
	// Round-trip through JSON so the file and the database share one decoder.
	encoded, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	promotions, err := decodeRecords(encoded, loc)
	if err != nil {
		return nil, err
	}
	repo := &FileRepository{byCode: make(map[string]Promotion, len(promotions))}
	for _, p := range promotions {
		if _, dup := repo.byCode[p.Codigo]; dup {
			return nil, fmt.Errorf("%w: duplicate codigo %s", ErrInvalidRecord, p.Codigo)
		}
		repo.byCode[p.Codigo] = p
	}
	return repo, nil
}

// FindByCode implements Repository.
func (r *FileRepository) FindByCode(_ context.Context, code string) (Promotion, error) {
	if r == nil {
		return Promotion{}, ErrNotFound
	}
	p, ok := r.byCode[NormalizeCode(code)]
	if !ok {
		return Promotion{}, ErrNotFound
	}
	return p, nil
}

// All returns the loaded promotions ordered by code.
func (r *FileRepository) All() []Promotion {
	if r == nil {
		return nil
	}
	out := make([]Promotion, 0, len(r.byCode))
	for _, p := range r.byCode {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out
}

// Len reports how many promotions were loaded.
func (r *FileRepository) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byCode)
}

// plain converts a YAML node into generic values. Timestamps are kept as
// their source text so date-only bounds stay local dates.
func plain(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return plain(n.Content[0])
	case yaml.AliasNode:
		return plain(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := plain(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := plain(child)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, nil
	}
}
