package data

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/gridwar/server/internal/component"
	"gopkg.in/yaml.v3"
)

//go:embed pieces.yaml
var defaultPiecesYAML []byte

// MeleeTemplate is the melee stat block of a piece.
type MeleeTemplate struct {
	Power int `yaml:"power"`
	Cost  int `yaml:"cost"`
}

// SplashOffset is one splash cell relative to the target.
type SplashOffset struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// RangeTemplate is the ranged stat block of a piece.
type RangeTemplate struct {
	Power  int            `yaml:"power"`
	Min    int            `yaml:"min"`
	Max    int            `yaml:"max"`
	Cost   int            `yaml:"cost"`
	Splash []SplashOffset `yaml:"splash"`
}

// PieceTemplate holds static data for a piece type loaded from YAML.
// Nil Melee/Range and zero Movement mean the piece lacks that component.
type PieceTemplate struct {
	Type        string         `yaml:"type"`
	Health      int            `yaml:"health"`
	Movement    int            `yaml:"movement"`
	MotionCost  int            `yaml:"motion_cost"`
	Melee       *MeleeTemplate `yaml:"melee"`
	Range       *RangeTemplate `yaml:"range"`
	RangeImmune bool           `yaml:"range_immune"`
}

// SplashOffsets converts the YAML offsets to component offsets.
func (r *RangeTemplate) SplashOffsets() []component.Offset {
	out := make([]component.Offset, 0, len(r.Splash))
	for _, s := range r.Splash {
		out = append(out, component.Offset{DRow: s.Row, DCol: s.Col})
	}
	return out
}

type pieceListFile struct {
	Pieces []PieceTemplate `yaml:"pieces"`
}

// PieceTable holds all piece templates indexed by type.
type PieceTable struct {
	templates map[component.PieceType]*PieceTemplate
}

// DefaultPieceTable returns the built-in stat blocks.
func DefaultPieceTable() *PieceTable {
	t, err := ParsePieceTable(defaultPiecesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded pieces.yaml: %v", err))
	}
	return t
}

// LoadPieceTable loads piece templates from a YAML file.
func LoadPieceTable(path string) (*PieceTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read piece list: %w", err)
	}
	t, err := ParsePieceTable(raw)
	if err != nil {
		return nil, fmt.Errorf("piece list %s: %w", path, err)
	}
	return t, nil
}

// ParsePieceTable decodes and validates a piece list document.
func ParsePieceTable(raw []byte) (*PieceTable, error) {
	var f pieceListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse piece list: %w", err)
	}
	t := &PieceTable{templates: make(map[component.PieceType]*PieceTemplate, len(f.Pieces))}
	for i := range f.Pieces {
		p := &f.Pieces[i]
		pt, err := component.ParsePieceType(p.Type)
		if err != nil {
			return nil, err
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("piece %s: %w", p.Type, err)
		}
		if _, dup := t.templates[pt]; dup {
			return nil, fmt.Errorf("piece %s defined twice", p.Type)
		}
		t.templates[pt] = p
	}
	return t, nil
}

func (p *PieceTemplate) validate() error {
	if p.Health <= 0 {
		return fmt.Errorf("health must be positive, got %d", p.Health)
	}
	if p.Movement < 0 {
		return fmt.Errorf("movement must not be negative, got %d", p.Movement)
	}
	if p.Melee != nil && p.Melee.Power < 0 {
		return fmt.Errorf("melee power must not be negative, got %d", p.Melee.Power)
	}
	if r := p.Range; r != nil {
		if r.Power < 0 {
			return fmt.Errorf("range power must not be negative, got %d", r.Power)
		}
		// Distance 0 is the piece's own cell.
		if r.Min < 1 || r.Max < r.Min {
			return fmt.Errorf("invalid range window [%d, %d]", r.Min, r.Max)
		}
	}
	return nil
}

// Get returns a template by type, or nil if not found.
func (t *PieceTable) Get(pt component.PieceType) *PieceTemplate {
	return t.templates[pt]
}

// Count returns the number of loaded templates.
func (t *PieceTable) Count() int {
	return len(t.templates)
}
