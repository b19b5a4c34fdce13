// Package catalog holds the read-only projector model and lens tables.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"projmap/internal/mathutil"
)

var (
	ErrUnknownModel = errors.New("catalog: unknown projector model")
	ErrUnknownLens  = errors.New("catalog: unknown lens")
)

//go:embed catalog.yaml
var embedded []byte

// Lens is an immutable lens description. Shift ranges are percentages of
// the projected image half-dimension.
type Lens struct {
	ID          string     `yaml:"-"`
	Name        string     `yaml:"name"`
	Brand       string     `yaml:"brand"`
	Series      string     `yaml:"series"`
	ThrowMin    float64    `yaml:"throw_min"`
	ThrowMax    float64    `yaml:"throw_max"`
	Fixed       bool       `yaml:"fixed"`
	ShiftV      [2]float64 `yaml:"shift_v"`
	ShiftH      [2]float64 `yaml:"shift_h"`
	Description string     `yaml:"description"`
}

// ClampThrow limits a throw ratio to the lens range.
func (l *Lens) ClampThrow(tr float64) float64 {
	return mathutil.Clamp(tr, l.ThrowMin, l.ThrowMax)
}

// ClampShiftV limits a vertical shift to the lens range.
func (l *Lens) ClampShiftV(v float64) float64 {
	return mathutil.Clamp(v, l.ShiftV[0], l.ShiftV[1])
}

// ClampShiftH limits a horizontal shift to the lens range.
func (l *Lens) ClampShiftH(v float64) float64 {
	return mathutil.Clamp(v, l.ShiftH[0], l.ShiftH[1])
}

// ProjectorModel describes immutable projector hardware.
type ProjectorModel struct {
	ID               string   `yaml:"-"`
	Name             string   `yaml:"name"`
	Brand            string   `yaml:"brand"`
	Series           string   `yaml:"series"`
	Lumens           float64  `yaml:"lumens"`
	Resolution       string   `yaml:"resolution"`
	ResolutionPixels [2]int   `yaml:"resolution_pixels"`
	NativeAspect     float64  `yaml:"aspect"`
	Technology       string   `yaml:"technology"`
	WeightKg         float64  `yaml:"weight_kg"`
	DefaultLens      string   `yaml:"default_lens"`
	CompatibleLenses []string `yaml:"compatible_lenses"`
}

// Compatible reports whether lensID is listed for the model.
func (m *ProjectorModel) Compatible(lensID string) bool {
	for _, id := range m.CompatibleLenses {
		if id == lensID {
			return true
		}
	}
	return false
}

// Catalog is a validated, read-only set of models and lenses.
type Catalog struct {
	models map[string]*ProjectorModel
	lenses map[string]*Lens
}

type file struct {
	Lenses     map[string]*Lens           `yaml:"lenses"`
	Projectors map[string]*ProjectorModel `yaml:"projectors"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// invalid, which only a broken build can cause.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Load reads a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	c := &Catalog{
		models: make(map[string]*ProjectorModel, len(f.Projectors)),
		lenses: make(map[string]*Lens, len(f.Lenses)),
	}
	for id, l := range f.Lenses {
		if l == nil {
			return nil, fmt.Errorf("catalog: lens %s: empty entry", id)
		}
		l.ID = id
		if err := validateLens(l); err != nil {
			return nil, err
		}
		c.lenses[id] = l
	}
	for id, m := range f.Projectors {
		if m == nil {
			return nil, fmt.Errorf("catalog: model %s: empty entry", id)
		}
		m.ID = id
		if err := c.validateModel(m); err != nil {
			return nil, err
		}
		c.models[id] = m
	}
	return c, nil
}

func validateLens(l *Lens) error {
	switch {
	case !(l.ThrowMin > 0):
		return fmt.Errorf("catalog: lens %s: throw_min must be > 0", l.ID)
	case l.ThrowMin > l.ThrowMax:
		return fmt.Errorf("catalog: lens %s: throw_min %.2f > throw_max %.2f", l.ID, l.ThrowMin, l.ThrowMax)
	case l.Fixed && l.ThrowMin != l.ThrowMax:
		return fmt.Errorf("catalog: lens %s: fixed lens with throw range", l.ID)
	case l.ShiftV[0] > l.ShiftV[1] || l.ShiftH[0] > l.ShiftH[1]:
		return fmt.Errorf("catalog: lens %s: inverted shift range", l.ID)
	}
	return nil
}

func (c *Catalog) validateModel(m *ProjectorModel) error {
	if _, ok := c.lenses[m.DefaultLens]; !ok {
		return fmt.Errorf("catalog: model %s: default lens %q: %w", m.ID, m.DefaultLens, ErrUnknownLens)
	}
	if !m.Compatible(m.DefaultLens) {
		return fmt.Errorf("catalog: model %s: default lens %s not in compatible list", m.ID, m.DefaultLens)
	}
	for _, id := range m.CompatibleLenses {
		if _, ok := c.lenses[id]; !ok {
			return fmt.Errorf("catalog: model %s: compatible lens %q: %w", m.ID, id, ErrUnknownLens)
		}
	}
	if m.NativeAspect <= 0 {
		m.NativeAspect = 16.0 / 9.0
	}
	return nil
}

// Model returns the projector model with the given id.
func (c *Catalog) Model(id string) (*ProjectorModel, error) {
	m, ok := c.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return m, nil
}

// Lens returns the lens with the given id.
func (c *Catalog) Lens(id string) (*Lens, error) {
	l, ok := c.lenses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLens, id)
	}
	return l, nil
}

// Models returns every model sorted by brand then name.
func (c *Catalog) Models() []*ProjectorModel {
	out := make([]*ProjectorModel, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Lenses returns every lens sorted by minimum throw ratio then id.
func (c *Catalog) Lenses() []*Lens {
	out := make([]*Lens, 0, len(c.lenses))
	for _, l := range c.lenses {
		out = append(out, l)
	}
	sortLenses(out)
	return out
}

// CompatibleLenses returns the lenses listed for a model, sorted by throw.
func (c *Catalog) CompatibleLenses(modelID string) ([]*Lens, error) {
	m, err := c.Model(modelID)
	if err != nil {
		return nil, err
	}
	out := make([]*Lens, 0, len(m.CompatibleLenses))
	for _, id := range m.CompatibleLenses {
		out = append(out, c.lenses[id])
	}
	sortLenses(out)
	return out, nil
}

// Brands returns the distinct model brands in sorted order.
func (c *Catalog) Brands() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.models {
		if !seen[m.Brand] {
			seen[m.Brand] = true
			out = append(out, m.Brand)
		}
	}
	sort.Strings(out)
	return out
}

// Search returns models whose id, name, brand or series contains query,
// case-insensitively. An empty query matches everything.
func (c *Catalog) Search(query string) []*ProjectorModel {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*ProjectorModel
	for _, m := range c.Models() {
		hay := strings.ToLower(m.ID + " " + m.Name + " " + m.Brand + " " + m.Series)
		if q == "" || strings.Contains(hay, q) {
			out = append(out, m)
		}
	}
	return out
}

func sortLenses(ls []*Lens) {
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].ThrowMin != ls[j].ThrowMin {
			return ls[i].ThrowMin < ls[j].ThrowMin
		}
		return ls[i].ID < ls[j].ID
	})
}
