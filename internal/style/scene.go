// Package style resolves marker styling text against a scene's rule set.
package style

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Base selects the geometry builder a style draws with.
type Base string

const (
	BasePoints   Base = "points"
	BaseLines    Base = "lines"
	BasePolygons Base = "polygons"
)

var (
	ErrUnknownStyle    = errors.New("unknown style")
	ErrUnknownDrawRule = errors.New("unknown draw rule")
	ErrInvalidStyling  = errors.New("invalid styling")
)

// StyleDef is a named style in a scene.
type StyleDef struct {
	Base Base `yaml:"base"`
}

// Scene is the compiled styling context markers resolve against: named
// styles plus the raw document, which holds draw blocks that styling text
// can reference by path.
type Scene struct {
	Styles map[string]StyleDef `yaml:"styles"`

	doc map[string]any
}

// NewScene returns a scene containing only the built-in styles.
func NewScene() *Scene {
	return &Scene{
		Styles: map[string]StyleDef{},
		doc:    map[string]any{},
	}
}

// ParseScene decodes a YAML scene document.
func ParseScene(data []byte) (*Scene, error) {
	s := NewScene()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if s.Styles == nil {
		s.Styles = map[string]StyleDef{}
	}
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	for name, def := range s.Styles {
		if !def.Base.valid() {
			return nil, fmt.Errorf("style %q: unknown base %q", name, def.Base)
		}
	}
	return s, nil
}

// LoadScene reads and parses a YAML scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScene(data)
}

// Style looks up a style by name. The built-in styles are named after their
// bases and cannot be shadowed.
func (s *Scene) Style(name string) (StyleDef, bool) {
	if b := Base(name); b.valid() {
		return StyleDef{Base: b}, true
	}
	def, ok := s.Styles[name]
	return def, ok
}

// DrawBlock finds a draw block. Dotted paths such as "layers.poi.draw.icons"
// are walked from the document root; plain names are looked up under "draw".
func (s *Scene) DrawBlock(ref string) (map[string]any, bool) {
	var node any = s.doc
	path := strings.Split(ref, ".")
	if len(path) == 1 {
		path = []string{"draw", ref}
	}
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[key]; !ok {
			return nil, false
		}
	}
	block, ok := node.(map[string]any)
	return block, ok
}

func (b Base) valid() bool {
	switch b {
	case BasePoints, BaseLines, BasePolygons:
		return true
	}
	return false
}
