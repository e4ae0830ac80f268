package style

import (
	"fmt"
	"strings"

	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"
)

// Defaults for parameters a styling leaves unset. An unset point size stays
// zero in the DrawRule and is filled in by the point builder.
var (
	DefaultColor     = gg.White
	DefaultPointSize = Px(16)
	DefaultLineWidth = Px(2)
)

// Bridge evaluates styling text against the installed scene. It reuses one
// parameter buffer across calls and must not be used re-entrantly.
type Bridge struct {
	scene  *Scene
	params map[string]any
}

// NewBridge creates a bridge over scene. A nil scene means built-in styles only.
func NewBridge(scene *Scene) *Bridge {
	b := &Bridge{params: make(map[string]any)}
	b.SetScene(scene)
	return b
}

// SetScene replaces the scene used by later resolutions.
func (b *Bridge) SetScene(scene *Scene) {
	if scene == nil {
		scene = NewScene()
	}
	b.scene = scene
}

// Scene returns the installed scene.
func (b *Bridge) Scene() *Scene {
	return b.scene
}

// Resolve turns styling text into a DrawRule for geometry of the given kind.
// Empty styling selects the built-in style matching the geometry.
func (b *Bridge) Resolve(styling string, kind core.GeometryKind) (DrawRule, error) {
	clear(b.params)

	styling = strings.TrimSpace(styling)
	switch {
	case styling == "":
		base, ok := defaultBase(kind)
		if !ok {
			return DrawRule{}, fmt.Errorf("%w: no default style for %s geometry", ErrUnknownStyle, kind)
		}
		b.params["style"] = string(base)
	case strings.HasPrefix(styling, "{"):
		if err := yaml.Unmarshal([]byte(styling), &b.params); err != nil {
			return DrawRule{}, fmt.Errorf("%w: %v", ErrInvalidStyling, err)
		}
	default:
		block, ok := b.scene.DrawBlock(styling)
		if !ok {
			return DrawRule{}, fmt.Errorf("%w: %q", ErrUnknownDrawRule, styling)
		}
		for k, v := range block {
			b.params[k] = v
		}
	}

	return b.evaluate()
}

func (b *Bridge) evaluate() (DrawRule, error) {
	name, ok := b.params["style"].(string)
	if !ok || name == "" {
		return DrawRule{}, fmt.Errorf("%w: missing style", ErrInvalidStyling)
	}
	def, ok := b.scene.Style(name)
	if !ok {
		return DrawRule{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}

	rule := DrawRule{
		Style:        name,
		Base:         def.Base,
		Color:        DefaultColor,
		Width:        DefaultLineWidth,
		OutlineColor: gg.Transparent,
	}

	var err error
	if v, ok := b.params["color"]; ok {
		if rule.Color, err = ParseColor(v); err != nil {
			return DrawRule{}, err
		}
	}
	if v, ok := b.params["size"]; ok {
		if rule.Size, err = parseSize(v); err != nil {
			return DrawRule{}, err
		}
	}
	if v, ok := b.params["width"]; ok {
		if rule.Width, err = ParseDimension(v); err != nil {
			return DrawRule{}, err
		}
	}
	if v, ok := b.params["outline"]; ok {
		outline, ok := v.(map[string]any)
		if !ok {
			return DrawRule{}, fmt.Errorf("%w: outline must be a map", ErrInvalidStyling)
		}
		if c, ok := outline["color"]; ok {
			if rule.OutlineColor, err = ParseColor(c); err != nil {
				return DrawRule{}, err
			}
		}
		if w, ok := outline["width"]; ok {
			if rule.OutlineWidth, err = ParseDimension(w); err != nil {
				return DrawRule{}, err
			}
		}
	}
	return rule, nil
}

// parseSize accepts a single dimension (square) or a [width, height] pair.
func parseSize(v any) ([2]Dimension, error) {
	if pair, ok := v.([]any); ok {
		if len(pair) != 2 {
			return [2]Dimension{}, fmt.Errorf("%w: size needs 2 values, got %d", ErrInvalidStyling, len(pair))
		}
		w, err := ParseDimension(pair[0])
		if err != nil {
			return [2]Dimension{}, err
		}
		h, err := ParseDimension(pair[1])
		if err != nil {
			return [2]Dimension{}, err
		}
		return [2]Dimension{w, h}, nil
	}
	d, err := ParseDimension(v)
	if err != nil {
		return [2]Dimension{}, err
	}
	return [2]Dimension{d, d}, nil
}

func defaultBase(kind core.GeometryKind) (Base, bool) {
	switch kind {
	case core.GeometryPoint:
		return BasePoints, true
	case core.GeometryPolyline:
		return BaseLines, true
	case core.GeometryPolygon:
		return BasePolygons, true
	}
	return "", false
}
