// Package template loads document templates. A template is a YAML file
// describing a canvas and a stack of layers, front first, that can be
// applied to an engine as a single undoable step. A layer marked
// mask: true becomes the clip mask of the layer right below it.
package template

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/engine"
	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/style"
)

// ErrInvalidTemplate indicates the template fails validation.
var ErrInvalidTemplate = errors.New("invalid template")

// Document is a parsed template.
type Document struct {
	Name   string  `yaml:"name"`
	Canvas Canvas  `yaml:"canvas"`
	Layers []Layer `yaml:"layers"`
}

// Canvas is the document surface a template targets.
type Canvas struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Background string  `yaml:"background"`
}

// Layer is one template entry. Entries apply in file order, the first
// one ending up frontmost.
type Layer struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Shape       string   `yaml:"shape"`
	Text        string   `yaml:"text"`
	Source      string   `yaml:"source"`
	Width       float64  `yaml:"width"`
	Height      float64  `yaml:"height"`
	X           float64  `yaml:"x"`
	Y           float64  `yaml:"y"`
	Rotation    float64  `yaml:"rotation"`
	Fill        string   `yaml:"fill"`
	Stroke      string   `yaml:"stroke"`
	StrokeWidth float64  `yaml:"strokeWidth"`
	Opacity     *float64 `yaml:"opacity"`
	Blend       string   `yaml:"blend"`
	Hidden      bool     `yaml:"hidden"`
	Locked      bool     `yaml:"locked"`
	Mask        bool     `yaml:"mask"`
}

// Load reads and validates a template file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates template bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the template without touching any engine.
func (d *Document) Validate() error {
	if d.Canvas.Width < 0 || d.Canvas.Height < 0 {
		return fmt.Errorf("%w: canvas %gx%g, dimensions must not be negative",
			ErrInvalidTemplate, d.Canvas.Width, d.Canvas.Height)
	}
	if d.Canvas.Background != "" {
		if _, err := style.NormalizeHex(d.Canvas.Background); err != nil {
			return fmt.Errorf("%w: canvas background: %v", ErrInvalidTemplate, err)
		}
	}
	if len(d.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidTemplate)
	}
	for i, l := range d.Layers {
		if err := l.validate(); err != nil {
			return fmt.Errorf("%w: layer %d (%s): %v", ErrInvalidTemplate, i, l.Name, err)
		}
		if l.Mask && i == len(d.Layers)-1 {
			return fmt.Errorf("%w: layer %d (%s): mask with nothing below it",
				ErrInvalidTemplate, i, l.Name)
		}
	}
	return nil
}

func (l Layer) validate() error {
	kind, err := layer.ParseKind(l.Kind)
	if err != nil {
		return err
	}
	if kind == layer.KindGroup {
		return fmt.Errorf("groups cannot be declared in templates")
	}
	if _, err := style.ParseBlendMode(l.Blend); err != nil {
		return err
	}
	paint := style.Paint{Fill: l.Fill, Stroke: l.Stroke, StrokeWidth: l.StrokeWidth}
	if _, err := paint.Normalize(); err != nil {
		return err
	}
	if l.Opacity != nil && (*l.Opacity < 0 || *l.Opacity > 1) {
		return fmt.Errorf("opacity %g outside [0, 1]", *l.Opacity)
	}
	return nil
}

// Build applies the template to an engine as one history step. Layers
// land behind whatever the document already holds, keeping their file
// order, then the declared mask bindings are made. On error the applied
// part stays, undoable as a single step.
func (d *Document) Build(eng *engine.Engine) error {
	name := d.Name
	if name == "" {
		name = "template"
	}
	eng.BeginGesture(fmt.Sprintf("Apply %s", name))

	base := eng.LayerCount()
	err := d.build(eng, base)
	if endErr := eng.EndGesture(); err == nil {
		err = endErr
	}
	return err
}

func (d *Document) build(eng *engine.Engine, base int) error {
	for i, l := range d.Layers {
		if _, err := eng.AddLayerAt(l.spec(), base+i); err != nil {
			return fmt.Errorf("apply layer %d (%s): %w", i, l.Name, err)
		}
	}
	for i, l := range d.Layers {
		if !l.Mask {
			continue
		}
		if err := eng.CreateClipMask(base + i + 1); err != nil {
			return fmt.Errorf("bind mask %d (%s): %w", i, l.Name, err)
		}
	}
	return nil
}

func (l Layer) spec() engine.LayerSpec {
	kind, _ := layer.ParseKind(l.Kind)
	blend, _ := style.ParseBlendMode(l.Blend)
	opacity := 1.0
	if l.Opacity != nil {
		opacity = *l.Opacity
	}
	return engine.LayerSpec{
		Name:      l.Name,
		Kind:      kind,
		Shape:     layer.Shape(l.Shape),
		Text:      l.Text,
		Source:    l.Source,
		Size:      geom.Size{Width: l.Width, Height: l.Height},
		Transform: geom.Transform{X: l.X, Y: l.Y, Rotation: l.Rotation},
		Paint:     style.Paint{Fill: l.Fill, Stroke: l.Stroke, StrokeWidth: l.StrokeWidth},
		Opacity:   opacity,
		Blend:     blend,
		Hidden:    l.Hidden,
		Locked:    l.Locked,
	}
}
