// Package style defines the paint and blend attributes shared by layer
// records and renderer node descriptors.
package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrBadColor indicates a color string that is not a recognized hex form.
var ErrBadColor = errors.New("invalid color")

// Paint describes how a layer's geometry is filled and stroked. Colors are
// hex strings of the form "#rrggbb"; an empty string means not painted.
type Paint struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// DefaultPaint returns a neutral paint used when a layer is created without
// explicit style.
func DefaultPaint() Paint {
	return Paint{Fill: "#808080"}
}

// Normalize parses and canonicalizes both color fields to lowercase
// "#rrggbb". Short "#rgb" forms are expanded. Empty fields pass through.
func (p Paint) Normalize() (Paint, error) {
	var err error
	if p.Fill, err = NormalizeHex(p.Fill); err != nil {
		return p, fmt.Errorf("fill: %w", err)
	}
	if p.Stroke, err = NormalizeHex(p.Stroke); err != nil {
		return p, fmt.Errorf("stroke: %w", err)
	}
	if p.StrokeWidth < 0 {
		return p, fmt.Errorf("stroke width %v: must not be negative", p.StrokeWidth)
	}
	return p, nil
}

// NormalizeHex canonicalizes a hex color string to lowercase "#rrggbb".
// The empty string is returned unchanged.
func NormalizeHex(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return c.Hex(), nil
}

// RGB255 parses a hex color and returns its 8-bit channel values. It
// reports ok=false for the empty string or an unparsable color.
func RGB255(s string) (r, g, b uint8, ok bool) {
	if s == "" {
		return 0, 0, 0, false
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return 0, 0, 0, false
	}
	r, g, b = c.RGB255()
	return r, g, b, true
}

// Luminance returns the perceptual lightness of a hex color in [0, 1],
// used to pick readable label colors over a fill. Unparsable colors
// report 0.
func Luminance(s string) float64 {
	if s == "" {
		return 0
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return 0
	}
	l, _, _ := c.Luv()
	return l
}
