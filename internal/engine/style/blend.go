package style

import "fmt"

// BlendMode selects how a layer composites over the content below it.
// The engine treats it as an opaque token passed through to the renderer.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
)

var blendNames = [...]string{
	BlendNormal:   "normal",
	BlendMultiply: "multiply",
	BlendScreen:   "screen",
	BlendOverlay:  "overlay",
	BlendDarken:   "darken",
	BlendLighten:  "lighten",
}

// String returns the lowercase token for the blend mode.
func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return "normal"
}

// Valid reports whether b is a known blend mode.
func (b BlendMode) Valid() bool {
	return int(b) < len(blendNames)
}

// ParseBlendMode converts a token to a BlendMode. The empty string parses
// as BlendNormal.
func ParseBlendMode(s string) (BlendMode, error) {
	if s == "" {
		return BlendNormal, nil
	}
	for i, name := range blendNames {
		if s == name {
			return BlendMode(i), nil
		}
	}
	return BlendNormal, fmt.Errorf("unknown blend mode %q", s)
}
