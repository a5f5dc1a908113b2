// Package colormap holds node display colors and parses the hex color
// specifications scripts emit.
//
// Accepted forms are #RGB, #RRGGBB and #RRGGBBAA, each with or without the
// leading '#'. Anything else is rejected with an INVALID_COLOR error so the
// caller can skip the command without stopping.
package colormap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/grephite/pkg/errors"
)

// Color is an 8-bit-per-channel sRGB color with alpha.
type Color struct {
	R, G, B, A uint8
}

// Base is the neutral node color used when no script has colored a node.
var Base = Color{0, 0, 0, 255}

// ParseHex parses a hex color specification.
func ParseHex(spec string) (Color, error) {
	hex := strings.TrimPrefix(spec, "#")
	switch len(hex) {
	case 3:
		var c Color
		for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
			v, err := parseByte(strings.Repeat(hex[i:i+1], 2))
			if err != nil {
				return Color{}, invalid(spec)
			}
			*dst = v
		}
		c.A = 255
		return c, nil
	case 6, 8:
		c := Color{A: 255}
		dsts := []*uint8{&c.R, &c.G, &c.B, &c.A}
		for i := 0; i < len(hex); i += 2 {
			v, err := parseByte(hex[i : i+2])
			if err != nil {
				return Color{}, invalid(spec)
			}
			*dsts[i/2] = v
		}
		return c, nil
	}
	return Color{}, invalid(spec)
}

// MustParseHex is like ParseHex but panics on error. It is meant for
// package-level color constants.
func MustParseHex(spec string) Color {
	c, err := ParseHex(spec)
	if err != nil {
		panic(err)
	}
	return c
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	return uint8(v), err
}

func invalid(spec string) error {
	return errors.New(errors.ErrCodeInvalidColor, "unparsable color %q", spec)
}

// Hex renders the color as #rrggbb, or #rrggbbaa when it is not opaque.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// String implements fmt.Stringer.
func (c Color) String() string { return c.Hex() }

// Alpha returns the alpha channel in [0, 1].
func (c Color) Alpha() float64 { return float64(c.A) / 255 }

// Lerp interpolates linearly between c and o; t is clamped to [0, 1].
func (c Color) Lerp(o Color, t float64) Color {
	t = min(max(t, 0), 1)
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return Color{mix(c.R, o.R), mix(c.G, o.G), mix(c.B, o.B), mix(c.A, o.A)}
}

// MarshalText encodes c as a hex string.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText parses a hex color, so colors can be read from config files
// and JSON payloads.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
