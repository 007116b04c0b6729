// Package color provides the 24-bit RGB color type shared by lights, effects and scenes.
package color

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Off is the color a light shows when it is dark.
var Off = RGB{}

// ParseHex parses "#rrggbb" (the leading '#' is optional, case-insensitive).
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: expected #rrggbb", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustParseHex is ParseHex for compile-time constants; it panics on bad input.
func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the lowercase "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

// IsOff reports whether c is the off sentinel.
func (c RGB) IsOff() bool {
	return c == Off
}

// Scale multiplies every channel by num/den, truncating.
func (c RGB) Scale(num, den int) RGB {
	if den <= 0 {
		return Off
	}
	scale := func(v uint8) uint8 {
		s := int(v) * num / den
		if s < 0 {
			return 0
		}
		if s > 255 {
			return 255
		}
		return uint8(s)
	}
	return RGB{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// Lerp interpolates linearly from a to b; p is clamped to [0,1] and each channel is
// computed as a + (b-a)*p truncated toward zero.
func Lerp(a, b RGB, p float64) RGB {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(int(float64(x) + float64(int(y)-int(x))*p))
	}
	return RGB{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B)}
}

// MarshalText implements encoding.TextMarshaler.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
