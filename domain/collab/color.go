package collab

// Color is an RGBA color with 8 bits per channel. It marshals to JSON as a
// four-element array, matching the [r, g, b, a] wire shape.
type Color [4]uint8

// Transparent is the zero color.
var Transparent = Color{0, 0, 0, 0}

// RGBA returns the individual channels.
func (c Color) RGBA() (r, g, b, a uint8) {
	return c[0], c[1], c[2], c[3]
}

// Alpha returns the alpha channel.
func (c Color) Alpha() uint8 {
	return c[3]
}

// IsTransparent reports whether the color is fully transparent.
func (c Color) IsTransparent() bool {
	return c[3] == 0
}

// Blend alpha-blends overlay onto base using integer math with rounding.
// The result alpha is the larger of the two alphas.
func Blend(base, overlay Color) Color {
	oa := int(overlay[3])
	if oa == 0 {
		return base
	}
	if oa == 255 {
		return overlay
	}

	inv := 255 - oa
	blended := Color{
		uint8((int(overlay[0])*oa + int(base[0])*inv + 127) / 255),
		uint8((int(overlay[1])*oa + int(base[1])*inv + 127) / 255),
		uint8((int(overlay[2])*oa + int(base[2])*inv + 127) / 255),
	}
	if base[3] > overlay[3] {
		blended[3] = base[3]
	} else {
		blended[3] = overlay[3]
	}
	return blended
}

// ColorOrTransparent dereferences an optional color, defaulting to
// transparent. Undo/redo actions carry nil for "pixel did not exist".
func ColorOrTransparent(c *Color) Color {
	if c == nil {
		return Transparent
	}
	return *c
}
