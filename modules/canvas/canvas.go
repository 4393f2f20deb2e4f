// Package canvas provides the default in-memory drawing surface for
// collaborative sessions: a fixed-size RGBA pixel grid with alpha-blending
// and solid (overwriting) writes.
package canvas

import "github.com/WanderlustCoder/Bitsy-sub000/domain/collab"

// Canvas is a width x height grid of RGBA pixels. The zero value of every
// pixel is fully transparent. Canvas is not safe for concurrent use; callers
// serialize access (the session holds its own lock, the client guards its
// mirror).
type Canvas struct {
	width  int
	height int
	pixels []collab.Color
}

// New creates a blank canvas. Non-positive dimensions are clamped to 1.
func New(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Canvas{
		width:  width,
		height: height,
		pixels: make([]collab.Color, width*height),
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// InBounds reports whether (x, y) is on the canvas.
func (c *Canvas) InBounds(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// GetPixel returns the color at (x, y), or transparent when out of range.
func (c *Canvas) GetPixel(x, y int) collab.Color {
	if !c.InBounds(x, y) {
		return collab.Transparent
	}
	return c.pixels[y*c.width+x]
}

// SetPixel alpha-blends color onto the pixel at (x, y). Out-of-range writes
// are ignored.
func (c *Canvas) SetPixel(x, y int, color collab.Color) {
	if !c.InBounds(x, y) {
		return
	}
	i := y*c.width + x
	c.pixels[i] = collab.Blend(c.pixels[i], color)
}

// SetPixelSolid overwrites the pixel at (x, y) without blending. Undo/redo
// restoration uses this so stored colors come back exactly.
func (c *Canvas) SetPixelSolid(x, y int, color collab.Color) {
	if !c.InBounds(x, y) {
		return
	}
	c.pixels[y*c.width+x] = color
}

// Clear resets every pixel to transparent.
func (c *Canvas) Clear() {
	for i := range c.pixels {
		c.pixels[i] = collab.Transparent
	}
}

// Clone returns a deep copy of the canvas.
func (c *Canvas) Clone() *Canvas {
	dup := New(c.width, c.height)
	copy(dup.pixels, c.pixels)
	return dup
}
