package effect

// DisplayBuffer is one frame of strip output, a Width x Height grid
// stored row-major. Its size is fixed at creation.
type DisplayBuffer struct {
	Width  int
	Height int
	pixels []Color
}

func NewDisplayBuffer(width, height int) *DisplayBuffer {
	return &DisplayBuffer{
		Width:  width,
		Height: height,
		pixels: make([]Color, width*height),
	}
}

// Len returns the number of pixels.
func (b *DisplayBuffer) Len() int {
	return len(b.pixels)
}

// Clear sets every pixel to black.
func (b *DisplayBuffer) Clear() {
	clear(b.pixels)
}

// Set writes pixel (x, y). Writes outside the grid are ignored.
func (b *DisplayBuffer) Set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.pixels[y*b.Width+x] = c
}

// At returns the pixel with strip index i.
func (b *DisplayBuffer) At(i int) Color {
	return b.pixels[i]
}

// Get returns pixel (x, y), black for coordinates outside the grid.
func (b *DisplayBuffer) Get(x, y int) Color {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return Color{}
	}
	return b.pixels[y*b.Width+x]
}

// Snapshot returns a copy of all pixels in strip order.
func (b *DisplayBuffer) Snapshot() []Color {
	ret := make([]Color, len(b.pixels))
	copy(ret, b.pixels)
	return ret
}
