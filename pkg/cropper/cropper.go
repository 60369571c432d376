package cropper

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// AspectRatio represents a crop aspect ratio as width and height units
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Common aspect ratios
var (
	Square    = AspectRatio{1, 1, "square"}
	Portrait  = AspectRatio{3, 4, "portrait"}
	Landscape = AspectRatio{4, 3, "landscape"}
	Classic   = AspectRatio{5, 4, "classic"}
	Instagram = AspectRatio{4, 5, "instagram"}
	Passport  = AspectRatio{7, 9, "passport"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Classic, Instagram, Passport}
}

// ParseAspectRatio parses a "W:H" string or the name of a common ratio
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, r := range CommonAspectRatios() {
		if strings.EqualFold(s, r.Name) {
			return r, nil
		}
	}

	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q: expected W:H", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio width %q: %w", w, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q: units must be positive", s)
	}
	return AspectRatio{Width: width, Height: height, Name: s}, nil
}

// String returns the ratio in W:H form
func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.Width, a.Height)
}

// Direction identifies one of the interactive rectangle mutations
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	ZoomIn
	ZoomOut
)

// String returns the command name of d.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case ZoomIn:
		return "zoom-in"
	case ZoomOut:
		return "zoom-out"
	default:
		return "direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// Rect is a crop rectangle anchored by its center. The height is derived
// from the width and the fixed aspect ratio.
type Rect struct {
	X     int
	Y     int
	W     int
	Ratio AspectRatio
}

// NewCentered returns a rectangle centered on an image of the given size,
// whose width is the image width divided by widthDivisor.
func NewCentered(size image.Point, widthDivisor int, ratio AspectRatio) Rect {
	if widthDivisor <= 0 {
		widthDivisor = 1
	}
	return Rect{
		X:     size.X / 2,
		Y:     size.Y / 2,
		W:     size.X / widthDivisor,
		Ratio: ratio,
	}
}

// Height returns W * Ratio.Height / Ratio.Width, truncated.
func (r Rect) Height() int {
	return r.heightFor(r.W)
}

func (r Rect) heightFor(w int) int {
	if r.Ratio.Width == 0 {
		return 0
	}
	return w * r.Ratio.Height / r.Ratio.Width
}

// WithinBounds reports whether a rectangle centered on (x, y) with width w
// lies strictly inside an image of the given size. The border itself is
// out of bounds.
func (r Rect) WithinBounds(x, y, w int, size image.Point) bool {
	if w <= 0 {
		return false
	}
	h := r.heightFor(w)
	return x-w/2 > 0 &&
		y-h/2 > 0 &&
		x+w/2 < size.X &&
		y+h/2 < size.Y
}

// Valid reports whether the rectangle satisfies the bounds invariant.
func (r Rect) Valid(size image.Point) bool {
	return r.WithinBounds(r.X, r.Y, r.W, size)
}

// ApplyIfValid returns the proposed rectangle when it is within bounds and
// the receiver unchanged otherwise.
func (r Rect) ApplyIfValid(x, y, w int, size image.Point) Rect {
	if !r.WithinBounds(x, y, w, size) {
		return r
	}
	return Rect{X: x, Y: y, W: w, Ratio: r.Ratio}
}

// ShiftUp moves the center by n pixels, decreasing Y.
func (r Rect) ShiftUp(n int, size image.Point) Rect {
	return r.ApplyIfValid(r.X, r.Y-n, r.W, size)
}

// ShiftDown moves the center by n pixels, increasing Y.
func (r Rect) ShiftDown(n int, size image.Point) Rect {
	return r.ApplyIfValid(r.X, r.Y+n, r.W, size)
}

// ShiftLeft moves the center by n pixels, decreasing X.
func (r Rect) ShiftLeft(n int, size image.Point) Rect {
	return r.ApplyIfValid(r.X-n, r.Y, r.W, size)
}

// ShiftRight moves the center by n pixels, increasing X.
func (r Rect) ShiftRight(n int, size image.Point) Rect {
	return r.ApplyIfValid(r.X+n, r.Y, r.W, size)
}

// ZoomIn shrinks the width by n around the fixed center.
func (r Rect) ZoomIn(n int, size image.Point) Rect {
	return r.ApplyIfValid(r.X, r.Y, r.W-n, size)
}

// ZoomOut grows the width by n around the fixed center.
func (r Rect) ZoomOut(n int, size image.Point) Rect {
	return r.ApplyIfValid(r.X, r.Y, r.W+n, size)
}

// Move applies the mutation named by d with step n.
func (r Rect) Move(d Direction, n int, size image.Point) Rect {
	switch d {
	case Up:
		return r.ShiftUp(n, size)
	case Down:
		return r.ShiftDown(n, size)
	case Left:
		return r.ShiftLeft(n, size)
	case Right:
		return r.ShiftRight(n, size)
	case ZoomIn:
		return r.ZoomIn(n, size)
	case ZoomOut:
		return r.ZoomOut(n, size)
	default:
		return r
	}
}

// Image returns the pixel rectangle covered by r. When r is valid for an
// image, the result lies inside that image.
func (r Rect) Image() image.Rectangle {
	h := r.Height()
	x0 := r.X - r.W/2
	y0 := r.Y - h/2
	return image.Rect(x0, y0, x0+r.W, y0+h)
}
