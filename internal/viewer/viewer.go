// Package viewer shows crop sessions in a desktop window and turns its key
// presses into controller events.
package viewer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/menta2k/trombinoscope/pkg/session"
)

const labelHeight = 20

var (
	background = color.RGBA{32, 32, 32, 255}
	labelColor = color.RGBA{230, 230, 230, 255}
)

// Options configures the window.
type Options struct {
	Title  string
	Width  int
	Height int
}

// DefaultOptions returns a 900x740 window.
func DefaultOptions() Options {
	return Options{Title: "trombinoscope", Width: 900, Height: 740}
}

// Window is a shiny window that displays the current crop and yields key
// events. It implements controller.EventSource and controller.Display.
type Window struct {
	s    screen.Screen
	w    screen.Window
	buf  screen.Buffer
	size image.Point

	// last shown session, redrawn on resize
	current      *session.Session
	index, total int
}

// Run opens a window and calls f with it on the UI goroutine. The window is
// released when f returns.
func Run(opts Options, f func(w *Window) error) error {
	var err error
	driver.Main(func(s screen.Screen) {
		var w *Window
		w, err = open(s, opts)
		if err != nil {
			return
		}
		defer w.release()
		err = f(w)
	})
	return err
}

func open(s screen.Screen, opts Options) (*Window, error) {
	sw, err := s.NewWindow(&screen.NewWindowOptions{
		Width:  opts.Width,
		Height: opts.Height,
		Title:  opts.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open window: %w", err)
	}

	w := &Window{s: s, w: sw}
	if err := w.resize(image.Pt(opts.Width, opts.Height)); err != nil {
		sw.Release()
		return nil, err
	}
	return w, nil
}

func (w *Window) release() {
	if w.buf != nil {
		w.buf.Release()
	}
	w.w.Release()
}

func (w *Window) resize(sz image.Point) error {
	if sz.X <= 0 || sz.Y <= 0 || sz == w.size {
		return nil
	}
	buf, err := w.s.NewBuffer(sz)
	if err != nil {
		return fmt.Errorf("failed to allocate window buffer: %w", err)
	}
	if w.buf != nil {
		w.buf.Release()
	}
	w.buf = buf
	w.size = sz
	return nil
}

// NextEvent blocks until a key event arrives. Paint and resize events are
// handled here. Closing the window yields io.EOF.
func (w *Window) NextEvent() (key.Event, error) {
	for {
		switch e := w.w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return key.Event{}, io.EOF
			}
		case size.Event:
			if err := w.resize(e.Size()); err != nil {
				return key.Event{}, err
			}
			w.redraw()
		case paint.Event:
			w.publish()
		case key.Event:
			return e, nil
		}
	}
}

// Show renders the crop of s with its name and position in the batch.
func (w *Window) Show(s *session.Session, index, total int) error {
	w.current, w.index, w.total = s, index, total
	w.redraw()
	return nil
}

func (w *Window) redraw() {
	if w.buf == nil {
		return
	}
	Render(w.buf.RGBA(), w.current, w.index, w.total)
	w.publish()
}

func (w *Window) publish() {
	if w.buf == nil {
		return
	}
	w.w.Upload(image.Point{}, w.buf, w.buf.Bounds())
	w.w.Publish()
}

// Render draws the crop of s fitted below a one-line label.
func Render(dst *image.RGBA, s *session.Session, index, total int) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(background), image.Point{}, draw.Src)
	if s == nil {
		drawString(dst, 5, 3, "no photo")
		return
	}

	drawString(dst, 5, 3, Label(s, index, total))

	area := image.Rect(b.Min.X, b.Min.Y+labelHeight, b.Max.X, b.Max.Y)
	crop := s.CurrentCrop()
	if crop.Bounds().Empty() || area.Dx() <= 0 || area.Dy() <= 0 {
		return
	}

	fitted := imaging.Fit(crop, area.Dx(), area.Dy(), imaging.Linear)
	fb := fitted.Bounds()
	offset := image.Pt(area.Min.X+(area.Dx()-fb.Dx())/2, area.Min.Y+(area.Dy()-fb.Dy())/2)
	draw.Draw(dst, fb.Add(offset), fitted, fb.Min, draw.Src)
}

// Label describes the shown photo, e.g. "2/12  Alice Dupont  90°".
func Label(s *session.Session, index, total int) string {
	id := s.Identity()
	r := s.Rect()
	return fmt.Sprintf("%d/%d  %s %s  %d°  x=%d y=%d w=%d",
		index+1, total, id.Given, id.Family, s.Rotation().Degrees(), r.X, r.Y, r.W)
}

func drawString(img *image.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(img.Bounds().Min.X+x, img.Bounds().Min.Y+y+13),
	}
	d.DrawString(s)
}
