package processing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/trombinoscope/internal/utils"
)

// Processor handles image decoding, encoding and derivative export
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := p.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes image bytes. EXIF orientation is not applied; the
// caller owns rotation.
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// Croppable is a photo that can produce its cropped pixels
type Croppable interface {
	Path() string
	CurrentCrop() *image.NRGBA
}

// ExportOptions controls derivative export
type ExportOptions struct {
	Dir      string
	Format   string // jpg, png or webp
	Quality  int
	Lossless bool
	// Width and Height resize every derivative with imaging.Fill when both
	// are positive.
	Width  int
	Height int
}

// DefaultExportOptions returns JPEG derivatives at quality 92 in dir
func DefaultExportOptions(dir string) ExportOptions {
	return ExportOptions{Dir: dir, Format: "jpg", Quality: 92}
}

// Export writes the cropped pixels of one photo to opts.Dir, named after
// the source file, and returns the written path.
func (p *Processor) Export(item Croppable, opts ExportOptions) (string, error) {
	crop := item.CurrentCrop()
	if crop.Bounds().Empty() {
		return "", fmt.Errorf("%s: empty crop rectangle", item.Path())
	}

	var img image.Image = crop
	if opts.Width > 0 && opts.Height > 0 {
		img = imaging.Fill(crop, opts.Width, opts.Height, imaging.Center, imaging.Lanczos)
	}

	out := utils.GenerateOutputFilename(item.Path(), opts.Dir, "", "", strings.ToLower(opts.Format))
	if err := p.SaveImage(img, out, opts.Format, opts.Quality, opts.Lossless); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", out, err)
	}
	return out, nil
}

// ExportAll writes a derivative for every item in order. A failed item
// does not stop the others; the paths written and all failures joined are
// returned.
func ExportAll[T Croppable](p *Processor, items []T, opts ExportOptions) ([]string, error) {
	if err := utils.EnsureDir(opts.Dir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	written := make([]string, 0, len(items))
	var errs []error
	for _, item := range items {
		out, err := p.Export(item, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, out)
	}
	return written, errors.Join(errs...)
}

// CreateOverlay draws the crop rectangle and its center on a copy of img
func (p *Processor) CreateOverlay(img image.Image, crop image.Rectangle) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	gold := color.NRGBA{255, 204, 0, 255}
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 170, 255, 255}
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))
	cross := int(math.Max(4, 0.01*float64(min(w, h))))

	if !crop.Empty() {
		drawBox(nrgba, crop, gold, stroke)

		cx := (crop.Min.X + crop.Max.X) / 2
		cy := (crop.Min.Y + crop.Max.Y) / 2
		drawHLine(nrgba, cy, cx-cross, cx+cross, red)
		drawVLine(nrgba, cx, cy-cross, cy+cross, red)
	}

	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, blue)
	drawVLine(nrgba, ix, iy-6, iy+6, blue)

	return nrgba
}

func drawBox(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	if x0 >= x1 {
		return
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	if y0 >= y1 {
		return
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
