// Package session holds the editable state of one photo: its decoded
// pixels, the rotated view of them, the person's identity and the crop
// rectangle.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/renameio/v2"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/pkg/cropper"
	"github.com/menta2k/trombinoscope/pkg/metadata"
	"github.com/menta2k/trombinoscope/pkg/processing"
	"github.com/menta2k/trombinoscope/pkg/types"
)

var (
	// ErrUnreadable reports a file whose pixels cannot be decoded. Batch
	// loading skips such files.
	ErrUnreadable = errors.New("unreadable image")

	// ErrNotJPEG reports a persist on a source that is not a JPEG file.
	ErrNotJPEG = errors.New("crop records can only be stored in JPEG files")
)

// DefaultWidthDivisor sizes the initial crop at a fifth of the image width.
const DefaultWidthDivisor = 5

// Options controls how sessions are created.
type Options struct {
	// WidthDivisor sets the default crop width to image width / WidthDivisor.
	WidthDivisor int

	// Ratio is the fixed aspect ratio of every crop rectangle.
	Ratio cropper.AspectRatio

	// AutoOrient seeds the rotation from the EXIF Orientation tag when the
	// file carries no crop record.
	AutoOrient bool

	// SkipCorrupt makes LoadAll skip files whose crop record cannot be
	// decoded instead of failing.
	SkipCorrupt bool
}

// DefaultOptions returns the options used by the crop command.
func DefaultOptions() Options {
	return Options{
		WidthDivisor: DefaultWidthDivisor,
		Ratio:        cropper.Classic,
	}
}

// Session is one photo being edited.
type Session struct {
	path     string
	source   image.Image
	rotated  *image.NRGBA
	identity types.Identity
	rect     cropper.Rect
	rotation types.Rotation
}

// Load decodes the photo at path and applies its embedded crop record, or
// synthesizes a centered default rectangle when there is none.
func Load(path string, opts Options) (*Session, error) {
	if opts.WidthDivisor <= 0 {
		opts.WidthDivisor = DefaultWidthDivisor
	}
	if opts.Ratio.Width <= 0 || opts.Ratio.Height <= 0 {
		opts.Ratio = cropper.Classic
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	src, err := processing.NewProcessor().DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	var rec *metadata.Record
	if metadata.IsJPEG(data) {
		rec, err = metadata.Decode(data)
		if errors.Is(err, metadata.ErrContainer) {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	s := &Session{path: path, source: src}
	switch {
	case rec != nil:
		s.identity = types.Identity{Given: rec.Given, Family: rec.Family}
		s.rotation = types.NewRotation(int(rec.Rotation))
		s.rotated = rotate(src, s.rotation)
		s.rect = cropper.Rect{X: int(rec.X), Y: int(rec.Y), W: int(rec.W), Ratio: opts.Ratio}
	default:
		s.identity = types.IdentityFromPath(path)
		if opts.AutoOrient {
			s.rotation = orientation(data)
		}
		s.rotated = rotate(src, s.rotation)
		s.rect = cropper.NewCentered(s.Size(), opts.WidthDivisor, opts.Ratio)
	}
	return s, nil
}

// LoadAll loads every path in order. Unreadable files are logged and
// skipped. A corrupt crop record stops loading unless opts.SkipCorrupt is
// set.
func LoadAll(paths []string, opts Options, log *bolt.Logger) ([]*Session, error) {
	if log == nil {
		log = logging.Get()
	}

	sessions := make([]*Session, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p, opts)
		switch {
		case err == nil:
			sessions = append(sessions, s)
		case errors.Is(err, ErrUnreadable):
			logging.NewEvent(log.Warn()).Add(logging.Path(p), logging.ErrorField(err)).Msg("skipping unreadable image")
		case errors.Is(err, metadata.ErrDecode) && opts.SkipCorrupt:
			logging.NewEvent(log.Warn()).Add(logging.Path(p), logging.ErrorField(err)).Msg("skipping image with corrupt crop record")
		default:
			return nil, err
		}
	}

	logging.NewEvent(log.Debug()).Add(logging.Count(len(sessions))).Msg("sessions loaded")
	return sessions, nil
}

// orientation reads the EXIF Orientation tag. Any failure means upright.
func orientation(data []byte) types.Rotation {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return types.RotationFromOrientation(v)
}

// rotate turns img clockwise by r quarter turns. imaging rotates
// counter-clockwise.
func rotate(img image.Image, r types.Rotation) *image.NRGBA {
	switch r {
	case 1:
		return imaging.Rotate270(img)
	case 2:
		return imaging.Rotate180(img)
	case 3:
		return imaging.Rotate90(img)
	default:
		return imaging.Clone(img)
	}
}

// Path returns the source file.
func (s *Session) Path() string { return s.path }

// Identity returns the person on the photo.
func (s *Session) Identity() types.Identity { return s.identity }

// Rect returns the crop rectangle in the rotated frame.
func (s *Session) Rect() cropper.Rect { return s.rect }

// Rotation returns the clockwise quarter turns applied to the source.
func (s *Session) Rotation() types.Rotation { return s.rotation }

// Frame returns the rotated full image the rectangle is defined in.
func (s *Session) Frame() *image.NRGBA { return s.rotated }

// Size returns the dimensions of the rotated frame.
func (s *Session) Size() image.Point { return s.rotated.Bounds().Size() }

// CurrentCrop returns the pixels under the crop rectangle. The session is
// not modified.
func (s *Session) CurrentCrop() *image.NRGBA {
	return imaging.Crop(s.rotated, s.rect.Image())
}

// Mutate moves or resizes the rectangle by step. Moves that would leave
// the rotated frame are ignored.
func (s *Session) Mutate(d cropper.Direction, step int) {
	s.rect = s.rect.Move(d, step, s.Size())
}

// SetRotation sets the rotation to k modulo 4 and rebuilds the rotated
// frame. The rectangle keeps its coordinates, so it may lie outside the
// new frame until it is moved back in.
func (s *Session) SetRotation(k int) {
	r := types.NewRotation(k)
	if r == s.rotation && s.rotated != nil {
		return
	}
	s.rotation = r
	s.rotated = rotate(s.source, r)
}

// RotateLeft turns the frame a quarter turn counter-clockwise.
func (s *Session) RotateLeft() { s.SetRotation(int(s.rotation.Left())) }

// RotateRight turns the frame a quarter turn clockwise.
func (s *Session) RotateRight() { s.SetRotation(int(s.rotation.Right())) }

// Record returns the durable form of the session.
func (s *Session) Record() metadata.Record {
	return metadata.Record{
		Given:    s.identity.Given,
		Family:   s.identity.Family,
		X:        int32(s.rect.X),
		Y:        int32(s.rect.Y),
		W:        int32(s.rect.W),
		Rotation: int8(s.rotation),
	}
}

// Persist writes the crop record into the source file. The file is
// re-read, written to a synced temporary file and renamed over the source,
// so a failure leaves the source untouched. An unchanged record skips the
// write.
func (s *Session) Persist() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if !metadata.IsJPEG(data) {
		return fmt.Errorf("%s: %w", s.path, ErrNotJPEG)
	}

	out, err := metadata.WriteRecord(data, s.Record())
	if err != nil {
		return fmt.Errorf("failed to write crop record to %s: %w", s.path, err)
	}
	if bytes.Equal(out, data) {
		return nil
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if err := renameio.WriteFile(s.path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
