// Package trombinoscope crops batches of portrait photos and keeps each crop
// inside the photo it belongs to.
//
// Every photo gets a crop rectangle with a fixed aspect ratio, a rotation in
// quarter turns and a person name taken from its file name ("Given @
// Family.jpg"). Saving stores these in a private APP14 segment of the JPEG,
// so reopening the directory resumes the previous session.
//
// Basic usage:
//
//	t := trombinoscope.New()
//	sessions, err := t.LoadDir("photos")
//	if err != nil {
//		log.Fatal(err)
//	}
//	s := sessions[0]
//	s.Mutate(cropper.Left, 10)
//	s.RotateRight()
//	if err := s.Persist(); err != nil {
//		log.Fatal(err)
//	}
//	written, err := t.Export(sessions, processing.DefaultExportOptions("photos/cropped"))
//
// The package consists of these components:
//
//  1. Cropper (pkg/cropper): crop rectangle geometry
//  2. Metadata (pkg/metadata): the crop record and its JPEG container codec
//  3. Session (pkg/session): one photo being edited
//  4. Controller (pkg/controller): key events to session commands
//  5. Processing (pkg/processing): decoding, derivatives and overlays
package trombinoscope

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/internal/utils"
	"github.com/menta2k/trombinoscope/pkg/controller"
	"github.com/menta2k/trombinoscope/pkg/processing"
	"github.com/menta2k/trombinoscope/pkg/session"
)

// Version of the trombinoscope library
const Version = "1.0.0"

// Trombinoscope loads, edits and exports photo directories
type Trombinoscope struct {
	opts      session.Options
	processor *processing.Processor
	log       *bolt.Logger
}

// New creates a Trombinoscope with the default session options
func New() *Trombinoscope {
	return NewWithOptions(session.DefaultOptions(), nil)
}

// NewWithOptions creates a Trombinoscope with custom session options. A nil
// logger uses the default logger.
func NewWithOptions(opts session.Options, log *bolt.Logger) *Trombinoscope {
	if log == nil {
		log = logging.Get()
	}
	return &Trombinoscope{
		opts:      opts,
		processor: processing.NewProcessor(),
		log:       log,
	}
}

// Load opens a single photo
func (t *Trombinoscope) Load(path string) (*session.Session, error) {
	return session.Load(path, t.opts)
}

// LoadDir opens every image directly inside dir, sorted by name. Unreadable
// images are skipped.
func (t *Trombinoscope) LoadDir(dir string) ([]*session.Session, error) {
	paths, err := utils.ListImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return session.LoadAll(paths, t.opts, t.log)
}

// Export writes the cropped derivative of every session
func (t *Trombinoscope) Export(sessions []*session.Session, opts processing.ExportOptions) ([]string, error) {
	return processing.ExportAll(t.processor, sessions, opts)
}

// ExportDir loads dir and writes its derivatives to opts.Dir
func (t *Trombinoscope) ExportDir(dir string, opts processing.ExportOptions) ([]string, error) {
	sessions, err := t.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return t.Export(sessions, opts)
}

// Edit runs the interactive controller over sessions until quit or the end
// of src.
func (t *Trombinoscope) Edit(ctx context.Context, sessions []*session.Session, src controller.EventSource, opts controller.Options) error {
	if opts.Logger == nil {
		opts.Logger = t.log
	}
	c, err := controller.New(sessions, opts)
	if err != nil {
		return err
	}
	return c.Run(ctx, src)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
