package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/internal/viewer"
	"github.com/menta2k/trombinoscope/pkg/controller"
	"github.com/menta2k/trombinoscope/pkg/processing"
	"github.com/menta2k/trombinoscope/pkg/session"
)

// cropOptions holds options for the crop command.
type cropOptions struct {
	outputDir  string
	noExport   bool
	saveOnExit bool
	width      int
	height     int
}

func (a *App) newCropCmd() *cobra.Command {
	opts := &cropOptions{}

	cmd := &cobra.Command{
		Use:   "crop DIR",
		Short: "Crop the photos of a directory interactively",
		Long: fmt.Sprintf(`Open a window showing the crop of each photo in DIR.

Keys:
  %s

Shift, Control and Alt multiply the move and zoom step. Saving stores every
crop in its photo and exports the derivatives.`, strings.Join(controller.DefaultKeymap().Describe(), "\n  ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("save-on-exit") {
				a.cfg.Controller.SaveOnExit = opts.saveOnExit
			}
			if opts.width > 0 {
				a.cfg.Output.Width = opts.width
			}
			if opts.height > 0 {
				a.cfg.Output.Height = opts.height
			}
			return a.runCrop(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Directory for cropped derivatives (default: output_dir inside DIR)")
	cmd.Flags().BoolVar(&opts.noExport, "no-export", false, "Only store crop records, do not write derivatives on save")
	cmd.Flags().BoolVar(&opts.saveOnExit, "save-on-exit", false, "Save every photo when the window closes")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Resize derivatives to this width (with --height)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Resize derivatives to this height (with --width)")

	return cmd
}

func (a *App) runCrop(cmd *cobra.Command, dir string, opts *cropOptions) error {
	sessions, err := a.loadDir(dir)
	if err != nil {
		return err
	}

	copts := a.cfg.ControllerOptions()
	copts.Logger = a.log
	if !opts.noExport {
		copts.OnSave = a.exportHook(a.outputDir(dir, opts.outputDir))
	}

	logging.NewEvent(a.log.Info()).Add(logging.Path(dir), logging.Count(len(sessions))).Msg("starting crop session")

	return viewer.Run(viewer.DefaultOptions(), func(w *viewer.Window) error {
		copts.Display = w
		c, err := controller.New(sessions, copts)
		if err != nil {
			return err
		}

		runErr := c.Run(cmd.Context(), w)
		if a.cfg.Controller.SaveOnExit {
			if err := c.SaveAll(); err != nil {
				return fmt.Errorf("failed to save on exit: %w", err)
			}
		}
		return runErr
	})
}

// exportHook writes the derivatives of every session to dir after a save.
func (a *App) exportHook(dir string) controller.SaveHook {
	p := processing.NewProcessor()
	eopts := a.cfg.ExportOptions(dir)
	return func(sessions []*session.Session) error {
		written, err := processing.ExportAll(p, sessions, eopts)
		logging.NewEvent(a.log.Info()).Add(logging.Path(dir), logging.Count(len(written))).Msg("derivatives exported")
		return err
	}
}
