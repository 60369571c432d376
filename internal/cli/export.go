package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/pkg/processing"
)

// exportOptions holds options for the export command.
type exportOptions struct {
	outputDir string
	format    string
	quality   int
	width     int
	height    int
}

func (a *App) newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export DIR",
		Short: "Write the cropped derivative of every photo in DIR",
		Long: `Write the cropped derivative of every photo in DIR using the crop stored in
each file. Photos without a stored crop use the default centered crop.

Examples:
  trombinoscope export photos/
  trombinoscope export photos/ -o out/ --format webp --width 400 --height 320`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (default: output_dir inside DIR)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: jpg, png or webp")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "Encoding quality (1-100)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Resize to this width (with --height)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Resize to this height (with --width)")

	return cmd
}

func (a *App) runExport(cmd *cobra.Command, dir string, opts *exportOptions) error {
	if opts.format != "" {
		a.cfg.Output.DefaultFormat = opts.format
	}
	if opts.quality > 0 {
		a.cfg.Output.Quality = opts.quality
	}
	if opts.width > 0 {
		a.cfg.Output.Width = opts.width
	}
	if opts.height > 0 {
		a.cfg.Output.Height = opts.height
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	sessions, err := a.loadDir(dir)
	if err != nil {
		return err
	}

	out := a.outputDir(dir, opts.outputDir)
	written, err := processing.ExportAll(processing.NewProcessor(), sessions, a.cfg.ExportOptions(out))
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if err != nil {
		return err
	}

	logging.NewEvent(a.log.Info()).Add(logging.Path(out), logging.Count(len(written))).Msg("derivatives exported")
	return nil
}
