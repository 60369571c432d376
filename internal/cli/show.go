package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/internal/utils"
	"github.com/menta2k/trombinoscope/pkg/metadata"
	"github.com/menta2k/trombinoscope/pkg/processing"
)

// CropInfo is the JSON document printed by the show command.
type CropInfo struct {
	Path     string `json:"path"`
	Stored   bool   `json:"stored"`
	Given    string `json:"given"`
	Family   string `json:"family"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Rotation int    `json:"rotation"`
	Degrees  int    `json:"degrees"`
}

func (a *App) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print the crop of a photo as JSON",
		Long: `Print the crop of a photo as JSON. "stored" tells whether the crop comes
from a record inside the file or from the defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadFile(args[0])
			if err != nil {
				return err
			}

			info := CropInfo{Path: s.Path()}
			if data, err := os.ReadFile(s.Path()); err == nil && metadata.IsJPEG(data) {
				rec, err := metadata.Decode(data)
				if err != nil {
					return err
				}
				info.Stored = rec != nil
			}

			id, r := s.Identity(), s.Rect()
			info.Given, info.Family = id.Given, id.Family
			info.X, info.Y, info.Width, info.Height = r.X, r.Y, r.W, r.Height()
			info.Rotation, info.Degrees = int(s.Rotation()), s.Rotation().Degrees()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func (a *App) newOverlayCmd() *cobra.Command {
	var quality int

	cmd := &cobra.Command{
		Use:   "overlay FILE OUT",
		Short: "Draw the crop rectangle on the full photo",
		Long: `Write the rotated full photo with its crop rectangle drawn to OUT. The output
format follows the extension of OUT (jpg, png or webp).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := args[1]
			format := utils.GetFileExtension(out)
			if !utils.IsImageFile(out) {
				return fmt.Errorf("unsupported output format %q", format)
			}

			s, err := a.loadFile(args[0])
			if err != nil {
				return err
			}

			if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			p := processing.NewProcessor()
			img := p.CreateOverlay(s.Frame(), s.Rect().Image())
			if err := p.SaveImage(img, out, strings.ToLower(format), quality, false); err != nil {
				return fmt.Errorf("failed to save overlay: %w", err)
			}

			logging.NewEvent(a.log.Info()).Add(logging.Path(out)).Msg("overlay written")
			return nil
		},
	}

	cmd.Flags().IntVarP(&quality, "quality", "q", 90, "Encoding quality (1-100)")

	return cmd
}
