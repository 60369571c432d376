// Package cli provides the trombinoscope command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/trombinoscope/internal/config"
	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/internal/utils"
	"github.com/menta2k/trombinoscope/pkg/session"
)

// App is the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *bolt.Logger
}

// New creates the CLI application with every subcommand.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "trombinoscope",
		Short: "Interactive photo cropping for class portraits",
		Long: `trombinoscope crops a directory of portrait photos interactively.

The crop region, rotation and person name of each photo are stored inside the
JPEG file itself, so a later session resumes where the previous one stopped.
Cropped derivatives can be exported at any time.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to configuration file (JSON or YAML)")
	app.root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	app.root.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "Log format (console or json)")

	app.root.AddCommand(
		app.newCropCmd(),
		app.newExportCmd(),
		app.newShowCmd(),
		app.newOverlayCmd(),
	)

	return app
}

// Root returns the root command, e.g. for fang.Execute.
func (a *App) Root() *cobra.Command {
	return a.root
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}

func (a *App) setup(cmd *cobra.Command, args []string) error {
	// Load .env file if present (ignore errors)
	_ = godotenv.Load()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lc := cfg.LoggerConfig()
	lc.Output = a.stderr
	a.cfg = cfg
	a.log = logging.New(lc)
	logging.Init(lc)
	return nil
}

// loadDir loads every image in dir.
func (a *App) loadDir(dir string) ([]*session.Session, error) {
	if !utils.DirExists(dir) {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	paths, err := utils.ListImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	opts, err := a.cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	sessions, err := session.LoadAll(paths, opts, a.log)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no readable images in %s", dir)
	}
	return sessions, nil
}

// outputDir resolves the derivative directory. A relative configured
// directory lives inside the photo directory.
func (a *App) outputDir(dir, flag string) string {
	if flag != "" {
		return flag
	}
	out := a.cfg.Output.OutputDir
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(dir, out)
}

// loadFile loads a single image.
func (a *App) loadFile(path string) (*session.Session, error) {
	if !utils.FileExists(path) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	opts, err := a.cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	return session.Load(path, opts)
}
