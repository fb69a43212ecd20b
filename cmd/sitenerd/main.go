package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sitenerd/internal/config"
	"sitenerd/internal/project"
	"sitenerd/internal/report"
	"sitenerd/internal/telemetry"
)

var (
	// Global flags
	projectDir string
	verbose    bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sitenerd",
	Short: "siteNERD - local-first website generator",
	Long: `siteNERD builds small product and brochure websites from spreadsheets.

A project lives in a single folder: your content spreadsheets and images stay
next to a _sitenerd/ metadata directory, and the generated site lands in
output/. Imports are validated in a dry run first, and every apply is backed
by a snapshot so it can be undone.

Run without arguments to start the guided setup wizard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, args)
	},
}

// session bundles everything a command needs from an opened project.
type session struct {
	ctx project.Context
	cfg *config.Config
	rec *telemetry.Recorder
	cap *report.Capturer
}

// openSession opens the project at --project (default: the working
// directory) and wires its telemetry streams.
func openSession() (*session, error) {
	dir := projectDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}

	ctx, cfg, err := project.NewManager().Open(dir)
	if err != nil {
		return nil, err
	}

	rec := telemetry.NewRecorder(cfg.Logging.Enabled,
		ctx.TelemetryLogPath(), ctx.ActivityLogPath(), ctx.ImportLogPath())
	cap := report.NewCapturer(filepath.Join(ctx.LogsDir(), "errors.log"))
	return &session{ctx: ctx, cfg: cfg, rec: rec, cap: cap}, nil
}

// close flushes the session's log streams.
func (s *session) close() {
	_ = s.rec.Close()
	_ = s.cap.Close()
}

// fail captures err with context and returns it decorated with the error ID
// users can quote.
func (s *session) fail(op string, err error, fields map[string]any) error {
	if err == nil {
		return nil
	}
	id := s.cap.Capture(op, err, fields)
	s.rec.RecordError(op, err)
	return fmt.Errorf("%w (error id %s)", err, id)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(wizardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
