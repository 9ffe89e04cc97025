// songqs is a quality assurance tool for SongBeamer SNG song
// collections. It validates and cleans the local files and keeps them
// in sync with the songs stored in a ChurchTools instance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"songqs/internal/config"
	"songqs/internal/library"
	"songqs/internal/logging"
	"songqs/internal/sng"
	"songqs/internal/store"
)

var (
	// Global flags
	configPath  string
	verbose     bool
	libraryRoot string
	outputDir   string
	timeout     time.Duration

	cfg        *config.Config
	closeLogs  func()
)

var rootCmd = &cobra.Command{
	Use:   "songqs",
	Short: "Quality assurance for SongBeamer SNG files and ChurchTools",
	Long: `songqs validates and cleans SongBeamer SNG files and synchronizes
the local song collection with a ChurchTools instance.

The song library is a directory with one folder per songbook category.
ChurchTools access requires churchtools.domain and churchtools.token in
the configuration or the CT_DOMAIN and CT_TOKEN environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if libraryRoot != "" {
			cfg.Library.Root = libraryRoot
		}
		if outputDir != "" {
			cfg.Library.Output = outputDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		closeLogs, err = logging.Init(logging.Config{
			Level:      level,
			File:       cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeBytes,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLogs != nil {
			closeLogs()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns a context cancelled by SIGINT/SIGTERM and the
// global timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logging.L().Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// scanLibrary reads all songs from the configured library.
func scanLibrary(ctx context.Context) ([]*sng.File, error) {
	return library.Scan(ctx, cfg.Library.Root, cfg.Library.Folders)
}

// openStore opens the run history database.
func openStore() (*store.Store, error) {
	return store.Open(cfg.Database.Path)
}

// recordRun persists one finished invocation and its issues.
func recordRun(st *store.Store, command string, songs int, issues []library.Issue) error {
	runID, err := st.BeginRun(command)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		if err := st.RecordIssue(runID, issue.File, string(issue.Check)); err != nil {
			return err
		}
	}
	return st.FinishRun(runID, songs, len(issues))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "songqs.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on the console")
	rootCmd.PersistentFlags().StringVar(&libraryRoot, "library", "", "override the library root directory")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "write cleaned files to this directory instead of in place")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall command timeout")
}
