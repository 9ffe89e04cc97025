package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"songqs/internal/library"
	"songqs/internal/logging"
)

var cleanDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Apply all fixes to the song library",
	Long: `Cleans every song: repairs the verse order, adds missing Intro and
STOP entries, normalizes verse numbers and slide lengths, fixes header
issues and repairs broken umlaut encodings. Changed files get a fresh
Editor header.

With --output the cleaned files are written to a separate directory,
otherwise the originals are overwritten.`,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	files, err := scanLibrary(ctx)
	if err != nil {
		return err
	}

	issues := library.CleanAll(files, cfg.Cleaning.LinesPerSlide)

	if cleanDryRun {
		changed := 0
		for _, f := range files {
			if f.Modified() {
				changed++
				logging.L().Info("would write", zap.String("file", f.Path()))
			}
		}
		cmd.Printf("dry run: %d of %d songs would change, %d issues remain\n",
			changed, len(files), len(issues))
		return nil
	}

	if err := library.WriteAll(files, cfg.Library.Output); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := recordRun(st, "clean", len(files), issues); err != nil {
		return err
	}

	printIssueSummary(cmd, len(files), issues)
	return nil
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "report changes without writing files")
	rootCmd.AddCommand(validateCmd, cleanCmd)
}
