package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"songqs/internal/library"
	"songqs/internal/logging"
)

var validateFix bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check all songs without changing any file",
	Long: `Runs every quality check on the whole library and reports the
issues found. Files are never modified unless --fix is given, which
applies the same fixes as "songqs clean" and writes the files in place.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	files, err := scanLibrary(ctx)
	if err != nil {
		return err
	}

	var issues []library.Issue
	if validateFix {
		issues = library.CleanAll(files, cfg.Cleaning.LinesPerSlide)
		if err := library.WriteAll(files, cfg.Library.Output); err != nil {
			return err
		}
	} else {
		issues = library.ValidateAll(files, cfg.Cleaning.LinesPerSlide)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := recordRun(st, "validate", len(files), issues); err != nil {
		return err
	}

	printIssueSummary(cmd, len(files), issues)
	if len(issues) > 0 {
		return fmt.Errorf("%d issues in %d songs", len(issues), len(files))
	}
	return nil
}

func init() {
	validateCmd.Flags().BoolVar(&validateFix, "fix", false, "apply fixes and write changed files")
}

func printIssueSummary(cmd *cobra.Command, songs int, issues []library.Issue) {
	counts := make(map[library.Check]int)
	for _, issue := range issues {
		counts[issue.Check]++
		logging.L().Debug("issue",
			zap.String("file", issue.File), zap.String("check", string(issue.Check)))
	}

	checks := make([]string, 0, len(counts))
	for check := range counts {
		checks = append(checks, string(check))
	}
	sort.Strings(checks)

	cmd.Printf("checked %d songs, %d issues\n", songs, len(issues))
	for _, check := range checks {
		cmd.Printf("  %-20s %d\n", check, counts[library.Check(check)])
	}
}
