package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"songqs/internal/churchtools"
	"songqs/internal/library"
	"songqs/internal/sng"
	syncpkg "songqs/internal/sync"
)

var uploadByID bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the library with ChurchTools",
}

var syncMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "Write ChurchTools song ids into matching local files",
	Long: `Matches local files without an id against ChurchTools songs by name
and category and stores the id in the file header. Matching by name is
ambiguous when a songbook holds the same title twice.`,
	RunE: runSyncMatch,
}

var syncUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload local songs to ChurchTools",
	Long: `Creates ChurchTools songs for local files without a remote
counterpart and uploads their SNG file to the new default arrangement.
New songs get the configured default tag and the generated id is
written back into the local file.

With --by-id the SNG attachments of already matched songs are
overwritten instead.`,
	RunE: runSyncUpload,
}

var syncDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download songs that exist only in ChurchTools",
	Long: `Downloads the default arrangement SNG file of every ChurchTools song
without a local counterpart into its category folder. Existing local
files are never overwritten.`,
	RunE: runSyncDownload,
}

var syncTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Tag ChurchTools songs with attachment problems",
	Long: `Checks every ChurchTools song arrangement for its number of SNG
attachments and maintains the "QS: missing sng" and "QS: too many sng"
tags accordingly. Both tags must already exist on the instance.`,
	RunE: runSyncTags,
}

// syncSetup prepares everything a sync subcommand needs: config check,
// scanned library, connected client and fetched remote songs.
func syncSetup(ctx context.Context) ([]*sng.File, []churchtools.Song, *syncpkg.Syncer, error) {
	if err := cfg.RequireChurchTools(); err != nil {
		return nil, nil, nil, err
	}

	files, err := scanLibrary(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	client := churchtools.NewClient(cfg.ChurchTools.Domain, cfg.ChurchTools.Token,
		churchtools.WithThrottle(cfg.Throttle()))

	remote, err := client.Songs(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	categories := make(map[string]bool)
	for _, song := range remote {
		if song.Category.Name != "" {
			categories[song.Category.Name] = true
		}
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	if _, err := library.CategoryFoldersExist(names, cfg.Library.Root); err != nil {
		return nil, nil, nil, err
	}

	return files, remote, syncpkg.New(client, cfg.ChurchTools.DefaultTagID), nil
}

func runSyncMatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	files, remote, syncer, err := syncSetup(ctx)
	if err != nil {
		return err
	}
	return syncer.MatchIDs(ctx, files, remote)
}

func runSyncUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	files, remote, syncer, err := syncSetup(ctx)
	if err != nil {
		return err
	}

	if uploadByID {
		return syncer.UploadByID(ctx, files, remote)
	}
	if err := syncer.UploadNew(ctx, files, remote); err != nil {
		return err
	}
	return recordUploads(files)
}

func runSyncDownload(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	files, remote, syncer, err := syncSetup(ctx)
	if err != nil {
		return err
	}
	return syncer.DownloadMissing(ctx, files, remote, cfg.Library.Root)
}

func runSyncTags(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	if err := cfg.RequireChurchTools(); err != nil {
		return err
	}
	client := churchtools.NewClient(cfg.ChurchTools.Domain, cfg.ChurchTools.Token,
		churchtools.WithThrottle(cfg.Throttle()))
	return syncpkg.New(client, cfg.ChurchTools.DefaultTagID).TagAttachmentIssues(ctx)
}

// recordUploads stores every file that now carries an id from this run.
func recordUploads(files []*sng.File) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.BeginRun("sync upload")
	if err != nil {
		return err
	}
	uploaded := 0
	for _, f := range files {
		if f.Modified() && f.ID() > 0 {
			if err := st.RecordUpload(runID, f.Name, f.ID()); err != nil {
				return err
			}
			uploaded++
		}
	}
	return st.FinishRun(runID, len(files), uploaded)
}

func init() {
	syncUploadCmd.Flags().BoolVar(&uploadByID, "by-id", false, "overwrite remote SNG files of matched songs")
	syncCmd.AddCommand(syncMatchCmd, syncUploadCmd, syncDownloadCmd, syncTagsCmd)
	rootCmd.AddCommand(syncCmd)
}
