// Package sync reconciles the local SNG library with the songs stored
// in ChurchTools. Songs are matched by the ChurchTools id kept in each
// file's header; name and category serve as fallback for files that
// never got an id.
package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"songqs/internal/churchtools"
	"songqs/internal/logging"
	"songqs/internal/sng"
)

// Tags marking songs whose default arrangement has a wrong number of
// SNG attachments.
const (
	TagMissingSng = "QS: missing sng"
	TagTooManySng = "QS: too many sng"
)

// API is the ChurchTools surface the syncer needs.
type API interface {
	Songs(ctx context.Context) ([]churchtools.Song, error)
	Song(ctx context.Context, id int) (*churchtools.Song, error)
	CreateSong(ctx context.Context, req churchtools.CreateSongRequest) (int, error)
	SongCategories(ctx context.Context) (map[string]int, error)
	SongTags(ctx context.Context) (map[string]int, error)
	AddSongTag(ctx context.Context, songID, tagID int) error
	RemoveSongTag(ctx context.Context, songID, tagID int) error
	UploadFile(ctx context.Context, domainType string, domainID int, path string, overwrite bool) error
	DownloadFile(ctx context.Context, domainType string, domainID int, name, targetDir string) error
}

// Syncer runs sync operations against one ChurchTools instance.
type Syncer struct {
	api          API
	defaultTagID int
}

// New returns a Syncer. defaultTagID is attached to every newly created
// song so uploads are identifiable on the instance.
func New(api API, defaultTagID int) *Syncer {
	return &Syncer{api: api, defaultTagID: defaultTagID}
}

// category returns the ChurchTools category name a file belongs to,
// which is its songbook folder name.
func category(f *sng.File) string {
	return filepath.Base(f.Dir)
}

func title(f *sng.File) string {
	return strings.TrimSuffix(f.Name, ".sng")
}

func localByID(files []*sng.File) map[int]*sng.File {
	byID := make(map[int]*sng.File)
	for _, f := range files {
		if id := f.ID(); id > 0 {
			byID[id] = f
		}
	}
	return byID
}

// MatchIDs writes ChurchTools ids into local files that lack one but
// match a remote song by name and category. Remote songs without any
// local counterpart are logged. Matching by name is ambiguous when a
// songbook holds the same title twice, so matched files are reported.
func (s *Syncer) MatchIDs(ctx context.Context, files []*sng.File, remote []churchtools.Song) error {
	byID := localByID(files)

	type nameCat struct{ name, category string }
	unmatched := make(map[nameCat]*sng.File)
	for _, f := range files {
		if _, ok := byID[f.ID()]; ok && f.ID() > 0 {
			continue
		}
		unmatched[nameCat{title(f), category(f)}] = f
	}

	for _, song := range remote {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := byID[song.ID]; ok {
			continue
		}
		f, ok := unmatched[nameCat{song.Name, song.Category.Name}]
		if !ok {
			logging.L().Warn("remote song not found locally",
				zap.Int("id", song.ID), zap.String("name", song.Name),
				zap.String("category", song.Category.Name))
			continue
		}

		f.SetID(song.ID)
		if err := f.Write(); err != nil {
			return err
		}
		logging.L().Info("matched song id",
			zap.Int("id", song.ID), zap.String("file", f.Name),
			zap.String("category", category(f)))
	}
	return nil
}

// UploadNew creates a ChurchTools song for every local file without a
// remote counterpart, tags it, writes the new id into the file and
// uploads it to the default arrangement.
func (s *Syncer) UploadNew(ctx context.Context, files []*sng.File, remote []churchtools.Song) error {
	remoteIDs := make(map[int]bool, len(remote))
	for _, song := range remote {
		remoteIDs[song.ID] = true
	}

	categories, err := s.api.SongCategories(ctx)
	if err != nil {
		return err
	}

	for _, f := range files {
		if id := f.ID(); id > 0 && remoteIDs[id] {
			continue
		}

		categoryID, ok := categories[category(f)]
		if !ok {
			logging.L().Warn("no ChurchTools category for folder",
				zap.String("folder", category(f)), zap.String("file", f.Name))
			continue
		}

		req := churchtools.CreateSongRequest{
			Name:       title(f),
			CategoryID: categoryID,
			Author:     combinedAuthors(f),
			Copyright:  f.Header.Get("(c)"),
			CCLI:       f.Header.Get("CCLI"),
		}
		logging.L().Info("uploading new song",
			zap.String("title", req.Name), zap.Int("category", categoryID),
			zap.String("author", req.Author), zap.String("ccli", req.CCLI))

		songID, err := s.api.CreateSong(ctx, req)
		if err != nil {
			return err
		}
		if s.defaultTagID > 0 {
			if err := s.api.AddSongTag(ctx, songID, s.defaultTagID); err != nil {
				return err
			}
		}

		f.SetID(songID)
		if err := f.Write(); err != nil {
			return err
		}

		song, err := s.api.Song(ctx, songID)
		if err != nil {
			return err
		}
		arrangement := song.DefaultArrangement()
		if arrangement == nil {
			return fmt.Errorf("song %d has no default arrangement", songID)
		}
		if err := s.api.UploadFile(ctx, churchtools.DomainTypeSongArrangement,
			arrangement.ID, f.Path(), false); err != nil {
			return err
		}
	}
	return nil
}

// UploadByID overwrites the SNG attachment of the default arrangement
// for every local file whose id exists remotely.
func (s *Syncer) UploadByID(ctx context.Context, files []*sng.File, remote []churchtools.Song) error {
	arrangements := make(map[int]int, len(remote))
	for _, song := range remote {
		if a := song.DefaultArrangement(); a != nil {
			arrangements[song.ID] = a.ID
		}
	}

	uploaded := 0
	for _, f := range files {
		arrangementID, ok := arrangements[f.ID()]
		if !ok {
			continue
		}
		if err := s.api.UploadFile(ctx, churchtools.DomainTypeSongArrangement,
			arrangementID, f.Path(), true); err != nil {
			return err
		}
		uploaded++
	}
	logging.L().Info("overwrote remote arrangements", zap.Int("count", uploaded))
	return nil
}

// DownloadMissing fetches songs that exist in ChurchTools but not
// locally into their category folder under root. Existing local files
// are never overwritten. Returns an error listing songs it had to skip.
func (s *Syncer) DownloadMissing(ctx context.Context, files []*sng.File, remote []churchtools.Song, root string) error {
	byID := localByID(files)

	var skipped []string
	for _, song := range remote {
		if _, ok := byID[song.ID]; ok {
			continue
		}

		arrangement := song.DefaultArrangement()
		if arrangement == nil {
			logging.L().Warn("remote song has no default arrangement",
				zap.Int("id", song.ID), zap.String("name", song.Name))
			skipped = append(skipped, song.Name)
			continue
		}

		name := song.Name + ".sng"
		targetDir := filepath.Join(root, song.Category.Name)
		if _, err := os.Stat(filepath.Join(targetDir, name)); err == nil {
			logging.L().Warn("local file already exists - try match instead",
				zap.Int("id", song.ID), zap.String("name", name))
			continue
		}
		logging.L().Debug("downloading song",
			zap.Int("id", song.ID), zap.String("name", song.Name),
			zap.String("category", song.Category.Name))

		if err := s.api.DownloadFile(ctx, churchtools.DomainTypeSongArrangement,
			arrangement.ID, name, targetDir); err != nil {
			logging.L().Warn("download failed",
				zap.Int("id", song.ID), zap.String("name", name), zap.Error(err))
			skipped = append(skipped, song.Name)
		}
	}

	if len(skipped) > 0 {
		sort.Strings(skipped)
		return fmt.Errorf("failed to download %d songs: %s",
			len(skipped), strings.Join(skipped, ", "))
	}
	return nil
}

// TagAttachmentIssues checks every remote song's arrangements for their
// SNG attachment count and maintains the QS tags: no attachment gets
// the missing tag, more than one the surplus tag, exactly one in every
// arrangement clears both.
func (s *Syncer) TagAttachmentIssues(ctx context.Context) error {
	tags, err := s.api.SongTags(ctx)
	if err != nil {
		return err
	}
	missingTag, okMissing := tags[TagMissingSng]
	tooManyTag, okTooMany := tags[TagTooManySng]
	if !okMissing || !okTooMany {
		return fmt.Errorf("required song tags %q and %q not present on instance",
			TagMissingSng, TagTooManySng)
	}

	songs, err := s.api.Songs(ctx)
	if err != nil {
		return err
	}

	for _, song := range songs {
		missing, tooMany := false, false
		for _, arrangement := range song.Arrangements {
			count := 0
			for _, file := range arrangement.Files {
				if strings.Contains(file.Name, ".sng") {
					count++
				}
			}
			switch {
			case count == 0:
				missing = true
			case count > 1:
				tooMany = true
			}
		}

		if missing {
			if err := s.api.AddSongTag(ctx, song.ID, missingTag); err != nil {
				return err
			}
		}
		if tooMany {
			if err := s.api.AddSongTag(ctx, song.ID, tooManyTag); err != nil {
				return err
			}
		}
		if !missing && !tooMany {
			if err := s.api.RemoveSongTag(ctx, song.ID, missingTag); err != nil {
				return err
			}
			if err := s.api.RemoveSongTag(ctx, song.ID, tooManyTag); err != nil {
				return err
			}
		}
	}
	return nil
}

// combinedAuthors merges the Author and Melody headers into one unique,
// comma separated credit line.
func combinedAuthors(f *sng.File) string {
	seen := make(map[string]bool)
	var authors []string
	for _, header := range []string{"Author", "Melody"} {
		for _, name := range strings.Split(f.Header.Get(header), ", ") {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			authors = append(authors, name)
		}
	}
	return strings.Join(authors, ", ")
}
