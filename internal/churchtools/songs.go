package churchtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// Song is one ChurchTools song with its arrangements.
type Song struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Category     Category      `json:"category"`
	Author       string        `json:"author"`
	Copyright    string        `json:"copyright"`
	CCLI         string        `json:"ccli"`
	Arrangements []Arrangement `json:"arrangements"`
}

// Category is a song category, mapped locally to a songbook folder.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Arrangement is one song arrangement and its file attachments.
type Arrangement struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	Files     []File `json:"files"`
}

// File is an attachment of an arrangement.
type File struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	FileURL string `json:"fileUrl"`
}

// DefaultArrangement returns the default arrangement, or nil.
func (s *Song) DefaultArrangement() *Arrangement {
	for i := range s.Arrangements {
		if s.Arrangements[i].IsDefault {
			return &s.Arrangements[i]
		}
	}
	return nil
}

const songsPageSize = 100

// Songs fetches all songs, following pagination.
func (c *Client) Songs(ctx context.Context) ([]Song, error) {
	var songs []Song
	for page := 1; ; page++ {
		query := url.Values{
			"page":  {strconv.Itoa(page)},
			"limit": {strconv.Itoa(songsPageSize)},
		}
		env, err := c.doJSON(ctx, "GET", "/api/songs", query, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list songs: %w", err)
		}

		var batch []Song
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode songs: %w", err)
		}
		songs = append(songs, batch...)

		if env.Meta.Pagination.LastPage == 0 || page >= env.Meta.Pagination.LastPage {
			break
		}
	}
	logging.L().Debug("fetched songs", zap.Int("count", len(songs)))
	return songs, nil
}

// Song fetches a single song by id.
func (c *Client) Song(ctx context.Context, id int) (*Song, error) {
	env, err := c.doJSON(ctx, "GET", "/api/songs/"+strconv.Itoa(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get song %d: %w", id, err)
	}
	var song Song
	if err := json.Unmarshal(env.Data, &song); err != nil {
		return nil, fmt.Errorf("failed to decode song %d: %w", id, err)
	}
	return &song, nil
}

// CreateSongRequest holds the metadata for a new song.
type CreateSongRequest struct {
	Name       string `json:"name"`
	CategoryID int    `json:"songCategoryId"`
	Author     string `json:"author"`
	Copyright  string `json:"copyright"`
	CCLI       string `json:"ccli"`
}

// CreateSong creates a song and returns its new id. ChurchTools creates
// a default arrangement alongside.
func (c *Client) CreateSong(ctx context.Context, req CreateSongRequest) (int, error) {
	env, err := c.doJSON(ctx, "POST", "/api/songs", nil, req)
	if err != nil {
		return 0, fmt.Errorf("failed to create song %q: %w", req.Name, err)
	}
	var song Song
	if err := json.Unmarshal(env.Data, &song); err != nil {
		return 0, fmt.Errorf("failed to decode created song: %w", err)
	}
	logging.L().Debug("created song",
		zap.Int("id", song.ID), zap.String("name", req.Name))
	return song.ID, nil
}

// SongCategories returns all song categories by name. They come from the
// event masterdata because ChurchTools has no dedicated endpoint.
func (c *Client) SongCategories(ctx context.Context) (map[string]int, error) {
	env, err := c.doJSON(ctx, "GET", "/api/event/masterdata", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get masterdata: %w", err)
	}

	var data struct {
		SongCategories []Category `json:"songCategories"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode song categories: %w", err)
	}

	categories := make(map[string]int, len(data.SongCategories))
	for _, c := range data.SongCategories {
		categories[c.Name] = c.ID
	}
	return categories, nil
}
