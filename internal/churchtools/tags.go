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

// Tag is a ChurchTools tag.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SongTags returns all tags of type "songs" keyed by name.
func (c *Client) SongTags(ctx context.Context) (map[string]int, error) {
	query := url.Values{"type": {"songs"}}
	env, err := c.doJSON(ctx, "GET", "/api/tags", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list song tags: %w", err)
	}

	var tags []Tag
	if err := json.Unmarshal(env.Data, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	byName := make(map[string]int, len(tags))
	for _, tag := range tags {
		byName[tag.Name] = tag.ID
	}
	return byName, nil
}

// AddSongTag attaches a tag to a song. Adding an already attached tag is
// a no-op on the server.
func (c *Client) AddSongTag(ctx context.Context, songID, tagID int) error {
	path := "/api/tags/song/" + strconv.Itoa(songID)
	body := map[string]int{"id": tagID}
	if _, err := c.doJSON(ctx, "POST", path, nil, body); err != nil {
		return fmt.Errorf("failed to tag song %d with %d: %w", songID, tagID, err)
	}
	logging.L().Debug("added song tag",
		zap.Int("song", songID), zap.Int("tag", tagID))
	return nil
}

// RemoveSongTag detaches a tag from a song. Removing a tag that is not
// attached is a no-op on the server.
func (c *Client) RemoveSongTag(ctx context.Context, songID, tagID int) error {
	path := "/api/tags/song/" + strconv.Itoa(songID) + "/" + strconv.Itoa(tagID)
	if _, err := c.doJSON(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("failed to untag song %d from %d: %w", songID, tagID, err)
	}
	logging.L().Debug("removed song tag",
		zap.Int("song", songID), zap.Int("tag", tagID))
	return nil
}
