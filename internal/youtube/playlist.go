package youtube

import (
	"context"
	"fmt"
	"net/url"
	"time"

	ytplaylist "github.com/ytget/ytdlp/v2"
)

// playlistFunc returns the items of a playlist by ID.
type playlistFunc func(ctx context.Context, playlistID string, limit int) ([]Metadata, error)

func ytgetPlaylist(ctx context.Context, playlistID string, limit int) ([]Metadata, error) {
	items, err := ytplaylist.New().GetPlaylistItemsAll(ctx, playlistID, limit)
	if err != nil {
		return nil, err
	}
	videos := make([]Metadata, 0, len(items))
	for _, it := range items {
		videos = append(videos, Metadata{ID: it.VideoID, Title: it.Title})
	}
	return videos, nil
}

func playlistID(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	if id := u.Query().Get("list"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: playlist lister needs a URL with list=, got %s", ErrUnsupportedSource, source)
}

// listPlaylist reads playlist items through the InnerTube API. Items carry no
// publish date, so only title and episode-number rules can decide.
func (c *Client) listPlaylist(ctx context.Context, src Source, limit int) ([]Metadata, error) {
	start := time.Now()

	id, err := playlistID(src.URL)
	if err != nil {
		return nil, err
	}
	videos, err := c.playlist(ctx, id, limit)
	if err != nil {
		return nil, classify("playlist", err, "")
	}

	c.log.Debug("fetched playlist", "playlist_id", id, "items", len(videos), "duration_ms", time.Since(start).Milliseconds())
	return videos, nil
}
