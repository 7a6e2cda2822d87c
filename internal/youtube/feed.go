package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultFeedBase = "https://www.youtube.com/feeds/videos.xml"

var channelIDRegex = regexp.MustCompile(`/channel/(UC[\w-]{22})`)

// atomFeed is the channel/playlist Atom feed. It carries the 15 newest uploads.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Link      struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// feedQuery derives the feed query parameters from a channel or playlist URL.
func feedQuery(source string) (url.Values, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	q := u.Query()
	switch {
	case q.Get("channel_id") != "":
		return url.Values{"channel_id": {q.Get("channel_id")}}, nil
	case q.Get("playlist_id") != "":
		return url.Values{"playlist_id": {q.Get("playlist_id")}}, nil
	case q.Get("list") != "":
		return url.Values{"playlist_id": {q.Get("list")}}, nil
	}
	if m := channelIDRegex.FindStringSubmatch(u.Path); m != nil {
		return url.Values{"channel_id": {m[1]}}, nil
	}
	return nil, fmt.Errorf("%w: feed lister needs a /channel/UC... or playlist URL, got %s", ErrUnsupportedSource, source)
}

func (c *Client) listFeed(ctx context.Context, src Source) ([]Metadata, error) {
	start := time.Now()

	q, err := feedQuery(src.URL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedBase+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify("feed", err, "")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: feed: %s", ErrTransient, resp.Status)
	default:
		return nil, fmt.Errorf("%w: feed: %s", ErrPermanent, resp.Status)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode feed: %v", ErrPermanent, err)
	}

	videos := make([]Metadata, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e.VideoID == "" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
		videos = append(videos, Metadata{
			ID:        e.VideoID,
			Title:     strings.TrimSpace(e.Title),
			Published: published.UTC(),
		})
	}

	c.log.Debug("fetched feed", "source", src.URL, "entries", len(videos), "duration_ms", time.Since(start).Milliseconds())
	return videos, nil
}
