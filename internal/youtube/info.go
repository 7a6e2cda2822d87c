package youtube

import (
	"encoding/json"
	"fmt"
	"time"
)

// info is the subset of the yt-dlp info dict we read.
type info struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Type           string  `json:"_type"`
	URL            string  `json:"url"`
	WebpageURL     string  `json:"webpage_url"`
	UploadDate     string  `json:"upload_date"` // YYYYMMDD
	Timestamp      float64 `json:"timestamp"`
	Duration       float64 `json:"duration"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	Ext            string  `json:"ext"`
	Entries        []info  `json:"entries"`
}

func parseInfo(data []byte) (*info, error) {
	var in info
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: decode yt-dlp json: %v", ErrPermanent, err)
	}
	return &in, nil
}

// flatten returns the video entries of a playlist, descending into channel tabs.
func (in *info) flatten() []info {
	if len(in.Entries) == 0 {
		if in.Type == "playlist" || in.ID == "" {
			return nil
		}
		return []info{*in}
	}
	var out []info
	for i := range in.Entries {
		out = append(out, in.Entries[i].flatten()...)
	}
	return out
}

func (in *info) published() time.Time {
	if in.Timestamp > 0 {
		return time.Unix(int64(in.Timestamp), 0).UTC()
	}
	if t, err := time.Parse("20060102", in.UploadDate); err == nil {
		return t
	}
	return time.Time{}
}

func (in *info) videoURL() string {
	if in.WebpageURL != "" {
		return in.WebpageURL
	}
	return watchURL(in.ID)
}

func (in *info) metadata() *Metadata {
	size := in.Filesize
	if size == 0 {
		size = in.FilesizeApprox
	}
	return &Metadata{
		ID:        in.ID,
		Title:     in.Title,
		Published: in.published(),
		Duration:  time.Duration(in.Duration * float64(time.Second)),
		Width:     in.Width,
		Height:    in.Height,
		Filesize:  size,
		Ext:       in.Ext,
	}
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
