package matcher

import (
	"regexp"
	"strconv"
)

// EpisodeToken is an episode number found in an upload title.
type EpisodeToken struct {
	Season    int
	HasSeason bool
	Episode   int
}

var (
	seasonEpisodeRegex = regexp.MustCompile(`(?i)\bs(\d{1,2})\s?e(\d{1,3})\b`)
	crossRegex         = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`)
	episodeWordRegex   = regexp.MustCompile(`(?i)\b(?:episode|ep)\.?\s*#?\s*(\d{1,3})\b`)
	bareEpisodeRegex   = regexp.MustCompile(`(?i)\be(\d{1,3})\b`)
	hashRegex          = regexp.MustCompile(`#(\d{1,3})\b`)
	partRegex          = regexp.MustCompile(`(?i)\b(?:part|pt)\.?\s*(\d{1,3})\b`)
)

// ExtractEpisodeTokens returns every episode number token in title, season
// qualified tokens first.
func ExtractEpisodeTokens(title string) []EpisodeToken {
	var tokens []EpisodeToken
	seen := make(map[EpisodeToken]bool)
	add := func(t EpisodeToken) {
		if !seen[t] {
			seen[t] = true
			tokens = append(tokens, t)
		}
	}

	for _, re := range []*regexp.Regexp{seasonEpisodeRegex, crossRegex} {
		for _, m := range re.FindAllStringSubmatch(title, -1) {
			season, _ := strconv.Atoi(m[1])
			ep, _ := strconv.Atoi(m[2])
			add(EpisodeToken{Season: season, HasSeason: true, Episode: ep})
		}
	}
	for _, re := range []*regexp.Regexp{episodeWordRegex, bareEpisodeRegex, hashRegex, partRegex} {
		for _, m := range re.FindAllStringSubmatch(title, -1) {
			ep, _ := strconv.Atoi(m[1])
			add(EpisodeToken{Episode: ep})
		}
	}
	return tokens
}

// Matches reports whether the token names the given season and episode.
func (t EpisodeToken) Matches(season, episode int) bool {
	if t.Episode != episode {
		return false
	}
	return !t.HasSeason || t.Season == season
}
