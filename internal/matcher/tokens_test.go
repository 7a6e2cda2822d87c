package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEpisodeTokens(t *testing.T) {
	tests := []struct {
		title string
		want  []EpisodeToken
	}{
		{"Show S01E05 - Title", []EpisodeToken{{Season: 1, HasSeason: true, Episode: 5}}},
		{"Show s2e10", []EpisodeToken{{Season: 2, HasSeason: true, Episode: 10}}},
		{"Show 1x05", []EpisodeToken{{Season: 1, HasSeason: true, Episode: 5}}},
		{"Ep 5 - Episode Five", []EpisodeToken{{Episode: 5}}},
		{"Ep.12 Finale", []EpisodeToken{{Episode: 12}}},
		{"Episode 7: The Return", []EpisodeToken{{Episode: 7}}},
		{"Episode #8", []EpisodeToken{{Episode: 8}}},
		{"Vlog #42", []EpisodeToken{{Episode: 42}}},
		{"The Heist Part 2", []EpisodeToken{{Episode: 2}}},
		{"Show E03", []EpisodeToken{{Episode: 3}}},
		{"Episode Five", nil},
		{"Shot in 1080p", nil},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEpisodeTokens(tt.title))
		})
	}
}

func TestEpisodeToken_Matches(t *testing.T) {
	assert.True(t, EpisodeToken{Episode: 5}.Matches(3, 5), "season-less token matches any season")
	assert.True(t, EpisodeToken{Season: 1, HasSeason: true, Episode: 5}.Matches(1, 5))
	assert.False(t, EpisodeToken{Season: 2, HasSeason: true, Episode: 5}.Matches(1, 5))
	assert.False(t, EpisodeToken{Episode: 6}.Matches(1, 5))
}
