package matcher

import (
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/ytarr/internal/library"
)

// Rule names a matching predicate.
type Rule string

const (
	RuleTitle         Rule = "title"
	RuleEpisodeNumber Rule = "episode_number"
	RuleFuzzy         Rule = "fuzzy"
	RuleDate          Rule = "date"
)

// Verdict is a predicate outcome for one episode/candidate pair.
type Verdict int

const (
	Unknown Verdict = iota // Input missing, the rule cannot decide
	Pass
	Fail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// expectation is an episode prepared for comparison.
type expectation struct {
	episode library.Episode
	clean   string
	words   []string
}

func newExpectation(ep library.Episode, prefix string) expectation {
	title := ep.Title
	if prefix != "" && title != "" {
		title = prefix + " - " + title
	}
	clean := CleanTitle(title)
	return expectation{episode: ep, clean: clean, words: strings.Fields(clean)}
}

// prepared is a candidate with its derived comparison fields cached.
type prepared struct {
	Candidate
	clean  string
	words  []string
	tokens []EpisodeToken
}

func prepare(c Candidate) prepared {
	clean := CleanTitle(c.Title)
	return prepared{
		Candidate: c,
		clean:     clean,
		words:     strings.Fields(clean),
		tokens:    ExtractEpisodeTokens(c.Title),
	}
}

func (p Policy) evaluate(rule Rule, e expectation, c prepared) Verdict {
	switch rule {
	case RuleTitle:
		return titleVerdict(e, c)
	case RuleEpisodeNumber:
		return episodeNumberVerdict(e, c)
	case RuleFuzzy:
		return fuzzyVerdict(e, c, p.FuzzyThreshold)
	case RuleDate:
		return dateVerdict(e, c, p.DateTolerance)
	default:
		return Unknown
	}
}

// titleVerdict passes when the whole cleaned expected title appears in the
// cleaned candidate title on word boundaries.
func titleVerdict(e expectation, c prepared) Verdict {
	if e.clean == "" || c.clean == "" {
		return Unknown
	}
	if strings.Contains(" "+c.clean+" ", " "+e.clean+" ") {
		return Pass
	}
	return Fail
}

func episodeNumberVerdict(e expectation, c prepared) Verdict {
	if len(c.tokens) == 0 {
		return Unknown
	}
	for _, t := range c.tokens {
		if t.Matches(e.episode.Season, e.episode.Episode) {
			return Pass
		}
	}
	return Fail
}

func fuzzyVerdict(e expectation, c prepared, threshold float64) Verdict {
	if len(e.words) == 0 || len(c.words) == 0 {
		return Unknown
	}
	if FuzzyScore(e.words, c.words) >= threshold {
		return Pass
	}
	return Fail
}

// FuzzyScore returns the best Jaro-Winkler similarity between the expected
// words and any window of the same number of candidate words.
func FuzzyScore(expected, candidate []string) float64 {
	want := strings.Join(expected, " ")
	n := len(expected)
	if len(candidate) <= n {
		return float64(edlib.JaroWinklerSimilarity(want, strings.Join(candidate, " ")))
	}
	var best float64
	for i := 0; i+n <= len(candidate); i++ {
		score := float64(edlib.JaroWinklerSimilarity(want, strings.Join(candidate[i:i+n], " ")))
		if score > best {
			best = score
		}
	}
	return best
}

func dateVerdict(e expectation, c prepared, tolerance time.Duration) Verdict {
	if e.episode.AirDate.IsZero() || c.Published.IsZero() {
		return Unknown
	}
	diff := c.Published.Sub(e.episode.AirDate)
	if diff < 0 {
		diff = -diff
	}
	if diff <= tolerance {
		return Pass
	}
	return Fail
}
