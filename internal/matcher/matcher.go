// Package matcher pairs missing episodes with channel uploads.
//
// Each enabled rule yields pass, fail or unknown for an episode/candidate
// pair. Rules are tried strictest first; the first rule that passes any
// candidate decides. A single passing candidate is chosen, several are
// ambiguous. A weaker rule failing the chosen candidate is a disagreement.
// Matching is pure: no I/O, no clock.
package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/internal/library"
)

// Candidate is an upload that may be the source of an episode.
type Candidate struct {
	ID        string
	Title     string
	Published time.Time // zero when the lister cannot tell
	Duration  time.Duration
	URL       string
}

// Outcome classifies a match attempt.
type Outcome int

const (
	NoMatch Outcome = iota
	Accepted
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Ambiguous:
		return "ambiguous"
	default:
		return "no_match"
	}
}

// Disagreement selects what happens when a weaker rule fails the chosen candidate.
type Disagreement string

const (
	DisagreeAmbiguous Disagreement = "ambiguous"
	DisagreeStrictest Disagreement = "strictest"
)

// Policy configures matching for one series.
type Policy struct {
	Rules          []Rule // strictest first
	DateTolerance  time.Duration
	FuzzyThreshold float64
	OnDisagreement Disagreement
	TitlePrefix    string // series title, when uploads are named "<series> - <episode>"
}

// PolicyFor builds the policy of a series from its matching configuration.
func PolicyFor(m config.MatchingConfig, titlePrefix string) Policy {
	rules := make([]Rule, 0, len(m.Rules))
	for _, r := range m.Rules {
		rules = append(rules, Rule(r))
	}
	return Policy{
		Rules:          rules,
		DateTolerance:  m.DateTolerance,
		FuzzyThreshold: m.FuzzyThreshold,
		OnDisagreement: Disagreement(m.OnDisagreement),
		TitlePrefix:    titlePrefix,
	}
}

// Result is the outcome of matching one episode.
type Result struct {
	Episode    library.Episode
	Candidate  *Candidate // set only when Outcome is Accepted
	Outcome    Outcome
	Rule       Rule // deciding rule, empty for NoMatch
	Reason     string
	Contenders []Candidate // passing candidates for Ambiguous
}

// Match pairs each expected episode with at most one candidate. Episodes are
// processed in (season, episode) order and an accepted candidate is removed
// from the pool. Results are returned in processing order.
func Match(expected []library.Episode, candidates []Candidate, policy Policy) []Result {
	episodes := make([]library.Episode, len(expected))
	copy(episodes, expected)
	sort.SliceStable(episodes, func(i, j int) bool {
		if episodes[i].Season != episodes[j].Season {
			return episodes[i].Season < episodes[j].Season
		}
		return episodes[i].Episode < episodes[j].Episode
	})

	unique := Dedupe(candidates)
	pool := make([]prepared, 0, len(unique))
	for _, c := range unique {
		pool = append(pool, prepare(c))
	}
	consumed := make([]bool, len(pool))

	results := make([]Result, 0, len(episodes))
	for _, ep := range episodes {
		r, chosen := policy.matchOne(newExpectation(ep, policy.TitlePrefix), pool, consumed)
		if r.Outcome == Accepted {
			consumed[chosen] = true
		}
		results = append(results, r)
	}
	return results
}

// Dedupe drops repeated listings of the same video, keeping the first and
// filling its missing publish date or duration from the repeats. Candidates
// without an ID are kept as they are.
func Dedupe(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	seen := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if c.ID == "" {
			out = append(out, c)
			continue
		}
		i, ok := seen[c.ID]
		if !ok {
			seen[c.ID] = len(out)
			out = append(out, c)
			continue
		}
		if out[i].Published.IsZero() {
			out[i].Published = c.Published
		}
		if out[i].Duration == 0 {
			out[i].Duration = c.Duration
		}
	}
	return out
}

// matchOne returns the result for one episode and, when accepted, the pool
// index of the chosen candidate.
func (p Policy) matchOne(e expectation, pool []prepared, consumed []bool) (Result, int) {
	result := Result{Episode: e.episode, Outcome: NoMatch, Reason: "no rule matched any candidate"}

	for ri, rule := range p.Rules {
		var passing []int
		for i, c := range pool {
			if consumed[i] {
				continue
			}
			if p.evaluate(rule, e, c) == Pass {
				passing = append(passing, i)
			}
		}

		switch {
		case len(passing) == 0:
			continue
		case len(passing) > 1:
			result.Outcome = Ambiguous
			result.Rule = rule
			result.Reason = fmt.Sprintf("%d candidates pass %s", len(passing), rule)
			for _, i := range passing {
				result.Contenders = append(result.Contenders, pool[i].Candidate)
			}
			return result, -1
		}

		chosen := pool[passing[0]]
		result.Rule = rule

		var disagree []string
		for _, weaker := range p.Rules[ri+1:] {
			if p.evaluate(weaker, e, chosen) == Fail {
				disagree = append(disagree, string(weaker))
			}
		}
		if len(disagree) > 0 && p.OnDisagreement != DisagreeStrictest {
			result.Outcome = Ambiguous
			result.Reason = fmt.Sprintf("%s passes but %s fails", rule, strings.Join(disagree, ", "))
			result.Contenders = []Candidate{chosen.Candidate}
			return result, -1
		}

		c := chosen.Candidate
		result.Candidate = &c
		result.Outcome = Accepted
		result.Reason = fmt.Sprintf("matched by %s", rule)
		if len(disagree) > 0 {
			result.Reason += fmt.Sprintf(" (overriding %s)", strings.Join(disagree, ", "))
		}
		return result, passing[0]
	}

	return result, -1
}

// Unconsumed returns the candidates no accepted result claimed.
func Unconsumed(candidates []Candidate, results []Result) []Candidate {
	used := make(map[string]bool)
	for _, r := range results {
		if r.Outcome == Accepted {
			used[r.Candidate.ID] = true
		}
	}
	var out []Candidate
	for _, c := range candidates {
		if !used[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
