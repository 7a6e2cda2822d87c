// internal/importer/renamer.go
package importer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vmunix/ytarr/internal/config"
)

// Renamer applies a naming template to generate episode paths.
type Renamer struct {
	template string
}

// NewRenamer creates a Renamer. An empty template uses config.DefaultNaming.
func NewRenamer(template string) *Renamer {
	if template == "" {
		template = config.DefaultNaming
	}
	return &Renamer{template: template}
}

// EpisodeVars are the values available to naming templates.
type EpisodeVars struct {
	Series  string
	Season  int
	Episode int
	Title   string
	Quality string
	Ext     string
}

// EpisodePath generates the path of an episode file relative to the series folder.
func (r *Renamer) EpisodePath(v EpisodeVars) string {
	vars := map[string]any{
		"series":  SanitizeFilename(v.Series),
		"season":  v.Season,
		"episode": v.Episode,
		"title":   SanitizeFilename(v.Title),
		"quality": v.Quality,
		"ext":     strings.TrimPrefix(v.Ext, "."),
	}

	segments := strings.Split(filepath.ToSlash(applyTemplate(r.template, vars)), "/")
	cleaned := segments[:0]
	for _, seg := range segments {
		seg = danglingSeparator.ReplaceAllString(seg, ".")
		seg = SanitizeFilename(seg)
		if seg != "" {
			cleaned = append(cleaned, seg)
		}
	}
	return filepath.Join(cleaned...)
}

// formatPattern matches {name} or {name:02} style placeholders.
var formatPattern = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// usesField reports whether a naming template references a placeholder.
// An empty template is checked as config.DefaultNaming.
func usesField(template, name string) bool {
	if template == "" {
		template = config.DefaultNaming
	}
	for _, m := range formatPattern.FindAllStringSubmatch(template, -1) {
		if m[1] == name {
			return true
		}
	}
	return false
}

// danglingSeparator matches " - ." left behind by an empty field before the extension.
var danglingSeparator = regexp.MustCompile(`\s+-\s*\.`)

// applyTemplate substitutes variables into a template string.
// Supports {name} for simple substitution and {name:02} for zero-padded integers.
func applyTemplate(template string, vars map[string]any) string {
	return formatPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := formatPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		val, ok := vars[name]
		if !ok {
			return match
		}

		if len(parts) >= 3 && parts[2] != "" {
			width, err := strconv.Atoi(parts[2])
			if err == nil {
				if v, ok := val.(int); ok {
					return fmt.Sprintf("%0*d", width, v)
				}
			}
		}

		return fmt.Sprintf("%v", val)
	})
}
