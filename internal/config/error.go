package config

import (
	"fmt"
	"strings"
)

// Error reports why a parsed config file cannot be used.
type Error struct {
	Path    string
	Missing []string // unresolved ${VAR} references
	Errors  []string // messages from Validate
}

// Error renders a one-line headline followed by one indented line per problem.
func (e *Error) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.Path)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": unset environment variables: %s", strings.Join(e.Missing, ", "))
	}
	if n := len(e.Errors); n > 0 {
		fmt.Fprintf(&b, ": %d invalid setting", n)
		if n > 1 {
			b.WriteString("s")
		}
		for _, msg := range e.Errors {
			b.WriteString("\n  - ")
			b.WriteString(msg)
		}
	}
	return b.String()
}

func (e *Error) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
