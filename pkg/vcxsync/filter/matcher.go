package filter

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// ErrInvalidPattern indicates that an exclusion pattern failed to compile.
var ErrInvalidPattern = errors.New("invalid exclusion pattern")

// Matcher tests bare file and directory names against a union of
// exclusion patterns. Matching is anchored: a pattern must match the whole
// name, so "build" excludes "build" but not "rebuild".
type Matcher struct {
	patterns []string
	re       *regexp.Regexp
}

// NewMatcher compiles defaults and extra into a single matcher.
// Empty patterns and duplicates are dropped. Any pattern that does not
// compile fails the whole construction.
func NewMatcher(defaults []string, extra ...string) (*Matcher, error) {
	seen := make(map[string]struct{}, len(defaults)+len(extra))
	patterns := make([]string, 0, len(defaults)+len(extra))

	for _, p := range append(append([]string(nil), defaults...), extra...) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		// Compile each pattern alone first so the error names the culprit.
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}

	m := &Matcher{patterns: patterns}
	if len(patterns) == 0 {
		return m, nil
	}

	re, err := regexp.Compile(`^(?:` + strings.Join(patterns, `|`) + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: union: %v", ErrInvalidPattern, err)
	}
	m.re = re
	return m, nil
}

// Excluded reports whether name matches any exclusion pattern.
// A name containing a separator is reduced to its last element.
func (m *Matcher) Excluded(name string) bool {
	if m == nil || m.re == nil {
		return false
	}
	return m.re.MatchString(baseName(name))
}

// Patterns returns the effective pattern list.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// baseName strips any directory part using either separator style.
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if !strings.Contains(name, "/") {
		return name
	}
	return path.Base(strings.TrimRight(name, "/"))
}
