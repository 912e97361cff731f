package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidRule indicates that a category glob failed to compile.
var ErrInvalidRule = errors.New("invalid category rule")

// Classifier assigns a Category to a file from its name alone.
type Classifier struct {
	rules map[Category][]glob.Glob
}

// NewClassifier compiles the glob table. Patterns are matched against the
// lower-cased base name, so they should be written in lower case.
// A nil or empty table yields a classifier that returns CategoryOther for
// everything.
func NewClassifier(rules CategoryRules) (*Classifier, error) {
	c := &Classifier{rules: make(map[Category][]glob.Glob, len(rules))}

	for cat, patterns := range rules {
		if cat == CategoryOther {
			continue
		}
		for _, p := range patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			g, err := glob.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w %q for %s: %v", ErrInvalidRule, p, cat, err)
			}
			c.rules[cat] = append(c.rules[cat], g)
		}
	}

	return c, nil
}

// Classify returns the category of the file at path. Compile rules win
// over Include rules; anything unmatched is CategoryOther.
func (c *Classifier) Classify(path string) Category {
	name := strings.ToLower(baseName(path))
	for _, cat := range []Category{CategoryCompile, CategoryInclude} {
		for _, g := range c.rules[cat] {
			if g.Match(name) {
				return cat
			}
		}
	}
	return CategoryOther
}
