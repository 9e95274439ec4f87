// Package scanner walks directory trees and turns files into the records
// the detectors consume.
package scanner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern filters candidate paths.
type Pattern interface {
	Match(path string) bool
}

// LiteralPattern matches paths containing the string. The empty literal
// matches everything.
type LiteralPattern string

func (p LiteralPattern) Match(path string) bool {
	return p == "" || strings.Contains(path, string(p))
}

// GlobPattern matches file basenames against a glob, with ** support.
type GlobPattern string

func (p GlobPattern) Match(path string) bool {
	ok, err := doublestar.Match(string(p), filepath.Base(path))
	return err == nil && ok
}

// RegexPattern matches paths against a compiled regular expression.
type RegexPattern struct {
	re *regexp.Regexp
}

func (p RegexPattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// NewPattern builds a Pattern from a kind name (literal, glob, regex).
func NewPattern(kind, expr string) (Pattern, error) {
	switch kind {
	case "", "literal":
		return LiteralPattern(expr), nil
	case "glob":
		if _, err := doublestar.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", expr, err)
		}
		return GlobPattern(expr), nil
	case "regex":
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", expr, err)
		}
		return RegexPattern{re: re}, nil
	default:
		return nil, fmt.Errorf("unknown pattern type %q", kind)
	}
}

// Filter returns the paths accepted by the pattern.
func Filter(paths []string, pattern Pattern) []string {
	if pattern == nil {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if pattern.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
