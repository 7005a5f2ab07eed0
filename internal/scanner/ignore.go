package scanner

import (
	"path"
	"path/filepath"
	"strings"
)

// IgnorePattern is one line of a .flowcignore file. The syntax follows the
// familiar ignore-file rules: a leading "!" re-includes matching paths, a
// trailing "/" matches a directory and everything under it, a leading "/"
// anchors the pattern at the scan root, and "*", "?" and "[...]" glob within
// a single path segment while "**" spans segments.
type IgnorePattern struct {
	raw      string
	negated  bool
	dirOnly  bool
	anchored bool
	segments []string
}

// ParseIgnorePattern parses one non-empty, non-comment ignore-file line.
func ParseIgnorePattern(line string) IgnorePattern {
	p := IgnorePattern{raw: line}

	if rest, ok := strings.CutPrefix(line, "!"); ok {
		p.negated = true
		line = rest
	}
	if rest, ok := strings.CutSuffix(line, "/"); ok {
		p.dirOnly = true
		line = rest
	}
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		p.anchored = true
		line = rest
	}
	p.segments = strings.Split(line, "/")
	return p
}

// IsNegation reports whether the pattern re-includes matching paths instead
// of ignoring them.
func (p IgnorePattern) IsNegation() bool {
	return p.negated
}

// String returns the original ignore-file line.
func (p IgnorePattern) String() string {
	return p.raw
}

// Match reports whether the pattern applies to a path relative to the scan
// root. Anchored patterns match from the root only; all others may match at
// any directory level, the way handler trees nest build output anywhere.
func (p IgnorePattern) Match(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if p.anchored {
		return matchSegments(p.segments, parts, p.dirOnly)
	}
	for i := range parts {
		if matchSegments(p.segments, parts[i:], p.dirOnly) {
			return true
		}
	}
	return false
}

// matchSegments matches pattern segments against the head of parts. When
// prefixOK is set (directory patterns), any remainder below the matched
// prefix counts as a match; otherwise the pattern must consume the whole
// path.
func matchSegments(pattern, parts []string, prefixOK bool) bool {
	if len(pattern) == 0 {
		return prefixOK || len(parts) == 0
	}
	if pattern[0] == "**" {
		if len(pattern) == 1 {
			return true
		}
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:], prefixOK) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	if !segmentMatches(pattern[0], parts[0]) {
		return false
	}
	return matchSegments(pattern[1:], parts[1:], prefixOK)
}

// segmentMatches matches one pattern segment against one path segment.
// Literal segments compare case-insensitively so checkouts on
// case-insensitive filesystems behave the same as elsewhere.
func segmentMatches(pattern, segment string) bool {
	if strings.ContainsAny(pattern, "*?[") {
		ok, err := path.Match(pattern, segment)
		return ok && err == nil
	}
	return strings.EqualFold(pattern, segment)
}
