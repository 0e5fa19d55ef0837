package governance

import "strings"

// globMatch reports whether s matches pattern, where '*' matches zero or
// more characters (spec.md §4.3) and every other character matches
// itself literally. It does not special-case path separators, since
// model names are opaque identifiers rather than filesystem paths —
// unlike path.Match/filepath.Match, which is why this is hand-rolled
// instead of reusing either.
func globMatch(pattern, s string) bool {
	segments := strings.Split(pattern, "*")
	if len(segments) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, segments[0]) {
		return false
	}
	s = s[len(segments[0]):]

	last := len(segments) - 1
	for i := 1; i < last; i++ {
		seg := segments[i]
		if seg == "" {
			continue
		}
		idx := strings.Index(s, seg)
		if idx < 0 {
			return false
		}
		s = s[idx+len(seg):]
	}

	return strings.HasSuffix(s, segments[last])
}

// anyGlobMatch reports whether s matches any pattern in patterns.
func anyGlobMatch(patterns []string, s string) bool {
	for _, p := range patterns {
		if globMatch(p, s) {
			return true
		}
	}
	return false
}
