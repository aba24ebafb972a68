// Package subscription implements AGENTESE's Subscription Manager:
// pattern-matched event subscriptions with AT_MOST/LEAST ONCE delivery,
// ordering guarantees, heartbeats, and replay.
package subscription

import "strings"

// Pattern is a compiled subscription pattern. A path like `world.**:manifest`
// matches segment by segment: `*` matches exactly one segment, `**` matches
// zero or more trailing segments. `Aspect`, if set, narrows matches to that
// aspect name only.
type Pattern struct {
	raw       string
	context   string
	segments  []string // pattern segments after the context, may include "*"/"**"
	aspect    string
	hasAspect bool
}

// CompilePattern parses a subscription pattern such as `world.**:manifest`
// or `concept.summary.*` into a matchable Pattern.
func CompilePattern(raw string) *Pattern {
	p := &Pattern{raw: raw}

	body := raw
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		p.aspect = body[idx+1:]
		p.hasAspect = true
		body = body[:idx]
	}

	parts := strings.Split(body, ".")
	if len(parts) > 0 {
		p.context = parts[0]
		p.segments = parts[1:]
	}
	return p
}

// Matches reports whether a concrete path (context + dot-separated
// segments) and aspect satisfy the pattern.
func (p *Pattern) Matches(context string, segments []string, aspect string) bool {
	if p.context != "*" && p.context != context {
		return false
	}
	if p.hasAspect && p.aspect != aspect {
		return false
	}
	return matchSegments(p.segments, segments)
}

func matchSegments(pattern, actual []string) bool {
	if len(pattern) == 0 {
		return len(actual) == 0
	}
	head := pattern[0]
	switch head {
	case "**":
		if len(pattern) == 1 {
			return true // trailing ** matches any remainder, including none
		}
		for i := 0; i <= len(actual); i++ {
			if matchSegments(pattern[1:], actual[i:]) {
				return true
			}
		}
		return false
	case "*":
		if len(actual) == 0 {
			return false
		}
		return matchSegments(pattern[1:], actual[1:])
	default:
		if len(actual) == 0 || actual[0] != head {
			return false
		}
		return matchSegments(pattern[1:], actual[1:])
	}
}

// Raw returns the original pattern text.
func (p *Pattern) Raw() string { return p.raw }

// Index is an inverted index of compiled patterns, letting Publish test an
// incoming event against every live subscription pattern without an O(n)
// string-compare per pattern when the same context repeats heavily. The
// index is still a linear scan over patterns sharing a context bucket —
// a segment trie keyed purely on literal prefixes would not help once `*`
// or `**` appear in the first segment, which is the common case here.
type Index struct {
	byContext map[string][]*Pattern
	wildcards []*Pattern // patterns whose context itself is "*"
}

// NewIndex returns an empty pattern index.
func NewIndex() *Index {
	return &Index{byContext: make(map[string][]*Pattern)}
}

// Add registers a compiled pattern into the index.
func (ix *Index) Add(p *Pattern) {
	if p.context == "*" {
		ix.wildcards = append(ix.wildcards, p)
		return
	}
	ix.byContext[p.context] = append(ix.byContext[p.context], p)
}

// Remove drops a pattern from the index by pointer identity.
func (ix *Index) Remove(p *Pattern) {
	if p.context == "*" {
		ix.wildcards = removePattern(ix.wildcards, p)
		return
	}
	ix.byContext[p.context] = removePattern(ix.byContext[p.context], p)
}

func removePattern(list []*Pattern, target *Pattern) []*Pattern {
	out := list[:0]
	for _, p := range list {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}

// MatchAll returns every pattern in the index that matches the given event.
func (ix *Index) MatchAll(context string, segments []string, aspect string) []*Pattern {
	var matched []*Pattern
	for _, p := range ix.byContext[context] {
		if p.Matches(context, segments, aspect) {
			matched = append(matched, p)
		}
	}
	for _, p := range ix.wildcards {
		if p.Matches(context, segments, aspect) {
			matched = append(matched, p)
		}
	}
	return matched
}
