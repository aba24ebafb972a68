package specgraph

import (
	"regexp"
)

var (
	pathCommentRe   = regexp.MustCompile(`(?m)^//\s*path:\s*([a-zA-Z0-9_.]+)\s*$`)
	aspectHandlerRe = regexp.MustCompile(`(?m)^func\s+\([^)]*\)\s*(\w+)\(ctx\s+context\.Context`)
)

// Reflect reads a compiled implementation's source text and produces a
// best-effort ParsedSpec: the node's declared path (from a leading
// `// path: context.entity` comment convention) and the aspect names
// recovered from method signatures matching the generated handler shape.
// Used for drift audits and reverse-engineering specs from implementation
// that has drifted ahead of its spec.
func Reflect(source string) *ParsedSpec {
	ps := &ParsedSpec{}

	if m := pathCommentRe.FindStringSubmatch(source); m != nil {
		ps.Path = m[1]
		ps.LayerCount++
	}

	matches := aspectHandlerRe.FindAllStringSubmatch(source, -1)
	if len(matches) > 0 {
		for _, m := range matches {
			ps.Aspects = append(ps.Aspects, AspectSpec{Name: m[1]})
		}
		ps.LayerCount++
	}

	return ps
}
