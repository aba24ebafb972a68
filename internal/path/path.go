// Package path implements AGENTESE's path grammar: the lexer and
// recursive-descent parser for
//
//	context.holon[.sub…][:aspect][?clause=v][@ann=v]
//
// plus the separate trailing-text signifier scanner for ⟿[...] / ⟂[...]
// markers. Paths are immutable value types once parsed.
package path

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agentese/logos/internal/agenteseerr"
)

// Context is one of the five reserved top-level namespaces.
type Context string

const (
	ContextWorld   Context = "world"
	ContextSelf    Context = "self"
	ContextConcept Context = "concept"
	ContextVoid    Context = "void"
	ContextTime    Context = "time"
)

// ReservedContexts is the full set of context roots; they can never be
// shadowed by an alias (module B).
var ReservedContexts = map[string]bool{
	string(ContextWorld):   true,
	string(ContextSelf):    true,
	string(ContextConcept): true,
	string(ContextVoid):    true,
	string(ContextTime):    true,
}

// Path is the parsed, immutable representation of an AGENTESE address.
type Path struct {
	Context     Context
	Segments    []string // holon + sub-segments, context excluded
	Aspect      string   // empty if none declared
	Clauses     map[string]string
	Annotations map[string]string
	raw         string // original input as given to Parse; FullPath does not read it
}

// Config governs parser strictness, in the same struct-with-defaults
// shape as the package's other config types.
type Config struct {
	Strict         bool // disallow unknown clause/annotation names
	ValidateEntropy bool // reject numeric `entropy` clause outside [0, ∞)
	KnownClauses    map[string]bool
	KnownAnnotations map[string]bool
}

// DefaultConfig returns the parser configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Strict:          false,
		ValidateEntropy: true,
		KnownClauses:    map[string]bool{"phase": true, "entropy": true, "span": true},
		KnownAnnotations: map[string]bool{
			"locus": true, "law_check": true, "rollback": true, "minimal_output": true, "soft": true,
		},
	}
}

// NodePath returns the canonical `context.holon` handle (no sub-segments
// beyond the first, no aspect/clauses/annotations).
func (p Path) NodePath() string {
	if len(p.Segments) == 0 {
		return string(p.Context)
	}
	return string(p.Context) + "." + p.Segments[0]
}

// BasePath strips all modifiers (aspect/clauses/annotations), keeping the
// full segment chain.
func (p Path) BasePath() string {
	return string(p.Context) + "." + strings.Join(p.Segments, ".")
}

// Handle is an alias of BasePath — the canonical form used by the node registry.
func (p Path) Handle() string { return p.BasePath() }

// FullPath renders the path back to its canonical textual form. Clause and
// annotation keys are emitted in sorted order so FullPath is deterministic
// regardless of input ordering — parsing p.FullPath() yields the same
// context, segments, aspect, clauses and annotations even when
// clauses/annotations were supplied out of order. Whole-value equality
// with p holds only when the input was already in this canonical form,
// since the unexported raw input text is kept as given.
func (p Path) FullPath() string {
	var b strings.Builder
	b.WriteString(p.BasePath())
	if p.Aspect != "" {
		b.WriteByte(':')
		b.WriteString(p.Aspect)
	}
	for _, k := range sortedKeys(p.Clauses) {
		fmt.Fprintf(&b, "?%s=%s", k, p.Clauses[k])
	}
	for _, k := range sortedKeys(p.Annotations) {
		fmt.Fprintf(&b, "@%s=%s", k, p.Annotations[k])
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parse parses a raw path string under the given config.
func Parse(raw string, cfg Config) (Path, error) {
	lx := newLexer(raw)
	p := &parser{lx: lx, cfg: cfg, raw: raw}
	return p.parsePath()
}

// ParseDefault parses with DefaultConfig().
func ParseDefault(raw string) (Path, error) {
	return Parse(raw, DefaultConfig())
}

type parser struct {
	lx  *lexer
	cfg Config
	raw string
}

func (p *parser) parsePath() (Path, error) {
	out := Path{
		Clauses:     map[string]string{},
		Annotations: map[string]string{},
		raw:         p.raw,
	}

	ctxTok, err := p.lx.nextIdent()
	if err != nil {
		return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "expected context identifier")
	}
	if !ReservedContexts[ctxTok] {
		return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locusAt(0), fmt.Sprintf("unknown context %q", ctxTok))
	}
	out.Context = Context(ctxTok)

	if !p.lx.consume('.') {
		return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "expected '.' after context")
	}

	for {
		seg, err := p.lx.nextIdent()
		if err != nil {
			return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "empty path segment")
		}
		out.Segments = append(out.Segments, seg)
		if p.lx.consume('.') {
			continue
		}
		break
	}

	if p.lx.consume(':') {
		aspect, err := p.lx.nextIdent()
		if err != nil {
			return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "empty aspect after ':'")
		}
		out.Aspect = aspect
	}

	for {
		if p.lx.consume('?') {
			name, err := p.lx.nextIdent()
			if err != nil {
				return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "malformed clause name")
			}
			if !p.lx.consume('=') {
				return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "expected '=' in clause")
			}
			val := p.lx.nextValue()
			if _, dup := out.Clauses[name]; dup && p.cfg.Strict {
				return Path{}, agenteseerr.NewClauseSyntaxError(name, p.lx.locus(), "duplicate clause in strict mode")
			}
			if p.cfg.Strict && !p.cfg.KnownClauses[name] {
				return Path{}, agenteseerr.NewClauseSyntaxError(name, p.lx.locus(), "unknown clause name")
			}
			if name == "entropy" && p.cfg.ValidateEntropy {
				f, ferr := strconv.ParseFloat(val, 64)
				if ferr != nil || f < 0 {
					return Path{}, agenteseerr.NewClauseSyntaxError(name, p.lx.locus(), "entropy must be numeric and >= 0")
				}
			}
			out.Clauses[name] = val // last wins
			continue
		}
		if p.lx.consume('@') {
			name, err := p.lx.nextIdent()
			if err != nil {
				return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "malformed annotation name")
			}
			if !p.lx.consume('=') {
				return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "expected '=' in annotation")
			}
			val := p.lx.nextValue()
			if p.cfg.Strict && !p.cfg.KnownAnnotations[name] {
				return Path{}, agenteseerr.NewAnnotationSyntaxError(name, p.lx.locus(), "unknown annotation name")
			}
			out.Annotations[name] = val
			continue
		}
		break
	}

	if !p.lx.atEnd() {
		return Path{}, agenteseerr.NewPathSyntaxError(p.raw, p.lx.locus(), "unexpected trailing input")
	}

	return out, nil
}
