// Package composition implements AGENTESE's typed composition algebra:
// Id, Lift(path), Compose(f,g), and on-demand category-law verification
// (left/right identity, associativity) under a pluggable equality
// relation.
package composition

import (
	"context"
	"reflect"

	"github.com/agentese/logos/internal/agenteseerr"
)

// Invoker is the narrow capability module F's resolver exposes to lift a
// bare path into the composition algebra: invoke one aspect and return its
// result.
type Invoker func(ctx context.Context, obs any, input any) (any, error)

// Morphism is an algebraic composition value.
type Morphism interface {
	// Apply runs the morphism, threading input through it.
	Apply(ctx context.Context, obs any, input any) (any, error)
	// Dict is the morphism's structural projection (its kind, path and
	// composed parts). The default equality comparator compares result
	// values, not these projections.
	Dict() map[string]any
}

// identityMorphism is the algebra's identity element.
type identityMorphism struct{}

func (identityMorphism) Apply(ctx context.Context, obs any, input any) (any, error) { return input, nil }
func (identityMorphism) Dict() map[string]any                                       { return map[string]any{"kind": "id"} }

// Id is the shared identity morphism instance.
var Id Morphism = identityMorphism{}

// liftMorphism wraps a single path invocation.
type liftMorphism struct {
	Path   string
	invoke Invoker
}

// Lift constructs a morphism from a bound path invocation.
func Lift(path string, invoke Invoker) Morphism {
	return liftMorphism{Path: path, invoke: invoke}
}

func (l liftMorphism) Apply(ctx context.Context, obs any, input any) (any, error) {
	return l.invoke(ctx, obs, input)
}
func (l liftMorphism) Dict() map[string]any {
	return map[string]any{"kind": "lift", "path": l.Path}
}

// composeMorphism represents `f >> g` (f first, then g).
type composeMorphism struct {
	F, G Morphism
}

func (c composeMorphism) Apply(ctx context.Context, obs any, input any) (any, error) {
	mid, err := c.F.Apply(ctx, obs, input)
	if err != nil {
		return nil, err
	}
	return c.G.Apply(ctx, obs, mid)
}
func (c composeMorphism) Dict() map[string]any {
	return map[string]any{"kind": "compose", "f": c.F.Dict(), "g": c.G.Dict()}
}

// Compose builds `f >> g`. Composing with Id collapses by construction,
// so `Compose(Id, f) == f` and `Compose(f, Id) == f` hold structurally,
// not merely behaviorally.
func Compose(f, g Morphism) Morphism {
	if _, ok := f.(identityMorphism); ok {
		return g
	}
	if _, ok := g.(identityMorphism); ok {
		return f
	}
	return composeMorphism{F: f, G: g}
}

// ── Minimal Output Principle ─────────────────────────────────

// IsMinimalOutput reports whether v is a single logical unit: a scalar, a
// record (map/struct), or a Renderable — not a heterogeneous array. A
// slice of length <= 1 is treated as minimal (see DESIGN.md's Open
// Question #1 decision for the streaming analogue).
func IsMinimalOutput(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() <= 1
	default:
		return true
	}
}

// ── Law verification ─────────────────────────────────────────

type Law string

const (
	LawLeftIdentity  Law = "left_identity"
	LawRightIdentity Law = "right_identity"
	LawAssociativity Law = "associativity"
)

// Equality compares the results of applying two morphisms to the same
// representative input. Pluggable so a caller with a richer notion of
// equivalence can override it; DefaultEquality (reflect.DeepEqual over the
// result values) is the default.
type Equality func(a, b any) bool

// DefaultEquality is deep-equality of the two values themselves (the result
// values being compared, not the morphisms' static Dict() shape).
func DefaultEquality(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Verifier runs category-law checks against a representative input,
// emitting law_check events via the Emit callback (status ok/fail/skip).
type Verifier struct {
	Equality Equality
	Emit     func(law Law, status string, locus string)
}

// NewVerifier returns a verifier with DefaultEquality and a no-op emitter.
func NewVerifier() *Verifier {
	return &Verifier{Equality: DefaultEquality, Emit: func(Law, string, string) {}}
}

// CheckIdentities verifies `Id >> f ≡ f` and `f >> Id ≡ f` against input.
func (v *Verifier) CheckIdentities(ctx context.Context, obs any, f Morphism, input any) error {
	left := Compose(Id, f)
	right := Compose(f, Id)

	leftResult, err := left.Apply(ctx, obs, input)
	if err != nil {
		v.Emit(LawLeftIdentity, "fail", "")
		return err
	}
	baseline, err := f.Apply(ctx, obs, input)
	if err != nil {
		return err
	}
	if !v.Equality(leftResult, baseline) {
		v.Emit(LawLeftIdentity, "fail", "")
		return agenteseerr.NewLawCheckFailed(string(LawLeftIdentity), agenteseerr.Locus{}, toStr(leftResult), toStr(baseline))
	}
	v.Emit(LawLeftIdentity, "ok", "")

	rightResult, err := right.Apply(ctx, obs, input)
	if err != nil {
		v.Emit(LawRightIdentity, "fail", "")
		return err
	}
	if !v.Equality(rightResult, baseline) {
		v.Emit(LawRightIdentity, "fail", "")
		return agenteseerr.NewLawCheckFailed(string(LawRightIdentity), agenteseerr.Locus{}, toStr(rightResult), toStr(baseline))
	}
	v.Emit(LawRightIdentity, "ok", "")
	return nil
}

// CheckAssociativity verifies `(f >> g) >> h ≡ f >> (g >> h)` against input.
func (v *Verifier) CheckAssociativity(ctx context.Context, obs any, f, g, h Morphism, input any) error {
	left := Compose(Compose(f, g), h)
	right := Compose(f, Compose(g, h))

	leftResult, err := left.Apply(ctx, obs, input)
	if err != nil {
		v.Emit(LawAssociativity, "fail", "")
		return err
	}
	rightResult, err := right.Apply(ctx, obs, input)
	if err != nil {
		v.Emit(LawAssociativity, "fail", "")
		return err
	}
	if !v.Equality(leftResult, rightResult) {
		v.Emit(LawAssociativity, "fail", "")
		return agenteseerr.NewLawCheckFailed(string(LawAssociativity), agenteseerr.Locus{}, toStr(leftResult), toStr(rightResult))
	}
	v.Emit(LawAssociativity, "ok", "")
	return nil
}

func toStr(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
