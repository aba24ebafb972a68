// Package agenteseerr is the error taxonomy shared by every AGENTESE
// component. All errors crossing the resolver/gateway boundary are one
// of the typed values declared here; everything else is wrapped into
// one of them before it escapes a package.
package agenteseerr

import (
	"fmt"
	"strings"
)

// Kind is the stable, coarse classification used by CLI/HTTP projections.
type Kind string

const (
	KindAddress        Kind = "address"        // parse, not-found, alias conflict
	KindAccess         Kind = "access"          // affordance, observer-required, capability
	KindEconomic       Kind = "economic"        // budget, composition output violation
	KindLaw            Kind = "law"             // category law, lineage, lattice
	KindHandler        Kind = "handler"         // captured aspect-handler error
	KindInfrastructure Kind = "infrastructure"  // subscription overflow, timeout
)

// Locus is a byte/column position in source text, used for syntax errors.
type Locus struct {
	Byte   int
	Column int
}

func (l Locus) String() string {
	return fmt.Sprintf("%d:%d", l.Byte, l.Column)
}

// AgentesError is the base type every taxonomy member embeds. It carries
// the fields the user-visible failure projection requires:
// {kind, locus?, path?, aspect?, suggestions?}.
type AgentesError struct {
	Kind        Kind
	Message     string
	Path        string
	Aspect      string
	Locus       *Locus
	Suggestions []string
	Inner       error
}

func (e *AgentesError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (path=%s)", e.Path)
	}
	if e.Aspect != "" {
		fmt.Fprintf(&b, " (aspect=%s)", e.Aspect)
	}
	if e.Locus != nil {
		fmt.Fprintf(&b, " (locus=%s)", e.Locus)
	}
	if e.Inner != nil {
		fmt.Fprintf(&b, ": %s", e.Inner)
	}
	return b.String()
}

func (e *AgentesError) Unwrap() error { return e.Inner }

// ── Address errors ──────────────────────────────────────────

// PathSyntaxError is raised by the parser on malformed input.
type PathSyntaxError struct {
	AgentesError
}

func NewPathSyntaxError(raw string, locus Locus, reason string) *PathSyntaxError {
	return &PathSyntaxError{AgentesError{
		Kind:    KindAddress,
		Message: fmt.Sprintf("invalid path %q: %s", raw, reason),
		Locus:   &locus,
	}}
}

// ClauseSyntaxError is raised for a malformed or duplicate (strict mode) clause.
type ClauseSyntaxError struct {
	AgentesError
}

func NewClauseSyntaxError(name string, locus Locus, reason string) *ClauseSyntaxError {
	return &ClauseSyntaxError{AgentesError{
		Kind:    KindAddress,
		Message: fmt.Sprintf("clause %q: %s", name, reason),
		Locus:   &locus,
	}}
}

// AnnotationSyntaxError is raised for a malformed or (strict mode) unknown annotation.
type AnnotationSyntaxError struct {
	AgentesError
}

func NewAnnotationSyntaxError(name string, locus Locus, reason string) *AnnotationSyntaxError {
	return &AnnotationSyntaxError{AgentesError{
		Kind:    KindAddress,
		Message: fmt.Sprintf("annotation %q: %s", name, reason),
		Locus:   &locus,
	}}
}

// PathNotFoundError is raised when no node/context resolver claims a path.
// Suggestions are required (fuzzy-matched against the registry's handle set).
type PathNotFoundError struct {
	AgentesError
}

func NewPathNotFoundError(path string, suggestions []string) *PathNotFoundError {
	return &PathNotFoundError{AgentesError{
		Kind:        KindAddress,
		Message:     "path not found",
		Path:        path,
		Suggestions: suggestions,
	}}
}

// AliasShadowError is raised when an alias name collides with a reserved context root.
type AliasShadowError struct{ AgentesError }

func NewAliasShadowError(alias string) *AliasShadowError {
	return &AliasShadowError{AgentesError{
		Kind:    KindAddress,
		Message: fmt.Sprintf("alias %q shadows a reserved context root", alias),
	}}
}

// AliasRecursionError is raised when an alias chain would expand cyclically.
type AliasRecursionError struct{ AgentesError }

func NewAliasRecursionError(chain []string) *AliasRecursionError {
	return &AliasRecursionError{AgentesError{
		Kind:    KindAddress,
		Message: fmt.Sprintf("alias expansion cycle: %s", strings.Join(chain, " -> ")),
	}}
}

// AliasNotFoundError is raised by unregister/expand of an unknown alias.
type AliasNotFoundError struct{ AgentesError }

func NewAliasNotFoundError(alias string) *AliasNotFoundError {
	return &AliasNotFoundError{AgentesError{
		Kind:    KindAddress,
		Message: fmt.Sprintf("alias %q not registered", alias),
	}}
}

// ── Access errors ────────────────────────────────────────────

// AffordanceError is raised when an observer lacks the affordance for an aspect.
type AffordanceError struct{ AgentesError }

func NewAffordanceError(path, aspect, archetype string) *AffordanceError {
	return &AffordanceError{AgentesError{
		Kind:    KindAccess,
		Message: fmt.Sprintf("observer archetype %q may not invoke %q", archetype, aspect),
		Path:    path,
		Aspect:  aspect,
	}}
}

// ObserverRequiredError is raised when an aspect requires an identified (non-guest) observer.
type ObserverRequiredError struct{ AgentesError }

func NewObserverRequiredError(path, aspect string) *ObserverRequiredError {
	return &ObserverRequiredError{AgentesError{
		Kind:    KindAccess,
		Message: "an identified observer is required",
		Path:    path,
		Aspect:  aspect,
	}}
}

// TastefulnessError is raised when the curator rejects a composed result.
type TastefulnessError struct{ AgentesError }

func NewTastefulnessError(stage string, reason string) *TastefulnessError {
	return &TastefulnessError{AgentesError{
		Kind:    KindAccess,
		Message: fmt.Sprintf("curator rejected stage %s: %s", stage, reason),
	}}
}

// ── Economic errors ──────────────────────────────────────────

// BudgetExhaustedError is raised when an entropy or economic lease cannot be authorized.
type BudgetExhaustedError struct {
	AgentesError
	Requested float64
	Available float64
}

func NewBudgetExhaustedError(path, aspect string, requested, available float64) *BudgetExhaustedError {
	return &BudgetExhaustedError{
		AgentesError: AgentesError{
			Kind:    KindEconomic,
			Message: fmt.Sprintf("budget exhausted: requested %.4f, available %.4f", requested, available),
			Path:    path,
			Aspect:  aspect,
		},
		Requested: requested,
		Available: available,
	}
}

// CompositionViolationError is raised when a composition stage violates the
// Minimal Output Principle (or another composition-level contract).
type CompositionViolationError struct {
	AgentesError
	Stage  int
	Reason string
}

func NewCompositionViolationError(stage int, reason string) *CompositionViolationError {
	return &CompositionViolationError{
		AgentesError: AgentesError{
			Kind:    KindEconomic,
			Message: fmt.Sprintf("composition violation at stage %d: %s", stage, reason),
		},
		Stage:  stage,
		Reason: reason,
	}
}

// ── Law errors ───────────────────────────────────────────────

// LawCheckFailed is raised when a category-law verification fails.
type LawCheckFailed struct {
	AgentesError
	Law   string
	Left  string
	Right string
}

func NewLawCheckFailed(law string, locus Locus, left, right string) *LawCheckFailed {
	return &LawCheckFailed{
		AgentesError: AgentesError{
			Kind:    KindLaw,
			Message: fmt.Sprintf("category law %q failed", law),
			Locus:   &locus,
		},
		Law:   law,
		Left:  left,
		Right: right,
	}
}

// LineageError is raised when a concept's declared parents cannot be resolved.
type LineageError struct{ AgentesError }

func NewLineageError(handle string, missingParents []string) *LineageError {
	return &LineageError{AgentesError{
		Kind:    KindLaw,
		Message: fmt.Sprintf("concept %q: missing parent lineage %v", handle, missingParents),
		Path:    handle,
	}}
}

// LatticeError is raised on cycle / affordance-conflict / unsatisfiable-constraint detection.
type LatticeError struct {
	AgentesError
	CyclePath []string
}

func NewLatticeError(reason string, cyclePath []string) *LatticeError {
	return &LatticeError{
		AgentesError: AgentesError{
			Kind:    KindLaw,
			Message: reason,
		},
		CyclePath: cyclePath,
	}
}

// ── Infrastructure errors ───────────────────────────────────

// TimeoutError is raised when an aspect handler exceeds its declared
// timeout. Distinct from BudgetExhaustedError: the budget was never
// the constraint that fired, the wall clock was.
type TimeoutError struct{ AgentesError }

func NewTimeoutError(path, aspect string) *TimeoutError {
	return &TimeoutError{AgentesError{
		Kind:    KindInfrastructure,
		Message: "aspect handler timed out",
		Path:    path,
		Aspect:  aspect,
	}}
}

// SubscriptionBufferOverflowError is raised when an AT_LEAST_ONCE buffer exceeds its expiry window.
type SubscriptionBufferOverflowError struct{ AgentesError }

func NewSubscriptionBufferOverflowError(subscriptionID string) *SubscriptionBufferOverflowError {
	return &SubscriptionBufferOverflowError{AgentesError{
		Kind:    KindInfrastructure,
		Message: fmt.Sprintf("subscription %s buffer overflow", subscriptionID),
	}}
}

// ── Dependency / registry errors (module C/D) ───────────────

// DependencyNotFoundError is raised when a required dependency cannot be resolved,
// or a dependency cycle is detected (cycle is rendered in Message).
type DependencyNotFoundError struct{ AgentesError }

func NewDependencyNotFoundError(name string) *DependencyNotFoundError {
	return &DependencyNotFoundError{AgentesError{
		Kind:    KindAccess,
		Message: fmt.Sprintf("dependency %q not found", name),
	}}
}

func NewDependencyCycleError(cycle []string) *DependencyNotFoundError {
	return &DependencyNotFoundError{AgentesError{
		Kind:    KindAccess,
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
	}}
}

// Projection is the user-visible failure shape every error adapter
// converges on: {kind, locus?, path?, aspect?, suggestions?}.
type Projection struct {
	Kind        Kind     `json:"kind"`
	Message     string   `json:"message"`
	Locus       string   `json:"locus,omitempty"`
	Path        string   `json:"path,omitempty"`
	Aspect      string   `json:"aspect,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Project converts any error into the wire projection. Non-taxonomy errors
// are wrapped as a generic handler-kind projection.
func Project(err error) Projection {
	if err == nil {
		return Projection{}
	}
	var ae *AgentesError
	switch v := err.(type) {
	case *PathSyntaxError:
		ae = &v.AgentesError
	case *ClauseSyntaxError:
		ae = &v.AgentesError
	case *AnnotationSyntaxError:
		ae = &v.AgentesError
	case *PathNotFoundError:
		ae = &v.AgentesError
	case *AliasShadowError:
		ae = &v.AgentesError
	case *AliasRecursionError:
		ae = &v.AgentesError
	case *AliasNotFoundError:
		ae = &v.AgentesError
	case *AffordanceError:
		ae = &v.AgentesError
	case *ObserverRequiredError:
		ae = &v.AgentesError
	case *TastefulnessError:
		ae = &v.AgentesError
	case *BudgetExhaustedError:
		ae = &v.AgentesError
	case *CompositionViolationError:
		ae = &v.AgentesError
	case *LawCheckFailed:
		ae = &v.AgentesError
	case *LineageError:
		ae = &v.AgentesError
	case *LatticeError:
		ae = &v.AgentesError
	case *TimeoutError:
		ae = &v.AgentesError
	case *SubscriptionBufferOverflowError:
		ae = &v.AgentesError
	case *DependencyNotFoundError:
		ae = &v.AgentesError
	case *AgentesError:
		ae = v
	default:
		return Projection{Kind: KindHandler, Message: err.Error()}
	}
	p := Projection{
		Kind:        ae.Kind,
		Message:     ae.Message,
		Path:        ae.Path,
		Aspect:      ae.Aspect,
		Suggestions: ae.Suggestions,
	}
	if ae.Locus != nil {
		p.Locus = ae.Locus.String()
	}
	return p
}

// StatusCode maps a Kind (and a couple of specific types) to the HTTP
// status code the gateway returns for it.
func StatusCode(err error) int {
	switch err.(type) {
	case *PathNotFoundError:
		return 404
	case *AffordanceError, *ObserverRequiredError, *TastefulnessError:
		return 403
	case *PathSyntaxError, *ClauseSyntaxError, *AnnotationSyntaxError:
		return 400
	case *BudgetExhaustedError:
		return 429
	case *CompositionViolationError:
		return 409
	case *AliasShadowError, *AliasRecursionError, *AliasNotFoundError, *DependencyNotFoundError:
		return 400
	case *LawCheckFailed, *LineageError, *LatticeError:
		return 409
	case *TimeoutError, *SubscriptionBufferOverflowError:
		return 500
	default:
		return 500
	}
}
