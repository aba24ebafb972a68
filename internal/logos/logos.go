// Package logos implements the AGENTESE Resolver: the single entry
// point that turns a raw path string into a dispatched aspect handler
// invocation, threading alias expansion, node lookup, affordance
// gating, telemetry, budget settlement, curation, and subscription
// notification around the call.
package logos

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/agentese/logos/internal/alias"
	"github.com/agentese/logos/internal/budget"
	"github.com/agentese/logos/internal/composition"
	"github.com/agentese/logos/internal/container"
	"github.com/agentese/logos/internal/observer"
	"github.com/agentese/logos/internal/path"
	"github.com/agentese/logos/internal/registry"
	"github.com/agentese/logos/internal/subscription"
	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agentese.logos")

// ContextResolver is the fallback a path's context (world/self/concept/
// void/time) offers when the node registry has no entry for the path's
// handle — e.g. a dynamically materialized `world.<entity>` that was
// never decorator-registered. Returning (nil, false) defers to the next
// fallback in the chain.
type ContextResolver interface {
	Resolve(ctx context.Context, p path.Path, obs observer.Observer, kwargs map[string]any) (any, bool, error)
}

// FallbackRegistry is the "simple registry" second lookup tier, tried
// after the node registry and before context resolvers: a flat map of
// handle -> handler for ad hoc or test-time nodes that never went
// through the full registry.Register path.
type FallbackRegistry struct {
	mu       sync.RWMutex
	handlers map[string]registry.Aspect
}

// NewFallbackRegistry returns an empty fallback registry.
func NewFallbackRegistry() *FallbackRegistry {
	return &FallbackRegistry{handlers: map[string]registry.Aspect{}}
}

// Register binds handle:aspect to a for the fallback tier.
func (f *FallbackRegistry) Register(handle, aspectName string, a registry.Aspect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.Name = aspectName
	f.handlers[handle+":"+aspectName] = a
}

func (f *FallbackRegistry) aspectsFor(handle string) []registry.Aspect {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []registry.Aspect
	prefix := handle + ":"
	for k, a := range f.handlers {
		if strings.HasPrefix(k, prefix) {
			out = append(out, a)
		}
	}
	return out
}

// Curator is the optional Wundt taste filter applied after settlement:
// given the raw handler result, it may substitute a different value or
// pass through unchanged.
type Curator interface {
	Curate(ctx context.Context, obs observer.Observer, p path.Path, result any) (any, error)
}

// Logos is the resolver: the wiring point for every other module.
type Logos struct {
	Aliases          *alias.Registry
	Nodes            *registry.Registry
	Fallback         *FallbackRegistry
	Container        *container.Container
	Archetypes       *observer.ArchetypeRegistry
	Subscriptions    *subscription.Manager
	SinkingFund      *budget.SinkingFund
	Complexity       *budget.ComplexityOracle
	Metabolism       *budget.MetabolicEngine
	Curator          Curator
	ContextResolvers map[path.Context]ContextResolver

	// Ledger durably records every settled transaction, if set. Nil means
	// settlement still happens (through Account) but leaves no record
	// beyond the process's own in-memory Account/economicStats.
	Ledger budget.LedgerStore

	budgetMu sync.Mutex
	budgets  map[string]*budget.EntropyBudget // observer ID -> per-observer entropy budget

	accountMu sync.Mutex
	accounts  map[string]*budget.Account // observer ID -> per-observer economic account

	econMu sync.Mutex
	econ   map[string]*economicStats // observer ID -> cumulative RoC/RoVI inputs

	defaultBudgetInitial, defaultBudgetMax, defaultBudgetRefill float64
}

// economicStats accumulates the sums the RoC/RoVI ratios are taken over
// (RoC = ΣImpact/ΣGas per agent; RoVI = ΣVoI/ΣObservationGas), not a
// running average of per-invocation ratios.
type economicStats struct {
	totalImpact, totalGas, totalVoI, totalObservationGas float64
}

// New wires a Logos resolver from its component modules. defaultBudget*
// seed a fresh per-observer EntropyBudget and economic Account the first
// time that observer invokes anything.
func New(aliases *alias.Registry, nodes *registry.Registry, cont *container.Container, archetypes *observer.ArchetypeRegistry, subs *subscription.Manager, defaultBudgetInitial, defaultBudgetMax, defaultBudgetRefill float64) *Logos {
	l := &Logos{
		Aliases:              aliases,
		Nodes:                nodes,
		Fallback:             NewFallbackRegistry(),
		Container:            cont,
		Archetypes:           archetypes,
		Subscriptions:        subs,
		SinkingFund:          budget.NewSinkingFund(),
		Complexity:           budget.NewComplexityOracle(),
		// heatPerToken/coolingRate/criticalThreshold have no canonical
		// default the way the entropy regeneration rate does; these
		// translate one byte of invoke input+output into one unit of
		// heat, cooling by 20 units per tithe (a fifth of the critical
		// threshold), critical at 100 —
		// conservative defaults since real LLM token counts aren't modeled
		// at this layer, only kwargs/result payload size.
		Metabolism:           budget.NewMetabolicEngine(1.0, 20.0, 100.0),
		ContextResolvers:     map[path.Context]ContextResolver{},
		budgets:              map[string]*budget.EntropyBudget{},
		accounts:             map[string]*budget.Account{},
		econ:                 map[string]*economicStats{},
		defaultBudgetInitial: defaultBudgetInitial,
		defaultBudgetMax:     defaultBudgetMax,
		defaultBudgetRefill:  defaultBudgetRefill,
	}
	l.Metabolism.OnFever(func(ev budget.FeverEvent) {
		log.Warn().
			Uint64("at_tokens", ev.AtTokens).
			Float64("temperature", ev.Temperature).
			Int("fever_count", ev.Count).
			Msg("🔥 metabolic fever threshold crossed")
	})
	return l
}

func (l *Logos) budgetFor(obs observer.Observer) *budget.EntropyBudget {
	key := obs.ID
	if key == "" {
		key = "guest"
	}
	l.budgetMu.Lock()
	defer l.budgetMu.Unlock()
	b, ok := l.budgets[key]
	if !ok {
		b = budget.NewEntropyBudget(l.defaultBudgetInitial, l.defaultBudgetMax, l.defaultBudgetRefill, nil)
		l.budgets[key] = b
	}
	return b
}

// accountFor returns the observer's economic Account (module H's
// dual-currency half), lazily seeded with the same bucket parameters as
// its EntropyBudget sibling.
func (l *Logos) accountFor(obs observer.Observer) *budget.Account {
	key := obs.ID
	if key == "" {
		key = "guest"
	}
	l.accountMu.Lock()
	defer l.accountMu.Unlock()
	a, ok := l.accounts[key]
	if !ok {
		a = budget.NewAccount(key, l.defaultBudgetInitial, l.defaultBudgetRefill, l.defaultBudgetMax)
		l.accounts[key] = a
	}
	return a
}

func (l *Logos) econStatsFor(obs observer.Observer) *economicStats {
	key := obs.ID
	if key == "" {
		key = "guest"
	}
	l.econMu.Lock()
	defer l.econMu.Unlock()
	s, ok := l.econ[key]
	if !ok {
		s = &economicStats{}
		l.econ[key] = s
	}
	return s
}

// impactTierFor maps an aspect's declared category to the syntactic/
// functional/deployment valuation tiers: reads are the cheapest realized
// value, mutating actions and compositions the richest this layer can
// infer without an explicit deployment signal from the caller.
func impactTierFor(category registry.AspectCategory) budget.ImpactTier {
	switch category {
	case registry.CategoryAction, registry.CategoryComposition, registry.CategoryLifecycle:
		return budget.TierFunctional
	default:
		return budget.TierSyntactic
	}
}

// resolved is what the lookup chain (step 4) produces: the aspect
// metadata plus whichever tier claimed the path, for error reporting.
type resolved struct {
	tier string
}

// lookup tries the node registry, then the fallback registry, then each
// context resolver in the fixed order world/self/concept/void/time.
func (l *Logos) lookup(ctx context.Context, p path.Path, obs observer.Observer, kwargs map[string]any) (resolved, any, error) {
	handle := p.Handle()

	if l.Nodes.Has(handle) {
		return resolved{tier: "registry"}, nil, nil
	}

	if len(l.Fallback.aspectsFor(handle)) > 0 {
		return resolved{tier: "fallback"}, nil, nil
	}

	for _, ctxName := range []path.Context{path.ContextWorld, path.ContextSelf, path.ContextConcept, path.ContextVoid, path.ContextTime} {
		if ctxName != p.Context {
			continue
		}
		cr, ok := l.ContextResolvers[ctxName]
		if !ok {
			continue
		}
		result, claimed, err := cr.Resolve(ctx, p, obs, kwargs)
		if err != nil {
			return resolved{}, nil, err
		}
		if claimed {
			return resolved{tier: "context:" + string(ctxName)}, result, nil
		}
	}

	return resolved{}, nil, agenteseerr.NewPathNotFoundError(handle, l.suggest(handle))
}

// suggest returns up to three registered handles closest to handle under
// Levenshtein edit distance, for PathNotFoundError.Suggestions.
func (l *Logos) suggest(handle string) []string {
	candidates := l.Nodes.ListPaths("")
	type scored struct {
		handle string
		dist   int
	}
	var ranked []scored
	for _, c := range candidates {
		ranked = append(ranked, scored{c, levenshtein(handle, c)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].handle < ranked[j].handle
	})
	const maxSuggestions = 3
	var out []string
	for i, r := range ranked {
		if i >= maxSuggestions {
			break
		}
		out = append(out, r.handle)
	}
	return out
}

// levenshtein is the classic edit-distance dynamic-programming
// computation. No library in the pack offers fuzzy string matching, so
// this is a deliberate, narrowly scoped stdlib-only helper (see DESIGN.md).
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// estimateCost evaluates an aspect's BudgetEstimate expr-lang expression
// against kwargs, defaulting to 1.0 when the aspect declares none.
func estimateCost(a registry.Aspect, kwargs map[string]any) (float64, error) {
	if a.BudgetEstimate == "" {
		return 1.0, nil
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	program, err := expr.Compile(a.BudgetEstimate, expr.Env(kwargs), expr.AsFloat64())
	if err != nil {
		return 0, fmt.Errorf("logos: invalid budget_estimate %q: %w", a.BudgetEstimate, err)
	}
	out, err := expr.Run(program, kwargs)
	if err != nil {
		return 0, fmt.Errorf("logos: budget_estimate %q failed: %w", a.BudgetEstimate, err)
	}
	cost, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("logos: budget_estimate %q did not evaluate to a number", a.BudgetEstimate)
	}
	return cost, nil
}

// Invoke runs the full twelve-step invocation pipeline: default observer,
// alias expansion, parse, lookup, affordance gate, telemetry span, budget
// lease, dispatch, settlement, curation, subscription event, result.
func (l *Logos) Invoke(ctx context.Context, rawPath string, obs *observer.Observer, kwargs map[string]any) (result any, err error) {
	// 1. default observer
	o := observer.Guest()
	if obs != nil {
		o = *obs
	}

	// 2. expand aliases
	expanded := rawPath
	if l.Aliases != nil {
		expanded = l.Aliases.Expand(rawPath)
	}

	// 3. parse
	p, perr := path.ParseDefault(expanded)
	if perr != nil {
		return nil, perr
	}
	handle := p.Handle()

	// 4. node registry -> fallback registry -> context resolvers
	res, contextResult, lerr := l.lookup(ctx, p, o, kwargs)
	if lerr != nil {
		l.publish(subscription.KindRefused, p, lerr)
		return nil, lerr
	}
	if res.tier == "" || strings.HasPrefix(res.tier, "context:") {
		// a context resolver claimed the path directly; affordances/budget
		// still apply only when aspect metadata was declared, which a bare
		// context resolver never does, so we fast-path straight to
		// telemetry + subscription for this tier.
		return l.invokeContextClaimed(ctx, p, o, contextResult)
	}

	aspectName := p.Aspect
	if aspectName == "" {
		return nil, agenteseerr.NewPathNotFoundError(handle, l.suggest(handle))
	}

	// 5. affordance gate
	nodeAspects := l.Nodes.Aspects(handle)
	if res.tier == "fallback" {
		nodeAspects = l.Fallback.aspectsFor(handle)
	}
	if !observer.HasAffordance(nodeAspects, l.Archetypes, o, aspectName) {
		affErr := agenteseerr.NewAffordanceError(handle, aspectName, o.Archetype)
		l.publish(subscription.KindRefused, p, affErr)
		return nil, affErr
	}

	var targetAspect registry.Aspect
	for _, a := range nodeAspects {
		if a.Name == aspectName {
			targetAspect = a
			break
		}
	}

	// 6. telemetry span
	ctx, span := tracer.Start(ctx, "agentese.invoke", trace.WithAttributes(
		attribute.String("path", handle),
		attribute.String("aspect", aspectName),
		attribute.String("archetype", o.Archetype),
		attribute.String("law_check_status", "skip"),
	))
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		span.SetAttributes(
			attribute.Float64("duration_s", duration.Seconds()),
			attribute.Bool("ok", err == nil),
		)
		if err != nil {
			span.SetAttributes(
				attribute.String("exception.type", fmt.Sprintf("%T", err)),
				attribute.String("exception.message", err.Error()),
			)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// 7. charge entropy budget (pre-authorization lease)
	cost, cerr := estimateCost(targetAspect, kwargs)
	if cerr != nil {
		err = cerr
		return nil, err
	}
	eb := l.budgetFor(o)
	if !eb.CanAfford(cost) {
		err = agenteseerr.NewBudgetExhaustedError(handle, aspectName, cost, eb.Balance())
		l.publish(subscription.KindRefused, p, err)
		return nil, err
	}
	if _, serr := eb.Spend(handle, aspectName, cost); serr != nil {
		err = serr
		l.publish(subscription.KindRefused, p, err)
		return nil, err
	}

	// authorize the economic lease alongside the entropy one; a
	// momentarily exhausted account draws an emergency loan from the
	// Sinking Fund before the invocation is refused outright.
	account := l.accountFor(o)
	lease, aerr := account.Authorize(cost)
	if aerr != nil {
		if _, loanErr := l.SinkingFund.EmergencyLoan(account, cost); loanErr == nil {
			lease, aerr = account.Authorize(cost)
		}
	}
	if aerr != nil {
		eb.Refund(cost)
		err = aerr
		l.publish(subscription.KindRefused, p, err)
		return nil, err
	}

	// 8. invoke handler
	if targetAspect.Handler == nil {
		err = fmt.Errorf("logos: aspect %s:%s has no handler", handle, aspectName)
		eb.Refund(cost)
		account.Void(lease)
		log.Error().Str("path", handle).Str("aspect", aspectName).Msg("aspect registered with no handler")
		return nil, err
	}
	out, herr := targetAspect.Handler(ctx, o.Archetype, kwargs)
	if herr != nil {
		// void: an erroring handler never consumed its lease
		eb.Refund(cost)
		account.Void(lease)
		err = herr
		l.publish(subscription.KindError, p, err)
		return nil, err
	}

	// 9. settle budget, record economic + VoI transaction, record metrics.
	// Aspect handlers don't currently report their own actuals, so the
	// entropy settlement stays actual==estimate; the economic side still
	// runs the full authorize->settle sequence so the Sinking Fund tax and
	// ledger recording happen for real.
	settleResult := account.Settle(lease, cost, l.SinkingFund)

	inBytes, _ := json.Marshal(kwargs)
	outBytes, _ := json.Marshal(out)
	complexity := l.Complexity.Estimate(outBytes, nil)
	tier := impactTierFor(targetAspect.Category)
	impact := budget.Impact(tier)
	roc := budget.RoC(impact, complexity)
	// VoI (value of information) realized by this observation is the
	// same Impact valuation, spent against the Gas actually settled.
	voi := impact
	rovi := budget.RoVI(voi, settleResult.Actual)

	stats := l.econStatsFor(o)
	l.econMu.Lock()
	stats.totalImpact += impact
	stats.totalGas += settleResult.Actual
	stats.totalVoI += voi
	stats.totalObservationGas += settleResult.Actual
	cumulativeRoC := budget.RoC(stats.totalImpact, stats.totalGas)
	cumulativeRoVI := budget.RoVI(stats.totalVoI, stats.totalObservationGas)
	l.econMu.Unlock()

	if l.Ledger != nil {
		if lerr := l.Ledger.Record(ctx, budget.LedgerEntry{
			AccountID: account.ID(),
			Kind:      "settle",
			Amount:    settleResult.Actual,
			Path:      handle,
			Aspect:    aspectName,
		}); lerr != nil {
			log.Warn().Err(lerr).Str("path", handle).Str("aspect", aspectName).Msg("⚠️  failed to record ledger entry")
		}
	}

	tokens := uint64(len(inBytes) + len(outBytes))
	l.Metabolism.Tithe(tokens)

	span.SetAttributes(
		attribute.Float64("tokens_in", float64(len(inBytes))),
		attribute.Float64("tokens_out", float64(len(outBytes))),
		attribute.Float64("impact", impact),
		attribute.Float64("complexity", complexity),
		attribute.Float64("roc", roc),
		attribute.Float64("rovi", rovi),
		attribute.String("rovi_band", string(budget.ClassifyRatio(cumulativeRoVI))),
		attribute.String("roc_band", string(budget.ClassifyRatio(cumulativeRoC))),
	)

	// 10. curator pass
	if l.Curator != nil {
		curated, cuErr := l.Curator.Curate(ctx, o, p, out)
		if cuErr != nil {
			err = cuErr
			l.publish(subscription.KindError, p, err)
			return nil, err
		}
		out = curated
	}

	// 11. emit INVOKED event
	l.publish(subscription.KindInvoked, p, out)

	// 12. return result
	return out, nil
}

func (l *Logos) invokeContextClaimed(ctx context.Context, p path.Path, o observer.Observer, result any) (any, error) {
	_, span := tracer.Start(ctx, "agentese.invoke", trace.WithAttributes(
		attribute.String("path", p.Handle()),
		attribute.String("aspect", p.Aspect),
		attribute.String("archetype", o.Archetype),
	))
	defer span.End()
	l.publish(subscription.KindInvoked, p, result)
	return result, nil
}

func (l *Logos) publish(kind subscription.Kind, p path.Path, payload any) {
	if l.Subscriptions == nil {
		return
	}
	l.Subscriptions.Publish(subscription.Event{
		Kind:     kind,
		Context:  string(p.Context),
		Segments: p.Segments,
		Aspect:   p.Aspect,
		Payload:  payload,
	})
}

// Compose wraps composition.NewComposedPath, binding each named stage to
// this resolver's own Invoke so that a composed path is indistinguishable
// from invoking its stages individually.
func (l *Logos) Compose(enforceOutput, emitLawCheck bool, obs *observer.Observer, pathStrings ...string) (*composition.ComposedPath, error) {
	stages := make([]composition.Stage, 0, len(pathStrings))
	for _, raw := range pathStrings {
		raw := raw
		expanded := raw
		if l.Aliases != nil {
			expanded = l.Aliases.Expand(raw)
		}
		if _, perr := path.ParseDefault(expanded); perr != nil {
			return nil, perr
		}
		stages = append(stages, composition.Stage{
			Path: raw,
			Morphism: composition.Lift(raw, func(ctx context.Context, _ any, input any) (any, error) {
				kwargs := map[string]any{"input": input}
				return l.Invoke(ctx, raw, obs, kwargs)
			}),
		})
	}
	return composition.NewComposedPath(stages, enforceOutput, emitLawCheck), nil
}

// Identity returns the algebra's identity morphism: Id >> p == p == p >> Id.
func (l *Logos) Identity() composition.Morphism { return composition.Identity() }

// StreamChunk is one increment of an invoke_stream response.
type StreamChunk struct {
	Value any
	Done  bool
	Err   error
}

// InvokeStream yields the aspect's result incrementally if its metadata
// marks Streaming true, otherwise it yields exactly one final chunk. The
// returned channel is always closed by the producer.
func (l *Logos) InvokeStream(ctx context.Context, rawPath string, obs *observer.Observer, kwargs map[string]any) <-chan StreamChunk {
	out := make(chan StreamChunk, 1)

	expanded := rawPath
	if l.Aliases != nil {
		expanded = l.Aliases.Expand(rawPath)
	}
	p, perr := path.ParseDefault(expanded)
	if perr != nil {
		out <- StreamChunk{Err: perr, Done: true}
		close(out)
		return out
	}

	aspect, ok := l.Nodes.FindAspect(p.Handle(), p.Aspect)
	if !ok || !aspect.Streaming {
		go func() {
			defer close(out)
			result, err := l.Invoke(ctx, rawPath, obs, kwargs)
			out <- StreamChunk{Value: result, Err: err, Done: true}
		}()
		return out
	}

	go func() {
		defer close(out)
		result, err := l.Invoke(ctx, rawPath, obs, kwargs)
		if err != nil {
			out <- StreamChunk{Err: err, Done: true}
			return
		}
		// The handler produces one renderable record; a streaming aspect
		// yields that same record incrementally rather than re-invoking
		// the handler, so there is exactly one interim chunk followed by
		// the final chunk.
		select {
		case <-ctx.Done():
			out <- StreamChunk{Err: ctx.Err(), Done: true}
			return
		case out <- StreamChunk{Value: result, Done: false}:
		}
		out <- StreamChunk{Value: result, Done: true}
	}()
	return out
}

// RegisterContextResolver installs the fallback resolver for a single
// reserved context (world/self/concept/void/time).
func (l *Logos) RegisterContextResolver(c path.Context, r ContextResolver) {
	l.ContextResolvers[c] = r
}
