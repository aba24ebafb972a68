package subscription

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ReplayLog is the external history source a Subscription queries on open
// when ReplayFrom or ReplayOffset is set. If no log is configured,
// replay returns no records and is logged.
type ReplayLog interface {
	// Since returns events on paths matching pattern that occurred at or
	// after from.
	Since(pattern *Pattern, from time.Time) []Event
	// LastN returns up to n of the most recent events matching pattern.
	LastN(pattern *Pattern, n int) []Event
	// Append records a published event for future replay.
	Append(e Event)
}

// InMemoryReplayLog is a bounded in-process ReplayLog, useful for tests and
// single-process deployments; production deployments wire a
// Postgres-backed log instead (see pkg/server wiring).
type InMemoryReplayLog struct {
	mu   sync.Mutex
	cap  int
	ring []Event
}

// NewInMemoryReplayLog returns a log retaining up to capacity events.
func NewInMemoryReplayLog(capacity int) *InMemoryReplayLog {
	return &InMemoryReplayLog{cap: capacity}
}

func (l *InMemoryReplayLog) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring = append(l.ring, e)
	if len(l.ring) > l.cap {
		l.ring = l.ring[len(l.ring)-l.cap:]
	}
}

func (l *InMemoryReplayLog) Since(pattern *Pattern, from time.Time) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.ring {
		if !e.Timestamp.Before(from) && pattern.Matches(e.Context, e.Segments, e.Aspect) {
			out = append(out, e)
		}
	}
	return out
}

func (l *InMemoryReplayLog) LastN(pattern *Pattern, n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var matching []Event
	for _, e := range l.ring {
		if pattern.Matches(e.Context, e.Segments, e.Aspect) {
			matching = append(matching, e)
		}
	}
	if len(matching) > n {
		matching = matching[len(matching)-n:]
	}
	return matching
}

// Manager is the Subscription Manager: it compiles patterns, tracks live
// subscriptions, and fans out published events.
type Manager struct {
	mu            sync.Mutex
	index         *Index
	subscriptions map[string]*Subscription
	globalQueue   sync.Mutex // held for the duration of a GLOBAL_FIFO delivery
	replay        ReplayLog
	unacked       map[string][]Event // pattern text -> events orphaned by a closed AT_LEAST_ONCE subscription
}

// NewManager constructs a Manager. replay may be nil, in which case replay
// requests return no records.
func NewManager(replay ReplayLog) *Manager {
	return &Manager{
		index:         NewIndex(),
		subscriptions: make(map[string]*Subscription),
		replay:        replay,
		unacked:       make(map[string][]Event),
	}
}

// Subscribe compiles pattern, registers a new Subscription, performs any
// requested replay drain, and starts heartbeat synthesis.
func (m *Manager) Subscribe(patternText string, opts Options) *Subscription {
	pattern := CompilePattern(patternText)
	if opts.Aspect != "" {
		pattern.aspect = opts.Aspect
		pattern.hasAspect = true
	}

	sub := newSubscription(pattern, opts)

	m.mu.Lock()
	m.index.Add(pattern)
	m.subscriptions[sub.ID] = sub
	m.mu.Unlock()

	m.replayInto(sub, pattern, opts)
	m.redeliverOrphaned(sub, patternText)
	sub.startHeartbeat()
	return sub
}

// redeliverOrphaned hands a new AT_LEAST_ONCE subscription any events left
// unacknowledged by a previous subscription against the identical pattern
// text, so closing and reopening a subscription never loses an event
// still in flight.
func (m *Manager) redeliverOrphaned(sub *Subscription, patternText string) {
	if sub.opts.Delivery != AtLeastOnce {
		return
	}
	m.mu.Lock()
	orphaned := m.unacked[patternText]
	delete(m.unacked, patternText)
	m.mu.Unlock()

	for _, e := range orphaned {
		sub.deliver(e)
	}
}

func (m *Manager) replayInto(sub *Subscription, pattern *Pattern, opts Options) {
	if opts.ReplayFrom == nil && opts.ReplayOffset == nil {
		return
	}
	if m.replay == nil {
		log.Warn().Str("subscription_id", sub.ID).Msg("replay requested but no replay log is configured")
		return
	}

	var records []Event
	if opts.ReplayFrom != nil {
		records = m.replay.Since(pattern, *opts.ReplayFrom)
	} else {
		records = m.replay.LastN(pattern, *opts.ReplayOffset)
	}
	for _, e := range records {
		sub.deliver(e)
	}
}

// Unsubscribe closes and removes a subscription, preserving any
// unacknowledged AT_LEAST_ONCE events for redelivery to the next subscriber
// of the same pattern text.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	sub, ok := m.subscriptions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.subscriptions, id)
	m.index.Remove(sub.pattern)
	patternText := sub.pattern.Raw()
	m.mu.Unlock()

	orphaned := sub.DrainUnacknowledged()
	sub.Close()

	if len(orphaned) > 0 {
		m.mu.Lock()
		m.unacked[patternText] = append(m.unacked[patternText], orphaned...)
		m.mu.Unlock()
	}
}

// Publish delivers e to every subscription whose pattern matches, honoring
// each subscription's own ordering guarantee, and records it to the replay
// log if one is configured.
func (m *Manager) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	matched := m.index.MatchAll(e.Context, e.Segments, e.Aspect)
	m.mu.Unlock()

	if m.replay != nil {
		m.replay.Append(e)
	}

	for _, p := range matched {
		sub := m.subscriptionForPattern(p)
		if sub == nil {
			continue
		}
		if sub.opts.Ordering == GlobalFIFO {
			m.globalQueue.Lock()
			sub.deliver(e)
			m.globalQueue.Unlock()
		} else {
			sub.deliver(e)
		}
	}
}

func (m *Manager) subscriptionForPattern(p *Pattern) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscriptions {
		if sub.pattern == p {
			return sub
		}
	}
	return nil
}
