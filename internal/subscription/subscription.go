package subscription

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// bufferExpiry bounds how long AT_LEAST_ONCE delivery suspends the emitter
// waiting for buffer space before it gives up on this attempt.
const bufferExpiry = 30 * time.Second

// Delivery names the AT_MOST_ONCE / AT_LEAST_ONCE guarantee a
// subscription requests.
type Delivery string

const (
	AtMostOnce  Delivery = "AT_MOST_ONCE"
	AtLeastOnce Delivery = "AT_LEAST_ONCE"
)

// Ordering names the delivery ordering guarantee.
type Ordering string

const (
	PerPathFIFO Ordering = "PER_PATH_FIFO"
	GlobalFIFO  Ordering = "GLOBAL_FIFO"
	Unordered   Ordering = "UNORDERED"
)

// Options configures a Subscribe call.
type Options struct {
	Delivery           Delivery
	Ordering           Ordering
	BufferSize         int
	HeartbeatInterval  time.Duration
	ReplayFrom         *time.Time
	ReplayOffset       *int
	Aspect             string
}

// Subscription is a single live subscriber against a compiled Pattern.
type Subscription struct {
	ID      string
	pattern *Pattern
	opts    Options

	mu        sync.Mutex
	out       chan Event
	ring      *ring // AT_MOST_ONCE buffering
	pending   map[string]Event
	pathQueue map[string][]Event // PER_PATH_FIFO: events held back per path while a pending ack blocks delivery

	stopHeartbeat chan struct{}
	closed        bool
}

func newSubscription(pattern *Pattern, opts Options) *Subscription {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64
	}
	s := &Subscription{
		ID:            uuid.NewString(),
		pattern:       pattern,
		opts:          opts,
		out:           make(chan Event, opts.BufferSize),
		pending:       make(map[string]Event),
		pathQueue:     make(map[string][]Event),
		stopHeartbeat: make(chan struct{}),
	}
	if opts.Delivery == AtMostOnce {
		s.ring = newRing(opts.BufferSize)
	}
	return s
}

// Events returns the channel subscribers read delivered events from.
func (s *Subscription) Events() <-chan Event { return s.out }

// Acknowledge confirms receipt of an AT_LEAST_ONCE event by id, unblocking
// the next delivery in FIFO mode for events queued behind it on the same
// path.
func (s *Subscription) Acknowledge(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)

	if s.opts.Ordering != PerPathFIFO {
		return
	}
	path := ev.PathString()
	queue := s.pathQueue[path]
	if len(queue) == 0 {
		return
	}
	next := queue[0]
	s.pathQueue[path] = queue[1:]
	s.deliverLocked(next)
}

// deliver routes an event according to the subscription's delivery and
// ordering options. For AT_MOST_ONCE it pushes into the ring and forwards
// immediately, dropping the oldest buffered event on overflow — a reader
// that falls behind loses history, which is the guarantee it asked for.
// For AT_LEAST_ONCE under PER_PATH_FIFO it withholds delivery of a path's
// next event while that path has an unacknowledged pending event; on
// buffer overflow it suspends the send rather than dropping anything.
func (s *Subscription) deliver(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.opts.Delivery == AtMostOnce {
		s.ring.Push(e)
		s.sendDroppingOldest(e)
		return
	}

	// AT_LEAST_ONCE
	if s.opts.Ordering == PerPathFIFO {
		path := e.PathString()
		if _, blocked := s.pendingForPath(path); blocked {
			s.pathQueue[path] = append(s.pathQueue[path], e)
			return
		}
	}
	s.deliverLocked(e)
}

func (s *Subscription) pendingForPath(path string) (Event, bool) {
	for _, ev := range s.pending {
		if ev.PathString() == path {
			return ev, true
		}
	}
	return Event{}, false
}

func (s *Subscription) deliverLocked(e Event) {
	s.pending[e.ID] = e
	s.sendWithExpiry(e)
}

// sendDroppingOldest is the AT_MOST_ONCE send path: never blocks, evicts the
// oldest buffered event to make room for the newest one.
func (s *Subscription) sendDroppingOldest(e Event) {
	select {
	case s.out <- e:
	default:
		select {
		case <-s.out:
		default:
		}
		s.out <- e
	}
}

// sendWithExpiry is the AT_LEAST_ONCE send path. It suspends the emitter
// until the reader drains buffer space or bufferExpiry elapses — it never
// evicts a buffered event to make room. e is already recorded in
// s.pending before this runs, so a send that times out still leaves the
// event eligible for redelivery (via DrainUnacknowledged, to the next
// subscriber of the same pattern) instead of silently disappearing.
func (s *Subscription) sendWithExpiry(e Event) {
	select {
	case s.out <- e:
		return
	default:
	}
	timer := time.NewTimer(bufferExpiry)
	defer timer.Stop()
	select {
	case s.out <- e:
	case <-timer.C:
		log.Error().Str("subscription_id", s.ID).Str("event_id", e.ID).
			Msg("🔥 AT_LEAST_ONCE delivery suspended past buffer expiry, event withheld for redelivery")
	}
}

// Close stops heartbeat synthesis and closes the event channel.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.stopHeartbeat)
	close(s.out)
}

// DrainUnacknowledged returns every AT_LEAST_ONCE event that was delivered
// but never acknowledged (plus anything still withheld in a per-path FIFO
// queue). The order is not fixed: pending events come first, in map
// iteration order, then each path's withheld events in their queued order,
// the paths again in map iteration order. Called by the manager when a subscription
// closes, so those events can be redelivered to the next subscriber of the
// same pattern.
func (s *Subscription) DrainUnacknowledged() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.Delivery != AtLeastOnce {
		return nil
	}
	var out []Event
	for _, e := range s.pending {
		out = append(out, e)
	}
	for _, queued := range s.pathQueue {
		out = append(out, queued...)
	}
	return out
}

func (s *Subscription) startHeartbeat() {
	if s.opts.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.HeartbeatInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.stopHeartbeat:
				return
			case t := <-ticker.C:
				s.deliver(Event{ID: uuid.NewString(), Kind: KindHeartbeat, Timestamp: t})
			}
		}
	}()
}
