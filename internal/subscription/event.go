package subscription

import "time"

// Kind names the five event types a subscription can observe.
type Kind string

const (
	KindInvoked   Kind = "INVOKED"
	KindChanged   Kind = "CHANGED"
	KindError     Kind = "ERROR"
	KindRefused   Kind = "REFUSED"
	KindHeartbeat Kind = "HEARTBEAT"
)

// Event is a single unit of subscription delivery.
type Event struct {
	ID        string
	Kind      Kind
	Context   string
	Segments  []string
	Aspect    string
	Payload   any
	Timestamp time.Time
}

// PathString reconstitutes the dotted context.segment[.segment…] path the
// event occurred on, for display and replay-log keys.
func (e Event) PathString() string {
	s := e.Context
	for _, seg := range e.Segments {
		s += "." + seg
	}
	return s
}
