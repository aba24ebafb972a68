package subscription

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_DoubleWildcardMatchesAnyDepth(t *testing.T) {
	p := CompilePattern("world.**:manifest")
	assert.True(t, p.Matches("world", []string{"garden"}, "manifest"))
	assert.True(t, p.Matches("world", []string{"garden", "bed", "row"}, "manifest"))
	assert.False(t, p.Matches("world", []string{"garden"}, "refine"))
	assert.False(t, p.Matches("self", []string{"garden"}, "manifest"))
}

func TestPattern_SingleWildcardMatchesOneSegment(t *testing.T) {
	p := CompilePattern("concept.summary.*")
	assert.True(t, p.Matches("concept", []string{"summary", "refine"}, ""))
	assert.False(t, p.Matches("concept", []string{"summary"}, ""))
	assert.False(t, p.Matches("concept", []string{"summary", "refine", "deep"}, ""))
}

func TestManager_RedeliveryAfterUnackedClose(t *testing.T) {
	m := NewManager(nil)

	sub := m.Subscribe("world.**:manifest", Options{Delivery: AtLeastOnce, Ordering: Unordered, BufferSize: 8})

	mkEvent := func() Event {
		return Event{ID: uuid.NewString(), Kind: KindInvoked, Context: "world", Segments: []string{"garden"}, Aspect: "manifest"}
	}
	e1, e2, e3 := mkEvent(), mkEvent(), mkEvent()
	m.Publish(e1)
	m.Publish(e2)
	m.Publish(e3)

	var received []Event
	for i := 0; i < 3; i++ {
		received = append(received, <-sub.Events())
	}
	require.Len(t, received, 3)

	sub.Acknowledge(received[0].ID)
	sub.Acknowledge(received[1].ID)
	// received[2] deliberately left unacknowledged.

	m.Unsubscribe(sub.ID)

	resub := m.Subscribe("world.**:manifest", Options{Delivery: AtLeastOnce, Ordering: Unordered, BufferSize: 8})
	select {
	case redelivered := <-resub.Events():
		assert.Equal(t, received[2].ID, redelivered.ID)
	case <-time.After(time.Second):
		t.Fatal("expected the unacknowledged event to be redelivered on resubscribe")
	}
}

func TestSubscription_PerPathFIFOWithholdsUntilAck(t *testing.T) {
	m := NewManager(nil)
	sub := m.Subscribe("world.**", Options{Delivery: AtLeastOnce, Ordering: PerPathFIFO, BufferSize: 8})

	first := Event{ID: uuid.NewString(), Kind: KindInvoked, Context: "world", Segments: []string{"garden"}}
	second := Event{ID: uuid.NewString(), Kind: KindInvoked, Context: "world", Segments: []string{"garden"}}
	m.Publish(first)
	m.Publish(second)

	got := <-sub.Events()
	assert.Equal(t, first.ID, got.ID)

	select {
	case <-sub.Events():
		t.Fatal("second event on the same path should be withheld until the first is acknowledged")
	case <-time.After(50 * time.Millisecond):
	}

	sub.Acknowledge(got.ID)
	select {
	case redelivered := <-sub.Events():
		assert.Equal(t, second.ID, redelivered.ID)
	case <-time.After(time.Second):
		t.Fatal("expected second event after ack")
	}
}

func TestSubscription_AtMostOnceDropsOldestOnOverflow(t *testing.T) {
	m := NewManager(nil)
	sub := m.Subscribe("world.**", Options{Delivery: AtMostOnce, Ordering: Unordered, BufferSize: 2})

	for i := 0; i < 5; i++ {
		m.Publish(Event{ID: uuid.NewString(), Kind: KindInvoked, Context: "world", Segments: []string{"x"}})
	}

	// only the buffer's worth of events should still be sitting in the channel
	count := 0
	for {
		select {
		case <-sub.Events():
			count++
		default:
			assert.LessOrEqual(t, count, 2)
			return
		}
	}
}

func TestManager_AspectFilterNarrows(t *testing.T) {
	m := NewManager(nil)
	sub := m.Subscribe("world.garden", Options{Delivery: AtMostOnce, Ordering: Unordered, BufferSize: 4, Aspect: "manifest"})

	m.Publish(Event{ID: uuid.NewString(), Context: "world", Segments: []string{"garden"}, Aspect: "refine"})
	m.Publish(Event{ID: uuid.NewString(), Context: "world", Segments: []string{"garden"}, Aspect: "manifest"})

	got := <-sub.Events()
	assert.Equal(t, "manifest", got.Aspect)

	select {
	case <-sub.Events():
		t.Fatal("should only receive the manifest-aspect event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_ReplayFromInMemoryLog(t *testing.T) {
	log := NewInMemoryReplayLog(100)
	m := NewManager(log)

	past := time.Now().Add(-time.Hour)
	m.Publish(Event{ID: uuid.NewString(), Context: "world", Segments: []string{"garden"}, Timestamp: past})

	from := time.Now().Add(-2 * time.Hour)
	sub := m.Subscribe("world.**", Options{Delivery: AtMostOnce, Ordering: Unordered, BufferSize: 4, ReplayFrom: &from})

	select {
	case e := <-sub.Events():
		assert.Equal(t, "world", e.Context)
	case <-time.After(time.Second):
		t.Fatal("expected replayed event")
	}
}

func TestHeartbeat_SynthesizedPeriodically(t *testing.T) {
	m := NewManager(nil)
	sub := m.Subscribe("world.**", Options{Delivery: AtMostOnce, Ordering: Unordered, BufferSize: 4, HeartbeatInterval: 20 * time.Millisecond})
	defer m.Unsubscribe(sub.ID)

	select {
	case e := <-sub.Events():
		assert.Equal(t, KindHeartbeat, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a synthesized heartbeat")
	}
}
