package event

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestPushPopRoundTrip(t *testing.T) {
	bus := NewBus()

	pushed := New(KindTaskCompleted, "engine", map[string]any{"title": "Build schema"})
	if !bus.Push(pushed) {
		t.Fatal("Push returned false on an empty bus")
	}

	popped, ok := bus.Pop(time.Second)
	if !ok {
		t.Fatal("Pop timed out on a non-empty bus")
	}

	if popped.ID != pushed.ID {
		t.Errorf("ID = %q, want %q", popped.ID, pushed.ID)
	}
	if popped.Kind != KindTaskCompleted {
		t.Errorf("Kind = %q, want %q", popped.Kind, KindTaskCompleted)
	}
	if popped.Source != "engine" {
		t.Errorf("Source = %q, want %q", popped.Source, "engine")
	}
	if popped.Payload["title"] != "Build schema" {
		t.Errorf("Payload[title] = %v, want %q", popped.Payload["title"], "Build schema")
	}
}

func TestPopTimeout(t *testing.T) {
	bus := NewBus()

	start := time.Now()
	_, ok := bus.Pop(50 * time.Millisecond)
	if ok {
		t.Fatal("Pop on empty bus should time out")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Pop returned after %v, expected to block ~50ms", elapsed)
	}
}

func TestPushDropsWhenFull(t *testing.T) {
	bus := NewBus(WithCapacity(2))

	if !bus.Push(New(KindTaskStarted, "engine", nil)) {
		t.Fatal("first push should succeed")
	}
	if !bus.Push(New(KindTaskStarted, "engine", nil)) {
		t.Fatal("second push should succeed")
	}
	if bus.Push(New(KindTaskStarted, "engine", nil)) {
		t.Error("third push should be dropped at capacity 2")
	}

	if got := bus.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if got := bus.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestFIFOOrderingSingleProducer(t *testing.T) {
	bus := NewBus()

	for i := 0; i < 10; i++ {
		bus.Push(New(KindMilestoneReached, "test", map[string]any{"seq": i}))
	}

	for i := 0; i < 10; i++ {
		e, ok := bus.Pop(time.Second)
		if !ok {
			t.Fatalf("Pop %d timed out", i)
		}
		if e.Payload["seq"] != i {
			t.Fatalf("event %d has seq %v, bus reordered a single producer's events", i, e.Payload["seq"])
		}
	}
}

func TestSubscribeAndNotify(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(KindTaskFailed, func(e Event) error {
		got = append(got, e)
		return nil
	})

	bus.Notify(New(KindTaskFailed, "engine", nil))
	bus.Notify(New(KindTaskCompleted, "engine", nil)) // different kind, not delivered

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	if !got[0].Processed {
		t.Error("dispatched event should carry Processed = true")
	}
}

func TestSubscribeAllReceivesEveryKind(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.SubscribeAll(func(e Event) error {
		count++
		return nil
	})

	for _, kind := range Kinds() {
		bus.Notify(New(kind, "test", nil))
	}

	if count != len(Kinds()) {
		t.Errorf("wildcard handler called %d times, want %d", count, len(Kinds()))
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe(KindTaskStarted, func(e Event) error {
		count++
		return nil
	})

	bus.Notify(New(KindTaskStarted, "test", nil))

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe should find the subscription")
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe should return false")
	}

	bus.Notify(New(KindTaskStarted, "test", nil))

	if count != 1 {
		t.Errorf("handler called %d times after unsubscribe, want 1", count)
	}
}

func TestSubscriptionIDsUnique(t *testing.T) {
	bus := NewBus()
	handler := func(Event) error { return nil }

	// A colliding ID would make Unsubscribe remove someone else's handler.
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := bus.SubscribeAll(handler)
		if seen[id] {
			t.Fatalf("duplicate subscription ID %q after %d registrations", id, i)
		}
		seen[id] = true
	}
}

func TestHandlerErrorIsolation(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(KindSystemError, func(e Event) error {
		order = append(order, "first")
		return fmt.Errorf("handler failure")
	})
	bus.Subscribe(KindSystemError, func(e Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Notify(New(KindSystemError, "test", nil))

	if len(order) != 2 || order[1] != "second" {
		t.Errorf("second handler should still run after first errors, got %v", order)
	}
}

func TestHandlerPanicIsolation(t *testing.T) {
	bus := NewBus()

	reached := false
	bus.Subscribe(KindQualityCheck, func(e Event) error {
		panic("handler exploded")
	})
	bus.Subscribe(KindQualityCheck, func(e Event) error {
		reached = true
		return nil
	})

	bus.Notify(New(KindQualityCheck, "test", nil))

	if !reached {
		t.Error("panicking handler should not stop delivery to later handlers")
	}
}

func TestHistoryRetainsConsumedEvents(t *testing.T) {
	bus := NewBus(WithCapacity(10))

	e := New(KindTaskCompleted, "engine", nil)
	bus.Push(e)

	popped, ok := bus.Pop(time.Second)
	if !ok {
		t.Fatal("Pop timed out")
	}
	bus.Notify(popped)

	hist := bus.History()
	if len(hist) != 1 {
		t.Fatalf("History() len = %d, want 1", len(hist))
	}
	if hist[0].ID != e.ID {
		t.Errorf("history entry ID = %q, want %q", hist[0].ID, e.ID)
	}
	if !hist[0].Processed {
		t.Error("history entry should be marked processed after dispatch")
	}
}

func TestHistoryRingEviction(t *testing.T) {
	bus := NewBus(WithCapacity(3))

	for i := 0; i < 5; i++ {
		// Drain between pushes so the queue never rejects; the history
		// ring should still evict down to the bound.
		bus.Push(New(KindMilestoneReached, "test", map[string]any{"seq": i}))
		bus.Pop(time.Second)
	}

	hist := bus.History()
	if len(hist) != 3 {
		t.Fatalf("History() len = %d, want 3", len(hist))
	}
	for i, e := range hist {
		want := i + 2 // oldest retained is seq 2
		if e.Payload["seq"] != want {
			t.Errorf("history[%d] seq = %v, want %d", i, e.Payload["seq"], want)
		}
	}
}

func TestConcurrentPushPop(t *testing.T) {
	bus := NewBus(WithCapacity(1000))

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				bus.Push(New(KindTaskStarted, fmt.Sprintf("producer-%d", p), map[string]any{"seq": i}))
			}
		}(p)
	}
	wg.Wait()

	// Per-producer FIFO must hold even with interleaved producers.
	lastSeq := make(map[string]int)
	for i := 0; i < producers*perProducer; i++ {
		e, ok := bus.Pop(time.Second)
		if !ok {
			t.Fatalf("Pop %d timed out", i)
		}
		seq := e.Payload["seq"].(int)
		if last, seen := lastSeq[e.Source]; seen && seq <= last {
			t.Fatalf("producer %s: seq %d after %d, per-producer FIFO violated", e.Source, seq, last)
		}
		lastSeq[e.Source] = seq
	}
}
