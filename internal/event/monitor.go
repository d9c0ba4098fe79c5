package event

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/crewline/crewline/internal/errors"
	"github.com/crewline/crewline/internal/logging"
)

// DefaultPopTimeout is how long each monitor iteration blocks on an empty
// queue before idling.
const DefaultPopTimeout = 200 * time.Millisecond

// Monitor drives the Bus: while started, it drains one event per iteration
// (or idles on the pop timeout), dispatches it to registered handlers, and
// maintains the metrics counter set. Stop signals the loop and waits for it
// to acknowledge exit.
type Monitor struct {
	bus        *Bus
	popTimeout time.Duration
	logger     *logging.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}

	processed     atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	violations    atomic.Int64
	interventions atomic.Int64
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithPopTimeout sets the per-iteration blocking pop timeout.
func WithPopTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.popTimeout = d
		}
	}
}

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(logger *logging.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor creates a Monitor for the given bus.
func NewMonitor(bus *Bus, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		bus:        bus,
		popTimeout: DefaultPopTimeout,
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the monitor loop. It returns an error if already started.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("event: monitor already started")
	}

	m.started = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(m.stop, m.done)

	m.logger.Debug("event monitor started", "pop_timeout", m.popTimeout.String())
	return nil
}

// Stop signals the monitor loop to exit and blocks until it acknowledges.
// It is idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	stop := m.stop
	done := m.done
	m.started = false
	m.mu.Unlock()

	close(stop)
	<-done

	m.logger.Debug("event monitor stopped", "events_processed", m.processed.Load())
}

// Running reports whether the monitor loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Metrics returns a snapshot of the monitor's counters, including the
// bus's dropped-event count.
func (m *Monitor) Metrics() Metrics {
	return Metrics{
		EventsProcessed: m.processed.Load(),
		EventsDropped:   m.bus.Dropped(),
		TasksCompleted:  m.completed.Load(),
		TasksFailed:     m.failed.Load(),
		Violations:      m.violations.Load(),
		Interventions:   m.interventions.Load(),
	}
}

// loop drains one event per iteration until the stop channel closes.
func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		e, ok := m.bus.Pop(m.popTimeout)
		if !ok {
			continue // idle iteration
		}

		m.bus.Notify(e)
		m.record(e)
	}
}

// record updates the metrics counters for a dispatched event.
func (m *Monitor) record(e Event) {
	m.processed.Add(1)

	switch e.Kind {
	case KindTaskCompleted:
		m.completed.Add(1)
	case KindTaskFailed:
		m.failed.Add(1)
	case KindViolationDetected:
		m.violations.Add(1)
	case KindInterventionTriggered:
		m.interventions.Add(1)
	}
}
