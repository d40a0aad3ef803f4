package observer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lattice-data/pipeline/pkg/logging"
)

// NoOpObserver is a no-operation observer that ignores all events.
// This is useful as a default when no observer is configured.
type NoOpObserver struct{}

// OnEvent implements Observer interface (does nothing)
func (o *NoOpObserver) OnEvent(ctx context.Context, event Event) {
	// No operation
}

// ConsoleObserver logs events through a *logging.Logger, at a level chosen
// by event type/outcome rather than a single flat severity: run lifecycle
// and node failures are visible by default, node start/success are
// debug-only noise meant for verbose troubleshooting.
type ConsoleObserver struct {
	logger *logging.Logger
}

// NewConsoleObserver creates a console observer writing through a default
// JSON logger at info level.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{logger: logging.New(logging.DefaultConfig())}
}

// NewConsoleObserverWithLogger creates a console observer writing through
// the given logger, letting a caller route event output alongside its own
// application logs (same handler, same output).
func NewConsoleObserverWithLogger(logger *logging.Logger) *ConsoleObserver {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	return &ConsoleObserver{logger: logger}
}

// OnEvent implements Observer interface
func (o *ConsoleObserver) OnEvent(ctx context.Context, event Event) {
	logger := o.logger.WithRunID(event.RunID)
	if event.NodeName != "" {
		logger = logger.WithNodeName(event.NodeName)
	}
	if event.ElapsedTime > 0 {
		logger = logger.WithDuration(event.ElapsedTime)
	}
	if event.Error != nil {
		logger = logger.WithError(event.Error)
	}

	msg := fmt.Sprintf("[%s] %s", event.Type, event.Status)

	switch event.Type {
	case EventRunStart:
		logger.Info(msg)
	case EventRunEnd:
		if event.Error != nil {
			logger.Error(msg)
		} else {
			logger.Info(msg)
		}
	case EventNodeFailure:
		logger.Warn(msg)
	case EventNodeStart, EventNodeSuccess, EventNodeEnd:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}

// envelope pairs a queued event with the context it was notified under.
type envelope struct {
	ctx   context.Context
	event Event
}

// defaultQueueSize bounds how many not-yet-delivered events a single
// observer's worker will hold before Notify starts dropping events destined
// for it rather than blocking the caller.
const defaultQueueSize = 256

// observerWorker owns one Observer and a single goroutine draining a
// buffered channel of events into it, so a slow or blocking Observer only
// ever delays its own queue, never another observer's, and Notify's
// send-or-drop never has to spawn a goroutine per event.
type observerWorker struct {
	observer Observer
	events   chan envelope
	dropped  atomic.Uint64
	done     chan struct{}
}

func newObserverWorker(obs Observer, queueSize int) *observerWorker {
	w := &observerWorker{
		observer: obs,
		events:   make(chan envelope, queueSize),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *observerWorker) run() {
	defer close(w.done)
	for env := range w.events {
		w.deliver(env)
	}
}

func (w *observerWorker) deliver(env envelope) {
	defer func() {
		recover() // an observer panicking must not take down the run it's watching
	}()
	w.observer.OnEvent(env.ctx, env.event)
}

// send enqueues env without blocking; if the worker's queue is full the
// event is dropped and counted rather than applying backpressure to the
// runner that's calling Notify.
func (w *observerWorker) send(env envelope) {
	select {
	case w.events <- env:
	default:
		w.dropped.Add(1)
	}
}

func (w *observerWorker) close() {
	close(w.events)
	<-w.done
}

// Manager fans events out to every registered Observer, each through its
// own bounded queue and worker goroutine, and assigns every event a
// monotonically increasing sequence number as it is accepted.
type Manager struct {
	mu        sync.Mutex
	workers   []*observerWorker
	seq       atomic.Uint64
	queueSize int
}

// NewManager creates a new observer manager with no observers.
func NewManager() *Manager {
	return &Manager{queueSize: defaultQueueSize}
}

// NewManagerWithObservers creates a new observer manager with initial
// observers already registered.
func NewManagerWithObservers(observers ...Observer) *Manager {
	m := NewManager()
	for _, obs := range observers {
		m.Register(obs)
	}
	return m
}

// Register adds an observer to the manager and starts its delivery worker.
// Register after events have already been notified is safe but the new
// observer only sees events from that point on.
func (m *Manager) Register(observer Observer) {
	if observer == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, newObserverWorker(observer, m.queueSize))
}

// Notify assigns the event a sequence number and hands it to every
// registered observer's queue without blocking. An observer whose queue is
// full drops the event; call DroppedEvents to detect that happening.
func (m *Manager) Notify(ctx context.Context, event Event) {
	event.Seq = m.seq.Add(1)

	m.mu.Lock()
	workers := m.workers
	m.mu.Unlock()

	env := envelope{ctx: ctx, event: event}
	for _, w := range workers {
		w.send(env)
	}
}

// HasObservers returns true if any observers are registered.
func (m *Manager) HasObservers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers) > 0
}

// Count returns the number of registered observers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// DroppedEvents returns the total number of events dropped across all
// observers because their queue was full at the time of Notify.
func (m *Manager) DroppedEvents() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint64
	for _, w := range m.workers {
		total += w.dropped.Load()
	}
	return total
}

// Close stops accepting new deliveries and blocks until every observer has
// drained its queue. Callers that want a guarantee the final run_end event
// has actually reached every observer (e.g. before a CLI exits) should call
// this after the run completes rather than sleeping.
func (m *Manager) Close() {
	m.mu.Lock()
	workers := m.workers
	m.workers = nil
	m.mu.Unlock()

	for _, w := range workers {
		w.close()
	}
}
