package observer

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lattice-data/pipeline/pkg/logging"
)

// TestObserver is a test observer that records all events. It includes
// synchronization primitives for testing asynchronous behavior.
type TestObserver struct {
	events   []Event
	mu       sync.Mutex
	wg       sync.WaitGroup
	expected int
}

func NewTestObserver() *TestObserver {
	return &TestObserver{events: []Event{}}
}

func (o *TestObserver) OnEvent(ctx context.Context, event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events = append(o.events, event)

	if o.expected > 0 {
		o.wg.Done()
		o.expected--
	}
}

func (o *TestObserver) GetEvents() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events
}

func (o *TestObserver) GetEventCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

func (o *TestObserver) GetEventsByType(eventType EventType) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	filtered := []Event{}
	for _, e := range o.events {
		if e.Type == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (o *TestObserver) ExpectEvents(count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expected += count
	o.wg.Add(count)
}

func (o *TestObserver) Wait() {
	o.wg.Wait()
}

func TestNoOpObserver(t *testing.T) {
	observer := &NoOpObserver{}
	ctx := context.Background()

	event := Event{
		Type:      EventRunStart,
		Status:    StatusStarted,
		Timestamp: time.Now(),
		RunID:     "test-run-123",
	}

	observer.OnEvent(ctx, event)
}

func TestConsoleObserver(t *testing.T) {
	observer := NewConsoleObserver()
	if observer == nil {
		t.Fatal("NewConsoleObserver returned nil")
	}

	ctx := context.Background()
	event := Event{
		Type:      EventRunStart,
		Status:    StatusStarted,
		Timestamp: time.Now(),
		RunID:     "test-run-123",
	}

	observer.OnEvent(ctx, event)
}

func TestConsoleObserverWithCustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(logging.Config{Level: "debug", Output: buf})
	observer := NewConsoleObserverWithLogger(logger)
	if observer == nil {
		t.Fatal("NewConsoleObserverWithLogger returned nil")
	}

	ctx := context.Background()
	events := []Event{
		{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123"},
		{Type: EventNodeStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123", NodeName: "node-1"},
		{Type: EventNodeSuccess, Status: StatusSuccess, Timestamp: time.Now(), RunID: "test-run-123", NodeName: "node-1", ElapsedTime: 100 * time.Millisecond},
		{Type: EventRunEnd, Status: StatusSuccess, Timestamp: time.Now(), RunID: "test-run-123", ElapsedTime: 500 * time.Millisecond},
	}

	for _, event := range events {
		observer.OnEvent(ctx, event)
	}

	output := buf.String()
	if !strings.Contains(output, `"run_id":"test-run-123"`) {
		t.Errorf("expected output to route through the given logger, got: %s", output)
	}
	if !strings.Contains(output, `"node_name":"node-1"`) {
		t.Errorf("expected node events to carry node_name, got: %s", output)
	}
}

func TestNewManager(t *testing.T) {
	mgr := NewManager()
	if mgr == nil {
		t.Fatal("NewManager returned nil")
	}
	if mgr.Count() != 0 {
		t.Errorf("Expected 0 observers, got %d", mgr.Count())
	}
	if mgr.HasObservers() {
		t.Error("Expected HasObservers to return false")
	}
}

func TestManagerRegister(t *testing.T) {
	mgr := NewManager()
	obs1 := NewTestObserver()
	obs2 := NewTestObserver()

	mgr.Register(obs1)
	if mgr.Count() != 1 {
		t.Errorf("Expected 1 observer, got %d", mgr.Count())
	}

	mgr.Register(obs2)
	if mgr.Count() != 2 {
		t.Errorf("Expected 2 observers, got %d", mgr.Count())
	}
	if !mgr.HasObservers() {
		t.Error("Expected HasObservers to return true")
	}
	mgr.Close()
}

func TestManagerRegisterNil(t *testing.T) {
	mgr := NewManager()
	mgr.Register(nil)
	if mgr.Count() != 0 {
		t.Errorf("Expected 0 observers after registering nil, got %d", mgr.Count())
	}
}

func TestManagerNotify(t *testing.T) {
	mgr := NewManager()
	obs1 := NewTestObserver()
	obs2 := NewTestObserver()

	mgr.Register(obs1)
	mgr.Register(obs2)

	ctx := context.Background()
	event := Event{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123"}

	obs1.ExpectEvents(1)
	obs2.ExpectEvents(1)

	mgr.Notify(ctx, event)

	obs1.Wait()
	obs2.Wait()
	mgr.Close()

	if obs1.GetEventCount() != 1 {
		t.Errorf("Observer 1 expected 1 event, got %d", obs1.GetEventCount())
	}
	if obs2.GetEventCount() != 1 {
		t.Errorf("Observer 2 expected 1 event, got %d", obs2.GetEventCount())
	}

	events1 := obs1.GetEvents()
	if events1[0].Type != EventRunStart {
		t.Errorf("Expected event type %s, got %s", EventRunStart, events1[0].Type)
	}
	if events1[0].Seq == 0 {
		t.Errorf("expected Notify to assign a non-zero sequence number")
	}
}

func TestManagerNotify_SequenceNumbersIncreaseMonotonically(t *testing.T) {
	mgr := NewManager()
	obs := NewTestObserver()
	mgr.Register(obs)

	ctx := context.Background()
	obs.ExpectEvents(3)
	for i := 0; i < 3; i++ {
		mgr.Notify(ctx, Event{Type: EventNodeStart, RunID: "r"})
	}
	obs.Wait()
	mgr.Close()

	events := obs.GetEvents()
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("sequence numbers not monotonic: %v", events)
		}
	}
}

func TestManagerNotifyMultipleEvents(t *testing.T) {
	mgr := NewManager()
	obs := NewTestObserver()
	mgr.Register(obs)

	ctx := context.Background()
	events := []Event{
		{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "run-1"},
		{Type: EventNodeStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "run-1", NodeName: "node-1"},
		{Type: EventNodeSuccess, Status: StatusSuccess, Timestamp: time.Now(), RunID: "run-1", NodeName: "node-1"},
		{Type: EventRunEnd, Status: StatusSuccess, Timestamp: time.Now(), RunID: "run-1"},
	}

	obs.ExpectEvents(len(events))
	for _, event := range events {
		mgr.Notify(ctx, event)
	}
	obs.Wait()
	mgr.Close()

	if obs.GetEventCount() != 4 {
		t.Errorf("Expected 4 events, got %d", obs.GetEventCount())
	}

	runStarts := obs.GetEventsByType(EventRunStart)
	if len(runStarts) != 1 {
		t.Errorf("Expected 1 run start event, got %d", len(runStarts))
	}

	nodeSuccesses := obs.GetEventsByType(EventNodeSuccess)
	if len(nodeSuccesses) != 1 {
		t.Errorf("Expected 1 node success event, got %d", len(nodeSuccesses))
	}
}

func TestNewManagerWithObservers(t *testing.T) {
	obs1 := NewTestObserver()
	obs2 := NewTestObserver()

	mgr := NewManagerWithObservers(obs1, obs2)
	if mgr.Count() != 2 {
		t.Errorf("Expected 2 observers, got %d", mgr.Count())
	}

	ctx := context.Background()
	event := Event{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123"}

	obs1.ExpectEvents(1)
	obs2.ExpectEvents(1)

	mgr.Notify(ctx, event)

	obs1.Wait()
	obs2.Wait()
	mgr.Close()

	if obs1.GetEventCount() != 1 {
		t.Errorf("Observer 1 expected 1 event, got %d", obs1.GetEventCount())
	}
	if obs2.GetEventCount() != 1 {
		t.Errorf("Observer 2 expected 1 event, got %d", obs2.GetEventCount())
	}
}

func TestEventStructure(t *testing.T) {
	now := time.Now()
	event := Event{
		Type:        EventNodeSuccess,
		Status:      StatusSuccess,
		Timestamp:   now,
		RunID:       "run-123",
		NodeName:    "node-789",
		StartTime:   now.Add(-100 * time.Millisecond),
		ElapsedTime: 100 * time.Millisecond,
		Result:      42,
		Error:       nil,
		Metadata:    map[string]interface{}{"custom": "data"},
	}

	if event.Type != EventNodeSuccess {
		t.Errorf("Expected type %s, got %s", EventNodeSuccess, event.Type)
	}
	if event.Status != StatusSuccess {
		t.Errorf("Expected status %s, got %s", StatusSuccess, event.Status)
	}
	if event.RunID != "run-123" {
		t.Errorf("Expected run ID 'run-123', got '%s'", event.RunID)
	}
	if event.NodeName != "node-789" {
		t.Errorf("Expected node name 'node-789', got '%s'", event.NodeName)
	}
	if event.Result != 42 {
		t.Errorf("Expected result 42, got %v", event.Result)
	}
	if event.Metadata["custom"] != "data" {
		t.Errorf("Expected metadata custom='data', got %v", event.Metadata["custom"])
	}
}

func TestObserverAsynchronousExecution(t *testing.T) {
	mgr := NewManager()

	slowObserver := NewTestObserver()
	mgr.Register(slowObserver)

	ctx := context.Background()
	event := Event{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123"}

	slowObserver.ExpectEvents(1)

	start := time.Now()
	mgr.Notify(ctx, event)
	elapsed := time.Since(start)

	if elapsed > 10*time.Millisecond {
		t.Errorf("Notify blocked for %v, expected to be asynchronous", elapsed)
	}

	slowObserver.Wait()
	mgr.Close()

	if slowObserver.GetEventCount() != 1 {
		t.Errorf("Expected 1 event, got %d", slowObserver.GetEventCount())
	}
}

func TestObserverPanicRecovery(t *testing.T) {
	mgr := NewManager()

	panicObserver := &PanicObserver{}
	normalObserver := NewTestObserver()

	mgr.Register(panicObserver)
	mgr.Register(normalObserver)

	ctx := context.Background()
	event := Event{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123"}

	normalObserver.ExpectEvents(1)

	mgr.Notify(ctx, event)

	normalObserver.Wait()
	mgr.Close()

	if normalObserver.GetEventCount() != 1 {
		t.Errorf("Expected 1 event in normal observer, got %d", normalObserver.GetEventCount())
	}
}

// PanicObserver always panics when OnEvent is called.
type PanicObserver struct{}

func (o *PanicObserver) OnEvent(ctx context.Context, event Event) {
	panic("observer panic test")
}

func TestMultipleObserversParallelExecution(t *testing.T) {
	mgr := NewManager()

	observers := make([]*TestObserver, 10)
	for i := 0; i < 10; i++ {
		observers[i] = NewTestObserver()
		mgr.Register(observers[i])
	}

	ctx := context.Background()
	event := Event{Type: EventRunStart, Status: StatusStarted, Timestamp: time.Now(), RunID: "test-run-123"}

	for _, obs := range observers {
		obs.ExpectEvents(1)
	}

	start := time.Now()
	mgr.Notify(ctx, event)
	elapsed := time.Since(start)

	if elapsed > 10*time.Millisecond {
		t.Errorf("Notify with 10 observers blocked for %v, expected to be asynchronous", elapsed)
	}

	for _, obs := range observers {
		obs.Wait()
	}
	mgr.Close()

	for i, obs := range observers {
		if obs.GetEventCount() != 1 {
			t.Errorf("Observer %d expected 1 event, got %d", i, obs.GetEventCount())
		}
	}
}

// blockingObserver blocks in OnEvent until release is closed, used to fill
// a worker's queue and exercise DroppedEvents.
type blockingObserver struct {
	release chan struct{}
	seen    chan Event
}

func (o *blockingObserver) OnEvent(ctx context.Context, event Event) {
	<-o.release
	o.seen <- event
}

func TestManagerNotify_DropsEventsWhenQueueIsFull(t *testing.T) {
	mgr := &Manager{queueSize: 1}
	obs := &blockingObserver{release: make(chan struct{}), seen: make(chan Event, 8)}
	mgr.Register(obs)

	ctx := context.Background()
	// First event occupies the worker goroutine (blocked in OnEvent); the
	// second fills the size-1 queue; the rest must be dropped.
	for i := 0; i < 5; i++ {
		mgr.Notify(ctx, Event{Type: EventNodeStart, RunID: "r"})
	}

	if got := mgr.DroppedEvents(); got == 0 {
		t.Fatalf("expected some events to be dropped with a full queue, got %d", got)
	}

	close(obs.release)
	mgr.Close()
}
