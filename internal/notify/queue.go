// Package notify is the transient notification queue shown to the user.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mfenderov/smart-organizer/internal/metrics"
)

// Kind classifies a notification.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// DefaultDuration is how long a notification lives unless told otherwise.
const DefaultDuration = 4 * time.Second

// Notification is one queued message.
type Notification struct {
	ID        string
	Kind      Kind
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}

// Queue holds notifications in insertion order. Every item expires on its own
// timer; Dismiss removes it early and stops that timer.
type Queue struct {
	mu              sync.Mutex
	items           []Notification
	timers          map[string]*time.Timer
	closed          bool
	defaultDuration time.Duration
	onChange        func([]Notification)
	metrics         *metrics.ClientMetrics
}

// New creates a queue. A non-positive defaultDuration means DefaultDuration.
func New(defaultDuration time.Duration, m *metrics.ClientMetrics) *Queue {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Queue{
		timers:          make(map[string]*time.Timer),
		defaultDuration: defaultDuration,
		metrics:         m,
	}
}

// OnChange registers fn to receive a snapshot after every mutation. fn runs
// outside the queue lock and may be called from timer goroutines.
func (q *Queue) OnChange(fn func([]Notification)) {
	q.mu.Lock()
	q.onChange = fn
	q.mu.Unlock()
}

// Enqueue appends a notification with the default duration.
func (q *Queue) Enqueue(kind Kind, message string) string {
	return q.EnqueueFor(kind, message, q.defaultDuration)
}

// EnqueueFor appends a notification that expires after d. A zero d expires
// right away. It returns the new identity, or "" once the queue is closed.
func (q *Queue) EnqueueFor(kind Kind, message string, d time.Duration) string {
	if d < 0 {
		d = 0
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		slog.Debug("notification dropped after close", "kind", kind, "message", message)
		return ""
	}

	id := newID()
	q.items = append(q.items, Notification{
		ID:        id,
		Kind:      kind,
		Message:   message,
		Duration:  d,
		CreatedAt: time.Now(),
	})
	q.timers[id] = time.AfterFunc(d, func() { q.expire(id) })
	q.mu.Unlock()

	q.changed()
	return id
}

// Success queues a success message.
func (q *Queue) Success(message string) string { return q.Enqueue(Success, message) }

// Error queues an error message.
func (q *Queue) Error(message string) string { return q.Enqueue(Error, message) }

// Warning queues a warning.
func (q *Queue) Warning(message string) string { return q.Enqueue(Warning, message) }

// Info queues an informational message.
func (q *Queue) Info(message string) string { return q.Enqueue(Info, message) }

// Dismiss removes the notification with id. Unknown ids are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	idx := slices.IndexFunc(q.items, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		q.mu.Unlock()
		return
	}
	q.items = slices.Delete(q.items, idx, idx+1)
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	q.changed()
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if !closed {
		q.Dismiss(id)
	}
}

// List returns a snapshot in insertion order.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops every pending timer. Queued items stay listable but no longer
// expire, and nothing new is accepted.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.onChange = nil
}

func (q *Queue) changed() {
	q.mu.Lock()
	fn := q.onChange
	snapshot := slices.Clone(q.items)
	q.mu.Unlock()

	q.metrics.SetActiveNotifications(len(snapshot))
	if fn != nil {
		fn(snapshot)
	}
}

// newID returns a time-ordered UUIDv7, falling back to a random UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
