// Package upload validates a batch of documents and submits it for
// classification.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mfenderov/smart-organizer/internal/api"
	"github.com/mfenderov/smart-organizer/internal/filetype"
	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// MaxFiles is the largest batch one upload accepts.
const MaxFiles = 5

// User-visible messages.
const (
	MsgTooMany   = "Maximum 5 files allowed per upload"
	MsgWrongType = "Only PDF and DOCX files are allowed"
	MsgEmpty     = "Please select at least one document"
	MsgFailed    = "Upload failed. Please try again."
	msgNoSession = "Please sign in first"
)

var (
	// ErrBusy is returned while an upload is in flight.
	ErrBusy = errors.New("upload: already uploading")
	// ErrRejected marks a selection or submit refused before any network call.
	ErrRejected = errors.New("upload: rejected")
)

// State is the workflow state.
type State int

const (
	Selecting State = iota
	Uploading
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Uploading:
		return "uploading"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "selecting"
	}
}

// Gateway is the part of the API client uploads need.
type Gateway interface {
	UploadDocuments(ctx context.Context, token string, files []models.UploadFile) ([]models.ClassificationResult, error)
}

// Sessions supplies the current session.
type Sessions interface {
	Session() (models.Session, bool)
}

// Notifier receives user-facing outcomes.
type Notifier interface {
	Enqueue(kind notify.Kind, message string) string
}

// Snapshot is a copy of the workflow's view state.
type Snapshot struct {
	State   State
	Pending []models.UploadFile
	Results []models.ClassificationResult
	Error   string
}

// Workflow holds the pending batch and the last results.
type Workflow struct {
	gateway  Gateway
	sessions Sessions
	notes    Notifier
	metrics  *metrics.ClientMetrics

	mu      sync.Mutex
	state   State
	pending []models.UploadFile
	results []models.ClassificationResult
	errMsg  string
	batch   uint64 // bumped by every Submit and Reset
}

// New creates an upload workflow.
func New(gateway Gateway, sessions Sessions, notes Notifier, m *metrics.ClientMetrics) *Workflow {
	return &Workflow{gateway: gateway, sessions: sessions, notes: notes, metrics: m}
}

// Snapshot returns a copy of the current view state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		State:   w.state,
		Pending: slices.Clone(w.pending),
		Results: slices.Clone(w.results),
		Error:   w.errMsg,
	}
}

// Select replaces the pending batch with files. The whole batch is refused,
// leaving the previous one untouched, when it has more than MaxFiles entries
// or any entry is not a PDF or DOCX.
func (w *Workflow) Select(files []models.UploadFile) error {
	w.mu.Lock()
	if w.state == Uploading {
		w.mu.Unlock()
		return ErrBusy
	}

	msg := ""
	switch {
	case len(files) > MaxFiles:
		msg = MsgTooMany
	case slices.ContainsFunc(files, func(f models.UploadFile) bool { return !filetype.Allowed(f.Name, f.MIMEType) }):
		msg = MsgWrongType
	}
	if msg != "" {
		w.errMsg = msg
		w.mu.Unlock()
		w.notes.Enqueue(notify.Warning, msg)
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	w.pending = slices.Clone(files)
	w.results = nil
	w.errMsg = ""
	w.state = Selecting
	w.mu.Unlock()
	return nil
}

// Remove drops the pending file at index. Out-of-range indexes are ignored.
func (w *Workflow) Remove(index int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Uploading || index < 0 || index >= len(w.pending) {
		return
	}
	w.pending = slices.Delete(w.pending, index, index+1)
}

// Submit uploads the pending batch as one request.
func (w *Workflow) Submit(ctx context.Context) ([]models.ClassificationResult, error) {
	w.mu.Lock()
	if w.state == Uploading {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if len(w.pending) == 0 {
		w.errMsg = MsgEmpty
		w.mu.Unlock()
		w.notes.Enqueue(notify.Warning, MsgEmpty)
		return nil, fmt.Errorf("%w: %s", ErrRejected, MsgEmpty)
	}
	session, ok := w.sessions.Session()
	if !ok {
		w.mu.Unlock()
		w.notes.Enqueue(notify.Warning, msgNoSession)
		return nil, fmt.Errorf("%w: no session", ErrRejected)
	}
	batch := slices.Clone(w.pending)
	w.batch++
	gen := w.batch
	w.state = Uploading
	w.errMsg = ""
	w.mu.Unlock()

	slog.Debug("uploading batch", "files", len(batch))
	results, err := w.gateway.UploadDocuments(ctx, session.Token, batch)
	w.metrics.ObserveWorkflow("upload", err)
	if err != nil {
		msg := api.UserMessage(err, MsgFailed)
		w.mu.Lock()
		stale := gen != w.batch
		if !stale {
			w.state = Failed
			w.errMsg = msg
		}
		w.mu.Unlock()

		slog.Warn("upload failed", "error", err)
		if !stale {
			w.notes.Enqueue(notify.Error, msg)
		}
		return nil, fmt.Errorf("failed to upload documents: %w", err)
	}

	w.mu.Lock()
	stale := gen != w.batch
	if !stale {
		w.state = Completed
		w.pending = nil
		w.results = slices.Clone(results)
	}
	w.mu.Unlock()

	if stale {
		slog.Debug("discarding results of an upload that was reset", "files", len(batch))
		return results, nil
	}
	w.notes.Enqueue(notify.Success, SuccessMessage(len(results)))
	return results, nil
}

// SuccessMessage is the notification text for n classified files.
func SuccessMessage(n int) string {
	noun := "documents"
	if n == 1 {
		noun = "document"
	}
	return fmt.Sprintf("Successfully classified %d %s!", n, noun)
}

// Reset clears the batch, results and error, as when the upload page is left.
// An upload in flight finishes on the service but its outcome is not shown.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch++
	w.state = Selecting
	w.pending = nil
	w.results = nil
	w.errMsg = ""
}
