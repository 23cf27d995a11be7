// Package actions runs the modal-scoped actions on a document: AI summaries,
// confirmed deletes, and the bulk archive export.
package actions

import (
	"context"
	"errors"
	"time"

	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

var (
	// ErrBusy is returned when an export is already being prepared.
	ErrBusy = errors.New("actions: export already in progress")
	// ErrNoSession is returned when an action needs a session and none exists.
	ErrNoSession = errors.New("actions: not signed in")
	// ErrNothingPending is returned by ConfirmDelete with no open confirmation.
	ErrNothingPending = errors.New("actions: no delete awaiting confirmation")
	// ErrRateLimited is returned when the local summary budget is spent.
	ErrRateLimited = errors.New("actions: summary limit reached")
)

// Gateway is the part of the API client the actions need.
type Gateway interface {
	Summarize(ctx context.Context, token, documentID string) (models.SummaryResult, error)
	DownloadZip(ctx context.Context, token string) ([]byte, error)
}

// Deleter performs a pessimistic delete against the library state.
type Deleter interface {
	Delete(ctx context.Context, doc models.Document) error
}

// Mirror receives a copy of every exported archive.
type Mirror interface {
	PutExport(ctx context.Context, username, name string, data []byte) (string, error)
}

// Sessions supplies the current session.
type Sessions interface {
	Session() (models.Session, bool)
}

// Notifier receives user-facing outcomes.
type Notifier interface {
	Enqueue(kind notify.Kind, message string) string
	EnqueueFor(kind notify.Kind, message string, d time.Duration) string
}

// Config wires the orchestrator.
type Config struct {
	Gateway  Gateway
	Library  Deleter
	Sessions Sessions
	Notes    Notifier

	// Fs and ExportDir decide where archives are written.
	Fs        afero.Fs
	ExportDir string
	// Mirror is optional.
	Mirror Mirror

	// SummariesPerHour caps summary requests; zero or less means no cap.
	SummariesPerHour int
	Metrics          *metrics.ClientMetrics
}

// Orchestrator owns the summary modal, the delete confirmation gate, and the
// export state.
type Orchestrator struct {
	config  Config
	limiter *rate.Limiter

	summary summaryState
	gate    deleteGate
	export  exportState
}

// New creates an Orchestrator.
func New(config Config) *Orchestrator {
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.ExportDir == "" {
		config.ExportDir = "."
	}
	return &Orchestrator{
		config:  config,
		limiter: newSummaryLimiter(config.SummariesPerHour),
	}
}

func newSummaryLimiter(perHour int) *rate.Limiter {
	if perHour <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour)
}

// Reset closes the summary modal and the delete gate and forgets the export
// outcome, as when the page that owns them goes away.
func (o *Orchestrator) Reset() {
	o.CloseSummary()
	o.CancelDelete()
	o.export.reset()
}

func (o *Orchestrator) session() (models.Session, error) {
	s, ok := o.config.Sessions.Session()
	if !ok {
		return models.Session{}, ErrNoSession
	}
	return s, nil
}
