package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mfenderov/smart-organizer/internal/api"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Summary messages.
const (
	MsgSummaryFailed  = "Failed to generate summary"
	MsgLLMUnreachable = "Failed to connect to LLM service"
	MsgSummaryLimit   = "Summary limit reached. Please try again later."
)

// SummaryStatus is the summary modal's sub-state.
type SummaryStatus int

const (
	SummaryClosed SummaryStatus = iota
	SummaryLoading
	SummaryReady
	SummaryErrored
)

func (s SummaryStatus) String() string {
	switch s {
	case SummaryLoading:
		return "loading"
	case SummaryReady:
		return "ready"
	case SummaryErrored:
		return "errored"
	default:
		return "closed"
	}
}

// SummaryView is a snapshot of the summary modal.
type SummaryView struct {
	Open       bool
	Target     models.Document
	Status     SummaryStatus
	Result     models.SummaryResult
	Error      string
	Generation uint64
}

type summaryState struct {
	mu   sync.Mutex
	view SummaryView
}

// Summarize opens the summary modal for doc and requests its summary. The
// result is applied only if the modal is still open on the same request;
// otherwise it is dropped.
func (o *Orchestrator) Summarize(ctx context.Context, doc models.Document) error {
	session, err := o.session()
	if err != nil {
		return err
	}

	st := &o.summary
	st.mu.Lock()
	gen := st.view.Generation + 1
	st.view = SummaryView{Open: true, Target: doc, Status: SummaryLoading, Generation: gen}
	st.mu.Unlock()

	if !o.limiter.Allow() {
		o.commitSummary(gen, models.SummaryResult{}, MsgSummaryLimit)
		o.config.Notes.Enqueue(notify.Warning, MsgSummaryLimit)
		return ErrRateLimited
	}

	result, err := o.config.Gateway.Summarize(ctx, session.Token, doc.ID)
	o.config.Metrics.ObserveWorkflow("summarize", err)
	if err != nil {
		msg := summaryErrorMessage(err)
		if o.commitSummary(gen, models.SummaryResult{}, msg) {
			o.config.Notes.Enqueue(notify.Error, msg)
		}
		slog.Warn("summary failed", "id", doc.ID, "error", err)
		return fmt.Errorf("failed to summarize %s: %w", doc.ID, err)
	}

	o.commitSummary(gen, result, "")
	return nil
}

// commitSummary applies an outcome if gen is still the open modal's
// generation. It reports whether the outcome was applied.
func (o *Orchestrator) commitSummary(gen uint64, result models.SummaryResult, errMsg string) bool {
	st := &o.summary
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.view.Open || st.view.Generation != gen {
		slog.Debug("discarding stale summary", "generation", gen, "current", st.view.Generation)
		return false
	}
	if errMsg != "" {
		st.view.Status = SummaryErrored
		st.view.Error = errMsg
		return true
	}
	st.view.Status = SummaryReady
	st.view.Result = result
	return true
}

// CloseSummary closes the modal. Results still in flight are dropped.
func (o *Orchestrator) CloseSummary() {
	st := &o.summary
	st.mu.Lock()
	defer st.mu.Unlock()
	st.view = SummaryView{Generation: st.view.Generation + 1}
}

// Summary returns a snapshot of the modal.
func (o *Orchestrator) Summary() SummaryView {
	st := &o.summary
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.view
}

func summaryErrorMessage(err error) string {
	var remote *api.RemoteError
	if errors.As(err, &remote) {
		if remote.Message != "" {
			return remote.Message
		}
		return MsgSummaryFailed
	}
	return MsgLLMUnreachable
}
