package actions

import (
	"context"
	"sync"
	"time"

	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// MsgDeleted is shown after a confirmed delete succeeds.
const MsgDeleted = "Document deleted"

const deletedDuration = 2 * time.Second

type deleteGate struct {
	mu       sync.Mutex
	pending  *models.Document
	deleting bool
}

// RequestDelete opens the confirmation for doc. Nothing is sent yet.
func (o *Orchestrator) RequestDelete(doc models.Document) {
	o.gate.mu.Lock()
	defer o.gate.mu.Unlock()
	o.gate.pending = &doc
}

// PendingDelete returns the document awaiting confirmation.
func (o *Orchestrator) PendingDelete() (models.Document, bool) {
	o.gate.mu.Lock()
	defer o.gate.mu.Unlock()
	if o.gate.pending == nil {
		return models.Document{}, false
	}
	return *o.gate.pending, true
}

// Deleting reports whether a confirmed delete is in flight.
func (o *Orchestrator) Deleting() bool {
	o.gate.mu.Lock()
	defer o.gate.mu.Unlock()
	return o.gate.deleting
}

// CancelDelete closes the confirmation without any network call or state
// change. A delete already in flight is not cancelled.
func (o *Orchestrator) CancelDelete() {
	o.gate.mu.Lock()
	defer o.gate.mu.Unlock()
	if !o.gate.deleting {
		o.gate.pending = nil
	}
}

// ConfirmDelete deletes the pending document and closes the confirmation.
func (o *Orchestrator) ConfirmDelete(ctx context.Context) error {
	o.gate.mu.Lock()
	if o.gate.pending == nil {
		o.gate.mu.Unlock()
		return ErrNothingPending
	}
	if o.gate.deleting {
		o.gate.mu.Unlock()
		return ErrBusy
	}
	doc := *o.gate.pending
	o.gate.deleting = true
	o.gate.mu.Unlock()

	err := o.config.Library.Delete(ctx, doc)

	o.gate.mu.Lock()
	o.gate.deleting = false
	if o.gate.pending != nil && o.gate.pending.ID == doc.ID {
		o.gate.pending = nil
	}
	o.gate.mu.Unlock()

	if err != nil {
		return err
	}
	o.config.Notes.EnqueueFor(notify.Success, MsgDeleted, deletedDuration)
	return nil
}
