package app

import (
	"context"
	"sync"
	"time"

	"github.com/mfenderov/smart-organizer/internal/events"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Dispatcher runs workflow operations in the background and reports each
// completion on Events. A 401 from any operation signs the user out and is
// followed by events.SessionExpired.
type Dispatcher struct {
	app    *App
	ctx    context.Context
	cancel context.CancelFunc
	events chan any
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a Dispatcher whose operations are cancelled by
// Close or by ctx.
func NewDispatcher(ctx context.Context, app *App, buffer int) *Dispatcher {
	ctx, cancel := context.WithCancel(ctx)
	return &Dispatcher{
		app:    app,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan any, buffer),
	}
}

// Events delivers completion events. It is closed by Close.
func (d *Dispatcher) Events() <-chan any {
	return d.events
}

// Go runs fn in the background and delivers its event.
func (d *Dispatcher) Go(fn func(ctx context.Context) any) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		ev := fn(d.ctx)
		d.send(ev)
		if f, ok := ev.(events.Failure); ok && d.app.HandleExpired(f.Failed()) {
			d.send(events.SessionExpired{})
		}
	}()
}

func (d *Dispatcher) send(ev any) {
	if ev == nil {
		return
	}
	select {
	case d.events <- ev:
	case <-d.ctx.Done():
	}
}

// Close cancels outstanding operations, waits for them and closes Events.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	close(d.events)
}

func (d *Dispatcher) SignIn(username, password string) {
	d.Go(func(ctx context.Context) any {
		return events.SignInCompleted{Err: d.app.Auth.SignIn(ctx, username, password)}
	})
}

func (d *Dispatcher) SignUp(username, email, password string) {
	d.Go(func(ctx context.Context) any {
		return events.SignInCompleted{SignUp: true, Err: d.app.Auth.SignUp(ctx, username, email, password)}
	})
}

func (d *Dispatcher) Upload() {
	d.Go(func(ctx context.Context) any {
		results, err := d.app.Upload.Submit(ctx)
		return events.UploadCompleted{Results: results, Err: err}
	})
}

func (d *Dispatcher) LoadCategories() {
	d.Go(func(ctx context.Context) any {
		return events.CategoriesLoaded{Err: d.app.Library.Load(ctx)}
	})
}

func (d *Dispatcher) SelectCategory(category string) {
	d.Go(func(ctx context.Context) any {
		return events.DocumentsLoaded{Category: category, Err: d.app.Library.Select(ctx, category)}
	})
}

func (d *Dispatcher) Summarize(doc models.Document) {
	d.Go(func(ctx context.Context) any {
		return events.SummaryCompleted{DocumentID: doc.ID, Err: d.app.Actions.Summarize(ctx, doc)}
	})
}

// ConfirmDelete deletes the document awaiting confirmation, if any.
func (d *Dispatcher) ConfirmDelete() {
	doc, ok := d.app.Actions.PendingDelete()
	if !ok {
		return
	}
	d.Go(func(ctx context.Context) any {
		return events.DeleteCompleted{DocumentID: doc.ID, Err: d.app.Actions.ConfirmDelete(ctx)}
	})
}

func (d *Dispatcher) Export() {
	d.Go(func(ctx context.Context) any {
		start := time.Now()
		result, err := d.app.Actions.Export(ctx)
		return events.ExportCompleted{
			Path:     result.Path,
			Files:    result.Files,
			Duration: time.Since(start),
			Err:      err,
		}
	})
}

func (d *Dispatcher) CheckStatus() {
	d.Go(func(ctx context.Context) any {
		health, llm, err := d.app.CheckStatus(ctx)
		return events.StatusChecked{Health: health, LLM: llm, Err: err}
	})
}
