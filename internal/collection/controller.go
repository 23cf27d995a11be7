// Package collection holds the categorized document library: category
// counts, the document list of the selected category, and the local search
// filter over it.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// User-visible messages.
const (
	MsgLoadFailed      = "Failed to load categories"
	MsgDocumentsFailed = "Failed to load documents"
	MsgDeleteFailed    = "Failed to delete document"
)

// ErrNoSession is returned when an operation needs a session and none exists.
var ErrNoSession = errors.New("collection: not signed in")

// Gateway is the part of the API client the library needs.
type Gateway interface {
	Categories(ctx context.Context, token string) (models.CategoryIndex, error)
	Documents(ctx context.Context, token, category string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, token, documentID string) (string, error)
}

// Sessions supplies the current session.
type Sessions interface {
	Session() (models.Session, bool)
}

// Notifier receives user-facing outcomes.
type Notifier interface {
	Enqueue(kind notify.Kind, message string) string
}

// Controller owns the library view state. Every mutation goes through its
// methods; no lock is held across a network call.
type Controller struct {
	gateway  Gateway
	sessions Sessions
	notes    Notifier
	metrics  *metrics.ClientMetrics

	mu          sync.Mutex
	index       models.CategoryIndex
	loading     bool
	loads       uint64 // bumped on every Load and Reset
	selected    string
	hasSelected bool
	selection   uint64 // bumped on every selection change
	documents   []models.Document
	loadingDocs bool
	query       string
}

// New creates an empty controller.
func New(gateway Gateway, sessions Sessions, notes Notifier, m *metrics.ClientMetrics) *Controller {
	return &Controller{
		gateway:  gateway,
		sessions: sessions,
		notes:    notes,
		metrics:  m,
		index:    models.CategoryIndex{},
	}
}

// Load replaces the category index with a fresh one. On failure the previous
// index is kept. Only the most recent Load commits; a response that arrives
// after a newer Load or a Reset is dropped.
func (c *Controller) Load(ctx context.Context) error {
	session, ok := c.sessions.Session()
	if !ok {
		return ErrNoSession
	}

	c.mu.Lock()
	c.loads++
	gen := c.loads
	c.loading = true
	c.mu.Unlock()

	index, err := c.gateway.Categories(ctx, session.Token)

	c.mu.Lock()
	stale := gen != c.loads
	if !stale {
		c.loading = false
		if err == nil {
			c.index = index.Clone()
		}
	}
	c.mu.Unlock()

	if stale {
		slog.Debug("discarding superseded category index")
		return nil
	}
	if err != nil {
		slog.Warn("failed to load categories", "error", err)
		c.notes.Enqueue(notify.Error, MsgLoadFailed)
		return fmt.Errorf("failed to load categories: %w", err)
	}
	slog.Debug("categories loaded", "categories", len(index), "documents", index.Total())
	return nil
}

// Select makes category the current one, clears the search query, and loads
// its documents. A response that arrives after the selection has moved on is
// dropped.
func (c *Controller) Select(ctx context.Context, category string) error {
	session, ok := c.sessions.Session()
	if !ok {
		return ErrNoSession
	}

	c.mu.Lock()
	c.selection++
	gen := c.selection
	c.selected = category
	c.hasSelected = true
	c.query = ""
	c.documents = nil
	c.loadingDocs = true
	c.mu.Unlock()

	docs, err := c.gateway.Documents(ctx, session.Token, category)

	c.mu.Lock()
	stale := gen != c.selection
	if !stale {
		c.loadingDocs = false
		if err == nil {
			c.documents = slices.Clone(docs)
		}
	}
	c.mu.Unlock()

	if stale {
		slog.Debug("discarding documents for superseded selection", "category", category)
		return nil
	}
	if err != nil {
		slog.Warn("failed to load documents", "category", category, "error", err)
		c.notes.Enqueue(notify.Error, MsgDocumentsFailed)
		return fmt.Errorf("failed to load documents for %s: %w", category, err)
	}
	return nil
}

// ClearSelection returns to the category overview.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection++
	c.selected = ""
	c.hasSelected = false
	c.documents = nil
	c.loadingDocs = false
	c.query = ""
}

// SetQuery sets the filename filter. It never touches the loaded list.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// Query returns the current filename filter.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Visible returns the loaded documents whose filename contains the query,
// ignoring case. An empty query returns the full list.
func (c *Controller) Visible() []models.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.documents, c.query)
}

// Filter returns the documents whose filename contains query, ignoring case.
func Filter(docs []models.Document, query string) []models.Document {
	if query == "" {
		return slices.Clone(docs)
	}
	needle := strings.ToLower(query)
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Filename), needle) {
			out = append(out, d)
		}
	}
	return out
}

// Documents returns the full loaded list of the selected category.
func (c *Controller) Documents() []models.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.documents)
}

// Categories returns a copy of the category index.
func (c *Controller) Categories() models.CategoryIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Clone()
}

// Selected returns the selected category, if any.
func (c *Controller) Selected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.hasSelected
}

// Loading reports whether categories or documents are being fetched.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading || c.loadingDocs
}

// Total is the number of documents across all categories.
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Total()
}

// Empty reports whether the library holds no documents at all, whatever is
// selected.
func (c *Controller) Empty() bool {
	return c.Total() == 0
}

// Delete removes doc on the service and, only once that succeeds, from the
// local state: the document leaves the list if its category is still shown,
// and that category's count drops by one, never below zero.
func (c *Controller) Delete(ctx context.Context, doc models.Document) error {
	session, ok := c.sessions.Session()
	if !ok {
		return ErrNoSession
	}

	c.mu.Lock()
	category := doc.Category
	if category == "" && c.hasSelected {
		category = c.selected
	}
	c.mu.Unlock()

	_, err := c.gateway.DeleteDocument(ctx, session.Token, doc.ID)
	c.metrics.ObserveWorkflow("delete", err)
	if err != nil {
		slog.Warn("failed to delete document", "id", doc.ID, "error", err)
		c.notes.Enqueue(notify.Error, MsgDeleteFailed)
		return fmt.Errorf("failed to delete document %s: %w", doc.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasSelected && c.selected == category {
		c.documents = slices.DeleteFunc(c.documents, func(d models.Document) bool { return d.ID == doc.ID })
	}
	if n, ok := c.index[category]; ok {
		c.index[category] = max(0, n-1)
	}
	slog.Info("document deleted", "id", doc.ID, "category", category)
	return nil
}

// Reset drops all state, as when the library page is left.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection++
	c.loads++
	c.index = models.CategoryIndex{}
	c.loading = false
	c.selected = ""
	c.hasSelected = false
	c.documents = nil
	c.loadingDocs = false
	c.query = ""
}
