// Package events holds the completion values background work reports back to
// the interactive client.
package events

import (
	"time"

	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Failure is implemented by completion events that can carry an error.
type Failure interface {
	Failed() error
}

// SignInCompleted is sent when a sign-in or sign-up request finishes.
type SignInCompleted struct {
	SignUp bool
	Err    error
}

// UploadCompleted is sent when a batch upload finishes.
type UploadCompleted struct {
	Results []models.ClassificationResult
	Err     error
}

// CategoriesLoaded is sent when the category index has been refreshed.
type CategoriesLoaded struct {
	Err error
}

// DocumentsLoaded is sent when a category's documents have been fetched.
type DocumentsLoaded struct {
	Category string
	Err      error
}

// SummaryCompleted is sent when a summary request finishes, whether or not
// its result was still wanted.
type SummaryCompleted struct {
	DocumentID string
	Err        error
}

// DeleteCompleted is sent when a confirmed delete finishes.
type DeleteCompleted struct {
	DocumentID string
	Err        error
}

// ExportCompleted is sent when the archive export finishes.
type ExportCompleted struct {
	Path     string // local file the archive was saved to
	Files    int    // entries in the archive
	Duration time.Duration
	Err      error
}

// StatusChecked is sent when service health has been polled.
type StatusChecked struct {
	Health models.Health
	LLM    models.LLMStatus
	Err    error
}

// SessionExpired is sent after the service rejected the session and the
// client signed out.
type SessionExpired struct{}

func (e SignInCompleted) Failed() error  { return e.Err }
func (e UploadCompleted) Failed() error  { return e.Err }
func (e CategoriesLoaded) Failed() error { return e.Err }
func (e DocumentsLoaded) Failed() error  { return e.Err }
func (e SummaryCompleted) Failed() error { return e.Err }
func (e DeleteCompleted) Failed() error  { return e.Err }
func (e ExportCompleted) Failed() error  { return e.Err }
func (e StatusChecked) Failed() error    { return e.Err }
