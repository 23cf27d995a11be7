// Package auth drives the sign-in and sign-up form.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mfenderov/smart-organizer/internal/api"
	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// User-visible messages.
const (
	MsgFieldsRequired = "All fields are required"
	MsgWeakPassword   = "Password must be at least 6 characters with 1 digit"
	MsgSignedUp       = "Account created successfully! Please login."
	MsgServerError    = "Server error. Make sure backend is running."
)

const welcomeDuration = 2 * time.Second

var (
	// ErrBusy is returned when a submit arrives while another is in flight.
	ErrBusy = errors.New("auth: request already in progress")
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("auth: invalid input")
)

// State is the workflow state.
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Gateway is the part of the API client the form needs.
type Gateway interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	Signup(ctx context.Context, username, email, password string) (string, error)
}

// Notifier receives user-facing outcomes.
type Notifier interface {
	Enqueue(kind notify.Kind, message string) string
	EnqueueFor(kind notify.Kind, message string, d time.Duration) string
}

// Form is the current form contents.
type Form struct {
	SignIn   bool
	Username string
	Email    string
	Password string
	Error    string
}

// Config holds workflow options.
type Config struct {
	// LoginDelay is how long to wait after a successful sign-in before OnLogin
	// runs. Zero calls OnLogin before SignIn returns.
	LoginDelay time.Duration
	// OnLogin receives the new session, normally navigator.Login.
	OnLogin func(models.Session) error
	Metrics *metrics.ClientMetrics
}

// Workflow validates credentials and exchanges them for a session.
type Workflow struct {
	gateway Gateway
	notes   Notifier
	config  Config

	mu      sync.Mutex
	state   State
	form    Form
	handoff *time.Timer
	closed  bool
}

// New creates a Workflow in sign-in mode.
func New(gateway Gateway, notes Notifier, config Config) *Workflow {
	return &Workflow{
		gateway: gateway,
		notes:   notes,
		config:  config,
		form:    Form{SignIn: true},
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Form returns a copy of the form.
func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// SetMode switches between sign-in and sign-up, clearing every field.
func (w *Workflow) SetMode(signIn bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form = Form{SignIn: signIn}
	if w.state != Submitting {
		w.state = Idle
	}
}

// SignIn exchanges username and password for a session.
func (w *Workflow) SignIn(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := w.begin(Form{SignIn: true, Username: username, Password: password}, func() string {
		if username == "" || password == "" {
			return MsgFieldsRequired
		}
		return ""
	}); err != nil {
		return err
	}

	session, err := w.gateway.Login(ctx, username, password)
	w.config.Metrics.ObserveWorkflow("signin", err)
	if err != nil {
		return w.fail("login", err)
	}

	w.mu.Lock()
	w.state = Succeeded
	w.form.Error = ""
	w.form.Password = ""
	immediate := w.scheduleHandoff(session)
	w.mu.Unlock()

	slog.Info("signed in", "username", session.Username)
	w.notes.EnqueueFor(notify.Success, fmt.Sprintf("Welcome back, %s!", session.Username), welcomeDuration)
	if immediate {
		return w.config.OnLogin(session)
	}
	return nil
}

// SignUp registers an account. It does not sign in; on success the form is
// switched to sign-in mode with the username kept.
func (w *Workflow) SignUp(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := w.begin(Form{Username: username, Email: email, Password: password}, func() string {
		if username == "" || email == "" || password == "" {
			return MsgFieldsRequired
		}
		if !ValidatePassword(password) {
			return MsgWeakPassword
		}
		return ""
	}); err != nil {
		return err
	}

	_, err := w.gateway.Signup(ctx, username, email, password)
	w.config.Metrics.ObserveWorkflow("signup", err)
	if err != nil {
		return w.fail("signup", err)
	}

	w.mu.Lock()
	w.state = Succeeded
	w.form = Form{SignIn: true, Username: username}
	w.mu.Unlock()

	slog.Info("account created", "username", username)
	w.notes.Enqueue(notify.Success, MsgSignedUp)
	return nil
}

// Close cancels a pending sign-in handoff.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.handoff != nil {
		w.handoff.Stop()
		w.handoff = nil
	}
}

// begin records the submitted form, runs local validation, and moves to
// Submitting. validate returns the error text, or "" when input is fine.
func (w *Workflow) begin(form Form, validate func() string) error {
	w.mu.Lock()
	if w.state == Submitting || w.handoff != nil {
		w.mu.Unlock()
		return ErrBusy
	}
	w.form = form
	if msg := validate(); msg != "" {
		w.form.Error = msg
		w.state = Failed
		w.mu.Unlock()
		w.notes.Enqueue(notify.Warning, msg)
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	w.state = Submitting
	w.mu.Unlock()
	return nil
}

func (w *Workflow) fail(operation string, err error) error {
	msg := api.UserMessage(err, MsgServerError)

	w.mu.Lock()
	w.state = Failed
	w.form.Error = msg
	w.mu.Unlock()

	slog.Warn(operation+" failed", "error", err)
	w.notes.Enqueue(notify.Error, msg)
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// scheduleHandoff arms the delayed OnLogin call. It reports whether the caller
// must call OnLogin itself, right away. w.mu must be held.
func (w *Workflow) scheduleHandoff(session models.Session) bool {
	if w.config.OnLogin == nil || w.closed {
		return false
	}
	if w.config.LoginDelay <= 0 {
		return true
	}

	var t *time.Timer
	t = time.AfterFunc(w.config.LoginDelay, func() {
		w.mu.Lock()
		if w.closed || w.handoff != t {
			w.mu.Unlock()
			return
		}
		w.handoff = nil
		w.mu.Unlock()

		if err := w.config.OnLogin(session); err != nil {
			slog.Warn("failed to complete sign-in", "error", err)
		}
	})
	w.handoff = t
	return false
}
