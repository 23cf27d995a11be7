// Package app wires the client's components into one process-scoped
// container with an explicit teardown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mfenderov/smart-organizer/internal/actions"
	"github.com/mfenderov/smart-organizer/internal/api"
	"github.com/mfenderov/smart-organizer/internal/auth"
	"github.com/mfenderov/smart-organizer/internal/collection"
	"github.com/mfenderov/smart-organizer/internal/config"
	"github.com/mfenderov/smart-organizer/internal/localstore"
	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/navigator"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/internal/prefs"
	"github.com/mfenderov/smart-organizer/internal/resilience"
	"github.com/mfenderov/smart-organizer/internal/session"
	"github.com/mfenderov/smart-organizer/internal/storage"
	"github.com/mfenderov/smart-organizer/internal/upload"
	"github.com/mfenderov/smart-organizer/pkg/models"
	"github.com/spf13/afero"
)

// MsgSessionExpired is shown when the service rejects the stored session.
const MsgSessionExpired = "Your session has expired. Please sign in again."

// Options adjust how the container is built.
type Options struct {
	// Fs backs local storage and exports. Nil means the OS filesystem.
	Fs afero.Fs
	// Interactive keeps the configured delay between sign-in and the page
	// switch. Non-interactive callers switch at once.
	Interactive bool
	// HTTPClient overrides the API transport, for tests.
	HTTPClient *http.Client
}

// App owns every client component.
type App struct {
	Config  config.Config
	Fs      afero.Fs
	Metrics *metrics.ClientMetrics
	API     *api.Client
	Prefs   *prefs.Store
	Notes   *notify.Queue
	Nav     *navigator.Navigator
	Auth    *auth.Workflow
	Upload  *upload.Workflow
	Library *collection.Controller
	Actions *actions.Orchestrator
	Mirror  *storage.Client // nil unless storage.enabled

	closeOnce sync.Once
}

// New builds the container. The persisted session is restored before New
// returns.
func New(cfg config.Config, opts Options) (*App, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	store, err := localstore.New(fs, cfg.Client.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	m := metrics.New()
	client, err := api.New(api.Config{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		SummaryTimeout: cfg.API.SummaryTimeout,
		Resilience: resilience.Policy{
			Attempts: cfg.API.Retry.MaxAttempts,
			Backoff: resilience.Backoff{
				Initial: cfg.API.Retry.InitialBackoff,
				Max:     cfg.API.Retry.MaxBackoff,
			},
			Breaker: resilience.Breaker{Enabled: cfg.API.Retry.BreakerEnabled},
		},
		Metrics:    m,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	a := &App{
		Config:  cfg,
		Fs:      fs,
		Metrics: m,
		API:     client,
		Prefs:   prefs.NewStore(store),
		Notes:   notify.New(cfg.Client.NotificationDuration, m),
		Nav:     navigator.New(session.NewStore(store)),
	}

	loginDelay := cfg.Client.LoginDelay
	if !opts.Interactive {
		loginDelay = 0
	}
	a.Auth = auth.New(client, a.Notes, auth.Config{
		LoginDelay: loginDelay,
		OnLogin:    a.Nav.Login,
		Metrics:    m,
	})
	a.Upload = upload.New(client, a.Nav, a.Notes, m)
	a.Library = collection.New(client, a.Nav, a.Notes, m)

	var mirror actions.Mirror
	if cfg.Storage.Enabled {
		a.Mirror, err = storage.New(storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UseSSL:          cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		mirror = &bucketMirror{client: a.Mirror}
	}

	a.Actions = actions.New(actions.Config{
		Gateway:          client,
		Library:          a.Library,
		Sessions:         a.Nav,
		Notes:            a.Notes,
		Fs:               fs,
		ExportDir:        cfg.Client.ExportDir,
		Mirror:           mirror,
		SummariesPerHour: cfg.Limits.SummariesPerHour,
		Metrics:          m,
	})

	a.Nav.OnChange(a.teardownPage)
	return a, nil
}

// teardownPage drops the state owned by the page being left.
func (a *App) teardownPage(from, to navigator.Page) {
	switch from {
	case navigator.Organized:
		a.Actions.Reset()
		a.Library.Reset()
	case navigator.Upload:
		a.Upload.Reset()
	}
	if to == navigator.Auth {
		a.Actions.Reset()
		a.Library.Reset()
		a.Upload.Reset()
	}
}

// Session returns the signed-in session.
func (a *App) Session() (models.Session, bool) {
	return a.Nav.Session()
}

// HandleExpired signs out when err is the service rejecting the session. It
// reports whether that happened.
func (a *App) HandleExpired(err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	if _, ok := a.Nav.Session(); !ok {
		return false
	}
	slog.Warn("session rejected by service, signing out")
	if err := a.Nav.Logout(); err != nil {
		slog.Warn("failed to clear session", "error", err)
	}
	a.Notes.Warning(MsgSessionExpired)
	return true
}

// Logout signs out and notifies.
func (a *App) Logout() error {
	if err := a.Nav.Logout(); err != nil {
		return err
	}
	a.Notes.Info("Signed out")
	return nil
}

// CheckStatus polls service health and summarization availability.
func (a *App) CheckStatus(ctx context.Context) (models.Health, models.LLMStatus, error) {
	health, err := a.API.Health(ctx)
	if err != nil {
		return models.Health{}, models.LLMStatus{}, fmt.Errorf("failed to check health: %w", err)
	}
	llm, err := a.API.LLMStatus(ctx)
	if err != nil {
		return health, models.LLMStatus{}, fmt.Errorf("failed to check LLM status: %w", err)
	}
	return health, llm, nil
}

// Close stops every timer the components own. It is safe to call twice.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.Auth.Close()
		a.Actions.Reset()
		a.Notes.Close()
	})
}

// bucketMirror creates the bucket on first use.
type bucketMirror struct {
	client *storage.Client
	once   sync.Once
	err    error
}

func (m *bucketMirror) PutExport(ctx context.Context, username, name string, data []byte) (string, error) {
	m.once.Do(func() { m.err = m.client.EnsureBucket(ctx) })
	if m.err != nil {
		return "", m.err
	}
	return m.client.PutExport(ctx, username, name, data)
}
