package actions

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/mfenderov/smart-organizer/internal/api"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/spf13/afero"
)

// Export messages.
const (
	MsgDownloadStarted = "Download started!"
	MsgDownloadFailed  = "Failed to download"
	msgMirrorFailed    = "Archive saved locally but the bucket copy failed"
)

const downloadedDuration = 2 * time.Second

// ExportStatus is the export state.
type ExportStatus int

const (
	ExportIdle ExportStatus = iota
	ExportPreparing
	ExportDownloaded
	ExportFailed
)

func (s ExportStatus) String() string {
	switch s {
	case ExportPreparing:
		return "preparing"
	case ExportDownloaded:
		return "downloaded"
	case ExportFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ExportResult describes a saved archive.
type ExportResult struct {
	Path      string
	Bytes     int
	Files     int
	MirrorKey string
}

type exportState struct {
	mu     sync.Mutex
	status ExportStatus
	errMsg string
	run    uint64 // bumped by every Export and reset
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArchiveName is the file name an export for username is saved under.
func ArchiveName(username string) string {
	return fmt.Sprintf("documents_%s.zip", unsafeFilename.ReplaceAllString(username, "_"))
}

// Export downloads the archive of every document and saves it in the export
// directory. On failure the service's own message is surfaced when it gave
// one.
func (o *Orchestrator) Export(ctx context.Context) (ExportResult, error) {
	session, err := o.session()
	if err != nil {
		return ExportResult{}, err
	}

	st := &o.export
	st.mu.Lock()
	if st.status == ExportPreparing {
		st.mu.Unlock()
		return ExportResult{}, ErrBusy
	}
	st.run++
	run := st.run
	st.status = ExportPreparing
	st.errMsg = ""
	st.mu.Unlock()

	result, err := o.download(ctx, session.Username, session.Token)
	o.config.Metrics.ObserveWorkflow("export", err)

	msg := api.UserMessage(err, MsgDownloadFailed)
	st.mu.Lock()
	stale := run != st.run
	if !stale {
		if err != nil {
			st.status = ExportFailed
			st.errMsg = msg
		} else {
			st.status = ExportDownloaded
		}
	}
	st.mu.Unlock()

	if stale {
		slog.Debug("export finished after reset", "error", err)
		return result, err
	}
	if err != nil {
		slog.Warn("export failed", "error", err)
		o.config.Notes.Enqueue(notify.Error, msg)
		return ExportResult{}, err
	}
	o.config.Notes.EnqueueFor(notify.Success, MsgDownloadStarted, downloadedDuration)
	return result, nil
}

func (o *Orchestrator) download(ctx context.Context, username, token string) (ExportResult, error) {
	data, err := o.config.Gateway.DownloadZip(ctx, token)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to download archive: %w", err)
	}

	files := 0
	if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		files = len(zr.File)
	} else {
		slog.Warn("downloaded archive is not a readable zip", "error", err)
	}

	name := ArchiveName(username)
	path := filepath.Join(o.config.ExportDir, name)
	if err := o.config.Fs.MkdirAll(o.config.ExportDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := afero.WriteFile(o.config.Fs, path, data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("failed to save archive: %w", err)
	}
	result := ExportResult{Path: path, Bytes: len(data), Files: files}
	slog.Info("archive saved", "path", path, "bytes", len(data), "files", files)

	if o.config.Mirror != nil {
		key, err := o.config.Mirror.PutExport(ctx, username, name, data)
		if err != nil {
			slog.Warn("failed to mirror archive", "error", err)
			o.config.Notes.Enqueue(notify.Warning, msgMirrorFailed)
		} else {
			result.MirrorKey = key
		}
	}
	return result, nil
}

// ExportState returns the export status and its failure message, if any.
func (o *Orchestrator) ExportState() (ExportStatus, string) {
	o.export.mu.Lock()
	defer o.export.mu.Unlock()
	return o.export.status, o.export.errMsg
}

func (s *exportState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run++
	s.status = ExportIdle
	s.errMsg = ""
}
