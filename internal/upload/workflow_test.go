package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mfenderov/smart-organizer/internal/api"
	"github.com/mfenderov/smart-organizer/internal/filetype"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/pkg/models"
	"github.com/spf13/afero"
)

type fakeGateway struct {
	calls int
	got   []models.UploadFile
	err   error
}

func (f *fakeGateway) UploadDocuments(ctx context.Context, token string, files []models.UploadFile) ([]models.ClassificationResult, error) {
	f.calls++
	f.got = files
	if f.err != nil {
		return nil, f.err
	}
	results := make([]models.ClassificationResult, len(files))
	for i, file := range files {
		results[i] = models.ClassificationResult{Filename: file.Name, Category: "Invoice", Confidence: 0.8}
	}
	return results, nil
}

// blockingGateway holds UploadDocuments until release is closed.
type blockingGateway struct {
	fakeGateway
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingGateway) UploadDocuments(ctx context.Context, token string, files []models.UploadFile) ([]models.ClassificationResult, error) {
	b.started <- struct{}{}
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fakeGateway.UploadDocuments(ctx, token, files)
}

func (b *blockingGateway) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type staticSessions struct{ ok bool }

func (s staticSessions) Session() (models.Session, bool) {
	return models.Session{Token: "tok", Username: "alice"}, s.ok
}

func pdfs(n int) []models.UploadFile {
	files := make([]models.UploadFile, n)
	for i := range files {
		files[i] = models.UploadFile{Name: fmt.Sprintf("doc%d.pdf", i), Data: []byte("%PDF-1.4")}
	}
	return files
}

func newWorkflow(gw Gateway) (*Workflow, *notify.Queue) {
	q := notify.New(time.Minute, nil)
	return New(gw, staticSessions{ok: true}, q, nil), q
}

func TestSelect_TooMany(t *testing.T) {
	for n := 6; n <= 8; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			w, q := newWorkflow(&fakeGateway{})
			defer q.Close()

			err := w.Select(pdfs(n))
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("Select(%d) error = %v", n, err)
			}
			if got := len(w.Snapshot().Pending); got != 0 {
				t.Errorf("pending = %d, want 0", got)
			}
			list := q.List()
			if len(list) != 1 || list[0].Kind != notify.Warning || list[0].Message != MsgTooMany {
				t.Errorf("notifications = %+v", list)
			}
		})
	}
}

func TestSelect_AllOrNothing(t *testing.T) {
	w, q := newWorkflow(&fakeGateway{})
	defer q.Close()

	if err := w.Select(pdfs(2)); err != nil {
		t.Fatal(err)
	}

	batch := append(pdfs(2), models.UploadFile{Name: "notes.txt", MIMEType: "text/plain"})
	if err := w.Select(batch); !errors.Is(err, ErrRejected) {
		t.Fatalf("Select() error = %v", err)
	}

	snap := w.Snapshot()
	if len(snap.Pending) != 2 {
		t.Errorf("pending = %d, want previous batch of 2", len(snap.Pending))
	}
	if snap.Error != MsgWrongType {
		t.Errorf("error = %q", snap.Error)
	}
}

func TestSelect_AcceptsByMIME(t *testing.T) {
	w, q := newWorkflow(&fakeGateway{})
	defer q.Close()

	err := w.Select([]models.UploadFile{{Name: "scan", MIMEType: filetype.PDF}, {Name: "cv.DOCX"}})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(w.Snapshot().Pending) != 2 {
		t.Error("batch not accepted")
	}
}

func TestRemove(t *testing.T) {
	w, q := newWorkflow(&fakeGateway{})
	defer q.Close()
	_ = w.Select(pdfs(3))

	w.Remove(1)
	w.Remove(7)
	w.Remove(-1)

	pending := w.Snapshot().Pending
	if len(pending) != 2 || pending[0].Name != "doc0.pdf" || pending[1].Name != "doc2.pdf" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestSubmit_Empty(t *testing.T) {
	gw := &fakeGateway{}
	w, q := newWorkflow(gw)
	defer q.Close()

	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrRejected) {
		t.Fatalf("Submit() error = %v", err)
	}
	if gw.calls != 0 {
		t.Error("gateway called for empty batch")
	}
	if list := q.List(); len(list) != 1 || list[0].Message != MsgEmpty {
		t.Errorf("notifications = %+v", list)
	}
}

func TestSubmit_Success(t *testing.T) {
	gw := &fakeGateway{}
	w, q := newWorkflow(gw)
	defer q.Close()
	_ = w.Select(pdfs(3))

	results, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(results) != 3 || results[2].Filename != "doc2.pdf" {
		t.Errorf("results = %+v", results)
	}

	snap := w.Snapshot()
	if snap.State != Completed || len(snap.Pending) != 0 || len(snap.Results) != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if list := q.List(); len(list) != 1 || list[0].Message != "Successfully classified 3 documents!" {
		t.Errorf("notifications = %+v", list)
	}
}

func TestSubmit_Failure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"declared", &api.RemoteError{Operation: "upload", Status: 400, Message: "Maximum 5 files allowed"}, "Maximum 5 files allowed"},
		{"transport", api.ErrTransport, MsgFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, q := newWorkflow(&fakeGateway{err: tt.err})
			defer q.Close()
			_ = w.Select(pdfs(1))

			if _, err := w.Submit(context.Background()); err == nil {
				t.Fatal("Submit() succeeded")
			}
			snap := w.Snapshot()
			if snap.State != Failed || snap.Error != tt.want {
				t.Errorf("snapshot = %+v", snap)
			}
			if len(snap.Pending) != 1 {
				t.Error("failed upload dropped the batch")
			}

			// the error stays until the next successful action
			if err := w.Select(pdfs(1)); err != nil {
				t.Fatal(err)
			}
			if w.Snapshot().Error != "" {
				t.Error("error not cleared by a successful selection")
			}
		})
	}
}

func TestSubmit_NoSession(t *testing.T) {
	gw := &fakeGateway{}
	q := notify.New(time.Minute, nil)
	defer q.Close()
	w := New(gw, staticSessions{ok: false}, q, nil)
	_ = w.Select(pdfs(1))

	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrRejected) {
		t.Fatalf("Submit() error = %v", err)
	}
	if gw.calls != 0 {
		t.Error("gateway called without session")
	}
}

func TestSuccessMessage(t *testing.T) {
	if got := SuccessMessage(1); got != "Successfully classified 1 document!" {
		t.Errorf("SuccessMessage(1) = %q", got)
	}
	if got := SuccessMessage(4); got != "Successfully classified 4 documents!" {
		t.Errorf("SuccessMessage(4) = %q", got)
	}
}

func TestFromPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/in/scan", []byte("%PDF-1.7 body"), 0o644)
	_ = afero.WriteFile(fs, "/in/cv.docx", []byte("PK\x03\x04 word/document.xml"), 0o644)

	files, err := FromPaths(fs, []string{"/in/scan", "/in/cv.docx"})
	if err != nil {
		t.Fatalf("FromPaths() error = %v", err)
	}
	if files[0].Name != "scan" || files[0].MIMEType != filetype.PDF {
		t.Errorf("files[0] = %s %s", files[0].Name, files[0].MIMEType)
	}
	if files[1].MIMEType != filetype.DOCX {
		t.Errorf("files[1] MIME = %s", files[1].MIMEType)
	}

	if _, err := FromPath(fs, "/in/missing.pdf"); err == nil {
		t.Error("FromPath() on missing file succeeded")
	}
}

func TestReset(t *testing.T) {
	w, q := newWorkflow(&fakeGateway{})
	defer q.Close()
	_ = w.Select(pdfs(2))
	_, _ = w.Submit(context.Background())

	w.Reset()
	snap := w.Snapshot()
	if snap.State != Selecting || len(snap.Pending) != 0 || len(snap.Results) != 0 || snap.Error != "" {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
}

func TestSubmit_BusyWhileUploading(t *testing.T) {
	gw := newBlockingGateway()
	w, q := newWorkflow(gw)
	defer q.Close()
	_ = w.Select(pdfs(2))

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-gw.started

	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit() error = %v, want ErrBusy", err)
	}

	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if gw.Calls() != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.Calls())
	}
}

func TestReset_DuringUpload(t *testing.T) {
	gw := newBlockingGateway()
	w, q := newWorkflow(gw)
	defer q.Close()
	_ = w.Select([]models.UploadFile{{Name: "alice_secret.pdf", Data: []byte("%PDF-1.4")}})

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-gw.started

	w.Reset()
	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := w.Snapshot()
	if snap.State != Selecting || len(snap.Results) != 0 || len(snap.Pending) != 0 {
		t.Errorf("snapshot after reset upload = %+v", snap)
	}
	if q.Len() != 0 {
		t.Errorf("notifications = %+v, want none", q.List())
	}
}
