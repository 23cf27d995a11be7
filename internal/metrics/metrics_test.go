package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCall(t *testing.T) {
	m := New()

	m.ObserveCall("login", OutcomeSuccess, 10*time.Millisecond)
	m.ObserveCall("login", OutcomeSuccess, 20*time.Millisecond)
	m.ObserveCall("login", OutcomeDeclared, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.apiCalls.WithLabelValues("login", OutcomeSuccess)); got != 2 {
		t.Errorf("login success calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.apiCalls.WithLabelValues("login", OutcomeDeclared)); got != 1 {
		t.Errorf("login declared calls = %v, want 1", got)
	}
}

func TestObserveWorkflow(t *testing.T) {
	m := New()

	m.ObserveWorkflow("upload", nil)
	m.ObserveWorkflow("upload", errors.New("boom"))
	m.ObserveWorkflow("upload", errors.New("boom"))

	if got := testutil.ToFloat64(m.workflows.WithLabelValues("upload", "success")); got != 1 {
		t.Errorf("upload success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.workflows.WithLabelValues("upload", "failure")); got != 2 {
		t.Errorf("upload failure = %v, want 2", got)
	}
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *ClientMetrics
	m.ObserveCall("login", OutcomeSuccess, time.Millisecond)
	m.ObserveWorkflow("login", nil)
	m.SetActiveNotifications(3)
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetActiveNotifications(2)
	m.ObserveCall("categories", OutcomeTransport, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"smartorg_notify_active 2", "smartorg_api_calls_total", `operation="categories"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
