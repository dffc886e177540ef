package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mindscribe/internal/api"
	"mindscribe/internal/logging"
	"mindscribe/internal/pipeline"
	"mindscribe/internal/testsupport"
)

func newAPITestServer(t *testing.T) *apiServer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr, err := pipeline.NewManager(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.NewManager: %v", err)
	}
	d, err := New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	if d.api == nil {
		t.Fatal("expected api server to be configured")
	}
	return d.api
}

func TestAPIServerHandleJobs(t *testing.T) {
	srv := newAPITestServer(t)
	job, err := srv.daemon.store.NewJob(context.Background(), "/tmp/session.wav", "Example")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != job.ID {
		t.Fatalf("unexpected jobs payload: %+v", resp.Jobs)
	}
	if resp.Jobs[0].SessionTitle != "Example" {
		t.Fatalf("unexpected session title: %q", resp.Jobs[0].SessionTitle)
	}
}

func TestAPIServerHandleJobNotFound(t *testing.T) {
	srv := newAPITestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/42", nil)
	w := httptest.NewRecorder()
	srv.handleJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIServerRejectsNonGet(t *testing.T) {
	srv := newAPITestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
