package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mindscribe/internal/daemon"
	"mindscribe/internal/ipc"
	"mindscribe/internal/logging"
	"mindscribe/internal/pipeline"
	"mindscribe/internal/queue"
	"mindscribe/internal/stage"
	"mindscribe/internal/testsupport"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Job) error { return nil }
func (noopStage) Execute(context.Context, *queue.Job) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr, err := pipeline.NewManager(cfg, store, logger)
	if err != nil {
		t.Fatalf("pipeline.NewManager: %v", err)
	}
	if err := mgr.ConfigureStages(pipeline.StageSet{
		Uploader:      noopStage{},
		Preprocessor:  noopStage{},
		Transcriber:   noopStage{},
		Diarizer:      noopStage{},
		NoteGenerator: noopStage{},
		Saver:         noopStage{},
	}); err != nil {
		t.Fatalf("ConfigureStages: %v", err)
	}
	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if len(status.Preflight) == 0 {
		t.Fatal("expected preflight results after start")
	}

	// Stop before adding so the pipeline does not race the assertions below.
	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}

	sourceDir := t.TempDir()
	sourceA := filepath.Join(sourceDir, "session-a.wav")
	if err := os.WriteFile(sourceA, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	sourceB := filepath.Join(sourceDir, "session-b.m4a")
	if err := os.WriteFile(sourceB, []byte("data"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	addResp, err := client.Add(sourceA, "Morning intake", false)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if addResp.Job.Status != string(queue.StatusPending) {
		t.Fatalf("expected pending job, got %s", addResp.Job.Status)
	}
	if addResp.Job.SessionTitle != "Morning intake" {
		t.Fatalf("unexpected session title: %q", addResp.Job.SessionTitle)
	}

	baselineResp, err := client.Add(sourceB, "", true)
	if err != nil {
		t.Fatalf("Add baseline failed: %v", err)
	}
	if baselineResp.Job.ExecutionPath != string(queue.PathBaseline) {
		t.Fatalf("expected baseline execution path, got %q", baselineResp.Job.ExecutionPath)
	}

	failed, err := store.GetByID(ctx, baselineResp.Job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	failed.SetFailed("engine crashed")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	listResp, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(listResp.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(listResp.Jobs))
	}

	failedResp, err := client.QueueList([]string{string(queue.StatusFailed)})
	if err != nil {
		t.Fatalf("QueueList filter failed: %v", err)
	}
	if len(failedResp.Jobs) != 1 || failedResp.Jobs[0].ID != failed.ID {
		t.Fatalf("expected failed job %d, got %+v", failed.ID, failedResp.Jobs)
	}

	describeResp, err := client.QueueDescribe(addResp.Job.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if describeResp.Job.SourcePath != sourceA {
		t.Fatalf("unexpected source path: %q", describeResp.Job.SourcePath)
	}

	retryResp, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retryResp.Updated != 1 {
		t.Fatalf("expected 1 retried job, got %d", retryResp.Updated)
	}

	healthResp, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if healthResp.Total != 2 || healthResp.Failed != 0 || healthResp.Pending != 2 {
		t.Fatalf("unexpected health response: %#v", healthResp)
	}

	removeResp, err := client.QueueRemove([]int64{addResp.Job.ID})
	if err != nil {
		t.Fatalf("QueueRemove failed: %v", err)
	}
	if removeResp.Removed != 1 {
		t.Fatalf("expected 1 removed job, got %d", removeResp.Removed)
	}

	clearResp, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if clearResp.Removed != 1 {
		t.Fatalf("expected 1 job cleared, got %d", clearResp.Removed)
	}

	logPath := d.LogPath()
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(logResp.Lines) != 2 || logResp.Lines[0] != "second" || logResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail response: %#v", logResp.Lines)
	}

	followDone := make(chan struct{})
	go func(offset int64) {
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 2000})
		if err != nil {
			t.Errorf("LogTail follow error: %v", err)
			return
		}
		if len(resp.Lines) != 1 || resp.Lines[0] != "fourth" {
			t.Errorf("unexpected follow lines: %#v", resp.Lines)
		}
		close(followDone)
	}(logResp.Offset)

	time.Sleep(100 * time.Millisecond)
	if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		_, _ = f.WriteString("fourth\n")
		_ = f.Close()
	} else {
		t.Fatalf("append log: %v", err)
	}

	select {
	case <-followDone:
	case <-time.After(10 * time.Second):
		t.Fatal("log tail follow timed out")
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}
