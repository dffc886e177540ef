package queueaccess_test

import (
	"context"
	"testing"

	"mindscribe/internal/ipc"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
	"mindscribe/internal/queueaccess"
	"mindscribe/internal/testsupport"
)

func newStoreSession(t *testing.T) (queueaccess.Session, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ranges, err := progress.NewRanges(cfg.StageWeights())
	if err != nil {
		t.Fatalf("NewRanges: %v", err)
	}
	session, err := queueaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return ipc.Dial(cfg.SocketPath()) },
		func() (*queue.Store, *progress.Estimator, error) {
			return store, progress.NewEstimator(ranges), nil
		},
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	return session, store
}

func TestFallbackUsesStoreWhenDaemonAbsent(t *testing.T) {
	session, _ := newStoreSession(t)
	if !session.Direct {
		t.Fatal("expected direct store session without a daemon")
	}

	ctx := context.Background()
	job, err := session.Access.Add(ctx, "/tmp/session.wav", "Checkup", true)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if job.ExecutionPath != string(queue.PathBaseline) {
		t.Fatalf("expected baseline path, got %q", job.ExecutionPath)
	}

	jobs, err := session.Access.List(ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].SessionTitle != "Checkup" {
		t.Fatalf("unexpected list: %+v", jobs)
	}

	described, err := session.Access.Describe(ctx, job.ID)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if described == nil || described.ID != job.ID {
		t.Fatalf("unexpected describe result: %+v", described)
	}

	health, err := session.Access.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}

	removed, err := session.Access.Remove(ctx, []int64{job.ID})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

func TestStoreRetryRoundTrip(t *testing.T) {
	session, store := newStoreSession(t)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "/tmp/session.wav")
	job.SetFailed("engine crashed")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated, err := session.Access.RetryAll(ctx)
	if err != nil {
		t.Fatalf("RetryAll: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 retried, got %d", updated)
	}
}
