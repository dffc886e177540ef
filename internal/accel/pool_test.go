package accel_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mindscribe/internal/accel"
	"mindscribe/internal/logging"
)

func TestExecuteRunsWork(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())
	defer pool.Close()

	ran := false
	err := pool.Execute(context.Background(), "test", func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !ran {
		t.Fatal("work did not run")
	}
}

func TestExecutePropagatesWorkError(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())
	defer pool.Close()

	want := errors.New("model load failed")
	err := pool.Execute(context.Background(), "test", func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected work error, got %v", err)
	}
}

func TestAtMostOneInFlight(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())
	defer pool.Close()

	var inFlight atomic.Int32
	var maxInFlight atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Execute(context.Background(), "concurrent", func(context.Context) error {
				now := inFlight.Add(1)
				for {
					max := maxInFlight.Load()
					if now <= max || maxInFlight.CompareAndSwap(max, now) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Execute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("expected at most 1 in flight, observed %d", got)
	}
}

func TestQueueIsFIFO(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())
	defer pool.Close()

	gate := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	go func() {
		_ = pool.Execute(context.Background(), "blocker", func(context.Context) error {
			started.Done()
			<-gate
			return nil
		})
	}()
	started.Wait()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Execute(context.Background(), "queued", func(context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Stagger submissions so arrival order is deterministic.
		time.Sleep(5 * time.Millisecond)
	}

	close(gate)
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestCancelWhileQueued(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())
	defer pool.Close()

	gate := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	go func() {
		_ = pool.Execute(context.Background(), "blocker", func(context.Context) error {
			started.Done()
			<-gate
			return nil
		})
	}()
	started.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- pool.Execute(ctx, "cancelled", func(context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(gate)
	pool.Close()
	select {
	case <-ran:
		t.Fatal("cancelled work must never occupy the slot")
	default:
	}
}

func TestCloseRejectsNewWork(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())
	pool.Close()

	err := pool.Execute(context.Background(), "late", func(context.Context) error { return nil })
	if !errors.Is(err, accel.ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestCloseAllowsInFlightToFinish(t *testing.T) {
	pool := accel.NewPool(logging.NewNop())

	var finished atomic.Bool
	var started sync.WaitGroup
	started.Add(1)
	done := make(chan error, 1)
	go func() {
		done <- pool.Execute(context.Background(), "inflight", func(context.Context) error {
			started.Done()
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			return nil
		})
	}()
	started.Wait()

	pool.Close()
	if err := <-done; err != nil {
		t.Fatalf("in-flight work failed: %v", err)
	}
	if !finished.Load() {
		t.Fatal("in-flight work should finish before Close returns")
	}
}
