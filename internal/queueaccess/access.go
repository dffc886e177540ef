package queueaccess

import (
	"context"
	"time"

	"mindscribe/internal/api"
	"mindscribe/internal/ipc"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
)

// Access provides queue operations regardless of IPC or direct store backing.
// Commands that only make sense against a live daemon (start, stop, status)
// are not part of this interface.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id int64) (*api.Job, error)
	Add(ctx context.Context, sourcePath, sessionTitle string, forceBaseline bool) (*api.Job, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access. Used when the
// daemon is not running so queue maintenance still works.
func NewStoreAccess(store *queue.Store, estimator *progress.Estimator) Access {
	return &storeAccess{store: store, estimator: estimator}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.Job, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Job, nil
}

func (a *ipcAccess) Add(_ context.Context, sourcePath, sessionTitle string, forceBaseline bool) (*api.Job, error) {
	resp, err := a.client.Add(sourcePath, sessionTitle, forceBaseline)
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *ipcAccess) ClearAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearCompleted(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearCompleted()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearFailed()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) Remove(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRemove(ids)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) RetryAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueRetry(nil)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Health(_ context.Context) (queue.HealthSummary, error) {
	resp, err := a.client.QueueHealth()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary{
		Total:      resp.Total,
		Pending:    resp.Pending,
		Processing: resp.Processing,
		Failed:     resp.Failed,
		Completed:  resp.Completed,
	}, nil
}

type storeAccess struct {
	store     *queue.Store
	estimator *progress.Estimator
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.store.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	jobs, err := a.store.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return api.FromJobs(jobs, a.estimator, time.Now()), nil
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.Job, error) {
	job, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	dto := api.FromJob(job, a.estimator, time.Now())
	return &dto, nil
}

func (a *storeAccess) Add(ctx context.Context, sourcePath, sessionTitle string, forceBaseline bool) (*api.Job, error) {
	job, err := a.store.NewJob(ctx, sourcePath, sessionTitle)
	if err != nil {
		return nil, err
	}
	if forceBaseline {
		job.ExecutionPath = queue.PathBaseline
		if err := a.store.Update(ctx, job); err != nil {
			return nil, err
		}
	}
	dto := api.FromJob(job, a.estimator, time.Now())
	return &dto, nil
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *storeAccess) Remove(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		removed, err := a.store.Remove(ctx, id)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx, time.Now())
}

func (a *storeAccess) RetryAll(ctx context.Context) (int64, error) {
	failed, err := a.store.List(ctx, queue.StatusFailed)
	if err != nil {
		return 0, err
	}
	var updated int64
	for _, job := range failed {
		if _, err := a.store.RetryFailed(ctx, job.ID); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	var updated int64
	for _, id := range ids {
		job, err := a.store.RetryFailed(ctx, id)
		if err != nil {
			return updated, err
		}
		if job != nil {
			updated++
		}
	}
	return updated, nil
}

func (a *storeAccess) Health(ctx context.Context) (queue.HealthSummary, error) {
	return a.store.Health(ctx)
}
