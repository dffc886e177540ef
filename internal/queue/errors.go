package queue

import "errors"

// ErrNotFound indicates a job identifier does not exist in the queue.
var ErrNotFound = errors.New("job not found")
