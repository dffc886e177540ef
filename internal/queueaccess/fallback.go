package queueaccess

import (
	"fmt"

	"mindscribe/internal/ipc"
	"mindscribe/internal/progress"
	"mindscribe/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	// Direct is true when the session bypasses the daemon and touches the
	// database directly.
	Direct bool

	close func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to direct
// store access so queue inspection works without a running daemon.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*queue.Store, *progress.Estimator, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				close:  client.Close,
			}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, estimator, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store, estimator),
		Direct: true,
		close:  store.Close,
	}, nil
}
