package lease

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultHeartbeatInterval is the default interval between heartbeat renewals.
const DefaultHeartbeatInterval = 10 * time.Second

// StartHeartbeat launches a goroutine that periodically renews the lease
// held by ownerID. It returns a channel that receives an error if the
// lease disappears (released or swept) or a renewal fails; the goroutine
// stops on the first error or when the context is cancelled.
func StartHeartbeat(ctx context.Context, db *gorm.DB, resourceType, ownerID string, interval time.Duration) <-chan error {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	errCh := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := Renew(db, resourceType, ownerID); err != nil {
					errCh <- err
					return
				}
			}
		}
	}()

	return errCh
}
