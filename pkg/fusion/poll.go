package fusion

import (
	"context"
	"fmt"
	"time"
)

// maxConsecutiveErrors aborts a poll loop that only ever sees failures,
// e.g. a wrong order hash or a dead network.
const maxConsecutiveErrors = 10

// ProgressFunc is invoked after every successful status check
type ProgressFunc func(*OrderStatus)

// WaitForTerminal polls the order status at a fixed interval until a
// terminal state is observed or ctx expires. Transient errors are logged
// and retried; too many in a row abort the wait.
func (c *Client) WaitForTerminal(ctx context.Context, chainID uint64, orderHash string, interval time.Duration, onProgress ProgressFunc) (*OrderStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	errCount := 0
	for {
		status, err := c.OrderStatus(ctx, chainID, orderHash)
		if err != nil {
			errCount++
			c.log.Debug().Err(err).Int("attempt", errCount).Str("orderHash", orderHash).Msg("status check failed, retrying...")
			if errCount >= maxConsecutiveErrors {
				return nil, fmt.Errorf("giving up after %d consecutive status errors: %w", errCount, err)
			}
		} else {
			errCount = 0
			if onProgress != nil {
				onProgress(status)
			}
			if status.Status.Terminal() {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("order %s not finalized: %w", orderHash, ctx.Err())
		case <-ticker.C:
		}
	}
}
