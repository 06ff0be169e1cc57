package rematch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
)

type Consumer struct {
	countWorkers int

	// When the lock backend times out every worker pauses until then
	backoff   time.Duration
	waitUntil atomic.Int64

	rematcher rematcher
	logger    logger.Logger
}

func (c *Consumer) Consume(ctx context.Context, in <-chan models.PendingClaim) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < c.countWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx, in)
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		c.logger.Debug("Consumer stopped")
	}()

	return idleStopped
}

func (c *Consumer) worker(ctx context.Context, in <-chan models.PendingClaim) {
	for {
		if waitUntil := time.UnixMilli(c.waitUntil.Load()); waitUntil.After(time.Now()) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Until(waitUntil)):
			}
		}

		select {
		case <-ctx.Done():
			return

		case claim, ok := <-in:
			if !ok {
				c.logger.Debug("Consumer worker stopped, input channel closed")
				return
			}
			c.handle(ctx, claim)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, claim models.PendingClaim) {
	outcome, err := c.rematcher.Rematch(ctx, claim.NetworkTxID)

	switch {
	case err == nil:
		c.logger.Info("Stored payment credited", "tx_id", claim.NetworkTxID, "user_id", outcome.UserID, "state", outcome.State)

	case errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrNoOpenDeposit),
		errors.Is(err, apperrors.ErrClaimNotFound):
		// Still nobody to credit, or claimed meanwhile

	case errors.Is(err, apperrors.ErrLockTimeout):
		c.logger.Warn("Lock timeout, pausing rematch", "backoff", c.backoff)
		c.waitUntil.Store(time.Now().Add(c.backoff).UnixMilli())

	default:
		c.logger.Error("Failed to rematch stored payment", "error", err, "tx_id", claim.NetworkTxID)
	}
}
