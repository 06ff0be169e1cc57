package rematch

import (
	"context"
	"time"

	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
)

// Only these can become attributable later, NO_PHONE claims wait for a manual claim
var retryableReasons = []string{
	models.ClaimReasonUnmatchedUser,
	models.ClaimReasonUnmatchedDeposit,
}

type Producer struct {
	interval  time.Duration
	batchSize int
	claims    claimLister
	logger    logger.Logger
}

func (p *Producer) Produce(ctx context.Context, out chan<- models.PendingClaim) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting rematch producer", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Producer stopped by context")
				return

			case <-ticker.C:
				claims, err := p.claims.ListPending(ctx, repository.ListPendingOpts{
					Reasons:   retryableReasons,
					WithPhone: true,
					Limit:     p.batchSize,
				})
				if err != nil {
					p.logger.Error("Failed to list pending claims", "error", err)
					continue
				}

				for _, claim := range claims {
					select {
					case <-ctx.Done():
						p.logger.Debug("Producer stopped by context while sending claims")
						return
					case out <- claim:
					}
				}
			}
		}
	}()

	return idleStopped
}
