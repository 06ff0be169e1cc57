// Package rematch retries stored payments that name a phone, so a payer who
// registers or opens a deposit after paying is credited without a manual claim
package rematch

import (
	"context"
	"time"

	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
	"github.com/nkiryanov/paysms/internal/service/reconcile"
)

const (
	defaultCountWorkers    = 4                // Number of workers to retry claims
	defaultProduceInterval = 1 * time.Minute  // Interval for listing claims
	defaultBatchSize       = 100              // Claims listed per tick
	defaultBackoff         = 10 * time.Second // Pause after the lock backend timed out
)

type claimLister interface {
	ListPending(ctx context.Context, opts repository.ListPendingOpts) ([]models.PendingClaim, error)
}

type rematcher interface {
	Rematch(ctx context.Context, networkTxID string) (reconcile.Outcome, error)
}

type Config struct {
	CountWorkers int
	Interval     time.Duration
	BatchSize    int
	Backoff      time.Duration
}

func (c Config) withDefaults() Config {
	if c.CountWorkers <= 0 {
		c.CountWorkers = defaultCountWorkers
	}
	if c.Interval <= 0 {
		c.Interval = defaultProduceInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	return c
}

type Processor struct {
	consumer *Consumer
	producer *Producer
	logger   logger.Logger
}

func New(cfg Config, claims claimLister, r rematcher, l logger.Logger) *Processor {
	cfg = cfg.withDefaults()

	return &Processor{
		consumer: &Consumer{
			countWorkers: cfg.CountWorkers,
			backoff:      cfg.Backoff,
			rematcher:    r,
			logger:       l,
		},
		producer: &Producer{
			interval:  cfg.Interval,
			batchSize: cfg.BatchSize,
			claims:    claims,
			logger:    l,
		},
		logger: l,
	}
}

// Process runs until ctx is done, the returned channel is closed once every worker stopped
func (p *Processor) Process(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	claimChan := make(chan models.PendingClaim)

	// Start producer to list claims
	producerStopped := p.producer.Produce(ctx, claimChan)

	// Start consumer to retry them
	consumerStopped := p.consumer.Consume(ctx, claimChan)

	go func() {
		defer close(idleStopped)
		<-producerStopped
		close(claimChan)
		<-consumerStopped
		p.logger.Debug("Rematch processor stopped")
	}()

	return idleStopped
}
