package notify

import (
	"context"
	"sync"
	"time"

	"github.com/nkiryanov/paysms/internal/logger"
)

const defaultSendTimeout = 15 * time.Second

// Dispatcher hands messages to the sink in the background
// A failed delivery is logged and never reported to the caller
type Dispatcher struct {
	sink        Sink
	logger      logger.Logger
	timeout     time.Duration
	adminTarget string
	wg          sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

// WithAdminTarget routes admin messages to a concrete recipient, e.g. "admin:<chat id>"
func WithAdminTarget(target string) DispatcherOption {
	return func(d *Dispatcher) {
		if target != "" {
			d.adminTarget = target
		}
	}
}

func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func NewDispatcher(sink Sink, l logger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{sink: sink, logger: l, timeout: defaultSendTimeout, adminTarget: TargetAdmin}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify returns immediately, the caller context only carries values, not cancellation
func (d *Dispatcher) Notify(ctx context.Context, target string, text string) {
	if target == TargetAdmin {
		target = d.adminTarget
	}
	m := NewMessage(target, text)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.sink.Send(sendCtx, m); err != nil {
			d.logger.Error("notification not delivered", "id", m.ID, "target", m.Target, "error", err)
		}
	}()
}

// Wait blocks until every queued message is handled
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
