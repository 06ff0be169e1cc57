package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/paysms/internal/db"
	"github.com/nkiryanov/paysms/internal/handlers"
	"github.com/nkiryanov/paysms/internal/lock"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/notify"
	"github.com/nkiryanov/paysms/internal/repository/postgres"
	"github.com/nkiryanov/paysms/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/paysms/internal/service/classifier"
	"github.com/nkiryanov/paysms/internal/service/deposit"
	"github.com/nkiryanov/paysms/internal/service/ledger"
	"github.com/nkiryanov/paysms/internal/service/reconcile"
	"github.com/nkiryanov/paysms/internal/service/rematch"
	"github.com/nkiryanov/paysms/internal/service/resolver"
	"github.com/nkiryanov/paysms/internal/service/user"
	"github.com/nkiryanov/paysms/internal/service/validate"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	// Background retry of unattributed payments
	Rematch *rematch.Processor

	logger logger.Logger

	// Released in reverse order once the server stopped
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}
	ready := false
	defer func() {
		if !ready {
			app.close()
		}
	}()

	tokens, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	storage := postgres.NewStorage(pool)

	locker, err := app.newLocker(ctx, c)
	if err != nil {
		return nil, err
	}

	sink, err := app.newSink(ctx, c)
	if err != nil {
		return nil, err
	}
	dispatcher := notify.NewDispatcher(sink, l, notify.WithAdminTarget(c.AdminTarget))
	// Queued notifications are delivered before the sink closes
	app.closers = append(app.closers, dispatcher.Wait)

	cards, err := validCards(c.CardList())
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		l.Warn("no cards configured, card payments will not be recognized")
	}

	// Initialize services
	engine := ledger.NewEngine(storage, c.Limits, l)
	reconciler := reconcile.New(reconcile.Deps{
		Storage:    storage,
		Classifier: classifier.New(cards),
		Resolver:   resolver.New(storage),
		Ledger:     engine,
		Locker:     locker,
		Notifier:   dispatcher,
		Logger:     l,
	}, reconcile.WithTimeout(c.DBTimeout))

	app.Rematch = rematch.New(rematch.Config{Interval: c.RematchInterval}, storage.Claim(), reconciler, l)

	app.Handler = handlers.NewRouter(handlers.Services{
		Reconciler: reconciler,
		Users:      user.NewService(storage),
		Deposits:   deposit.NewService(storage, c.Limits, l),
		Tokens:     tokens,
		Health:     pool,
	}, l)

	ready = true
	return app, nil
}

func validCards(cards []string) ([]string, error) {
	valid := make([]string, 0, len(cards))
	for _, card := range cards {
		digits, err := validate.Card(card)
		if err != nil {
			return nil, fmt.Errorf("invalid card %q: %w", card, err)
		}
		valid = append(valid, digits)
	}
	return valid, nil
}

// Redis locks when configured, in-process ones otherwise
func (s *ServerApp) newLocker(ctx context.Context, c *Config) (lock.Locker, error) {
	if c.RedisURL == "" {
		s.logger.Info("using in-process locks, run a single instance only")
		return lock.NewLocal(), nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("error while parsing redis url. Err: %w", err)
	}
	rdb := redis.NewClient(opts)
	s.closers = append(s.closers, func() { _ = rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis is not reachable. Err: %w", err)
	}

	locker := lock.NewRedis(rdb, s.logger)
	if err := locker.Preload(ctx); err != nil {
		return nil, err
	}
	return locker, nil
}

// NATS JetStream sink when configured, log sink otherwise
func (s *ServerApp) newSink(ctx context.Context, c *Config) (notify.Sink, error) {
	if c.NATSURL == "" {
		return notify.NewLogSink(s.logger), nil
	}

	cfg := notify.DefaultNATSConfig(c.NATSURL)
	if c.NATSSubject != "" {
		cfg.Subject = c.NATSSubject
	}

	sink, err := notify.NewNATSSink(ctx, cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, sink.Close)
	return sink, nil
}

func (s *ServerApp) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	rematchStopped := s.Rematch.Process(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-rematchStopped

	return err
}
