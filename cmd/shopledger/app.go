package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/shopledger/internal/db"
	"github.com/nkiryanov/shopledger/internal/handlers"
	"github.com/nkiryanov/shopledger/internal/logger"
	"github.com/nkiryanov/shopledger/internal/repository/postgres"
	"github.com/nkiryanov/shopledger/internal/service/account"
	"github.com/nkiryanov/shopledger/internal/service/auth"
	"github.com/nkiryanov/shopledger/internal/service/catalog"
	"github.com/nkiryanov/shopledger/internal/service/promoinput"
	"github.com/nkiryanov/shopledger/internal/service/purchase"
	"github.com/nkiryanov/shopledger/internal/service/redemption"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Release connections in reverse order of opening
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	app := &ServerApp{ListenAddr: c.ListenAddr}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// Initialize logger
	app.logger, err = logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Conversation state store: redis if configured
	var store promoinput.Store = promoinput.NewMemoryStore()
	if c.RedisURL != "" {
		var client *redis.Client
		client, err = promoinput.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		store = promoinput.NewRedisStore(client)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool, postgres.WithLockTimeout(c.LockTimeout))

	// Initialize services
	tokenManager, err := auth.New(auth.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	redemptionEngine := redemption.NewEngine(storage, app.logger)

	app.Handler = handlers.NewRouter(handlers.Services{
		Auth:       tokenManager,
		Account:    account.NewService(storage),
		Catalog:    catalog.NewService(storage.Catalog()),
		Purchase:   purchase.NewEngine(storage, app.logger),
		Redemption: redemptionEngine,
		PromoInput: promoinput.NewMachine(store, redemptionEngine, app.logger),
		AdminIDs:   c.AdminAccountIDs(),
	}, app.logger)

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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

	return err
}

// Close releases database and redis connections
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
