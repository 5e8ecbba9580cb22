// ABOUTME: Gateway orchestrator for the account HTTP server
// ABOUTME: Wires store, session backend, resolver and account service; owns Run/Shutdown lifecycle

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/coven-account/internal/account"
	"github.com/2389/coven-account/internal/auth"
	"github.com/2389/coven-account/internal/config"
	"github.com/2389/coven-account/internal/dedupe"
	"github.com/2389/coven-account/internal/store"
)

// Admin denials are audited once per admin and route within this window.
const (
	denialAuditWindow = time.Minute
	denialAuditKeys   = 1024
)

// expirer is the session housekeeping the sweeper drives.
type expirer interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type adminExpirer interface {
	DeleteExpiredAdminSessions(ctx context.Context) (int64, error)
}

// pinger is a session backend reachable over the network.
type pinger interface {
	Ping(ctx context.Context) error
}

// Gateway serves the account API.
type Gateway struct {
	config     *config.Config
	store      io.Closer
	sessions   expirer
	admins     adminExpirer
	pinger     pinger
	redis      *redis.Client
	resolver   *auth.Resolver
	accounts   *account.Service
	denials    *dedupe.Window
	httpServer *http.Server
	tracer     trace.Tracer
	logger     *slog.Logger
}

// components are the collaborators a Gateway serves requests with.
type components struct {
	store    io.Closer
	sessions store.SessionStore
	admins   adminExpirer
	redis    *redis.Client
	resolver *auth.Resolver
	accounts *account.Service
}

// initStore opens the SQLite store. COVEN_DB_PATH overrides the configured path.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("COVEN_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// NewSessionStore picks the user session backend named by sessions.backend.
// The returned client is nil for the sqlite backend; callers close it otherwise.
func NewSessionStore(cfg *config.Config, sqlStore *store.SQLiteStore) (store.SessionStore, *redis.Client) {
	if cfg.Sessions.Backend != config.BackendRedis {
		return sqlStore, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Sessions.Redis.Addr,
		Password: cfg.Sessions.Redis.Password,
		DB:       cfg.Sessions.Redis.DB,
	})
	return store.NewRedisSessionStore(client, sqlStore, cfg.Sessions.Redis.Prefix), client
}

// initAdminValidators builds the admin chain: stored admin sessions, then
// signed admin tokens when a JWT secret is configured.
func initAdminValidators(cfg *config.Config, sqlStore *store.SQLiteStore) auth.AdminChain {
	chain := auth.AdminChain{auth.NewStoreAdminValidator(sqlStore)}
	if cfg.Auth.JWTSecret != "" {
		tokens := auth.NewAdminTokens([]byte(cfg.Auth.JWTSecret))
		chain = append(chain, auth.NewJWTAdminValidator(tokens, sqlStore))
	}
	return chain
}

// New creates a Gateway from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	sqlStore, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	sessions, redisClient := NewSessionStore(cfg, sqlStore)
	resolver := auth.NewResolver(initAdminValidators(cfg, sqlStore), sessions)
	accounts := account.NewService(sqlStore, sessions, sqlStore, account.Config{
		BcryptCost:    cfg.Accounts.BcryptCost,
		DefaultRegion: cfg.Accounts.DefaultRegion,
	})

	return newGateway(cfg, components{
		store:    sqlStore,
		sessions: sessions,
		admins:   sqlStore,
		redis:    redisClient,
		resolver: resolver,
		accounts: accounts,
	}, logger), nil
}

func newGateway(cfg *config.Config, c components, logger *slog.Logger) *Gateway {
	gw := &Gateway{
		config:   cfg,
		store:    c.store,
		sessions: c.sessions,
		admins:   c.admins,
		redis:    c.redis,
		resolver: c.resolver,
		accounts: c.accounts,
		denials:  dedupe.New(denialAuditWindow, denialAuditKeys),
		tracer:   otel.Tracer("github.com/2389/coven-account/internal/gateway"),
		logger:   logger,
	}
	if p, ok := c.sessions.(pinger); ok {
		gw.pinger = p
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return gw
}

// Handler returns the HTTP routes of the account API.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("PUT /session/account", g.traced("account.signUp", g.handleSignUp))
	mux.HandleFunc("GET /session/account", g.traced("account.get", g.handleGetAccount))
	mux.HandleFunc("DELETE /session/account", g.traced("account.destroy", g.handleDestroyAccount))
	mux.HandleFunc("GET /session/account/profile", g.traced("account.profile", g.handleGetProfile))
	return mux
}

// startServers starts the HTTP server and the session sweeper, returning the error channel.
func (g *Gateway) startServers(ctx context.Context, httpLn net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := g.httpServer.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	go g.runSweeper(ctx)

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts serving and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	if g.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := g.pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = g.gracefulShutdown()
			return fmt.Errorf("connecting to session store: %w", err)
		}
	}

	g.logger.Info("starting account server",
		"http_addr", g.config.Server.HTTPAddr,
		"session_backend", g.config.Sessions.Backend,
	)

	httpLn, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		_ = g.gracefulShutdown()
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()

	errCh := g.startServers(sweepCtx, httpLn)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	stopSweeper()
	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout,
// since the run context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// runSweeper deletes expired sessions every sessions.sweep_interval until ctx ends.
func (g *Gateway) runSweeper(ctx context.Context) {
	interval := g.config.Sessions.SweepInterval
	if interval <= 0 {
		interval = config.DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweepExpired(ctx)
		}
	}
}

// sweepExpired runs one pass of expired session cleanup.
func (g *Gateway) sweepExpired(ctx context.Context) {
	if g.sessions != nil {
		if n, err := g.sessions.DeleteExpiredSessions(ctx); err != nil {
			g.logger.Warn("failed to sweep expired sessions", "error", err)
		} else if n > 0 {
			g.logger.Debug("swept expired sessions", "count", n)
		}
	}
	if g.admins != nil {
		if n, err := g.admins.DeleteExpiredAdminSessions(ctx); err != nil {
			g.logger.Warn("failed to sweep expired admin sessions", "error", err)
		} else if n > 0 {
			g.logger.Debug("swept expired admin sessions", "count", n)
		}
	}
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases the stores.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down account server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.redis != nil {
		errs = appendCloseError(errs, "redis close", g.redis.Close())
	}
	if g.store != nil {
		errs = appendCloseError(errs, "store close", g.store.Close())
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
