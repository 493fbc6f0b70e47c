// Command relay boots the git-over-websocket broker: an HTTP server that
// brokers git-http-backend traffic between guests and an owner's local git
// CLI over a websocket, with Postgres LISTEN/NOTIFY carrying the hand-off
// between the two. Grounded on main.go's bootstrap shape, generalized from
// a bare http.ListenAndServe into the full config/logging/store/shutdown
// stack spec.md's ambient concerns call for.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rybkr/gitphantom/internal/broker"
	"github.com/rybkr/gitphantom/internal/config"
	"github.com/rybkr/gitphantom/internal/logging"
	"github.com/rybkr/gitphantom/internal/notify"
	"github.com/rybkr/gitphantom/internal/oauth2gh"
	"github.com/rybkr/gitphantom/internal/server"
	"github.com/rybkr/gitphantom/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real deployments set these in the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.DevelopmentMode); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logging.L()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	users := &store.Users{DB: pool}
	rooms := &store.Rooms{DB: pool}
	requests := &store.Requests{DB: pool}
	bus := notify.NewPGBus(pool)

	// Repair the "open with no live owner" inconsistency spec.md §3 calls
	// out before accepting any traffic: a prior process crash could have
	// left a room stuck open with nobody able to close it.
	if err := rooms.CloseAll(ctx); err != nil {
		return fmt.Errorf("reconcile room state on startup: %w", err)
	}

	handler := server.New(server.Deps{
		Resolver: users,
		Owner:    &broker.Owner{Rooms: rooms, Requests: requests, Bus: bus},
		Guest:    &broker.Guest{Rooms: rooms, Requests: requests, Bus: bus, Timeout: cfg.RequestTimeout},
		GitHub: &oauth2gh.Handler{
			Credentials: oauth2gh.Credentials{
				ClientID:     cfg.GithubClientID,
				ClientSecret: cfg.GithubClientSecret,
			},
			Identity: users,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("relay listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
