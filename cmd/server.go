package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clinic-booking/internal/adaptor"
	"clinic-booking/internal/usecase"
	"clinic-booking/internal/wire"
	"clinic-booking/pkg/redislock"
	"clinic-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	config, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.Store.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := config.Booking.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	st, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer st.Close()

	if config.Store.Driver == utils.StoreDriverSQLite {
		n, err := st.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info("SQLite migrations applied", zap.Int("count", n))
	}

	var (
		locker    redislock.Locker = redislock.Noop{}
		redisPing adaptor.PingFunc
	)
	if config.Redis.Addr != "" {
		rdb, err := redislock.NewClient(ctx, config.Redis.Addr, config.Redis.Username, config.Redis.Password)
		if err != nil {
			// the unique index still guards the slot
			logger.Warn("Redis unavailable, booking without slot lock", zap.Error(err))
		} else {
			defer rdb.Close()
			locker = redislock.New(rdb, config.Redis.LockTTL)
			redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			logger.Info("Redis slot lock enabled", zap.String("addr", config.Redis.Addr))
		}
	}

	service := usecase.NewService(st.Repo, locker, loc, logger)
	health := adaptor.NewHealthHandler(config.App.Name, st.Repo.Ping, redisPing, logger)
	app := wire.Wiring(service, health, config, logger)

	return APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger)
}

// APIServer serves route until ctx is cancelled, then drains in-flight
// requests for at most shutdownTimeout.
func APIServer(ctx context.Context, route *chi.Mux, port string, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           route,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
