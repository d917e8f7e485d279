package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/one-zero-eight/omnidesk-portal/internal/config"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/providers"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/repository"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/tracing"
	"github.com/one-zero-eight/omnidesk-portal/internal/present/rest"
	"github.com/one-zero-eight/omnidesk-portal/internal/present/rest/middleware"
	"github.com/one-zero-eight/omnidesk-portal/internal/service"
	"github.com/one-zero-eight/omnidesk-portal/internal/usecase"
)

const (
	serviceName     = "omnidesk-portal"
	shutdownTimeout = 10 * time.Second
)

type serveOptions struct {
	configPath string
	reload     bool
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portal API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "settings.yaml", "path to the settings file")
	cmd.Flags().BoolVar(&opts.reload, "reload", false, "development mode: human-readable debug logs")
	return cmd
}

func setupLogger(conf config.Config, reload bool) {
	if reload {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: conf.Server.SlogLevel()})))
}

func runServe(ctx context.Context, opts serveOptions) error {
	conf, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	setupLogger(conf, opts.reload)
	slog.InfoContext(ctx, "starting portal api", slog.Any("config", conf), slog.String("module", "main"))

	if conf.Server.EnableTrace {
		shutdown, err := tracing.Setup(ctx, serviceName, conf.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			err := shutdown(context.Background())
			if err != nil {
				slog.Error("failed to flush traces", slog.String("error", err.Error()), slog.String("module", "main"))
			}
		}()
	}

	accounts := providers.NewAccounts(conf)
	_, err = accounts.UpdateKeySet(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load accounts key set")
	}

	var activityRepo usecase.ActivityRepository
	if conf.Server.PostgresDsn != "" {
		db, err := providers.NewDatabase(conf.Server)
		if err != nil {
			return errors.Wrap(err, "failed to connect database")
		}
		err = providers.MigrateDatabase(db)
		if err != nil {
			return errors.Wrap(err, "failed to migrate database")
		}
		activityRepo = repository.NewActivityRepository(db)
	}

	var publisher usecase.EventPublisher
	var subscriber rest.Subscriber
	if conf.Server.RedisAddr != "" {
		rdb, err := providers.NewRedis(ctx, conf.Server)
		if err != nil {
			return errors.Wrap(err, "failed to connect redis")
		}
		defer rdb.Close()
		signalService := service.NewSignalService(rdb)
		publisher = signalService
		subscriber = signalService
	}

	var tracker *usecase.ActivityTracker
	if activityRepo != nil || publisher != nil {
		tracker = usecase.NewActivityTracker(activityRepo, publisher)
	}

	handler := rest.NewHandler(
		usecase.NewCaseUsecase(providers.NewOmnidesk(conf), tracker),
		usecase.NewSSOUsecase(accounts, providers.NewSSO(conf), tracker),
		usecase.NewActivityUsecase(activityRepo),
		subscriber,
		middleware.NewAuthMiddleware(service.NewAuthService(accounts)),
	)
	e := rest.NewServer(conf, handler)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", conf.Server.Listen), slog.String("module", "main"))
		err := e.Start(conf.Server.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down", slog.String("module", "main"))
	return e.Shutdown(shutdownCtx)
}
