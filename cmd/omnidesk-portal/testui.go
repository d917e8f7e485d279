package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type testUIOptions struct {
	dir    string
	listen string
}

func newTestUICmd() *cobra.Command {
	opts := testUIOptions{}
	cmd := &cobra.Command{
		Use:   "testui",
		Short: "Serve the browser test client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTestUI(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "test-ui", "directory with the test client")
	cmd.Flags().StringVar(&opts.listen, "listen", ":8001", "address to listen on")
	return cmd
}

func newTestUIServer(dir string) (*echo.Echo, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open test ui directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Static("/", dir)
	return e, nil
}

func runTestUI(ctx context.Context, opts testUIOptions) error {
	e, err := newTestUIServer(opts.dir)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	slog.Info("serving test ui", slog.String("dir", opts.dir), slog.String("addr", opts.listen), slog.String("module", "testui"))
	err = e.Start(opts.listen)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
