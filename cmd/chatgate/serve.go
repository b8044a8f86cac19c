package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatgate/core/gateway"
	"github.com/leofalp/chatgate/core/gateway/middleware"
	"github.com/leofalp/chatgate/internal/config"
	"github.com/leofalp/chatgate/internal/server"
	"github.com/leofalp/chatgate/internal/store"
	"github.com/leofalp/chatgate/providers/observability"
	"github.com/leofalp/chatgate/providers/observability/slogobs"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), root, addr, verbose)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log request and response contents")
	return cmd
}

func serve(ctx context.Context, root *rootOptions, addr string, verbose bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadSettings(root.configFile)
	if err != nil {
		return err
	}
	settings := cfg.Get()
	if addr == "" {
		addr = settings.Server.Addr
	}

	observer := newObserver(settings.Log)
	defer observer.Close()

	cfg.OnChange(func(old, new config.Settings) {
		observer.Info(ctx, "configuration reloaded",
			observability.Bool("providers_changed", config.Changed(old.Providers, new.Providers)),
		)
	})

	db, err := store.Open(settings.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	logLevel := middleware.LogLevelStandard
	if verbose {
		logLevel = middleware.LogLevelVerbose
	}
	opts := []gateway.Option{
		gateway.WithToolSource(db),
		gateway.WithModelSource(db),
		gateway.WithObserver(observer),
		gateway.WithToolClient(&http.Client{Timeout: settings.Tools.Timeout}),
		gateway.WithMiddleware(
			middleware.NewLoggingMiddleware(observer.Logger(), logLevel),
			middleware.NewTimeoutMiddleware(settings.Server.RequestTimeout),
		),
	}
	if settings.Tools.Parallel {
		opts = append(opts, gateway.WithParallelTools(settings.Tools.ParallelLimit))
	}
	orchestrator, err := gateway.New(config.NewCredentials(cfg), opts...)
	if err != nil {
		return err
	}

	srv := server.New(orchestrator,
		server.WithObserver(observer),
		server.WithRequestTimeout(settings.Server.RequestTimeout),
		server.WithMaxBodyBytes(settings.Server.MaxBodyBytes),
		server.WithMetrics(func() any { return observer.Snapshot() }),
	)

	observer.Info(ctx, "chatgate listening",
		observability.String("addr", addr),
		observability.String("store", settings.Store.Path),
	)
	err = srv.ListenAndServe(ctx, addr, settings.Server.ReadHeaderTimeout, shutdownTimeout)
	observer.Info(context.Background(), "chatgate stopped")
	return err
}

func newObserver(settings config.LogSettings) *slogobs.Observer {
	opts := []slogobs.Option{
		slogobs.WithLevel(slogobs.ParseLogLevel(settings.Level)),
		slogobs.WithFormat(slogobs.ParseFormat(settings.Format)),
	}
	if settings.File != "" {
		opts = append(opts, slogobs.WithFile(settings.File, settings.MaxSizeMB, settings.MaxBackups, settings.MaxAgeDays))
	}
	observer := slogobs.New(opts...)
	slog.SetDefault(observer.Logger())
	return observer
}
