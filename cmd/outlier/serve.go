package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/outlier/internal/api"
	"github.com/go-sod/outlier/internal/buildinfo"
	"github.com/go-sod/outlier/internal/config"
	"github.com/go-sod/outlier/internal/logging"
	"github.com/go-sod/outlier/internal/server"
	"github.com/go-sod/outlier/internal/setup"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), buildinfo.Graffiti)
			_, _ = fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s: %s, %s\n",
				buildinfo.Info.Name(),
				buildinfo.Info.Time(),
				buildinfo.Info.Tag(),
			)
			return serve(cmd.Context(), *configFile)
		},
	}
}

func serve(ctx context.Context, configFile string) error {
	logger := logging.FromContext(ctx)
	var cfg config.Config
	env, err := setup.Setup(ctx, &cfg, setup.WithConfigFile(configFile), setup.WithMetrics(true))
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	srv, err := server.New(cfg.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer func() { _ = srv.Close() }()

	var grpcSrv *server.Server
	if cfg.GRPCAddr != "" {
		grpcSrv, err = server.New(cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("server.New: %w", err)
		}
		defer func() { _ = grpcSrv.Close() }()
	}

	scoreHandler, err := api.NewHandler(&cfg.API, env.ProvideScorer())
	if err != nil {
		return fmt.Errorf("api.NewHandler: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/score", scoreHandler)
	mux.Handle("/health", server.HandleHealth(ctx))
	if exporter := env.Exporter(); exporter != nil {
		mux.Handle("/metrics", exporter)
	}

	// nothing is served before every listener and handler is ready
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("serving http on %s", srv.Addr())
		return srv.ServeHTTPHandler(gctx, mux)
	})
	if grpcSrv != nil {
		g.Go(func() error {
			logger.Infof("serving grpc health on %s", grpcSrv.Addr())
			return grpcSrv.ServeGRPC(gctx, server.NewHealthGRPC(gctx))
		})
	}
	return g.Wait()
}
