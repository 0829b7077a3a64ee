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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/credgate/config"
	"github.com/jonwraymond/credgate/dispatch"
	"github.com/jonwraymond/credgate/gate"
	"github.com/jonwraymond/credgate/health"
	"github.com/jonwraymond/credgate/observe"
	"github.com/jonwraymond/credgate/proxy"
	"github.com/jonwraymond/credgate/secret"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gate in front of the configured upstream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the configuration file")
	return cmd
}

// gateway is everything serve runs, wired from one configuration file.
type gateway struct {
	file       *config.File
	observer   observe.Observer
	dispatcher *dispatch.Dispatcher
	health     *health.Aggregator
	proxy      http.Handler
	admin      http.Handler
}

func newGateway(ctx context.Context, f *config.File) (*gateway, error) {
	f.Observe.Version = version
	obs, err := observe.NewObserver(ctx, f.Observe)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	logger := obs.Logger()

	filter, err := gate.NewFilter(f.Config,
		gate.WithLogger(logger),
		gate.WithMetrics(obs.Metrics()),
		gate.WithTracer(obs.Tracer()),
	)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	d := dispatch.New(dispatch.Config{
		MaxPending:     f.MaxPending,
		DefaultTimeout: f.Timeout(),
		Tracer:         obs.Tracer(),
		Logger:         logger,
	})

	rp, err := proxy.NewReverseProxy(f.Upstream, logger)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	mw := proxy.New(filter, d, proxy.WithLogger(logger))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), mw.Gin())
	router.NoRoute(gin.WrapH(rp))

	agg := health.NewAggregator()
	cfg := filter.Config()
	agg.Register(health.NewDialChecker("idp", health.IdPAddress(cfg.IdPUpstream, cfg.IdPScheme), 2*time.Second))
	agg.Register(health.NewCapacityChecker("exchanges", d, 0.9))

	admin := http.NewServeMux()
	health.RegisterHandlers(admin, agg)
	admin.Handle("/metrics", promhttp.Handler())

	return &gateway{
		file:       f,
		observer:   obs,
		dispatcher: d,
		health:     agg,
		proxy:      router,
		admin:      admin,
	}, nil
}

func runServe(ctx context.Context, configPath string) error {
	resolver := secret.NewDefaultResolver()
	defer func() { _ = resolver.Close() }()

	f, err := config.Load(ctx, configPath, resolver)
	if err != nil {
		return err
	}
	gw, err := newGateway(ctx, f)
	if err != nil {
		return err
	}
	return gw.run(ctx)
}

// run serves until ctx is cancelled or a listener fails, then drains.
func (gw *gateway) run(ctx context.Context) error {
	logger := gw.observer.Logger()
	proxySrv := &http.Server{Addr: gw.file.Listen, Handler: gw.proxy, ReadHeaderTimeout: 10 * time.Second}
	adminSrv := &http.Server{Addr: gw.file.AdminListen, Handler: gw.admin, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "gate listening", observe.Field{Key: "addr", Value: proxySrv.Addr},
			observe.Field{Key: "upstream", Value: gw.file.Upstream})
		return listen(proxySrv)
	})
	g.Go(func() error {
		logger.Info(gctx, "admin listening", observe.Field{Key: "addr", Value: adminSrv.Addr})
		return listen(adminSrv)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(gw.file.ShutdownSeconds)*time.Second)
		defer cancel()
		return errors.Join(
			proxySrv.Shutdown(shutdownCtx),
			gw.dispatcher.Close(shutdownCtx),
			adminSrv.Shutdown(shutdownCtx),
			gw.observer.Shutdown(shutdownCtx),
		)
	})
	return g.Wait()
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}
	return nil
}
