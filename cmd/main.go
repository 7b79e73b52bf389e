package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/droidpad/internal/adapters/device"
	"github.com/okian/droidpad/internal/adapters/http/api"
	"github.com/okian/droidpad/internal/adapters/http/swagger"
	"github.com/okian/droidpad/internal/adapters/http/ws"
	app "github.com/okian/droidpad/internal/app"
	"github.com/okian/droidpad/internal/config"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/okian/droidpad/pkg/metrics"
	"github.com/spf13/pflag"
)

// HTTP server timeout constants. There are no read or write timeouts
// since controller connections stay open for the whole session.
const (
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		// logging may not be initialized yet
		fmt.Fprintln(os.Stderr, "droidpad:", err)
		os.Exit(1)
	}
}

// run loads the configuration, serves controllers until ctx is done and
// then shuts everything down.
func run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("droidpad", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// defaults -> optional file -> env -> flags
	cfg, err := config.Load(ctx, fs)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	metrics.SetEnabled(cfg.MetricsEnabled)

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	wsHandler := newWSHandler(cfg, svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(cfg, svc, wsHandler),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = svc.Stop(ctx)
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	logListening(ctx, log, ln.Addr(), cfg.WSPath)

	go startSystemMetricsUpdater(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
			log.Error(ctx, "http server failed", logger.Error(err))
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http shutdown failed", logger.Error(err))
	}
	if err := wsHandler.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "controller shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service stop failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return runErr
}

// newService builds the service and its device backend from cfg.
func newService(cfg *config.Config) (*app.Service, error) {
	rule, err := cfg.Rule()
	if err != nil {
		return nil, err
	}
	opener, err := device.NewOpener(cfg.Backend,
		device.WithNamePrefix(cfg.DeviceNamePrefix),
		device.WithUinputPath(cfg.UinputPath),
		device.WithVJoyDLL(cfg.VJoyDLL),
		device.WithLogger(logger.Named("device")),
	)
	if err != nil {
		return nil, fmt.Errorf("device backend: %w", err)
	}
	return app.New(
		app.WithLogger(logger.Named("service")),
		app.WithOpener(opener),
		app.WithMaxDevices(cfg.MaxDevices),
		app.WithQueueSize(cfg.QueueSize),
		app.WithThreshold(cfg.DoubleTap()),
		app.WithRule(rule),
	), nil
}

// newWSHandler opens one service session per controller connection.
func newWSHandler(cfg *config.Config, svc *app.Service) *ws.Handler {
	open := ws.OpenerFunc(func(ctx context.Context, remote string) (ws.Stream, error) {
		c, err := svc.OpenSession(ctx, remote)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
	return ws.NewHandler(open,
		ws.WithReadLimit(int64(cfg.ReadLimit)),
		ws.WithLogger(logger.Named("ws")),
	)
}

// newMux registers the management API, its docs and the controller endpoint.
func newMux(cfg *config.Config, svc *app.Service, h *ws.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, cfg.MaxSessionList).Register(mux)
	swagger.Register(mux)
	mux.HandleFunc(cfg.WSPath, api.MetricsMiddleware(h.ServeHTTP, "ws"))
	return mux
}

func logListening(ctx context.Context, log logger.Logger, addr net.Addr, path string) {
	port := 0
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	ip := localIP()
	if ip == "" {
		ip = "local_ip"
	}
	log.Info(ctx, "listening",
		logger.String("addr", addr.String()),
		logger.String("connect", fmt.Sprintf("ws://%s%s", net.JoinHostPort(ip, fmt.Sprint(port)), path)),
	)
}

// localIP returns the first non-loopback IPv4 address, or "".
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.Default().RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
