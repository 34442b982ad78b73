// cmd/menza-admin/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"menza-admin/internal/backend"
	"menza-admin/internal/common/config"
	"menza-admin/internal/common/database"
	apperrors "menza-admin/internal/common/errors"
	"menza-admin/internal/common/logger"
	"menza-admin/internal/common/metrics"
	"menza-admin/internal/common/observability"
	"menza-admin/internal/workflows/foods"
	"menza-admin/internal/workflows/menusave"
	"menza-admin/internal/workflows/orders"
)

// app holds everything a subcommand needs. It is built once per invocation.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	client  *backend.Client
	foods   *foods.Service
	menus   *menusave.Service
	orders  *orders.Service
	out     io.Writer
	closers []func()
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml)")
	flag.Usage = help
	flag.Parse()

	if flag.NArg() < 1 {
		help()
		os.Exit(1)
	}
	if flag.Arg(0) == "help" {
		help()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = a.run(ctx, flag.Arg(0), flag.Args()[1:])
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

func newApp(configPath string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() { _ = zapLog.Sync() })

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
		obs = nil
	}
	a.closers = append(a.closers, obs.Shutdown)

	if cfg.Metrics.Enabled {
		a.startMetricsServer(zapLog)
	}

	client, err := backend.NewClient(backend.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.TimeoutDuration(),
		ClientType: cfg.Backend.ClientType,
		Logger:     log,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = client
	a.closers = append(a.closers, client.Close)

	guard, err := a.saveGuard()
	if err != nil {
		a.close()
		return nil, err
	}

	a.foods = foods.NewService(client, log, obs)
	a.orders = orders.NewService(client, log, obs)
	a.menus = menusave.NewService(client, menusave.Options{
		Guard:         guard,
		Logger:        log,
		Observability: obs,
	})

	zapLog.Debug("menza-admin ready",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("saveLock", cfg.SaveLock.Backend),
	)
	return a, nil
}

func (a *app) saveGuard() (menusave.Guard, error) {
	if a.cfg.SaveLock.Backend != config.SaveLockRedis {
		return menusave.NewLocalGuard(), nil
	}

	redis, err := database.NewRedis(a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = redis.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redis.Ping(ctx); err != nil {
		return nil, err
	}
	return menusave.NewRedisGuard(redis, config.GetDuration(a.cfg.SaveLock.TTL), a.log), nil
}

func (a *app) startMetricsServer(zapLog *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLog.Info("metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// close runs the registered closers in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// describe renders an error for the terminal, adding the server's response
// text when there is one.
func describe(err error) string {
	var stale *menusave.StaleFoodError
	if errors.As(err, &stale) {
		return stale.Error() + " (reload the week and pick replacements)"
	}
	if errors.Is(err, menusave.ErrSaveInProgress) {
		return err.Error()
	}

	stdErr, ok := apperrors.AsStandard(err)
	if !ok {
		return err.Error()
	}
	switch {
	case stdErr.Code == apperrors.ErrCodeConflict:
		return "a menu already exists for this week: " + stdErr.Body
	case stdErr.Status != 0:
		return fmt.Sprintf("backend returned %d: %s", stdErr.Status, stdErr.Body)
	default:
		return err.Error()
	}
}

func help() {
	fmt.Println("menza-admin - canteen administration client")
	fmt.Println()
	fmt.Println("Usage: menza-admin [-config path] <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  foods list                         List all foods")
	fmt.Println("  foods get -id N                    Show one food")
	fmt.Println("  foods create -name ... -price N    Create a food (optional -image, -allergens 1,7)")
	fmt.Println("  foods delete -id N                 Delete a food")
	fmt.Println("  allergens                          List allergens used by the catalog")
	fmt.Println("  orders daily [-date YYYY-MM-DD]    Daily order summary (-csv file to export)")
	fmt.Println("  menu show -year Y -week W          Show a weekly menu")
	fmt.Println("  menu save -year Y -week W -set D=a,b,c [-set ...]")
	fmt.Println("                                     Change days of the loaded week and save it")
	fmt.Println("  weeks [-year Y]                    List ISO weeks of a year")
	fmt.Println("  raw -path /v1/...                  GET a backend path and print the body")
}
