package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rajchodisetti/quote-gateway/internal/cache"
	"github.com/Rajchodisetti/quote-gateway/internal/config"
	"github.com/Rajchodisetti/quote-gateway/internal/gate"
	"github.com/Rajchodisetti/quote-gateway/internal/observ"
	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
	"github.com/Rajchodisetti/quote-gateway/internal/session"
	"github.com/Rajchodisetti/quote-gateway/internal/transport"
	"github.com/Rajchodisetti/quote-gateway/internal/upstream"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config file (omit to use env and defaults)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		observ.Log("config_load_failed", map[string]any{"path": cfgPath, "error": err.Error()})
		return
	}
	if cfg.Gate.Secret == "" {
		observ.Log("gate_secret_missing", map[string]any{
			"hint": "set gate.secret or GATE_SECRET; all requests will be rejected",
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var client upstream.Client
	if cfg.Upstream.Simulation {
		client = upstream.NewSimClient()
	} else {
		client = upstream.NewHTTPClient(upstream.HTTPConfig{
			BaseURL:            cfg.Upstream.BaseURL,
			TimeoutSeconds:     cfg.Upstream.TimeoutSeconds,
			RateLimitPerMinute: cfg.Upstream.RateLimitPerMinute,
			MaxRetries:         cfg.Upstream.MaxRetries,
			BackoffBaseMs:      cfg.Upstream.BackoffBaseMs,
		})
	}

	manager := session.NewManager(client, session.Config{
		APIKey:            cfg.Upstream.APIKey,
		SecretKey:         cfg.Upstream.SecretKey,
		MaxRetries:        cfg.Upstream.LoginMaxRetries,
		RetryInterval:     time.Duration(cfg.Upstream.LoginRetryIntervalSeconds) * time.Second,
		PrefetchContracts: cfg.Upstream.PrefetchContracts,
	})

	// Initial login is best-effort; a degraded start still serves /healthz
	// and recovers through keep-alive.
	manager.Login(ctx)

	loc, err := time.LoadLocation(cfg.Upstream.MarketTimezone)
	if err != nil {
		observ.Log("timezone_load_failed", map[string]any{
			"tz": cfg.Upstream.MarketTimezone, "error": err.Error(),
		})
		loc = time.Local
	}
	go manager.RunKeepAlive(ctx, time.Duration(cfg.Upstream.KeepaliveIntervalSeconds)*time.Second)
	go manager.RunDailyRelogin(ctx, cfg.Upstream.ReloginHour, loc)

	quoteCache := cache.New(time.Duration(cfg.Cache.TTLMs) * time.Millisecond)
	go quoteCache.RunSweeper(ctx, time.Duration(cfg.Cache.SweepIntervalSeconds)*time.Second)

	admission := gate.New(cfg.Gate.Secret, time.Duration(cfg.Gate.MinIntervalMs)*time.Millisecond)
	service := quotes.NewService(quoteCache, manager)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           transport.NewHandler(admission, service, manager),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutSeconds+5) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		observ.Log("gateway_listening", map[string]any{
			"port":       cfg.Server.Port,
			"simulation": cfg.Upstream.Simulation,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observ.Log("server_failed", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// Best-effort logout with its own short deadline; failures are logged
	// inside the manager, never fatal.
	logoutCtx, cancelLogout := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelLogout()
	manager.Logout(logoutCtx)

	observ.Log("gateway_stopped", nil)
}
