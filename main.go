package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/gluk-w/termmux/internal/config"
	"github.com/gluk-w/termmux/internal/gateway"
	"github.com/gluk-w/termmux/internal/handlers"
	"github.com/gluk-w/termmux/internal/logging"
	"github.com/gluk-w/termmux/internal/terminal"
	"github.com/gluk-w/termmux/internal/tunnel"
)

func main() {
	config.Load()
	logging.Init()

	policy := terminal.DefaultEnvPolicy()
	if config.Cfg.EnvPolicyPath != "" {
		p, err := terminal.LoadEnvPolicy(config.Cfg.EnvPolicyPath)
		if err != nil {
			log.Fatalf("Env policy: %v", err)
		}
		policy = p
	}

	mgr := terminal.NewManager(terminal.Config{
		EnvPolicy:        policy,
		RecordingEnabled: config.Cfg.RecordingEnabled,
	})

	reg := gateway.NewRegistry()

	var bcast gateway.BroadcastStrategy
	switch config.Cfg.BroadcastMode {
	case "direct":
		bcast = gateway.NewDirectBroadcast(reg)
	default:
		bcast = gateway.NewGroupBroadcast()
	}
	log.Printf("Broadcast mode: %s", config.Cfg.BroadcastMode)

	gw := gateway.New(mgr, reg, bcast)
	go gw.Run()

	router := tunnel.NewRouter()
	router.Register(tunnel.ChannelTerminal, tunnel.TerminalHandler(gw))
	router.Register(tunnel.ChannelPing, tunnel.PingHandler())

	// Optional scheduled cleanup of sessions nobody is attached to
	var c *cron.Cron
	if config.Cfg.IdleCleanupSchedule != "" {
		idleTimeout, err := time.ParseDuration(config.Cfg.IdleTimeout)
		if err != nil {
			log.Fatalf("Idle timeout: %v", err)
		}
		c = cron.New()
		if _, err := c.AddFunc(config.Cfg.IdleCleanupSchedule, func() {
			if n := mgr.CleanupIdle(idleTimeout, reg.HasOwners); n > 0 {
				log.Printf("Idle cleanup: closed %d sessions", n)
			}
		}); err != nil {
			log.Fatalf("Idle cleanup schedule: %v", err)
		}
		c.Start()
		log.Printf("Idle cleanup scheduled (%s, timeout %s)", config.Cfg.IdleCleanupSchedule, idleTimeout)
	}

	api := &handlers.API{Mgr: mgr, Reg: reg}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", api.HealthCheck)
	r.Get("/ws", gw.ServeWS)
	r.Get("/tunnel", tunnel.Handler(router))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sessions", api.ListSessions)
		r.Delete("/sessions/{id}", api.CloseSession)
		r.Get("/sessions/{id}/recording", api.GetRecording)
		r.Get("/logs", handlers.GetServerLogs)
		r.Delete("/logs", handlers.ClearServerLogs)
	})

	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", config.Cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	if c != nil {
		c.Stop()
	}
	mgr.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
