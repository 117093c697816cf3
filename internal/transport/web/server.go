package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/config"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/v1/health"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/v1/stats"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, db, cache health.Pinger, deps stats.Deps) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	statsLog := log.New(logger.Writer(), logger.Prefix()+"[stats] ", logger.Flags())

	healthHandler := &health.Handler{DB: db, Cache: cache, Log: healthLog}
	statsHandler := &stats.Handler{Log: statsLog, Deps: deps}

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(healthHandler, statsHandler, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
