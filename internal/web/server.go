// Package web provides the keepalive status server. Hosting platforms ping it
// to keep the process alive; it exposes uptime and monitor health, nothing
// else.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stock-sentry/internal/monitor"
)

// TrackerInfo is the slice of the tracking store the server reads.
type TrackerInfo interface {
	Count() int
}

// MonitorInfo is the slice of the monitor the server reads.
type MonitorInfo interface {
	LastCycle() monitor.CycleStats
	Cycles() int64
}

// Server serves the status endpoints.
type Server struct {
	engine    *gin.Engine
	srv       *http.Server
	tracker   TrackerInfo
	monitor   MonitorInfo
	logger    zerolog.Logger
	startedAt time.Time
}

// New creates a status server.
func New(tracker TrackerInfo, mon MonitorInfo, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		tracker:   tracker,
		monitor:   mon,
		logger:    logger.With().Str("component", "web").Logger(),
		startedAt: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ping", s.handlePing)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "stock-sentry",
		"status":  "online",
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status": "healthy",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	}
	if s.tracker != nil {
		resp["tracked_symbols"] = s.tracker.Count()
	}
	if s.monitor != nil {
		last := s.monitor.LastCycle()
		resp["cycles_completed"] = s.monitor.Cycles()
		if !last.FinishedAt.IsZero() {
			resp["last_cycle"] = gin.H{
				"finished_at": last.FinishedAt.Format(time.RFC3339),
				"symbols":     last.Symbols,
				"alerts":      last.Alerts,
				"skipped":     last.Skipped,
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, host string, port int) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Status server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
