package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BotStatus is the view of the chat session the health endpoints report
type BotStatus interface {
	Connected() bool
	GuildCount() int
}

// Options configures the health server
type Options struct {
	Port             int
	NocoDBConfigured bool
	// PendingOffers reports how many role offers are awaiting an answer
	PendingOffers func() int
}

// Server is the HTTP status surface used by uptime monitors
type Server struct {
	bot       BotStatus
	opts      Options
	router    *gin.Engine
	http      *http.Server
	startedAt time.Time
	now       func() time.Time
}

// NewServer builds the router. Call Start to begin listening.
func NewServer(bot BotStatus, opts Options) *Server {
	if opts.PendingOffers == nil {
		opts.PendingOffers = func() int { return 0 }
	}

	s := &Server{
		bot:       bot,
		opts:      opts,
		router:    gin.New(),
		startedAt: time.Now(),
		now:       time.Now,
	}

	r := s.router
	r.Use(gin.Recovery())
	r.Use(loggingMiddleware())

	r.GET("/", s.status)
	r.GET("/health", s.health)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background until Shutdown
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.http.Addr).Info("Health server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Health server stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) status(c *gin.Context) {
	now := s.now()
	c.JSON(http.StatusOK, gin.H{
		"status":         "Bump Bot is running!",
		"uptime":         s.uptimeSeconds(now),
		"timestamp":      now.UTC().Format(time.RFC3339),
		"bot_status":     s.botState(),
		"memory_usage":   heapUsage(),
		"pending_offers": s.opts.PendingOffers(),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"bot":               s.botState(),
		"guilds":            s.bot.GuildCount(),
		"nocodb_configured": s.opts.NocoDBConfigured,
		"uptime":            s.uptimeSeconds(s.now()),
	})
}

func (s *Server) botState() string {
	if s.bot.Connected() {
		return "connected"
	}
	return "disconnected"
}

func (s *Server) uptimeSeconds(now time.Time) int64 {
	return int64(now.Sub(s.startedAt) / time.Second)
}

func heapUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("%dMB", m.HeapAlloc/1024/1024)
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Debug("http_request")
	}
}
