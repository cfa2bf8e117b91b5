// Package server exposes the layout, lease, slot, and worklog operations
// over HTTP and pushes coalesced change notifications to viewers.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/lease"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/notify"
	"gorm.io/gorm"
)

// Server bundles the shared dependencies of all handlers.
type Server struct {
	db           *gorm.DB
	bus          *notify.Bus
	hub          *notify.Hub
	leaseTimeout time.Duration
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	DB             *gorm.DB
	Port           int
	Out            io.Writer
	DebounceWindow time.Duration
	LeaseTimeout   time.Duration
}

// New creates a Server around its dependencies. The bus feeds the
// coalescer, whose passes broadcast resync messages through the hub.
func New(db *gorm.DB, leaseTimeout time.Duration) *Server {
	if leaseTimeout <= 0 {
		leaseTimeout = lease.DefaultTimeout
	}
	return &Server{
		db:           db,
		bus:          notify.NewBus(),
		hub:          notify.NewHub(),
		leaseTimeout: leaseTimeout,
	}
}

// Bus exposes the mutation bus, for wiring background jobs.
func (s *Server) Bus() *notify.Bus { return s.bus }

// Hub exposes the viewer hub.
func (s *Server) Hub() *notify.Hub { return s.hub }

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api", identityMiddleware(), requireRole("admin", "manager"))
	{
		api.GET("/layout", s.handleGetLayout)

		api.GET("/lease", s.handleLeaseStatus)
		api.POST("/lease/acquire", s.handleLeaseAcquire)
		api.POST("/lease/release", s.handleLeaseRelease)
		api.POST("/lease/renew", s.handleLeaseRenew)

		api.POST("/layout/commit", s.handleCommit)

		api.POST("/slots/swap", s.handleSwap)
		api.POST("/slots/assign", s.handleAssign)
		api.POST("/slots/unassign", s.handleUnassign)

		api.POST("/worklogs/start", s.handleWorklogStart)
		api.POST("/worklogs/stop", s.handleWorklogStop)
		api.GET("/worklogs", s.handleWorklogHistory)

		api.GET("/events", s.handleEvents)
	}
	return router
}

// RunCoalescer consumes the bus and broadcasts debounced resync messages
// until the context is cancelled. Callers run it in a goroutine.
func (s *Server) RunCoalescer(ctx context.Context, window time.Duration) {
	events, cancel := s.bus.Subscribe()
	defer cancel()

	c := notify.NewCoalescer(window, func(_ context.Context, batch []notify.Event) {
		tables := make([]string, 0, len(batch))
		for _, e := range batch {
			tables = append(tables, e.Table)
		}
		s.hub.Broadcast(tables)
	})
	c.Run(ctx, events)
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	s := New(opts.DB, opts.LeaseTimeout)
	defer s.bus.Close()
	defer s.hub.Close()

	go s.RunCoalescer(ctx, opts.DebounceWindow)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Layout service running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// handleEvents promotes the request to a websocket and registers the
// viewer with the hub. The upgrader writes its own error response on a
// failed handshake.
func (s *Server) handleEvents(c *gin.Context) {
	if err := s.hub.Upgrade(c.Writer, c.Request); err != nil {
		log.Printf("server: websocket upgrade: %v", err)
	}
}
