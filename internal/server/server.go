package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/middleware"
	"github.com/Zachkp/portfolio/internal/pageview"
	"github.com/Zachkp/portfolio/internal/site"
	"github.com/Zachkp/portfolio/internal/store"
)

const sweepInterval = time.Minute

// Server serves the portfolio page, its HTMX fragments and the admin area.
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	store    *store.Store
	views    *pageview.Registry
	content  site.Content
	logger   *logging.Logger
	validate *validator.Validate
	admin    *adminAuth
}

// New wires the engine. relay receives every contact submission.
func New(cfg *config.Config, st *store.Store, relay contact.Relay) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		content:  site.DefaultContent(),
		logger:   logging.GetLogger(),
		validate: contact.NewValidator(),
	}

	admin, err := newAdminAuth(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	s.admin = admin

	s.views = pageview.NewRegistry(pageview.Options{
		TTL:      cfg.ViewTTL,
		MaxViews: cfg.MaxViews,
		SiteKey:  cfg.SiteKey,
		NewFlow: func() *contact.Flow {
			return contact.NewFlow(relay, contact.Options{
				AccessKey: cfg.AccessKey,
				Subject:   cfg.Subject,
				Timeout:   cfg.SubmitTimeout,
				Validator: s.validate,
			})
		},
		OnReveal: s.recordReveal,
	})

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())
	r.Use(middleware.VisitorTracking(st))
	r.SetHTMLTemplate(tmpl)
	s.engine = r
	s.routes()

	if cfg.AccessKey == "" {
		s.logger.Warn("WEB3FORMS_ACCESS_KEY is not set; contact submissions will be refused")
	}
	if !cfg.IsProduction() && cfg.UsingDefaultAdmin() {
		s.logger.Warn("Using default admin credentials. Set ADMIN_USERNAME and ADMIN_PASSWORD.")
	}

	return s, nil
}

func (s *Server) routes() {
	r := s.engine

	r.Static("/static", "./static")

	r.GET("/", s.home)
	r.GET("/healthz", s.health)
	r.GET("/privacy", s.privacy)

	limit := middleware.RateLimitConfig{RPS: s.cfg.ContactRPS, Burst: s.cfg.ContactBurst}

	htmxLimit := limit
	htmxLimit.OnLimit = s.contactRateLimited
	r.POST("/contact", middleware.RateLimitMiddleware(htmxLimit), s.submitContactForm)
	r.POST("/api/contact", middleware.RateLimitMiddleware(limit), s.submitContactJSON)

	r.POST("/nav/:action", s.navigate)
	r.POST("/reveal", s.reveal)

	s.setupAdminRoutes(r)
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.views.Run(ctx, sweepInterval)
	go s.pruneLoop(ctx)

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on :%s", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.SubmitTimeout+5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// pruneLoop applies the visitor data retention window once a day.
func (s *Server) pruneLoop(ctx context.Context) {
	prune := func() {
		res, err := s.store.Prune(ctx, s.cfg.VisitRetention)
		if err != nil {
			s.logger.Error("Error cleaning up old visitor data: %v", err)
			return
		}
		if res.Total() > 0 {
			s.logger.Info("Privacy cleanup: removed %d visitor, %d submission and %d reveal records",
				res.Visitors, res.Submissions, res.Reveals)
		}
	}

	prune()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func (s *Server) recordReveal(viewID, section string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.RecordReveal(ctx, viewID, section); err != nil {
		s.logger.Error("Error recording reveal: %v", err)
	}
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	db := "ok"
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		db = "unavailable"
	}
	c.JSON(status, gin.H{
		"status":     http.StatusText(status),
		"database":   db,
		"relay":      s.cfg.AccessKey != "",
		"live_views": s.views.Len(),
	})
}
