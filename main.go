package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/cpacia/tab-server/tabroom"
)

type Server struct {
	engine           *tabroom.Client
	r                chi.Router
	log              *zap.Logger
	validate         *validator.Validate
	loginRateLimiter *limiter.Limiter
	cookieName       string
	debugPreview     bool
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("Config errored: %v", err)
	}
	logger, err := newLogger(cfg.LogLevel, opts.Dev)
	if err != nil {
		log.Fatalf("Logger errored: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal("server setup", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Ballots may walk several upstream pages.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("upstream", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newServer(cfg *Config, logger *zap.Logger) (*Server, error) {
	engine, err := tabroom.New(tabroom.Config{
		BaseURL:        cfg.BaseURL,
		CookieName:     cfg.CookieName,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.HTTPTimeout,
		CatalogURL:     cfg.CatalogURL,
		CatalogTimeout: cfg.CatalogTimeout,
		Logger:         logger.Named("tabroom"),
	})
	if err != nil {
		return nil, err
	}
	rate, err := limiter.NewRateFromFormatted(cfg.LoginRate)
	if err != nil {
		return nil, err
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = tabroom.DefaultCookieName
	}

	s := &Server{
		engine:           engine,
		log:              logger,
		validate:         validator.New(),
		loginRateLimiter: limiter.New(memory.NewStore(), rate),
		cookieName:       cookieName,
		debugPreview:     cfg.DebugPreview,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.GETHealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.POSTLoginHandler)
		r.Post("/my-tournaments", s.POSTMyTournamentsHandler)
		r.Post("/entries", s.POSTEntriesHandler)
		r.Post("/upcoming", s.POSTUpcomingHandler)
		r.Post("/pairings", s.POSTPairingsHandler)
		r.Post("/judge", s.POSTJudgeHandler)
		r.Post("/ballots", s.POSTBallotsHandler)
		r.Post("/my-rounds", s.POSTMyRoundsHandler)
		r.Post("/past-results", s.POSTPastResultsHandler)
	})

	s.r = r
	return s, nil
}
