// Package main starts the Handwerksprojekt API.
//
// Boot sequence:
//   - load API_* configuration (envconfig) and apply flag overrides
//   - build the application, attach CORS and shared middleware
//   - mount the health route group under /health
//   - serve until SIGINT/SIGTERM, then shut down gracefully
//
// Run:
//
//	go run ./cmd/api -addr :8000
//	go run ./cmd/api -h                      # list environment variables
//	go run ./cmd/api -mint-token ops         # print an operator token for /health/details
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handwerksprojekt/api/cmd/api/handlers"
	"github.com/handwerksprojekt/api/internal/app"
	"github.com/handwerksprojekt/api/internal/config"
	"github.com/handwerksprojekt/api/internal/middleware"
	"github.com/handwerksprojekt/api/internal/repository/pg"
	"github.com/handwerksprojekt/api/internal/service/auth"
	"github.com/handwerksprojekt/api/internal/service/health"
)

// Compile-time check: pg.HealthRepository is a health.Checker with details.
var (
	_ health.Checker   = (*pg.HealthRepository)(nil)
	_ health.Describer = (*pg.HealthRepository)(nil)
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run() error {
	// === Flags ===
	help := flag.Bool("h", false, "print environment variables and exit")
	addr := flag.String("addr", "", "HTTP listen address (overrides API_ADDR)")
	mintToken := flag.String("mint-token", "", "print an operator token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", auth.DefaultTTL, "lifetime of a minted operator token")
	flag.Parse()

	if *help {
		flag.Usage()
		return config.Usage(os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		_ = config.Usage(os.Stderr)
		return fmt.Errorf("config: %w", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	var tokens *auth.TokenService
	if cfg.OperatorSecret != "" {
		tokens, err = auth.NewTokenService([]byte(cfg.OperatorSecret), cfg.Title)
		if err != nil {
			return fmt.Errorf("operator tokens: %w", err)
		}
	}

	if *mintToken != "" {
		if tokens == nil {
			return errors.New("mint-token requires API_OPERATOR_SECRET")
		}
		tok, err := tokens.Issue(*mintToken, *tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok.Value)
		log.Printf("token for %s expires at %s", tok.Subject, tok.ExpiresAt.UTC().Format(time.RFC3339))
		return nil
	}

	// === Dependencies ===
	var checkers []health.Checker
	if cfg.DatabaseURL != "" {
		db, err := pg.NewDB(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to DB: %w", err)
		}
		defer db.Close()
		checkers = append(checkers, pg.NewHealthRepository(db))
		logPool(db)
	} else {
		log.Println("API_DATABASE_URL not set, readiness runs without a database check")
	}

	healthSvc := health.NewService(cfg.Title, cfg.CheckTimeout, checkers...)

	// === Application ===
	application, err := buildApp(cfg, healthSvc, tokens)
	if err != nil {
		return err
	}
	routes, err := application.Routes()
	if err != nil {
		return err
	}
	for _, rt := range routes {
		log.Printf("route %-6s %-20s [%s]", rt.Method, rt.Path, rt.Tag)
	}

	return serve(cfg, application)
}

// buildApp constructs the application in boot order: CORS, shared
// middleware, then route groups.
func buildApp(cfg *config.Config, healthSvc *health.Service, tokens *auth.TokenService) (*app.App, error) {
	a := app.New(cfg.Title)

	if err := a.UseCORS(cfg.CORSPolicy()); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}
	mws := []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		middleware.Logging(log.Default(), cfg.VerboseLog),
		chimw.Recoverer,
	}
	if cfg.Gzip {
		gz, err := middleware.Compress(cfg.GzipMinSize)
		if err != nil {
			return nil, err
		}
		mws = append(mws, gz)
	}
	if err := a.Use(mws...); err != nil {
		return nil, err
	}

	if err := a.Mount("/health", "health", handlers.RegisterHealthRoutes(healthSvc, tokens, cfg.HealthLimiter())); err != nil {
		return nil, fmt.Errorf("mount health: %w", err)
	}
	return a, nil
}

func serve(cfg *config.Config, a *app.App) error {
	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("🚀 %s started on http://%s", a.Title(), l.Addr())
		errc <- server.Serve(l)
	}()

	// === Graceful shutdown ===
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-sigs:
		log.Printf("⏳ Shutting down (%v)...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Printf("✅ %s stopped", a.Title())
	return nil
}

func logPool(db *pgxpool.Pool) {
	cfg := db.Config().ConnConfig
	log.Printf("connected to postgres %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}
