package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cocktailLogAPI/handlers"
	"cocktailLogAPI/internal/badge"
	"cocktailLogAPI/internal/config"
	"cocktailLogAPI/internal/storage"
	"cocktailLogAPI/middleware"
	"cocktailLogAPI/services"

	_ "net/http/pprof"
	_ "time/tzdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	middleware.InitClerk(cfg.ClerkSecretKey)
	middleware.InitPrometheus()
	services.InitPrometheus()

	dbPool, err := connectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	metricsService := services.NewMetricsService(
		services.NewPgMetricsRepository(dbPool),
		newBadgeResolver(cfg),
		services.MetricsOptions{
			Bucket:     cfg.BadgeBucket,
			Thresholds: cfg.BadgeThresholds,
			Location:   cfg.Location,
			Lookback:   cfg.StreakLookback,
		},
	)
	metricsHandler := handlers.NewMetricsHandler(metricsService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Cleanup(ctx)

	r := newRouter(cfg, dbPool, limiter, middleware.RequireAuth(middleware.ClerkVerifier), metricsHandler)

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	port := ":" + cfg.Port
	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func connectDB(dbURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Successfully connected to database")
	return pool, nil
}

// newBadgeResolver uses Firebase Storage for signed URLs when configured and falls
// back to plain public URLs.
func newBadgeResolver(cfg *config.Config) badge.URLResolver {
	if !cfg.SignedBadgeURLs() {
		log.Println("Signed badge URLs not configured, serving public badge URLs")
		return storage.NewPublicResolver(cfg.StoragePublicBaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resolver, err := storage.NewFirebaseResolver(ctx, storage.FirebaseOptions{
		CredentialsFile:    cfg.FirebaseCredentialsFile,
		ServiceAccountJSON: cfg.FirebaseServiceAccountJSON,
		DefaultBucket:      cfg.FirebaseStorageBucket,
		SignedURLTTL:       cfg.BadgeSignedURLTTL,
		PublicBaseURL:      cfg.StoragePublicBaseURL,
	})
	if err != nil {
		log.Printf("Warning: Could not initialize Firebase Storage: %v", err)
		return storage.NewPublicResolver(cfg.StoragePublicBaseURL)
	}

	log.Println("Firebase Storage badge resolver initialized successfully")
	return resolver
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(cfg *config.Config, db pinger, limiter *middleware.RateLimiter, auth mux.MiddlewareFunc, metricsHandler *handlers.MetricsHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(limiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurity(cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "cocktail-log-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(auth)

	protected.HandleFunc("/user/badges", metricsHandler.GetBadges).Methods("GET")
	protected.HandleFunc("/user/badges/highest", metricsHandler.GetHighestBadges).Methods("GET")
	protected.HandleFunc("/user/badges/progress", metricsHandler.GetBadgeProgress).Methods("GET")
	protected.HandleFunc("/user/streak", metricsHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/user/streak/daily", metricsHandler.GetDailyStreak).Methods("GET")
	protected.HandleFunc("/user/streak/weekly", metricsHandler.GetWeeklyStreak).Methods("GET")
	protected.HandleFunc("/user/stats", metricsHandler.GetUserStats).Methods("GET")

	return r
}
