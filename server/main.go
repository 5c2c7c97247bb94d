package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/time/rate"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/publisher"
	"github.com/zhaobenny/babylog/server/internal/auth"
	"github.com/zhaobenny/babylog/server/internal/handlers"
	"github.com/zhaobenny/babylog/server/internal/middleware"
	"github.com/zhaobenny/babylog/server/internal/store"
	"github.com/zhaobenny/babylog/server/internal/templates"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration from environment
	port := getEnv("PORT", "8080")
	usersPath := getEnv("BABYLOG_USERS", "./users.yaml")
	publishDelay, err := time.ParseDuration(getEnv("BABYLOG_PUBLISH_DELAY", "30s"))
	if err != nil {
		log.Fatalf("Invalid BABYLOG_PUBLISH_DELAY: %v", err)
	}

	users, err := store.LoadUsers(usersPath)
	if err != nil {
		log.Fatalf("Failed to load users: %v", err)
	}
	st, err := store.New(users)
	if err != nil {
		log.Fatalf("Invalid users file: %v", err)
	}

	// Sessions live in scs' in-memory store; a restart logs everyone out
	sessionMgr := scs.New()
	sessionMgr.Lifetime = 7 * 24 * time.Hour
	sessionMgr.Cookie.Secure = os.Getenv("BABYLOG_SECURE_COOKIE") == "true"
	sessionMgr.Cookie.SameSite = http.SameSiteLaxMode

	tmpl, err := templates.Parse()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	var debouncer *handlers.PublishDebouncer
	if broker := os.Getenv("BABYLOG_MQTT_BROKER"); broker != "" {
		pub, err := publisher.New(publisher.Config{
			Enabled:     true,
			Broker:      broker,
			Username:    os.Getenv("BABYLOG_MQTT_USERNAME"),
			Password:    os.Getenv("BABYLOG_MQTT_PASSWORD"),
			TopicPrefix: getEnv("BABYLOG_MQTT_PREFIX", "babylog"),
			Retain:      true,
		})
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		defer pub.Close()

		debouncer = handlers.NewPublishDebouncer(func(username string, r aggregator.Report) error {
			n, err := pub.Under(username).PublishReport(r, false)
			if err == nil {
				log.Printf("[publish] %s: %d day(s)", username, n)
			}
			return err
		}, publishDelay)
		log.Printf("Publishing summaries to %s", broker)
	}

	h := handlers.New(st, sessionMgr, tmpl, debouncer)
	authMiddleware := auth.NewMiddleware(st, sessionMgr)

	// 5 login attempts per minute, 2 API requests per second per IP
	loginLimiter := middleware.NewIPRateLimiter(rate.Every(12*time.Second), 5)
	apiLimiter := middleware.NewIPRateLimiter(2, 10)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("/", h.Index)
	mux.Handle("/login", loginLimiter.LimitFunc(h.Login))
	mux.HandleFunc("/health", h.Health)

	// Protected routes (session-based)
	mux.Handle("/logout", authMiddleware.RequireAuth(http.HandlerFunc(h.Logout)))
	mux.Handle("/partial/daily-table", authMiddleware.RequireAuth(http.HandlerFunc(h.PartialDailyTable)))

	// API routes (API key-based)
	mux.Handle("/api/sync", apiLimiter.Limit(authMiddleware.RequireAPIKey(http.HandlerFunc(h.APISync))))
	mux.Handle("/api/sync/status", apiLimiter.Limit(authMiddleware.RequireAPIKey(http.HandlerFunc(h.APISyncStatus))))
	mux.Handle("/api/summary", apiLimiter.Limit(authMiddleware.RequireAPIKey(http.HandlerFunc(h.APISummary))))

	handler := middleware.RequestID(middleware.Logger(middleware.SecurityHeaders(sessionMgr.LoadAndSave(mux))))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepLimiters(ctx, loginLimiter, apiLimiter)

	go func() {
		log.Printf("Starting babylog-server on %s", srv.Addr)
		log.Printf("Users: %s (%d accounts)", usersPath, st.UserCount())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

// sweepLimiters drops rate limiter state for idle IPs
func sweepLimiters(ctx context.Context, limiters ...*middleware.IPRateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Sweep(30 * time.Minute)
			}
		}
	}
}

// hashPassword prints a users file entry for the given username and password
func hashPassword(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: babylog-server hash-password <username> <password>")
	}
	if len(args[1]) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(args[1])
	if err != nil {
		return err
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return err
	}

	fmt.Printf("  - username: %s\n    password_hash: %q\n    api_key: %s\n", args[0], hash, apiKey)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
