package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/audit"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/config"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/database"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/handler"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/jobs"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/middleware"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/ratelimit"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/redis"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/repository"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/service"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/signature"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/token"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	loginPolicy := ratelimit.Policy{Window: cfg.LoginWindow(), MaxAttempts: cfg.LoginMaxAttempts}
	refreshPolicy := ratelimit.Policy{Window: cfg.RefreshWindow(), MaxAttempts: cfg.RefreshMaxAttempts}
	apiPolicy := ratelimit.Policy{Window: cfg.APIWindow(), MaxAttempts: cfg.APIMaxRequests}

	var loginLimiter, refreshLimiter, apiLimiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected, using shared rate limit state")

		loginLimiter = ratelimit.NewRedis(redisClient.Client, loginPolicy)
		refreshLimiter = ratelimit.NewRedis(redisClient.Client, refreshPolicy)
		apiLimiter = ratelimit.NewRedis(redisClient.Client, apiPolicy)
	} else {
		log.Info().Msg("redis not configured, using in-process rate limit state")
		loginLimiter = ratelimit.NewMemory(loginPolicy)
		refreshLimiter = ratelimit.NewMemory(refreshPolicy)
		apiLimiter = ratelimit.NewMemory(apiPolicy)
	}

	adminRepo := repository.NewAdminRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	activityRepo := repository.NewActivityRepository(db.DB)

	tokenManager, err := token.NewManager(
		cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience,
		cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token manager")
	}

	recorder := audit.NewRecorder(activityRepo)

	authService := service.NewAuthService(
		adminRepo, sessionRepo, tokenManager, recorder,
		loginLimiter, refreshLimiter, cfg.RefreshTokenTTL(),
	)
	adminService := service.NewAdminService(adminRepo, sessionRepo, activityRepo, recorder, cfg.BcryptCost)

	if err := seedAdmin(context.Background(), cfg, adminRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	apiKeys, err := cfg.APIKeys()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SERVICE_API_KEYS")
	}
	verifier := signature.NewVerifier(cfg.ServiceHMACSecret, apiKeys, cfg.HMACTolerance())

	authMiddleware := middleware.NewAuthMiddleware(tokenManager, sessionRepo, adminRepo)
	signatureMiddleware := middleware.NewSignatureMiddleware(verifier)
	apiRateLimitMiddleware := middleware.NewRateLimitMiddleware(apiLimiter, apiPolicy, "api")

	isProduction := os.Getenv("ENVIRONMENT") == "production"
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, adminService, authMiddleware.Handler)
	adminHandler := handler.NewAdminHandler(adminService, authMiddleware.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", signature.HeaderSignature, signature.HeaderTimestamp, signature.HeaderAPIKey},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(signatureMiddleware.Handler)
		r.Use(apiRateLimitMiddleware.Handler)

		r.Route("/admin", func(r chi.Router) {
			r.Mount("/auth", authHandler.Routes())
			r.Mount("/admins", adminHandler.Routes())
			r.Mount("/activity", adminHandler.ActivityRoutes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, activityRepo, config.CleanupJobInterval, cfg.ActivityRetention())
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// seedAdmin bootstraps the first super admin when the table is empty. The
// password arrives pre-hashed so the plaintext never touches the environment.
func seedAdmin(ctx context.Context, cfg *config.Config, admins repository.AdminRepository) error {
	if cfg.SeedAdminUsername == "" || cfg.SeedAdminEmail == "" || cfg.SeedAdminPasswordHash == "" {
		return nil
	}

	count, err := admins.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	created, err := admins.Create(ctx, model.CreateAdminParams{
		ID:           util.NewID(),
		Username:     cfg.SeedAdminUsername,
		Email:        cfg.SeedAdminEmail,
		PasswordHash: cfg.SeedAdminPasswordHash,
		Role:         model.RoleSuperAdmin,
		IsSuperAdmin: true,
	})
	if err != nil {
		return err
	}

	log.Info().Str("username", created.Username).Msg("seeded initial super admin")
	return nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
