package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/auth"
	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/config"
	infraauth "github.com/amirhosseinghanipour/expensa/internal/infrastructure/auth"
	httprouter "github.com/amirhosseinghanipour/expensa/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/security"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if !cfg.Server.Production() {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	ctx := context.Background()

	var registry ports.TenantRegistry
	var dbPinger handlers.Pinger
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("ping database")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		registry = postgres.NewTenantRegistry(pool, cfg.Database.TxTimeout, log)
		dbPinger = pool
	} else {
		if cfg.Server.Production() {
			log.Warn().Msg("DATABASE_URL not set; using in-memory registry, data is lost on restart")
		}
		registry = memory.NewTenantRegistry()
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	var lockoutStore ports.LoginLockoutStore
	var taskEnqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	var healthRedis redis.UniversalClient
	if redisClient != nil {
		healthRedis = redisClient
		lockoutStore = lockout.NewRedisStore(redisClient, cfg.Lockout.MaxAttempts, cfg.Lockout.Cooldown, log)

		asynqOpt, err := asynq.ParseRedisURI(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL for asynq")
		}
		asynqEnq := queue.NewAsynqEnqueuer(asynqOpt, log)
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq

		var emitter ports.WebhookEmitter = webhook.NewLogEmitter(log)
		if cfg.Webhook.URL != "" {
			var opts []webhook.HTTPEmitterOption
			if cfg.Webhook.Secret != "" {
				opts = append(opts, webhook.WithSigningSecret(cfg.Webhook.Secret))
			}
			emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, opts...)
		}
		asynqWorker = queue.NewWorker(asynqOpt, emitter, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		lockoutStore = lockout.NewMemoryStore(cfg.Lockout.MaxAttempts, cfg.Lockout.Cooldown)
		taskEnqueuer = queue.NewNoopEnqueuer()
	}

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})

	key, err := infraauth.NewSigningKey(cfg.Session.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("load session signing key")
	}
	signer, err := infraauth.NewSessionSigner(infraauth.SessionConfig{
		Key:    key,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create session signer")
	}

	signupUC := auth.NewSignUp(registry, hasher, signer, log)
	loginUC := auth.NewLogin(registry, hasher, signer, lockoutStore, log)

	rules := cfg.Gate.Rules()

	ipLimit, err := middleware.NewIPRateLimiter(cfg.Server.RateLimitIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	cookie := middleware.SessionCookie{Secure: cfg.Server.Production()}
	audit := handlers.NewAuditor(log, taskEnqueuer)

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:    handlers.NewAuthHandler(signupUC, loginUC, cookie, audit, log),
		SessionHandler: handlers.NewSessionHandler(registry, rules.LandingPath, log),
		HealthHandler:  handlers.NewHealthHandler(dbPinger, healthRedis),
		Sessions:       middleware.NewSessionLoader(signer, cookie),
		Rules:          rules,
		Log:            log,
		Secure:         middleware.NewSecure(middleware.SecureOptions(!cfg.Server.Production())),
		CORS:           middleware.CORS(cfg.Server.CORSOrigins),
		IPRateLimit:    ipLimit,
		Metrics:        true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
