package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/garage-admin/internal/config"
	"github.com/iliyamo/garage-admin/internal/database"
	"github.com/iliyamo/garage-admin/internal/handler"
	"github.com/iliyamo/garage-admin/internal/logging"
	"github.com/iliyamo/garage-admin/internal/middleware"
	"github.com/iliyamo/garage-admin/internal/queue"
	"github.com/iliyamo/garage-admin/internal/repository"
	"github.com/iliyamo/garage-admin/internal/router"
	"github.com/iliyamo/garage-admin/internal/service"
	"github.com/iliyamo/garage-admin/internal/utils"
	"github.com/iliyamo/garage-admin/internal/validation"
)

func main() {
	if err := config.LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("env file")
	}
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.IsDev())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	roleSet, err := roles.ResolveRoleSet(ctx, cfg.AdminRoleName, cfg.DefaultRoleName)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve roles")
	}

	tokens, err := utils.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	var rdb *redis.Client
	if rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting and caching disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var events handler.EventSink
	if ecfg := config.LoadEventsConfig(); ecfg.Enabled {
		pub := service.NewEventPublisher(ecfg.URL, 256, log)
		go pub.Run(ctx)
		go func() {
			if err := queue.StartUserEventConsumer(ctx, ecfg.URL, ecfg.LogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("user event consumer stopped")
			}
		}()
		events = pub
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.Use(echomw.RequestID())
	e.Use(logging.Attach(log))
	e.Use(logging.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(router.CORS(cfg.CORSOrigins))

	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.API{
		Auth: &handler.AuthHandler{
			Users:        users,
			Roles:        roles,
			Tokens:       tokens,
			RoleSet:      roleSet,
			BcryptCost:   cfg.BcryptCost,
			Cookie:       cfg.SessionCookie,
			SecureCookie: !cfg.IsDev(),
			Timeout:      cfg.StoreTimeout,
			Events:       events,
		},
		Users: &handler.UserHandler{Users: users, Timeout: cfg.StoreTimeout, Events: events},
		Roles: &handler.RoleHandler{Roles: roles, Timeout: cfg.StoreTimeout},
		Access: &middleware.AccessControl{
			Tokens:  tokens,
			Users:   users,
			Roles:   roleSet,
			Cookie:  cfg.SessionCookie,
			Timeout: cfg.StoreTimeout,
		},
		Limiter: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:   middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})
	if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
		router.RegisterStatic(e, cfg.StaticDir)
	} else {
		log.Info().Str("dir", cfg.StaticDir).Msg("static directory not found, front end not served")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
