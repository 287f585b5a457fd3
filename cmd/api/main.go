package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/delordemm1/go-otp-chat/internal/cache"
	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/config"
	"github.com/delordemm1/go-otp-chat/internal/database"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/auth"
	"github.com/delordemm1/go-otp-chat/internal/modules/chat"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/notification/templates"
	"github.com/delordemm1/go-otp-chat/internal/server"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/redis/go-redis/v9"
)

// Options for the CLI.
type Options struct {
	Port        int    `help:"Port to listen on, overrides SERVER_PORT" short:"p"`
	TemplateDir string `help:"Load notification templates from this directory instead of the embedded set"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		// Use a structured logger
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg, err := config.Load()
		if err != nil {
			logger.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		ctx := context.Background()
		var stops []func()
		stop := func() {
			for i := len(stops) - 1; i >= 0; i-- {
				stops[i]()
			}
		}

		// --- Database & Cache ---
		var rdb *redis.Client
		redisClient := func() *redis.Client {
			if rdb != nil {
				return rdb
			}
			rdb, err = cache.NewRedisClient(ctx, cfg.Redis.URL)
			if err != nil {
				logger.Error("failed to connect to redis", "error", err)
				os.Exit(1)
			}
			stops = append(stops, func() { _ = rdb.Close() })
			logger.Info("successfully connected to redis")
			return rdb
		}

		// --- Notifications ---
		engine := templates.NewEngine(templates.Config{Dir: options.TemplateDir, Reload: cfg.IsDevelopment() && options.TemplateDir != ""}, logger)
		email := notification.NewSMTPEmailSender(notification.SMTPOptions{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger)
		dispatcher := notification.NewService(logger, engine, email, notification.NewLogSMSSender(logger))
		stops = append(stops, dispatcher.Wait)

		// --- Module Initialization (Bottom-Up) ---

		// User Module
		var userRepo user.Repository
		switch cfg.Storage.Users {
		case "postgres":
			pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, database.PoolOptions{MaxRetries: 5, RetryDelay: 2 * time.Second})
			if err != nil {
				logger.Error("failed to connect to postgres", "error", err)
				os.Exit(1)
			}
			stops = append(stops, pool.Close)
			logger.Info("successfully connected to postgres database")
			if err := database.MigrateUp(ctx, pool); err != nil {
				logger.Error("failed to apply migrations", "error", err)
				os.Exit(1)
			}
			userRepo = user.NewRepository(pool)
		default:
			userRepo = user.WithLatency(user.NewMemoryRepository(), user.Latency{
				Exists: cfg.Mock.ExistsDelay,
				Create: cfg.Mock.CreateDelay,
				Find:   cfg.Mock.ExistsDelay,
			})
		}
		userService := user.NewService(&user.Config{
			Repo:         userRepo,
			Logger:       logger,
			Notification: dispatcher,
			Config:       cfg,
		})

		// OTP Module
		ledgerOpts := otp.Options{TTL: cfg.OTP.TTL, MaxAttempts: cfg.OTP.MaxAttempts}
		var ledger otp.Ledger
		switch cfg.Storage.OTP {
		case "redis":
			ledger = otp.NewRedisLedger(redisClient(), ledgerOpts)
		default:
			ledger = otp.WithLatency(otp.NewMemoryLedger(ledgerOpts), otp.Latency{
				Send:   cfg.Mock.SendDelay,
				Verify: cfg.Mock.VerifyDelay,
			})
		}
		otpService := otp.NewService(&otp.Config{
			Ledger:       ledger,
			Notification: dispatcher,
			Logger:       logger,
			AppName:      cfg.Server.AppName,
			TTL:          cfg.OTP.TTL,
		})

		// Country Module
		countries := country.WithCache(
			country.WithFallback(country.NewHTTPProvider(cfg.Countries.URL, cfg.Countries.Timeout), country.DefaultStatic),
			time.Hour, clock.Real{})

		// Sessions
		var store kv.Store
		switch cfg.Storage.Sessions {
		case "redis":
			store = kv.NewRedis(redisClient(), cfg.Server.AppName+":", 30*24*time.Hour)
		case "file":
			f, err := kv.NewFile(cfg.Storage.FilePath)
			if err != nil {
				logger.Error("failed to open session file", "path", cfg.Storage.FilePath, "error", err)
				os.Exit(1)
			}
			store = f
		default:
			store = kv.NewMemory()
		}
		sessions := session.NewManager(store, logger)
		tokens := session.NewTokens(cfg.JWTSecret, 24*time.Hour, clock.Real{})

		// Auth Flows
		flows := auth.NewRegistry(auth.RegistryConfig{
			Deps: auth.Deps{
				Users:          userService,
				OTP:            otpService,
				Countries:      countries,
				Logger:         logger,
				ResendCooldown: cfg.OTP.ResendCooldown,
				ExposeCodes:    cfg.OTP.ExposeCodes || cfg.IsDevelopment(),
			},
			Sessions: sessions,
		})
		stops = append(stops, flows.Close)

		// Chat Module
		history := chat.NewMockHistory(clock.Real{}, cfg.Mock.HistoryDelay)

		router := server.New(server.Deps{
			Config:    cfg,
			Logger:    logger,
			Users:     userService,
			OTP:       otpService,
			Countries: countries,
			Flows:     flows,
			Sessions:  sessions,
			Tokens:    tokens,
			Rooms:     chat.NewDirectories(clock.Real{}),
			History:   history,
		})

		port := options.Port
		if port == 0 {
			port, err = strconv.Atoi(cfg.Server.Port)
			if err != nil {
				logger.Error("invalid SERVER_PORT", "port", cfg.Server.Port, "error", err)
				os.Exit(1)
			}
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %d...", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Server failed to start", "error", err)
				stop()
				os.Exit(1)
			}
		})
		hooks.OnStop(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed", "error", err)
			}
			stop()
		})
	})
	cli.Run()
}
