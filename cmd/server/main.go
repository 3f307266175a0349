// Package main runs the device-trust service against PostgreSQL with SMTP
// delivery for verification codes.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/trustedge/device-trust/pkg/admin"
	adminapi "github.com/trustedge/device-trust/pkg/admin/api"
	"github.com/trustedge/device-trust/pkg/attempt"
	"github.com/trustedge/device-trust/pkg/config"
	"github.com/trustedge/device-trust/pkg/geo"
	"github.com/trustedge/device-trust/pkg/login"
	"github.com/trustedge/device-trust/pkg/loginflow"
	loginflowapi "github.com/trustedge/device-trust/pkg/loginflow/api"
	"github.com/trustedge/device-trust/pkg/notification"
	"github.com/trustedge/device-trust/pkg/otp"
	"github.com/trustedge/device-trust/pkg/ratelimit"
	"github.com/trustedge/device-trust/pkg/recovery"
	recoveryapi "github.com/trustedge/device-trust/pkg/recovery/api"
	"github.com/trustedge/device-trust/pkg/sessions"
	sessionsapi "github.com/trustedge/device-trust/pkg/sessions/api"
	"github.com/trustedge/device-trust/pkg/token"
	"github.com/trustedge/device-trust/pkg/trust"
)

// Config aggregates the environment configuration for the server
type Config struct {
	DatabaseConfig config.DatabaseConfig
	JWTConfig      config.JWTConfig
	EmailConfig    config.EmailConfig
	GeoConfig      config.GeoConfig
	ServerConfig   config.ServerConfig
}

// loadEnvFile loads environment variables from a .env file if one exists
// next to the working directory. Variables already set win.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	envFile := filepath.Join(cwd, ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "path", envFile, "error", err)
		return
	}
	slog.Info("Loaded configuration from .env file", "path", envFile)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed creating dbpool",
			"db", cfg.DatabaseConfig.Database,
			"host", cfg.DatabaseConfig.Host,
			"port", cfg.DatabaseConfig.Port,
			"user", cfg.DatabaseConfig.User,
		)
		os.Exit(-1)
	}

	accountRepo := login.NewPostgresRepository(pool)
	attemptRepo := attempt.NewPostgresRepository(pool)
	sessionRepo := sessions.NewPostgresRepository(pool)
	otpRepo := otp.NewPostgresRepository(pool)
	recoveryRepo := recovery.NewPostgresRepository(pool)

	var geoClient *geo.Client
	if cfg.GeoConfig.Enabled {
		if cfg.GeoConfig.PrimaryURL != "" || cfg.GeoConfig.FallbackURL != "" {
			geoClient = geo.NewClient(geo.WithBaseURLs(cfg.GeoConfig.PrimaryURL, cfg.GeoConfig.FallbackURL))
		} else {
			geoClient = geo.NewClient()
		}
	}

	loginService := login.NewService(accountRepo)
	attemptService := attempt.NewService(attemptRepo)
	sessionService := sessions.NewService(sessionRepo, geoClient)
	trustService := trust.NewService(attemptRepo, sessionRepo)
	otpService := otp.NewService(otpRepo)
	tokenService := token.NewService(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer)
	adminService := admin.NewService(attemptService, sessionRepo)
	recoveryService := recovery.NewService(recoveryRepo)

	notificationManager := notification.NewManager()
	emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:     cfg.EmailConfig.Host,
		Port:     int(cfg.EmailConfig.Port),
		Username: cfg.EmailConfig.Username,
		Password: cfg.EmailConfig.Password,
		From:     cfg.EmailConfig.From,
		TLS:      cfg.EmailConfig.TLS,
	})
	if err != nil {
		slog.Error("Failed to initialize email notifier", "error", err)
		os.Exit(-1)
	}
	notificationManager.Register(notification.EmailSystem, emailNotifier)

	flow := loginflow.NewFlow(
		loginService,
		attemptService,
		sessionService,
		trustService,
		otpService,
		tokenService,
		notificationManager,
	)

	server := app.NewApp(app.WithPort(int(cfg.ServerConfig.Port)))
	app.RegisterHealthzRoutes(server.R)

	loginLimiter := ratelimit.NewLimiter(
		cfg.ServerConfig.LoginRateBurst,
		cfg.ServerConfig.LoginRatePerMinute/60.0,
		time.Hour,
	)
	server.R.Group(func(r chi.Router) {
		r.Use(ratelimit.PerIP(loginLimiter))
		loginflowapi.NewHandler(flow).RegisterRoutes(r)
	})

	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenService.Auth()))
		r.Use(jwtauth.Authenticator(tokenService.Auth()))
		r.Route("/sessions", sessionsapi.NewHandler(sessionService).RegisterRoutes)
		r.Route("/recovery", recoveryapi.NewHandler(recoveryService).RegisterRoutes)
		r.Route("/admin", adminapi.NewHandler(adminService).RegisterRoutes)
	})

	slog.Info("device-trust server ready", "port", cfg.ServerConfig.Port)
	server.Run()
}
