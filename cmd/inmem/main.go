// Package main runs the device-trust service without a database, backed by
// JSON file repositories. Useful for:
// - Quick development and testing
// - Demo/prototype environments
// - Learning the API without database setup
//
// Data lives under a temp directory and survives restarts only if DATA_DIR
// is pointed somewhere durable. For production, use cmd/server with
// PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/tendant/chi-demo/app"
	"github.com/trustedge/device-trust/pkg/admin"
	adminapi "github.com/trustedge/device-trust/pkg/admin/api"
	"github.com/trustedge/device-trust/pkg/attempt"
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

const (
	jwtSecret = "inmem-dev-secret-change-in-production"
	issuer    = "device-trust-inmem"

	demoEmail    = "demo@example.com"
	demoPassword = "password123"

	loginRateBurst     = 10
	loginRatePerMinute = 10.0
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting device-trust (file-backed, no database required)")
	slog.Info(strings.Repeat("=", 60))

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = os.TempDir() + "/device-trust-inmem"
	}
	// DEMO_MODE=true logs issued OTP codes instead of requiring SMTP.
	demoMode := os.Getenv("DEMO_MODE") == "true"

	accountRepo, err := login.NewFileRepository(dataDir)
	if err != nil {
		slog.Error("Failed to open account store", "dir", dataDir, "error", err)
		os.Exit(1)
	}
	attemptRepo, err := attempt.NewFileRepository(dataDir)
	if err != nil {
		slog.Error("Failed to open attempt store", "dir", dataDir, "error", err)
		os.Exit(1)
	}
	sessionRepo, err := sessions.NewFileRepository(dataDir)
	if err != nil {
		slog.Error("Failed to open session store", "dir", dataDir, "error", err)
		os.Exit(1)
	}
	otpRepo, err := otp.NewFileRepository(dataDir)
	if err != nil {
		slog.Error("Failed to open challenge store", "dir", dataDir, "error", err)
		os.Exit(1)
	}
	recoveryRepo, err := recovery.NewFileRepository(dataDir)
	if err != nil {
		slog.Error("Failed to open recovery store", "dir", dataDir, "error", err)
		os.Exit(1)
	}

	loginService := login.NewService(accountRepo)
	attemptService := attempt.NewService(attemptRepo)
	sessionService := sessions.NewService(sessionRepo, geo.NewClient())
	trustService := trust.NewService(attemptRepo, sessionRepo)
	otpService := otp.NewService(otpRepo)
	tokenService := token.NewService(jwtSecret, issuer)
	adminService := admin.NewService(attemptService, sessionRepo)
	recoveryService := recovery.NewService(recoveryRepo)
	if err := recoveryService.EnsureDefaultQuestions(context.Background()); err != nil {
		slog.Error("Failed to seed security questions", "error", err)
		os.Exit(1)
	}

	notificationManager := notification.NewManager()
	if demoMode {
		notificationManager.Register(notification.EmailSystem, notification.NewLogNotifier())
	} else {
		notificationManager.Register(notification.EmailSystem, notification.NewMockNotifier())
	}

	flow := loginflow.NewFlow(
		loginService,
		attemptService,
		sessionService,
		trustService,
		otpService,
		tokenService,
		notificationManager,
	)

	seedDemoAccount(loginService)

	server := app.DefaultApp()
	app.RegisterHealthzRoutes(server.R)

	loginLimiter := ratelimit.NewLimiter(loginRateBurst, loginRatePerMinute/60.0, time.Hour)
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

	server.Run()
}

func seedDemoAccount(loginService *login.Service) {
	account, err := loginService.Register(context.Background(), demoEmail, demoPassword, true)
	if err != nil {
		// Already present from a previous run.
		slog.Info("Demo account already seeded", "email", demoEmail)
		return
	}

	slog.Info(strings.Repeat("=", 60))
	slog.Info("Demo account ready")
	slog.Info("  Email:    " + demoEmail)
	slog.Info("  Password: " + demoPassword)
	slog.Info("  MFA:      enabled (codes print to the log in DEMO_MODE=true)")
	slog.Info("  ID:       " + account.ID.String())
	slog.Info(strings.Repeat("=", 60))
}
