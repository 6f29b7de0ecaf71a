package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskminder/internal/config"
	"taskminder/internal/database"
	"taskminder/internal/handlers"
	"taskminder/internal/repository"
	"taskminder/internal/security"
	"taskminder/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	grantRepo := repository.NewGrantRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)

	// Initialize email delivery
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if !emailService.IsEnabled() {
		log.Println("WARNING: SES_FROM_EMAIL not set, OTP and reminder emails will be skipped")
	}

	// Initialize services
	tokenIssuer := security.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	otpService := service.NewOtpService(otpRepo, emailService, cfg.OtpTTL, cfg.ResendCooldown)
	authService := service.NewAuthService(userRepo, grantRepo, otpService, tokenIssuer, cfg.ResetGrantTTL)
	taskService := service.NewTaskService(taskRepo)
	scheduler := service.NewReminderScheduler(taskRepo, dispatchRepo, emailService, cfg.ReminderInterval)

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, limiter)
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// Setup routes
	mux := http.NewServeMux()

	// Public auth routes (rate limited)
	mux.HandleFunc("POST /auth/signup", middleware.RateLimit(authHandler.Signup))
	mux.HandleFunc("POST /auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /auth/verify-otp", middleware.RateLimit(authHandler.VerifyOtp))
	mux.HandleFunc("POST /auth/resend-otp", middleware.RateLimit(authHandler.ResendOtp))
	mux.HandleFunc("POST /auth/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /auth/verify-reset-otp", middleware.RateLimit(authHandler.VerifyResetOtp))
	mux.HandleFunc("POST /auth/reset-password", middleware.RateLimit(authHandler.ResetPassword))
	mux.HandleFunc("GET /auth/check-otp-status", middleware.RateLimit(authHandler.CheckOtpStatus))

	// Protected profile routes
	mux.HandleFunc("GET /auth/profile", middleware.RequireAuth(authHandler.GetProfile))
	mux.HandleFunc("PUT /auth/profile", middleware.RequireAuth(authHandler.UpdateProfile))
	mux.HandleFunc("DELETE /auth/profile", middleware.RequireAuth(authHandler.DeleteAccount))

	// Protected task routes
	mux.HandleFunc("POST /tasks", middleware.RequireAuth(taskHandler.CreateTask))
	mux.HandleFunc("GET /tasks", middleware.RequireAuth(taskHandler.ListTasks))
	mux.HandleFunc("GET /tasks/{id}", middleware.RequireAuth(taskHandler.GetTask))
	mux.HandleFunc("PUT /tasks/{id}", middleware.RequireAuth(taskHandler.UpdateTask))
	mux.HandleFunc("DELETE /tasks/{id}", middleware.RequireAuth(taskHandler.DeleteTask))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the reminder scheduler
	go scheduler.Start(ctx)

	// Start background cleanup of expired reset grants
	go cleanupExpiredGrants(ctx, authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredGrants periodically removes expired password-reset grants
func cleanupExpiredGrants(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredGrants(); err != nil {
				log.Printf("Error cleaning up expired reset grants: %v", err)
			}
		}
	}
}
