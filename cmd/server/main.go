package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/ai"
	"github.com/pegumax/student-suite-backend/internal/api"
	"github.com/pegumax/student-suite-backend/internal/billing"
	"github.com/pegumax/student-suite-backend/internal/config"
	"github.com/pegumax/student-suite-backend/internal/core"
	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/iap"
	"github.com/pegumax/student-suite-backend/internal/mailer"
	"github.com/pegumax/student-suite-backend/internal/middleware"
)

// monthlyReportSchedule fires at 09:00 on the first day of each month, in the
// configured report timezone.
const monthlyReportSchedule = "0 9 1 * *"

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded")

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirebase(initCtx, appConfig); err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth, Storage) initialized")

	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	storageBucket := db.GetStorageBucket()
	if firestoreClient == nil || firebaseAuthClient == nil || storageBucket == nil {
		zapLogger.Fatal("Firebase clients are nil after initialization")
	}

	// Repositories and external adapters.
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	usageRepo := db.NewFirestoreUsageRepository(firestoreClient)
	metadataRepo := db.NewFirestoreMetadataRepository(firestoreClient)
	feedbackRepo := db.NewFirestoreFeedbackRepository(firestoreClient)
	billingJournal := db.NewFirestoreBillingJournal(firestoreClient)
	claimWriter := db.NewFirebaseClaimWriter(firebaseAuthClient)
	imageStore := db.NewBucketProfileImageStore(storageBucket)

	gateway := billing.NewStripeGateway(appConfig.StripeSecretKey, appConfig.StripeWebhookSecret)
	smtpMailer := mailer.NewSMTPMailer(
		appConfig.SMTPHost,
		appConfig.SMTPPort,
		appConfig.SMTPUsername,
		appConfig.SMTPPassword,
		appConfig.SMTPSender,
	)
	appleClient := iap.NewAppleClient(appConfig.AppleSharedSecret)
	googleClient := iap.NewGoogleClient(appConfig.GoogleIAPPackageName, appConfig.GoogleIAPAccessToken)
	backends := ai.Backends(ai.Credentials{
		GoogleAPIKeys: appConfig.GoogleAPIKeys(),
		OpenAIAPIKey:  appConfig.OpenAIAPIKey,
	})
	zapLogger.Info("External adapters initialized", zap.Int("aiBackends", len(backends)))

	// Core services.
	entitlementService := core.NewEntitlementService(userRepo, claimWriter, appleClient, googleClient, zapLogger)
	userService := core.NewUserService(userRepo, metadataRepo, imageStore, gateway, zapLogger)
	generationService := core.NewGenerationService(usageRepo, backends, ai.DefaultPricing(), appConfig.MonthlyCostLimitCents, zapLogger)
	referralService := core.NewReferralService(userRepo)
	billingService := core.NewBillingService(userRepo, billingJournal, gateway, entitlementService, zapLogger)
	reportService := core.NewReportService(userRepo, usageRepo, smtpMailer, appConfig.AdminEmail, zapLogger)
	feedbackService := core.NewFeedbackService(feedbackRepo, smtpMailer, appConfig.AdminEmail, zapLogger)

	var offerService core.OfferService
	if appConfig.ApplePrivateKey != "" {
		offerService, err = core.NewOfferService(
			[]byte(appConfig.ApplePrivateKey),
			appConfig.AppleKeyID,
			appConfig.AppleIssuerID,
			appConfig.AppleBundleID,
		)
		if err != nil {
			zapLogger.Fatal("Failed to initialize offer signing", zap.Error(err))
		}
	} else {
		zapLogger.Warn("APPLE_PRIVATE_KEY not set; promotional offer signing disabled")
	}
	zapLogger.Info("Core services initialized")

	// Monthly report scheduler.
	reportLocation, err := time.LoadLocation(appConfig.ReportTimezone)
	if err != nil {
		zapLogger.Fatal("Invalid REPORT_TIMEZONE", zap.String("timezone", appConfig.ReportTimezone), zap.Error(err))
	}
	scheduler := cron.New(cron.WithLocation(reportLocation))
	if _, err := scheduler.AddFunc(monthlyReportSchedule, func() {
		reportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := reportService.SendMonthlyReport(reportCtx, time.Now().In(reportLocation)); err != nil {
			zapLogger.Error("Monthly report failed", zap.Error(err))
		}
	}); err != nil {
		zapLogger.Fatal("Failed to schedule monthly report", zap.Error(err))
	}
	scheduler.Start()
	zapLogger.Info("Monthly report scheduled",
		zap.String("schedule", monthlyReportSchedule),
		zap.String("timezone", appConfig.ReportTimezone))

	// HTTP engine and middleware.
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(router, appConfig, zapLogger, api.Services{
		User:        userService,
		Entitlement: entitlementService,
		Generation:  generationService,
		Referral:    referralService,
		Billing:     billingService,
		Feedback:    feedbackService,
		Offer:       offerService,
	})

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited gracefully")
}
