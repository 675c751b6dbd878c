package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/config"
	"github.com/pegumax/student-suite-backend/internal/core"
	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/middleware"
)

// Services bundles the core services the routes dispatch to.
type Services struct {
	User        core.UserService
	Entitlement core.EntitlementService
	Generation  core.GenerationService
	Referral    core.ReferralService
	Billing     core.BillingService
	Feedback    core.FeedbackService
	Offer       core.OfferService
}

// SetupRoutes configures all application routes with their handlers and
// middleware. Global middleware (Logging, Recovery, CORS) are applied to the
// router before this function is called, in main.go.
func SetupRoutes(router *gin.Engine, appConfig *config.Config, logger *zap.Logger, services Services) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	userHandler := NewUserHandler(services.User)
	generationHandler := NewGenerationHandler(services.Generation)
	billingHandler := NewBillingHandler(services.Billing, appConfig.ClientURL)
	iapHandler := NewIAPHandler(services.Entitlement, services.Offer)
	referralHandler := NewReferralHandler(services.Referral)
	feedbackHandler := NewFeedbackHandler(services.Feedback)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users")
		{
			// Called after client-side Firebase login/signup to ensure the
			// backend profile exists.
			usersGroup.POST("/initialize", authMW.VerifyToken(), userHandler.InitializeUserProfile)
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentUserProfile)
			usersGroup.DELETE("/me", authMW.VerifyToken(), userHandler.DeleteCurrentUser)
		}

		// Seven named generation routes, one handler. The names match the
		// client's feature tabs.
		aiGroup := apiV1.Group("/ai", authMW.VerifyToken())
		{
			for _, feature := range []string{
				"study-note",
				"flashcards",
				"resume",
				"cover-letter",
				"teacher-response",
				"interviewer-response",
				"interview-feedback",
			} {
				aiGroup.POST("/"+feature, generationHandler.Generate)
			}
		}

		billingGroup := apiV1.Group("/billing")
		{
			billingGroup.POST("/checkout-session", authMW.VerifyToken(), billingHandler.CreateCheckoutSession)
			billingGroup.POST("/portal-session", authMW.VerifyToken(), billingHandler.CreatePortalSession)
			billingGroup.POST("/cancel-subscription", authMW.VerifyToken(), billingHandler.CancelSubscription)

			// Stripe authenticates webhooks via signature, handled by the
			// service. No token middleware here.
			billingGroup.POST("/webhooks/stripe", billingHandler.HandleStripeWebhook)
		}

		iapGroup := apiV1.Group("/iap", authMW.VerifyToken())
		{
			iapGroup.POST("/verify-receipt", iapHandler.VerifyReceipt)
			iapGroup.POST("/promotional-offer", iapHandler.SignPromotionalOffer)
		}

		referralsGroup := apiV1.Group("/referrals")
		{
			// Validation happens pre-signup, so it stays public.
			referralsGroup.POST("/validate", referralHandler.ValidateCode)
			referralsGroup.POST("/redeem", authMW.VerifyToken(), referralHandler.RedeemReferral)
		}

		apiV1.POST("/feedback", authMW.VerifyToken(), feedbackHandler.SubmitFeedback)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1 and /health")
}
