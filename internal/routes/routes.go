package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/cache"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/handlers"
	"github.com/devasol/dlms-backend/internal/middleware"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/eligibility"
	"github.com/devasol/dlms-backend/internal/services/exam"
	"github.com/devasol/dlms-backend/internal/services/license"
	"github.com/devasol/dlms-backend/internal/services/notification"
	"github.com/devasol/dlms-backend/internal/services/payment"
	"github.com/devasol/dlms-backend/internal/services/renewal"
	"github.com/devasol/dlms-backend/internal/services/violation"
)

// RegisterRoutes configures all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, userCache cache.Cache, cfg *config.Config) {
	// Rate limiter: 10 requests per second per IP, 5 auth attempts per minute.
	// The IP leg covers the whole API; the auth leg guards login and renewal
	// submission per source IP and, inside the handlers, per credential.
	rateLimiter := middleware.NewRateLimiter(10, 5, 20, 3)
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	// Services
	notifier := notification.NewNotificationService(db)
	examSvc := exam.NewExamService(db)
	eligibilitySvc := eligibility.NewEligibilityService(db, cfg.License)
	licenseSvc := license.NewLicenseService(db, cfg.License)
	paymentSvc := payment.NewPaymentService(db, eligibilitySvc, licenseSvc, notifier, cfg.License)
	violationSvc := violation.NewViolationService(db, notifier)
	renewalSvc := renewal.NewRenewalService(db, licenseSvc, notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(db, rateLimiter)
	examHandler := handlers.NewExamHandler(examSvc)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc, eligibilitySvc, licenseSvc, cfg.Upload)
	licenseHandler := handlers.NewLicenseHandler(licenseSvc)
	violationHandler := handlers.NewViolationHandler(violationSvc)
	renewalHandler := handlers.NewRenewalHandler(renewalSvc, cfg.Upload, rateLimiter)
	notificationHandler := handlers.NewNotificationHandler(notifier)

	auth := middleware.AuthMiddleware(db, userCache)

	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	examGroup := router.Group("/api/exams")
	examGroup.Use(auth)
	{
		examGroup.POST("/results",
			middleware.RequireRole(models.RoleExaminer, models.RoleAdmin),
			examHandler.SubmitResult)
		examGroup.GET("/results/user/:userId", examHandler.ResultsByUser)
	}

	paymentGroup := router.Group("/api/payments")
	paymentGroup.Use(auth)
	{
		paymentGroup.GET("/eligibility/:userId", paymentHandler.CheckEligibility)
		paymentGroup.POST("/submit", paymentHandler.SubmitPayment)
		paymentGroup.GET("/license/:userId", paymentHandler.GetLicenseByUser)

		adminPayments := paymentGroup.Group("")
		adminPayments.Use(middleware.AdminMiddleware())
		{
			adminPayments.GET("", paymentHandler.ListPendingPayments)
			adminPayments.GET("/:paymentId", paymentHandler.GetPayment)
			adminPayments.PUT("/verify/:paymentId", paymentHandler.VerifyPayment)
			adminPayments.PUT("/reject/:paymentId", paymentHandler.RejectPayment)
		}
	}

	licenseGroup := router.Group("/api/licenses")
	licenseGroup.Use(auth)
	{
		licenseGroup.GET("/number/:number", licenseHandler.GetByNumber)
		licenseGroup.GET("/violations/user/:userId", licenseHandler.ViolationsByUser)
	}

	trafficGroup := router.Group("/api/traffic-police")
	trafficGroup.Use(auth, middleware.RequireRole(models.RoleTrafficPolice, models.RoleAdmin))
	{
		trafficGroup.POST("/violations", violationHandler.RecordViolation)
	}

	renewalGroup := router.Group("/api/renewals")
	{
		// Submission re-authenticates with email + password in the form body,
		// so it is reachable without a bearer token, rate limited like auth.
		renewalGroup.POST("/submit", rateLimiter.AuthRateLimiterMiddleware(), renewalHandler.SubmitRenewal)

		adminRenewals := renewalGroup.Group("/admin")
		adminRenewals.Use(auth, middleware.AdminMiddleware())
		{
			adminRenewals.GET("", renewalHandler.ListRenewals)
			adminRenewals.PUT("/:renewalId/review", renewalHandler.ReviewRenewal)
			adminRenewals.POST("/:renewalId/issue", renewalHandler.IssueRenewal)
		}
	}

	notificationGroup := router.Group("/api/notifications")
	notificationGroup.Use(auth)
	{
		notificationGroup.GET("", notificationHandler.List)
		notificationGroup.PUT("/:id/read", notificationHandler.MarkRead)
	}
}
