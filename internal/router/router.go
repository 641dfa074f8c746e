// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/handlers"
	"github.com/pmdq/biodiversity-backend/internal/middleware"
	"github.com/pmdq/biodiversity-backend/internal/services"
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.I18n(cfg))
	r.Use(middleware.RateLimit(10, 20))
	r.Use(middleware.AuditLog(db))

	// Services
	notificationService := services.NewNotificationService(db, cfg)
	storageService := services.NewStorageService(cfg)
	authService := services.NewAuthService(db, cfg)
	signatureService := services.NewSignatureService(db)
	applicationService := services.NewApplicationService(db, notificationService, storageService, cfg)
	paymentService := services.NewPaymentService(db, notificationService, cfg)
	inspectionService := services.NewInspectionService(db, paymentService, signatureService, storageService, notificationService, cfg)
	issuanceService := services.NewIssuanceService(db, paymentService, inspectionService, applicationService, notificationService, cfg)
	permitService := services.NewPermitService(db, signatureService, notificationService, cfg)
	adminService := services.NewAdminService(db, storageService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	inspectionHandler := handlers.NewInspectionHandler(inspectionService)
	permitHandler := handlers.NewPermitHandler(permitService, issuanceService)
	verificationHandler := handlers.NewVerificationHandler(permitService)
	adminHandler := handlers.NewAdminHandler(adminService, permitService)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		// Public
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(cfg), authHandler.Me)
		}

		v1.GET("/verify/:data", verificationHandler.Verify)

		// Authenticated
		authed := v1.Group("")
		authed.Use(middleware.AuthRequired(cfg))
		{
			authed.GET("/sub-species", applicationHandler.ListSubSpecies)

			applications := authed.Group("/applications")
			{
				applications.POST("", applicationHandler.Create)
				applications.GET("", applicationHandler.List)
				applications.GET("/:id", applicationHandler.Get)
				applications.PATCH("/:id", applicationHandler.Update)
				applications.POST("/:id/transport-entries", applicationHandler.AddTransportEntry)
				applications.DELETE("/:id/transport-entries/:entry_id", applicationHandler.RemoveTransportEntry)
				applications.POST("/:id/collection-entries", applicationHandler.AddCollectionEntry)
				applications.DELETE("/:id/collection-entries/:entry_id", applicationHandler.RemoveCollectionEntry)
				applications.GET("/:id/requirements", applicationHandler.NeededRequirements)
				applications.POST("/:id/requirements/:requirement_id", applicationHandler.UploadRequirement)
				applications.POST("/:id/submit", applicationHandler.Submit)
				applications.POST("/:id/unsubmit", applicationHandler.Unsubmit)
				applications.POST("/:id/accept", middleware.AdminRequired(), applicationHandler.Accept)
				applications.POST("/:id/return", middleware.AdminRequired(), applicationHandler.Return)
			}

			paymentOrders := authed.Group("/payment-orders")
			{
				paymentOrders.POST("", middleware.AdminRequired(), paymentHandler.Create)
				paymentOrders.GET("/:id", paymentHandler.Get)
				paymentOrders.POST("/:id/approve", middleware.AdminRequired(), paymentHandler.Approve)
				paymentOrders.POST("/:id/intent", paymentHandler.CreateIntent)
				paymentOrders.POST("/:id/confirm", paymentHandler.ConfirmOnline)
				paymentOrders.POST("/:id/otc", middleware.AdminRequired(), paymentHandler.RecordOTC)
			}

			inspections := authed.Group("/inspections")
			inspections.Use(middleware.AdminRequired())
			{
				inspections.POST("", inspectionHandler.Schedule)
				inspections.GET("/:id", inspectionHandler.Get)
				inspections.POST("/:id/report", inspectionHandler.AttachReport)
				inspections.POST("/:id/sign", inspectionHandler.Sign)
			}

			permits := authed.Group("/permits")
			{
				permits.GET("", permitHandler.List)
				permits.GET("/:id", permitHandler.Get)
				permits.POST("/issue", middleware.AdminRequired(), permitHandler.Issue)
				permits.POST("/:id/sign", middleware.AdminRequired(), permitHandler.Sign)
				permits.POST("/:id/release", middleware.AdminRequired(), permitHandler.Release)
				permits.POST("/validate", middleware.ValidatorRequired(), permitHandler.Validate)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.AdminRequired())
			{
				admin.GET("/dashboard", adminHandler.Dashboard)
				admin.GET("/notifications", adminHandler.ListNotifications)
				admin.POST("/notifications/:id/read", adminHandler.MarkNotificationRead)
				admin.GET("/audit-logs", adminHandler.ListAuditLogs)
				admin.POST("/users/:id/signing-identity", adminHandler.SetSigningIdentity)
				admin.PATCH("/users/:id/signatory-roles", adminHandler.SetSignatoryRoles)
				admin.POST("/permits/expire-due", adminHandler.RunExpirySweep)
			}
		}
	}

	return r
}
