package main

import (
	"log"
	"os"

	"estatecrm/internal/auth"
	"estatecrm/internal/database"
	"estatecrm/internal/handlers"
	"estatecrm/internal/metrics"
	"estatecrm/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env if present; in production configuration comes from the platform
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	metrics.MustRegister()

	// Start the reminder sweeps
	worker := services.NewReminderWorker(database.GetDB(), services.NewEmailService())
	if _, err := worker.Start(); err != nil {
		log.Fatal("Failed to start reminder worker:", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = []string{origins}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(metrics.GinMiddleware())

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes (no auth required)
	router.POST("/auth/login", handlers.Login)

	// Agent registration (no auth required)
	router.POST("/agents", handlers.RegisterAgent)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", handlers.Logout)
		protected.GET("/auth/me", handlers.GetCurrentAgent)

		protected.GET("/agents", handlers.ListAgents)
		protected.PATCH("/agents/:agent_id", handlers.UpdateAgent)

		protected.POST("/leads", handlers.CreateLead)
		protected.GET("/leads", handlers.GetLeads)
		protected.GET("/leads/:lead_id", handlers.GetLeadByID)
		protected.PATCH("/leads/:lead_id", handlers.UpdateLead)
		protected.PUT("/leads/:lead_id/stage", handlers.UpdateLeadStage)
		protected.DELETE("/leads/:lead_id", handlers.DeleteLead)

		protected.POST("/contacts", handlers.CreateContact)
		protected.GET("/contacts", handlers.GetContacts)
		protected.PATCH("/contacts/:contact_id", handlers.UpdateContact)
		protected.DELETE("/contacts/:contact_id", handlers.DeleteContact)

		protected.POST("/properties", handlers.CreateProperty)
		protected.GET("/properties", handlers.GetProperties)
		protected.GET("/properties/:property_id", handlers.GetPropertyByID)
		protected.PATCH("/properties/:property_id", handlers.UpdateProperty)
		protected.POST("/properties/:property_id/photos", handlers.UploadPropertyPhoto)
		protected.DELETE("/properties/:property_id", handlers.DeleteProperty)

		protected.POST("/activities", handlers.CreateActivity)
		protected.GET("/activities", handlers.GetActivities)
		protected.PATCH("/activities/:activity_id", handlers.UpdateActivity)
		protected.POST("/activities/:activity_id/complete", handlers.CompleteActivity)
		protected.POST("/activities/:activity_id/cancel", handlers.CancelActivity)

		protected.GET("/commissions", handlers.GetCommissions)
		protected.POST("/commissions/:commission_id/paid", auth.ManagerOnly(), handlers.MarkCommissionPaid)
	}

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
