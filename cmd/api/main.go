package main

import (
	"log"
	"os"
	"time"

	"github.com/aeroclubnz/aeroclub-backend/internal/database"
	"github.com/aeroclubnz/aeroclub-backend/internal/handlers"
	"github.com/aeroclubnz/aeroclub-backend/internal/middleware"
	"github.com/aeroclubnz/aeroclub-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Firebase is optional - push notifications are skipped if unconfigured
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	hub := services.NewHub()
	go hub.Run()

	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Member documents served from local storage when S3 is not configured
	r.Static("/uploads", os.Getenv("UPLOAD_DIR"))

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection for the flight board
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			staffOnly := middleware.RequireRole("ADMIN", "STAFF")

			members := protected.Group("/members")
			{
				members.GET("", handlers.GetMembers(db))
				members.GET("/:id", handlers.GetMember(db))
				members.POST("", staffOnly, handlers.CreateMember(db))
				members.GET("/:id/balance", handlers.GetMemberBalance(db))
				members.GET("/:id/invoices", handlers.GetMemberInvoices(db))
				members.POST("/:id/documents", staffOnly, handlers.UploadMemberDocument(db))
			}

			aircraft := protected.Group("/aircraft")
			{
				aircraft.GET("", handlers.GetAircraft(db))
				aircraft.GET("/:id/rates", handlers.GetAircraftRates(db))
				aircraft.GET("/:id/techlog", handlers.GetAircraftTechLog(db))
				aircraft.POST("/:id/techlog", staffOnly, handlers.CreateTechLogEntry(db))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.GET("", handlers.GetBookings(db))
				bookings.POST("", handlers.CreateBooking(db))
				bookings.GET("/:id", handlers.GetBooking(db))
				bookings.POST("/:id/check-out", handlers.CheckOutBooking(db, hub))
				bookings.POST("/:id/calculate", handlers.CalculateFlightCharges(db))
				bookings.POST("/:id/check-in", handlers.CheckInBooking(db, hub))
			}

			chargeables := protected.Group("/chargeables")
			{
				chargeables.GET("", handlers.GetChargeables(db))
				chargeables.POST("", staffOnly, handlers.CreateChargeable(db))
				chargeables.POST("/ensure-flight-hour", staffOnly, handlers.EnsureFlightHourChargeableHandler(db))
			}

			invoices := protected.Group("/invoices")
			{
				invoices.GET("", handlers.GetInvoices(db))
				invoices.POST("", staffOnly, handlers.CreateInvoice(db))
				invoices.GET("/unpaid-count", handlers.GetUnpaidInvoicesCount(db))
				invoices.GET("/:id", handlers.GetInvoice(db))
				invoices.GET("/:id/payments", handlers.GetInvoicePayments(db))
				invoices.PATCH("/:id/items/:itemId", staffOnly, handlers.UpdateInvoiceItem(db))
				invoices.DELETE("/:id/items/:itemId", staffOnly, handlers.RemoveInvoiceItem(db))
			}

			payments := protected.Group("/payments")
			{
				payments.POST("", staffOnly, handlers.CreatePayment(db))
				payments.GET("/:id/transaction", handlers.GetPaymentTransaction(db))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterDeviceToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveDeviceToken(db))
			}

			protected.GET("/dashboard/stats", handlers.GetDashboardStats(db, hub))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
