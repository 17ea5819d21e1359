package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/api/handlers"
	"github.com/sarkuru13/homestay/internal/api/middleware"
	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	userService := services.NewUserService(db, cfg)
	vendorService := services.NewVendorService(db, cfg)
	accommodationService := services.NewAccommodationService(db, cfg, rdb)
	bookingService := services.NewBookingService(db, cfg)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(cfg, userService)
	accommodationHandler := handlers.NewRestAccommodationHandler(accommodationService, s3StorageService)
	bookingHandler := handlers.NewRestBookingHandler(bookingService, s3StorageService)
	vendorHandler := handlers.NewRestVendorHandler(cfg, vendorService, accommodationService, s3StorageService, taskClient)
	adminHandler := handlers.NewAdminHandler(cfg, vendorService, accommodationService, bookingService, taskClient)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.GET("/accommodation/search", accommodationHandler.SearchAccommodations)
		v1.GET("/accommodation/:id", accommodationHandler.GetAccommodationByID)
		v1.POST("/booking", bookingHandler.CreateBooking)
		v1.GET("/booking/:reference", bookingHandler.GetBookingByReference)

		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Vendor routes
		vendorRequired := v1.Group("/vendor")
		vendorRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			vendorRequired.POST("", vendorHandler.RegisterVendor)
			vendorRequired.GET("/me", vendorHandler.GetMe)
			vendorRequired.GET("/me/accommodations", vendorHandler.ListMyAccommodations)
			vendorRequired.POST("/accommodation", vendorHandler.CreateAccommodation)
			vendorRequired.PATCH("/accommodation/:id", vendorHandler.UpdateAccommodation)
			vendorRequired.DELETE("/accommodation/:id", vendorHandler.DeleteAccommodation)
			vendorRequired.POST("/accommodation/:id/image/presign", vendorHandler.PresignImageUpload)
			vendorRequired.POST("/accommodation/:id/image/attach", vendorHandler.AttachImage)
			vendorRequired.DELETE("/accommodation/:id/image", vendorHandler.RemoveImage)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.GET("/vendors", adminHandler.ListVendors)
			adminRequired.PUT("/vendor/:id/status", adminHandler.UpdateVendorStatus)
			adminRequired.GET("/accommodations", adminHandler.ListAccommodations)
			adminRequired.PUT("/accommodation/:id/verify", adminHandler.VerifyAccommodation)
			adminRequired.POST("/accommodation", adminHandler.CreateAccommodation)
			adminRequired.DELETE("/accommodation/:id", adminHandler.DeleteAccommodation)
			adminRequired.GET("/bookings", adminHandler.ListBookings)
			adminRequired.PUT("/booking/:id/status", adminHandler.UpdateBookingStatus)
		}
	}

	return r
}
