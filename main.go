package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/vyldo/vyldo_backend/config"
	"github.com/vyldo/vyldo_backend/controllers"
	"github.com/vyldo/vyldo_backend/middleware"
	"github.com/vyldo/vyldo_backend/repositories"
	"github.com/vyldo/vyldo_backend/routes"
	"github.com/vyldo/vyldo_backend/services"
	"github.com/vyldo/vyldo_backend/utils"
	"github.com/vyldo/vyldo_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional, lock fallback is in-process)
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Vyldo Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	gigRepo := repositories.NewGigRepository(client)
	orderRepo := repositories.NewOrderRepository(client)
	withdrawalRepo := repositories.NewWithdrawalRepository(client)
	ticketRepo := repositories.NewTicketRepository(client)
	availabilityRepo := repositories.NewAvailabilityRepository(client)

	// Initialize services
	hiveService := services.NewHiveService()
	notifier := services.NewNotificationService(client, wsHub)

	var locker services.Locker
	if redisClient := config.GetRedisClient(); redisClient != nil {
		locker = services.NewRedisLocker(redisClient)
	} else {
		locker = services.NewMemoryLocker()
	}

	orderService := services.NewOrderService(orderRepo, gigRepo, userRepo, hiveService, notifier,
		hiveService.EscrowAccount(), hiveService.Currency())
	withdrawalService := services.NewWithdrawalService(withdrawalRepo, userRepo, availabilityRepo,
		locker, notifier, withdrawalFlatFee())
	ticketService := services.NewTicketService(ticketRepo, userRepo, availabilityRepo, notifier)
	availabilityService := services.NewAvailabilityService(availabilityRepo, withdrawalRepo,
		ticketRepo, userRepo, notifier)

	// Register routes
	routes.SetupRoutes(e, client, wsHub, routes.Controllers{
		Auth:          controllers.NewAuthController(userRepo),
		Gigs:          controllers.NewGigController(gigRepo, userRepo),
		Orders:        controllers.NewOrderController(orderService, userRepo),
		Withdrawals:   controllers.NewWithdrawalController(withdrawalService, userRepo),
		Staff:         controllers.NewStaffController(availabilityService, userRepo),
		Tickets:       controllers.NewTicketController(ticketService, userRepo),
		Notifications: controllers.NewNotificationController(client, userRepo),
	})

	// Mark idle staff unavailable and reassign their open work
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			swept := availabilityService.SweepInactive(context.Background(), 30*time.Minute)
			if swept > 0 {
				log.Printf("Availability sweeper marked %d staff unavailable", swept)
			}
		}
	}()

	// Expire blacklisted tokens
	go middleware.CleanupBlacklist()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

// withdrawalFlatFee reads the flat processing fee charged on each
// withdrawal, in HBD.
func withdrawalFlatFee() float64 {
	raw := os.Getenv("WITHDRAWAL_FLAT_FEE")
	if raw == "" {
		return 0
	}
	fee, err := utils.ParseFloat(raw)
	if err != nil || fee < 0 {
		log.Printf("Invalid WITHDRAWAL_FLAT_FEE %q, using 0", raw)
		return 0
	}
	return fee
}
