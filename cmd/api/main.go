package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/devasol/dlms-backend/internal/cache"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/database"
	"github.com/devasol/dlms-backend/internal/jobs"
	"github.com/devasol/dlms-backend/internal/logger"
	"github.com/devasol/dlms-backend/internal/routes"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found")
	}

	// Initialize configuration and logging
	cfg := config.LoadConfig()
	logger.Configure(cfg.Environment)

	// Setup database connection and run migrations
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// User cache for the auth middleware: Redis when configured, otherwise
	// in-process
	var userCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		userCache = redisCache
	} else {
		userCache = cache.NewMemoryCache(time.Minute)
	}

	// Initialize router
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Register routes
	routes.RegisterRoutes(router, db, userCache, cfg)

	// Start recurring jobs
	scheduler, err := jobs.ScheduleRecurringJobs(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule jobs")
	}
	defer scheduler.Stop()

	// Start server
	log.Info().Str("port", cfg.Server.Port).Msg("DLMS API server running")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
