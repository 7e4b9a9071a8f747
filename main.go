package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deluxe-isa/config"
	"deluxe-isa/handlers"
	"deluxe-isa/logger"
	"deluxe-isa/middleware"
	"deluxe-isa/models"
	"deluxe-isa/services"
	"deluxe-isa/utils"
	"deluxe-isa/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so this one goes to stderr directly.
		os.Stderr.WriteString("❌ " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	rdb := connectRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	media, mediaPrefix := mediaStore(ctx, cfg, log)

	notificationService := services.NewNotificationService(db, rdb, cfg.NotificationTTL, log.Named("notifications"))
	progressionService := services.NewProgressionService(db, notificationService, log.Named("progression"))
	engagementService := services.NewEngagementService(db, progressionService, log.Named("engagement"), cfg.ProjectionBatchSize)
	postService := services.NewPostService(db, progressionService, engagementService, log.Named("posts"))
	storyService := services.NewStoryService(db, progressionService, log.Named("stories"))

	scheduler, err := notificationService.StartCleanupScheduler(cfg.NotificationCleanupInterval)
	if err != nil {
		log.Fatal("failed to start notification cleanup scheduler", zap.Error(err))
	}
	defer func() { _ = scheduler.Shutdown() }()

	if cfg.SyncServiceURL != "" {
		syncWorker := workers.NewProfileSyncWorker(db, progressionService, log.Named("profile_sync"),
			cfg.SyncServiceURL, cfg.SyncEndpoint, cfg.ServiceToken, cfg.SyncInterval)
		syncWorker.Start(ctx)
	} else {
		log.Warn("⚠️  SYNC_SERVICE_URL not set, profile sync disabled; progression is created on first /user/progress")
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             200 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 🔐 Everything below comes from the Gateway only.
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, log.Named("gateway")))

	if mediaPrefix != "" {
		app.Static(mediaPrefix, cfg.UploadDir)
	}

	handlers.Register(app, handlers.Deps{
		Progression:    progressionService,
		Engagement:     engagementService,
		Posts:          postService,
		Notifications:  notificationService,
		Stories:        storyService,
		Media:          media,
		Log:            log.Named("http"),
		RequestTimeout: cfg.RequestTimeout,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	log.Info("✅ Server running", zap.String("port", cfg.Port))
	log.Info("✅ GatewayAuthMiddleware enforced: all requests except /healthz and /metrics must come from Gateway")
	log.Info("✅ CORS configured", zap.String("origins", cfg.Origins()))

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

// connectRedis returns nil when REDIS_ADDR is unset or unreachable; notifications are then
// stored but not streamed.
func connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Warn("⚠️  REDIS_ADDR not set, real-time notification stream disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("redis unreachable, real-time notification stream disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	log.Info("✅ Redis connected", zap.String("addr", cfg.RedisAddr))
	return rdb
}

// mediaStore prefers R2 and falls back to local disk served at the returned prefix.
func mediaStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (utils.MediaStore, string) {
	if cfg.R2Config.Enabled() {
		store, err := utils.NewR2Store(ctx, cfg.R2Config)
		if err != nil {
			log.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		log.Info("✅ Media uploads go to R2", zap.String("bucket", cfg.R2Config.Bucket))
		return store, ""
	}

	const prefix = "/uploads"
	store, err := utils.NewLocalStore(cfg.UploadDir, prefix)
	if err != nil {
		log.Fatal("failed to ensure upload dir", zap.Error(err))
	}
	log.Warn("⚠️  R2 not configured, media uploads are stored locally", zap.String("dir", cfg.UploadDir))
	return store, prefix
}
