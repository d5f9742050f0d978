package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/config"
	"github.com/emojimake/videokit/internal/handler"
	"github.com/emojimake/videokit/internal/middleware"
	"github.com/emojimake/videokit/internal/store"
)

// devserver is a stand-in for the production video-generation API. It
// serves the same routes, envelopes and error wording, backed by Redis,
// with jobs that walk a scripted status progression one step per query.
func main() {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.DevServer.RedisAddr,
		Password: cfg.DevServer.RedisPassword,
		DB:       cfg.DevServer.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not available")
	}

	users := store.NewUserStore(redisClient)
	jobs := store.NewJobStore(redisClient)

	tokenTTL := time.Duration(cfg.DevServer.TokenTTLHours) * time.Hour
	userHandler := handler.NewUserHandler(users, cfg.DevServer.JWTSecret, tokenTTL)
	videoHandler := handler.NewVideoHandler(jobs, log)

	app := NewApp(cfg, userHandler, videoHandler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	addr := ":" + cfg.DevServer.Port
	log.Info().Str("addr", addr).Msg("devserver starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// NewApp wires the route table.
func NewApp(cfg *config.Config, userHandler *handler.UserHandler, videoHandler *handler.VideoHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	users := api.Group("/users")
	users.Post("/register", userHandler.Register)
	users.Post("/login", userHandler.Login)
	users.Post("/change-password", middleware.Protected(cfg.DevServer.JWTSecret), userHandler.ChangePassword)

	video := api.Group("/video", middleware.Protected(cfg.DevServer.JWTSecret))
	video.Post("/create", videoHandler.Create)
	video.Post("/create_with_prompt", videoHandler.CreatePrompt)
	video.Get("/query/:job_id", videoHandler.Query)

	return app
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
