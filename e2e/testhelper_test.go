package e2e

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/auth"
	"github.com/emojimake/videokit/internal/client"
	"github.com/emojimake/videokit/internal/handler"
	"github.com/emojimake/videokit/internal/middleware"
	"github.com/emojimake/videokit/internal/service"
	"github.com/emojimake/videokit/internal/store"
)

const (
	testJWTSecret = "test-secret-for-e2e"
	testPhone     = "13800138000"
	testPassword  = "password123"
)

// setupApp wires the dev server against an in-process Redis, mirroring
// cmd/devserver.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := store.NewUserStore(rdb)
	jobs := store.NewJobStore(rdb)
	userHandler := handler.NewUserHandler(users, testJWTSecret, time.Hour)
	videoHandler := handler.NewVideoHandler(jobs, zerolog.Nop())

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	app.Use(recover.New())

	api := app.Group("/api/v1")

	userRoutes := api.Group("/users")
	userRoutes.Post("/register", userHandler.Register)
	userRoutes.Post("/login", userHandler.Login)
	userRoutes.Post("/change-password", middleware.Protected(testJWTSecret), userHandler.ChangePassword)

	video := api.Group("/video", middleware.Protected(testJWTSecret))
	video.Post("/create", videoHandler.Create)
	video.Post("/create_with_prompt", videoHandler.CreatePrompt)
	video.Get("/query/:job_id", videoHandler.Query)

	return app
}

// appTransport routes the SDK's HTTP requests into the Fiber app without
// opening a socket, counting every round trip.
type appTransport struct {
	app   *fiber.App
	calls *int64
}

func (tr appTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(tr.calls, 1)
	return tr.app.Test(req, -1)
}

// sdk bundles a fully wired client stack pointed at an in-process server.
type sdk struct {
	sessions *auth.Store
	users    *service.UserService
	videos   *service.VideoService
	orch     *service.Orchestrator
	calls    *int64
}

func newSDK(t *testing.T, app *fiber.App) *sdk {
	t.Helper()

	calls := new(int64)
	sessions := auth.NewStore(auth.NewMemoryStore())
	logger := zerolog.Nop()

	api := client.New(client.Options{
		BaseURL: "http://devserver.test",
		Tokens:  sessions,
		Logger:  logger,
		HTTPClient: &http.Client{
			Transport: appTransport{app: app, calls: calls},
		},
	})

	validate := validator.New()
	if err := service.RegisterPhoneValidation(validate); err != nil {
		t.Fatalf("failed to register phone validation: %v", err)
	}

	videos := service.NewVideoService(api, validate, logger)
	return &sdk{
		sessions: sessions,
		users:    service.NewUserService(api, sessions, validate, logger),
		videos:   videos,
		orch:     service.NewOrchestrator(videos, 5*time.Millisecond, 24, logger),
		calls:    calls,
	}
}

func (s *sdk) serverCalls() int64 {
	return atomic.LoadInt64(s.calls)
}
