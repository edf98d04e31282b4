package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fincore/fincore/internal/account"
	"github.com/fincore/fincore/internal/auth"
	"github.com/fincore/fincore/internal/bank"
	"github.com/fincore/fincore/internal/config"
	"github.com/fincore/fincore/internal/middleware"
	"github.com/fincore/fincore/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// firstAccountNumber is where the counter starts on an empty ledger.
const firstAccountNumber = 1000

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	terms := account.Terms{
		InterestRate:   d.Cfg.InterestRate,
		OverdraftLimit: d.Cfg.OverdraftLimit,
		MaintenanceFee: d.Cfg.MaintenanceFee,
	}

	var repo account.Repository
	numberStart := int64(firstAccountNumber)
	if d.DB != nil {
		pgRepo := account.NewPostgresRepository(d.DB, terms)
		highest, err := pgRepo.HighestNumber(context.Background(), firstAccountNumber-1)
		if err != nil {
			return err
		}
		numberStart = highest + 1
		repo = pgRepo
	} else {
		repo = account.NewMemoryRepository()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	bankSvc := bank.NewService(repo, bank.NewCounter(numberStart), terms, notifier, d.Logger)

	var credRepo auth.Repository
	var sessions auth.SessionStore
	if d.DB != nil {
		credRepo = auth.NewPostgresRepository(d.DB)
	} else {
		credRepo = auth.NewMemoryRepository()
	}
	if d.Cache != nil {
		sessions = auth.NewRedisSessionStore(d.Cache, d.Cfg.SessionTTL)
	} else {
		sessions = auth.NewMemorySessionStore(d.Cfg.SessionTTL)
	}
	authSvc := auth.NewService(credRepo, sessions, bankSvc)

	bankHandler := bank.NewHandler(bankSvc)
	authHandler := auth.NewHandler(authSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, authHandler)

	protected := api.Group("", middleware.SessionAuth(authSvc))
	RegisterAccountRoutes(protected, bankHandler)
	RegisterTransferRoutes(protected, bankHandler)
	RegisterOperationsRoutes(protected, bankHandler)

	return nil
}
