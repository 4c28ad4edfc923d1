package api

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/SundayYogurt/rote_service/config"
	"github.com/SundayYogurt/rote_service/infra/queue"
	"github.com/SundayYogurt/rote_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/helper/utils"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/SundayYogurt/rote_service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// same id across every replica so only one of them migrates at a time
const migrateLockID int64 = 20260222

// NewApp builds the HTTP surface on top of an already migrated database.
func NewApp(cfg config.Config, db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: cfg.BaseURL != "*",
	}))

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	changeRepo := repository.NewChangeLogRepository(db, nil)
	roteRepo := repository.NewRoteRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	// ---------- Services ----------
	recorder := services.NewChangeRecorder(changeRepo)
	changeSvc := services.NewChangeService(changeRepo, cfg.ChangePageLimit)
	roteSvc := services.NewRoteService(roteRepo, attachmentRepo, reactionRepo, recorder)

	// ---------- Handlers ----------
	v2 := app.Group("/v2/api")
	handlers.NewChangeHandler(changeSvc, authHelper).SetupRoutes(v2)
	handlers.NewRoteHandler(roteSvc, authHelper).SetupRoutes(v2)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.ResponseSuccess(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	})

	return app
}

func StartServer(cfg config.Config) {
	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Info("database connected")

	if err := migrate(db); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Info("migration successful")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------- Infra ----------
	log.Infof("KafkaBroker=%q KafkaTopic=%q", cfg.KafkaBroker, cfg.KafkaTopic)
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	if kafkaProducer != nil {
		defer kafkaProducer.Close()

		dispatcher := services.NewChangeDispatcher(
			services.DefaultDispatcherName,
			repository.NewChangeLogRepository(db, nil),
			repository.NewDispatchCursorRepository(db),
			kafkaProducer,
			cfg.ChangeDispatchBatch,
			cfg.ChangeDispatchInterval,
			cfg.ChangeDispatchLag,
		)
		go dispatcher.Run(ctx)
	} else {
		log.Warn("KAFKA_BROKER not set - change dispatch disabled")
	}

	app := NewApp(cfg, db)
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Info("listening on ", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

// migrate runs the schema migration under a postgres advisory lock.
func migrate(db *gorm.DB) error {
	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		return err
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	return repository.Migrate(db)
}

// errorHandler keeps the response envelope for errors raised by fiber itself,
// e.g. unknown routes and oversized bodies.
func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Errorw("unhandled error", "path", ctx.Path(), "error", err)
	}
	return utils.ResponseError(ctx, code, msg)
}
