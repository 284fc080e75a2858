package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/shoplist/api/internal/config"
	"github.com/shoplist/api/internal/database"
	"github.com/shoplist/api/internal/handlers"
	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/middleware"
	"github.com/shoplist/api/internal/services"
	"github.com/shoplist/api/internal/session"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	redisClient, err := session.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatalf("redis initialization failed: %v", err)
	}

	var revoked session.RevocationList
	if redisClient != nil {
		revoked = session.NewRedisRevocationList(redisClient)
	} else {
		revoked = session.NewMemoryRevocationList()
	}

	m := metrics.New()
	auditService := services.NewAuditService(db, cfg.Audit.QueueSize)

	identity := services.NewIdentityService(db)
	households := services.NewHouseholdRegistry(db)
	lists := services.NewListLedger(db)
	shopping := services.NewShoppingService(
		identity,
		households,
		lists,
		services.NewItemLedger(db),
		services.NewAccessService(db, households, lists, m),
		auditService,
		m,
	)

	router := &handlers.Router{
		Auth:       handlers.NewAuthHandler(identity, revoked, auditService, m),
		Households: handlers.NewHouseholdsHandler(shopping),
		Lists:      handlers.NewListsHandler(shopping),
		Items:      handlers.NewItemsHandler(shopping),
		Middleware: middleware.NewAuthMiddleware(db, revoked),
		Metrics:    m,
	}

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(m.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	router.Register(app)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":        cfg.Server.Port,
		"address":     listenAddr,
		"db_driver":   cfg.DB.Driver,
		"revocations": revoked.Backend(),
		"version":     handlers.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}

	// Pending audit entries are flushed before the database goes away.
	auditService.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
