package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"

	"koleksi/internal/config"
	"koleksi/internal/database"
	"koleksi/internal/handlers"
	"koleksi/internal/middleware"
	"koleksi/internal/repositories"
	"koleksi/internal/services"
	"koleksi/pkg/blobstore"
	"koleksi/pkg/rabbitmq"

	"github.com/spf13/viper"
)

// formSlack is the room left in the request body limit for non-image form fields.
const formSlack = 1 << 20

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Storage ---
	store, err := openStore(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	blobs, err := blobstore.NewOnDisk(cfg.Media.Root, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to open media root %s: %v", cfg.Media.Root, err)
	}

	// --- Optional RabbitMQ publisher ---
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQ.Enabled {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		events = mqClient
	}
	if mqClient != nil && cfg.RabbitMQ.Consume {
		go func() {
			log.Printf("Starting RabbitMQ consumer for %s...", cfg.RabbitMQ.Queue)
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received inventory event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeInventoryEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	app := newApp(cfg, store, blobs, events)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openStore returns the store selected by cfg.Driver. database.Open migrates SQL schemas.
func openStore(cfg config.DatabaseConfig) (repositories.Store, error) {
	if cfg.Driver == "memory" {
		log.Println("Using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(), nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return repositories.NewGORMStore(db), nil
}

// newApp wires services and handlers into a fiber app. events may be nil.
func newApp(cfg config.Config, store repositories.Store, blobs *blobstore.Store, events services.EventPublisher) *fiber.App {
	identityService := services.NewIdentityService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	groupService := services.NewGroupService(store, events)
	collectibleService := services.NewCollectibleService(store, blobs, events, cfg.Media.MaxImageBytes)

	groupHandler := handlers.NewGroupHandler(groupService)
	collectibleHandler := handlers.NewCollectibleHandler(collectibleService)
	mediaHandler := handlers.NewMediaHandler(blobs)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Media.MaxImageBytes + formSlack,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events != nil,
		})
	})
	mediaHandler.RegisterRoutes(app)

	api := app.Group("/api", middleware.AuthRequired(identityService))
	groupHandler.RegisterRoutes(api)
	collectibleHandler.RegisterRoutes(api)

	return app
}
