package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"produtos/internal/config"
	"produtos/internal/database"
	"produtos/internal/logger"
	"produtos/internal/models"
	"produtos/internal/repositories"
	"produtos/internal/server"
	"produtos/internal/services"
	"produtos/pkg/metrics"
	"produtos/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		bootLog := logger.New(zerolog.InfoLevel, "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat, os.Stdout)

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(reg)
	eventMetrics := metrics.NewEventMetrics(reg)

	// --- Initialize Repository ---
	deps := server.Deps{
		Gatherer:    reg,
		HTTPMetrics: httpMetrics,
		Log:         log,
	}
	if cfg.LogLevel == "debug" {
		deps.AccessLog = os.Stdout
	}

	var productRepo repositories.ProductRepository
	if cfg.Database.Driver == config.DriverMemory {
		productRepo = repositories.NewMemoryProductRepository()
		log.Warn().Msg("using in-memory product repository, data is lost on restart")
	} else {
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open database")
		}
		defer func() {
			if err := database.Close(db); err != nil {
				log.Error().Err(err).Msg("error closing database")
			}
		}()
		productRepo = repositories.NewGORMProductRepository(db)
		deps.Database = database.NewPinger(db)
	}

	// --- Initialize RabbitMQ Client ---
	// The publisher stays a nil interface when events are disabled.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				log.Error().Err(err).Msg("error closing RabbitMQ client")
			}
		}()
		publisher = mqClient

		consumerLog := log.With().Str("component", "product_events_consumer").Logger()
		err = mqClient.ConsumeProductEvents(func(msg amqp.Delivery) error {
			consumerLog.Info().
				Str("routing_key", msg.RoutingKey).
				Str("message_id", msg.MessageId).
				RawJSON("body", msg.Body).
				Msg("received product event")
			return nil
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to start RabbitMQ consumer")
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set, product events disabled")
	}

	// --- Initialize Services ---
	productService := services.NewProductService(productRepo, publisher, eventMetrics, log)
	deps.Products = productService

	if cfg.SeedProducts {
		seedProducts(productService, log)
	}

	// --- Initialize Fiber App ---
	app := server.NewApp(deps)

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("driver", cfg.Database.Driver).Msg("starting server")
		serverErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}

	log.Info().Msg("server gracefully stopped")
}

// seedProducts inserts sample products into an empty store.
func seedProducts(service *services.ProductService, log zerolog.Logger) {
	created, err := service.SeedProducts(context.Background(), sampleProducts())
	if err != nil {
		log.Error().Err(err).Int("created", created).Msg("error seeding products")
		return
	}
	log.Info().Int("created", created).Msg("seeded products")
}

func sampleProducts() []models.ProductInput {
	product := func(name, description string, price float64, stock int) models.ProductInput {
		return models.ProductInput{
			Name:        &name,
			Description: &description,
			Price:       &price,
			Stock:       &stock,
		}
	}
	return []models.ProductInput{
		product("Frango Frito", "Hamburguer de frango de 500g", 19.90, 20),
		product("Batata Frita", "Porção de batata frita de 300g", 12.50, 40),
		product("Refrigerante", "Lata de 350ml", 6.00, 100),
	}
}
