package main

import (
	bookingsevents "abclisting/internal/bookings/events"
	bookingshandler "abclisting/internal/bookings/handler"
	bookingsrepo "abclisting/internal/bookings/repository"
	bookingsservice "abclisting/internal/bookings/service"
	bookingsvalidator "abclisting/internal/bookings/validator"
	"abclisting/internal/health"
	listingshandler "abclisting/internal/listings/handler"
	listingsrepo "abclisting/internal/listings/repository"
	listingsservice "abclisting/internal/listings/service"
	listingsvalidator "abclisting/internal/listings/validator"
	reconciliationrepo "abclisting/internal/reconciliation/repository"
	reconciliationservice "abclisting/internal/reconciliation/service"
	usershandler "abclisting/internal/users/handler"
	usersrepo "abclisting/internal/users/repository"
	usersservice "abclisting/internal/users/service"
	walletshandler "abclisting/internal/wallets/handler"
	walletsservice "abclisting/internal/wallets/service"
	"abclisting/pkg/app"
	"abclisting/pkg/config"
	"abclisting/pkg/contracts"
	"abclisting/pkg/kafka"
	kafka_config "abclisting/pkg/kafka/config"
	kafka_middleware "abclisting/pkg/kafka/middleware"
	"abclisting/pkg/payments"
	"abclisting/pkg/storage"
	"context"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	cfg.SetObjectStorage()

	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required to serve the API")
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	serverApp := app.NewApplication(cfg)

	cfg.Log.Info("Starting Bookings service")
	handlers := initServices(cfg, kafkaCfg, serverApp)

	checks := []health.Check{health.MongoCheck(cfg.Client.Mongo)}
	if cfg.Client.Redis != nil {
		checks = append(checks, health.RedisCheck(cfg.Client.Redis))
	}
	serverApp.SetApp(checks, handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config, kafkaCfg *kafka_config.Config, serverApp *app.Application) []contracts.Handler {
	metrics := kafka_middleware.NewMetrics()
	serverApp.AddWorker("kafka-metrics", metrics.Reporter(cfg.Log, kafkaCfg.MetricsInterval))

	bookingProducer := newProducer(cfg, kafkaCfg, cfg.BookingsTopic, metrics, serverApp)
	reconciliationProducer := newProducer(cfg, kafkaCfg, cfg.ReconciliationTopic, metrics, serverApp)
	publisher := bookingsevents.NewPublisher(bookingProducer, reconciliationProducer, ServiceName, cfg.Log)

	userRepo := usersrepo.NewMongoUserRepository(cfg)
	listingRepo := listingsrepo.NewMongoListingRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewBookingLockRepository(cfg)

	recorder := reconciliationservice.NewRecorder(reconciliationrepo.NewMongoReconciliationRepository(cfg), cfg.Log)
	reporter := reconciliationservice.NewReporter(publisher, recorder, cfg.Log)

	stripeClient := payments.NewStripeClient(cfg)
	images := storage.NewMinioImageStore(cfg.Client.Storage, cfg.S3Bucket, cfg.S3PublicURL, storage.DefaultMaxImageBytes, cfg.Log)
	if cfg.Client.Storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
		if err := images.EnsureBucket(ctx); err != nil {
			cfg.Log.Fatal("Failed to prepare listing image bucket", "error", err)
		}
		cancel()
	} else {
		cfg.Log.Warn("Object storage is not configured, listing creation will fail")
	}

	coordinator := bookingsservice.NewCoordinator(bookingRepo, listingRepo, userRepo, stripeClient, reporter, cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		listingRepo,
		userRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log, cfg.BookingWindowDays),
		coordinator,
		publisher,
		cfg,
	)
	listingService := listingsservice.NewListingService(listingRepo, userRepo, images, listingsvalidator.NewListingValidator(), cfg)
	userService := usersservice.NewUserService(userRepo, cfg)
	walletService := walletsservice.NewWalletService(userRepo, stripeClient, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		listingshandler.NewListingHandler(listingService, cfg.Log),
		usershandler.NewUserHandler(userService, cfg.Log),
		walletshandler.NewWalletHandler(walletService, cfg.Log),
	}
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string, metrics *kafka_middleware.Metrics, serverApp *app.Application) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, topic, kafkaCfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	serverApp.OnShutdown(producer.Close)
	return producer
}
