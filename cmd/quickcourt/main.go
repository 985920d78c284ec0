package main

import (
	"context"

	"github.com/joho/godotenv"

	bookinghandler "quickcourt/internal/bookings/handler"
	"quickcourt/internal/bookings/events"
	bookingrepo "quickcourt/internal/bookings/repository"
	bookingservice "quickcourt/internal/bookings/service"
	bookingvalidator "quickcourt/internal/bookings/validator"
	"quickcourt/internal/health"
	userrepo "quickcourt/internal/users/repository"
	venuehandler "quickcourt/internal/venues/handler"
	venuerepo "quickcourt/internal/venues/repository"
	venueservice "quickcourt/internal/venues/service"
	venuevalidator "quickcourt/internal/venues/validator"
	"quickcourt/pkg/app"
	"quickcourt/pkg/auth"
	"quickcourt/pkg/config"
	"quickcourt/pkg/kafka"
	kafka_config "quickcourt/pkg/kafka/config"
	kafka_middleware "quickcourt/pkg/kafka/middleware"
)

const ServiceName = "quickcourt"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting QuickCourt service")
	serverApp := app.NewApplication(cfg)

	locker, locksPing := initSlotLocker(cfg)
	publisher, closePublisher := initPublisher(cfg)

	venueRepo := venuerepo.NewMongoVenueRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	venueService := venueservice.NewVenueService(
		venueRepo,
		venuerepo.NewMongoReviewRepository(cfg),
		bookingRepo,
		venuevalidator.NewVenueValidator(cfg.Log),
		cfg,
	)

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		locker,
		venueRepo,
		userrepo.NewMongoUserRepository(cfg),
		publisher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "lock_backend", cfg.LockBackend)

	healthHandler := health.NewHandler(
		func(ctx context.Context) error { return cfg.Client.Mongo.Ping(ctx, nil) },
		locksPing,
		cfg.Log,
	)

	serverApp.SetApp(
		auth.NewTokenVerifier(cfg.JWTSecret),
		healthHandler,
		venuehandler.NewVenueHandler(venueService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

// initSlotLocker picks the lock backend. The returned pinger is nil when
// locks live in Mongo, which the database check already covers.
func initSlotLocker(cfg *config.Config) (bookingrepo.SlotLocker, health.Pinger) {
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
		cfg.Log.Info("Using Redis slot locks", "addr", cfg.RedisAddr)
		return bookingrepo.NewRedisSlotLocker(cfg.Client.Redis), func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		}
	}
	cfg.Log.Info("Using Mongo slot locks", "collection", bookingrepo.LockCollectionName)
	return bookingrepo.NewMongoSlotLocker(cfg), nil
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return events.NewNoopPublisher(), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	return events.NewKafkaPublisher(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
