package main

import (
	"os"

	appointmenthandler "slotbook/internal/appointments/handler"
	appointmentrepo "slotbook/internal/appointments/repository"
	appointmentservice "slotbook/internal/appointments/service"
	appointmentvalidator "slotbook/internal/appointments/validator"
	cataloghandler "slotbook/internal/catalog/handler"
	catalogrepo "slotbook/internal/catalog/repository"
	catalogservice "slotbook/internal/catalog/service"
	catalogvalidator "slotbook/internal/catalog/validator"
	"slotbook/internal/notify"
	rosterhandler "slotbook/internal/roster/handler"
	rosterrepo "slotbook/internal/roster/repository"
	rosterservice "slotbook/internal/roster/service"
	rostervalidator "slotbook/internal/roster/validator"
	"slotbook/pkg/app"
	"slotbook/pkg/config"
	"slotbook/pkg/kafka"
	kafka_config "slotbook/pkg/kafka/config"
	kafka_middleware "slotbook/pkg/kafka/middleware"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "booking"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting booking service")

	notifier, closeNotifier := initNotifier(cfg)
	defer closeNotifier()

	routes := initRoutes(cfg, notifier)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, routes)
	serverApp.Run()
}

// apiRoutes registers every domain handler on one router.
type apiRoutes struct {
	roster       *rosterhandler.RosterHandler
	catalog      *cataloghandler.CatalogHandler
	appointments *appointmenthandler.AppointmentHandler
}

func (r *apiRoutes) RegisterRoutes(router *httprouter.Router) {
	r.roster.RegisterRoutes(router)
	r.catalog.RegisterRoutes(router)
	r.appointments.RegisterRoutes(router)
}

func initRoutes(cfg *config.Config, notifier notify.Notifier) *apiRoutes {
	rosterRepo := rosterrepo.NewMongoRosterRepository(cfg)
	rosterSvc := rosterservice.NewRosterService(
		rosterRepo,
		rostervalidator.NewRosterValidator(cfg.Log),
		cfg,
	)

	appointmentRepo := appointmentrepo.NewMongoAppointmentRepository(cfg)
	lockRepo := appointmentrepo.NewBookingLockRepository(cfg)

	catalogSvc := catalogservice.NewCatalogService(
		catalogrepo.NewMongoEmployeeRepository(cfg),
		catalogrepo.NewMongoServiceRepository(cfg),
		appointmentRepo,
		catalogvalidator.NewCatalogValidator(cfg.Log),
		cfg,
	)

	appointmentSvc := appointmentservice.NewAppointmentService(
		appointmentRepo,
		lockRepo,
		rosterSvc,
		catalogSvc,
		appointmentservice.NoAccounts{},
		notifier,
		appointmentvalidator.NewAppointmentValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return &apiRoutes{
		roster:       rosterhandler.NewRosterHandler(rosterSvc, cfg.Log),
		catalog:      cataloghandler.NewCatalogHandler(catalogSvc, cfg.Log),
		appointments: appointmenthandler.NewAppointmentHandler(appointmentSvc, cfg.Log),
	}
}

// initNotifier wires the Kafka notifier when brokers are configured and
// falls back to a no-op otherwise, so the service runs without Kafka in
// local development.
func initNotifier(cfg *config.Config) (notify.Notifier, func()) {
	if os.Getenv(kafka_config.EnvKafkaBrokers) == "" {
		cfg.Log.Info("No Kafka brokers configured, notifications disabled")
		return notify.Noop{}, func() {}
	}

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotifyTopic, cfg.NotifyDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka notifier enabled", "topic", cfg.NotifyTopic)
	return notify.NewKafkaNotifier(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
