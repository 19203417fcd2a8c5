package main

import (
	"abclisting/internal/health"
	reconciliationrepo "abclisting/internal/reconciliation/repository"
	reconciliationservice "abclisting/internal/reconciliation/service"
	"abclisting/pkg/app"
	"abclisting/pkg/config"
	"abclisting/pkg/kafka"
	kafka_config "abclisting/pkg/kafka/config"
	kafka_middleware "abclisting/pkg/kafka/middleware"
)

const ServiceName = "reconciler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	recorder := reconciliationservice.NewRecorder(reconciliationrepo.NewMongoReconciliationRepository(cfg), cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, cfg.ReconciliationTopic, kafkaCfg.ConsumerGroupID, kafkaCfg.DLQTopic, recorder.HandleMessage)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "topic", cfg.ReconciliationTopic, "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))

	serverApp := app.NewApplication(cfg)
	serverApp.AddWorker("kafka-metrics", metrics.Reporter(cfg.Log, kafkaCfg.MetricsInterval))
	serverApp.AddWorker("reconciliation-consumer", consumer.Start)
	serverApp.OnShutdown(consumer.Close)
	serverApp.SetHealthOnly([]health.Check{health.MongoCheck(cfg.Client.Mongo)})

	cfg.Log.Info("Starting reconciliation consumer", "topic", cfg.ReconciliationTopic, "group_id", kafkaCfg.ConsumerGroupID)
	serverApp.Run()
}
