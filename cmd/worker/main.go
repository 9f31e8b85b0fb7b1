package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/studymap/internal/provider"
	"github.com/OFFIS-RIT/studymap/internal/queue"
	"github.com/OFFIS-RIT/studymap/internal/storage"
	"github.com/OFFIS-RIT/studymap/internal/timing"
	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
	"github.com/OFFIS-RIT/studymap/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}
	results := storage.NewS3ResultStore(s3Client)

	// Embedding provider and graph builder
	embedder, err := provider.NewEmbedderFromEnv(ctx)
	if err != nil {
		logger.Fatal("Could not create embedding provider", "err", err)
	}
	defer embedder.Close()
	builder := provider.NewGraphBuilderFromEnv(embedder.Embedder)

	// Init rabbitmq
	conn, err := queue.Init()
	if err != nil {
		logger.Fatal("Could not connect to queue", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.MindMapQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Builds are independent, so several may run at once.
	prefetch := queue.PrefetchFromEnv()
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(prefetch, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.MindMapQueue,
		"mindmap_queue_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.MindMapQueue, "err", err)
	}

	publisher := queue.NewLockedChannel(ch)
	maxRetries := int(util.GetEnvNumeric("WORKER_MAX_RETRIES", queue.DefaultMaxRetries))
	sem := make(chan struct{}, prefetch)

	logger.Info("Listening for messages", "queue", queue.MindMapQueue, "prefetch", prefetch)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, waiting for running jobs...")
			for range prefetch {
				sem <- struct{}{}
			}
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.MindMapQueue)
				return
			}

			sem <- struct{}{}
			go func() {
				defer func() { <-sem }()

				startTime := time.Now()
				logger.Info("Received message", "queue", queue.MindMapQueue)

				processingErr := queue.ProcessMindMapJob(ctx, builder, results, publisher, msg.Body)
				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.MindMapQueue, "err", processingErr)
					queue.HandleProcessingError(publisher, msg, queue.MindMapQueue, maxRetries)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.MindMapQueue)
				}

				timing.LogJob(startTime, embedder.Metrics)
			}()
		}
	}
}
