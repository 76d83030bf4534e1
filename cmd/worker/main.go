package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gitcast/backend/internal/config"
	"github.com/gitcast/backend/internal/farcaster"
	"github.com/gitcast/backend/internal/github"
	"github.com/gitcast/backend/internal/queue"
	"github.com/gitcast/backend/internal/scheduler"
	"github.com/gitcast/backend/internal/store"
	"github.com/gitcast/backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

// maxRetries is how often a message is retried before it dead-letters.
const maxRetries = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false)
		logger.Fatal("Failed to load config", "err", err)
	}

	logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init pgx client
	pgConn, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	st := store.New(pgConn)
	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("Failed to run schema migration", "err", err)
	}

	// Upstream clients
	fc := farcaster.NewClient(farcaster.ClientParams{
		BaseURL: cfg.Farcaster.BaseURL,
		APIKey:  cfg.Farcaster.APIKey,
	})
	gh := github.NewClient(github.ClientParams{
		BaseURL:            cfg.Github.BaseURL,
		Token:              cfg.Github.Token,
		MaxEventPages:      cfg.Github.MaxEventPages,
		RateLimitThreshold: cfg.Github.RateLimitThreshold,
	})

	// Init rabbitmq
	conn := queue.Init(cfg.AMQPURL())
	defer conn.Close()

	// Publisher channel for follow-up tasks
	pubCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer pubCh.Close()

	if err := queue.SetupQueues(pubCh); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	pub := queue.NewPublisher(pubCh)

	// Scheduled re-sync and retention run inside the worker process.
	sched := scheduler.New(st, fc, pub, *cfg)
	sched.Start(ctx)

	logger.Info("Listening for messages")

	// Single consumer channel with prefetch=1 so only one message is in
	// flight across all queues at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queue.Queues() {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.UserQueue:
					processingErr = queue.ProcessUserMessage(ctx, fc, st, pub, string(qm.msg.Body))
				case queue.VerificationQueue:
					processingErr = queue.ProcessVerificationMessage(ctx, fc, st, pub, string(qm.msg.Body))
				case queue.EventsQueue:
					processingErr = queue.ProcessEventsMessage(ctx, gh, st, string(qm.msg.Body))
				case queue.StarsQueue:
					processingErr = queue.ProcessStarsMessage(ctx, gh, st, string(qm.msg.Body))
				}

				// On error park the message in retry or the DLQ, otherwise ack.
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(pubCh, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName, "duration", time.Since(startTime).Round(time.Millisecond))
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// Exhausted messages go to the dead-letter queue for inspection.
	if retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
