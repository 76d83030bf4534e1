package queue

import (
	"encoding/json"
	"time"

	"github.com/gitcast/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// retryTTL is how long a failed message parks in the retry queue before it
// dead-letters back to the primary queue for another attempt.
const retryTTL = 10000

// Init connects to the broker.
func Init(amqpURL string) *amqp091.Connection {
	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	return conn
}

// SetupQueues declares every pipeline queue together with its retry and
// dead-letter companions. Safe to call from every binary at boot.
func SetupQueues(ch *amqp091.Channel) error {
	for _, name := range Queues() {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return err
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return err
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTL),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Publisher enqueues follow-up tasks. Stages and the read path publish
// through this interface; the AMQP implementation below is the only one
// outside of tests.
type Publisher interface {
	Publish(task Task) error
}

// AMQPPublisher routes tasks onto their queue over one channel.
type AMQPPublisher struct {
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) *AMQPPublisher {
	return &AMQPPublisher{ch: ch}
}

func (p *AMQPPublisher) Publish(task Task) error {
	queueName, err := task.Queue()
	if err != nil {
		return err
	}

	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return p.ch.Publish(
		"",
		queueName,
		false,
		false,
		publishing,
	)
}
