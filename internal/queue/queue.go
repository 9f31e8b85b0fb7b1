package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/OFFIS-RIT/studymap/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// MindMapQueue receives MindMapJobMsg payloads.
	MindMapQueue = "mindmap_queue"

	eventsExchange = "studymap_events"
	retryDelayMs   = int32(10000)
)

// Channel is the subset of *amqp091.Channel used for declaring and publishing.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// LockedChannel serialises declarations and publishes of concurrent jobs
// sharing one channel.
type LockedChannel struct {
	mu sync.Mutex
	ch Channel
}

func NewLockedChannel(ch Channel) *LockedChannel {
	return &LockedChannel{ch: ch}
}

func (l *LockedChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (l *LockedChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ch.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (l *LockedChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ch.Publish(exchange, key, mandatory, immediate, msg)
}

// PrefetchFromEnv reads WORKER_PREFETCH, the number of jobs a worker takes
// at once. It is at least 1: AMQP reads 0 as unlimited, which a bounded
// worker cannot honour.
func PrefetchFromEnv() int {
	return max(int(util.GetEnvNumeric("WORKER_PREFETCH", 4)), 1)
}

// Init dials RabbitMQ using the RABBITMQ_* environment variables.
func Init() (*amqp091.Connection, error) {
	user := util.GetEnvString("RABBITMQ_USER", "guest")
	pass := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
	host := util.GetEnvString("RABBITMQ_HOST", "localhost")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	return conn, nil
}

// SetupQueues declares every queue with its _dlq and a _retry queue that
// dead-letters back into the queue after a delay.
func SetupQueues(ch Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("QueueDeclare %s failed: %w", name, err)
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
			return fmt.Errorf("QueueDeclare %s failed: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             retryDelayMs,
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("QueueDeclare %s failed: %w", retryName, err)
		}
	}

	return nil
}

func PublishFIFO(ch Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}

// PublishTopic publishes an event such as mindmap.completed to the events
// exchange.
func PublishTopic(ch Channel, topic string, data []byte) error {
	err := ch.ExchangeDeclare(
		eventsExchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		eventsExchange,
		topic,
		false,
		false,
		publishing,
	)
}
