package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"interview-coach/domain"
)

// RabbitMQ carries finalize tasks through a durable queue so they survive a
// restart of the API process.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     logrus.FieldLogger

	// amqp channels are not safe for concurrent publishing.
	publishMu sync.Mutex
}

var _ domain.Dispatcher = (*RabbitMQ)(nil)

func NewRabbitMQ(url, queueName string, log logrus.FieldLogger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	log.WithField("queue", q.Name).Info("connected to RabbitMQ")
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

// Dispatch publishes the task; the bounded publish context is independent of
// the caller's request.
func (r *RabbitMQ) Dispatch(_ context.Context, task domain.FinalizeTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode finalize task: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	err = r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    task.JobToken,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish finalize task: %w", err)
	}
	return nil
}

// Consume runs handle for every delivered task until ctx is done. Messages are
// acked after handle returns, since the finalizer always ends in a store write.
func (r *RabbitMQ) Consume(ctx context.Context, prefetch int, handle domain.FinalizeFunc) error {
	if err := r.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	sem := make(chan struct{}, prefetch)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var task domain.FinalizeTask
			if err := json.Unmarshal(d.Body, &task); err != nil {
				r.log.WithError(err).Error("dropping malformed finalize task")
				_ = d.Nack(false, false)
				continue
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handle(context.WithoutCancel(ctx), task)
				if err := d.Ack(false); err != nil {
					r.log.WithError(err).WithField("feedback_id", task.FeedbackID).Warn("ack failed")
				}
			}(d)
		}
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.log.WithError(err).Warn("close channel")
	}
	return r.conn.Close()
}
