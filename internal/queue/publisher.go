package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReservationConfirmedQueue is the durable queue reservation
// confirmations are published to.
const ReservationConfirmedQueue = "reservation.confirmed"

// PublishReservationConfirmed publishes a ReservationConfirmedEvent
// to the broker at url. The connection is scoped to the call: the
// tool runs one command per process, so there is nothing to pool.
// Messages are marked persistent. Errors are returned so the caller
// can log and ignore them without interrupting the main flow.
func PublishReservationConfirmed(ctx context.Context, url string, event ReservationConfirmedEvent) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(
		ReservationConfirmedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                        // default exchange
		ReservationConfirmedQueue, // routing key = queue name
		false,                     // mandatory
		false,                     // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
