// Package notify is the write-only notification sink. Domain events are
// published to a topic exchange; delivery (email, push, ...) is someone
// else's job.
package notify

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier publishes a domain event. Errors are the caller's to ignore:
// notifications never fail a money-moving transaction.
type Notifier interface {
	Publish(routingKey string, message interface{}) error
}

// Broker is an amqp-backed Notifier.
type Broker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	url      string
}

// NewBroker connects to RabbitMQ and declares the topic exchange.
func NewBroker(rabbitMQURL, exchange string) (*Broker, error) {
	conn, err := amqp.Dial(rabbitMQURL)
	if err != nil {
		log.Printf("Failed to connect to RabbitMQ: %v", err)
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		log.Printf("Failed to open channel: %v", err)
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		log.Printf("Failed to declare exchange: %v", err)
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &Broker{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		url:      rabbitMQURL,
	}, nil
}

func (b *Broker) ensureConnection() error {
	if b.conn == nil || b.conn.IsClosed() {
		conn, err := amqp.Dial(b.url)
		if err != nil {
			log.Printf("Failed to reconnect to RabbitMQ: %v", err)
			return err
		}
		b.conn = conn

		b.channel, err = conn.Channel()
		if err != nil {
			log.Printf("Failed to open channel on reconnect: %v", err)
			conn.Close()
			return err
		}
	}
	return nil
}

// Publish sends one JSON message under the given routing key.
func (b *Broker) Publish(routingKey string, message interface{}) error {
	if err := b.ensureConnection(); err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return b.channel.Publish(
		b.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close releases the connection.
func (b *Broker) Close() error {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// Nop is a Notifier that drops everything, used when no broker is configured.
type Nop struct{}

func (Nop) Publish(string, interface{}) error { return nil }
