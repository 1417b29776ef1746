// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package broker publishes domain events to RabbitMQ.
//
// Events are informational: a failed publish is logged by the caller and
// never fails the request that produced it. Each routing key maps to a
// durable queue of the same name on the default exchange.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends a JSON event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Noop discards every event. It is used when AMQP_URL is not configured.
type Noop struct{}

// Publish implements [Publisher].
func (Noop) Publish(context.Context, string, any) error { return nil }

// AMQPPublisher holds one connection and channel for the process lifetime.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
	logger   *slog.Logger
}

// Dial connects to the broker at url.
func Dial(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("broker: dial failed: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: channel open failed: %w", err)
	}

	logger.Info("amqp_publisher_connected")

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		declared: make(map[string]bool),
		logger:   logger,
	}, nil
}

// Publish marshals payload and publishes it as a persistent message.
// The destination queue is declared on first use.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("broker: marshal %s event: %w", routingKey, err)
	}

	// amqp channels are not safe for concurrent publishers.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[routingKey] {
		if _, err := p.channel.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			return fmt.Errorf("broker: declare queue %s: %w", routingKey, err)
		}
		p.declared[routingKey] = true
	}

	message := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.channel.PublishWithContext(ctx, "", routingKey, false, false, message); err != nil {
		return fmt.Errorf("broker: publish %s: %w", routingKey, err)
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.logger.Warn("amqp_channel_close_failed", slog.Any("error", err))
	}
	return p.conn.Close()
}

// Emit publishes in the background and logs failures. Callers use it for
// events that must never delay or fail the triggering operation.
func Emit(ctx context.Context, publisher Publisher, logger *slog.Logger, routingKey string, payload any) {
	go func() {
		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := publisher.Publish(publishCtx, routingKey, payload); err != nil {
			logger.Warn("event_publish_failed",
				slog.String("routing_key", routingKey),
				slog.Any("error", err),
			)
		}
	}()
}
