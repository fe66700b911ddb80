package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jokehub/internal/config"
	"jokehub/pkg/logger"

	"github.com/nats-io/nats.go"
)

const (
	SendSubject   = "telegram.send"
	ConsumerGroup = "jokehub-bot"

	// fetchWait bounds each pull so the consumer loop blocks instead of
	// spinning on empty fetches.
	fetchWait = 500 * time.Millisecond
)

// NATS buffers outbound Telegram messages so the sender can retry rate
// limits without blocking command handlers.
type NATS struct {
	conn      *nats.Conn
	jetstream nats.JetStream
	cfg       config.NATSConfig
}

func New(cfg config.NATSConfig) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream: %w", err)
	}

	return &NATS{
		conn:      conn,
		jetstream: js,
		cfg:       cfg,
	}, nil
}

func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

type SendMessage struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (n *NATS) PublishSend(ctx context.Context, msg *SendMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal send message: %w", err)
	}

	_, err = n.jetstream.Publish(SendSubject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish send message: %w", err)
	}

	logger.Debug("Send message published to queue",
		logger.Int64("chat_id", msg.ChatID),
	)

	return nil
}

// ConsumeSends pulls queued messages and hands them to the handler until the
// context is cancelled. A handler error leaves the message for redelivery.
func (n *NATS) ConsumeSends(ctx context.Context, handler func(*SendMessage) error) error {
	sub, err := n.jetstream.PullSubscribe(
		SendSubject,
		ConsumerGroup,
		nats.BindStream(n.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to sends: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msgs, err := sub.Fetch(10, nats.MaxWait(fetchWait))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				return fmt.Errorf("failed to fetch messages: %w", err)
			}

			for _, msg := range msgs {
				var send SendMessage
				if err := json.Unmarshal(msg.Data, &send); err != nil {
					logger.Error("Failed to unmarshal send message",
						logger.Err(err),
					)
					msg.Nak()
					continue
				}

				if err := handler(&send); err != nil {
					logger.Error("Failed to send telegram message",
						logger.Err(err),
					)
					msg.Nak()
					continue
				}

				msg.Ack()
			}
		}
	}
}
