// Package redisfeed fans change events out through redis pub/sub so every
// server instance can deliver to the websocket clients it holds.
package redisfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

const DefaultChannel = "user_notifications:changes"

type envelope struct {
	ReceiverID string             `json:"receiver_id"`
	Event      domain.ChangeEvent `json:"event"`
}

// LocalSink receives events for receivers connected to this instance.
type LocalSink interface {
	Publish(ctx context.Context, receiverID string, event domain.ChangeEvent) error
}

type Feed struct {
	rdb     *redis.Client
	channel string
	local   LocalSink
	logger  *slog.Logger
}

func NewFeed(rdb *redis.Client, channel string, local LocalSink, logger *slog.Logger) *Feed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Feed{
		rdb:     rdb,
		channel: channel,
		local:   local,
		logger:  logging.OrDefault(logger).With("component", "redis_feed"),
	}
}

// Publish implements domain.ChangeFeed.
func (f *Feed) Publish(ctx context.Context, receiverID string, event domain.ChangeEvent) error {
	payload, err := encode(receiverID, event)
	if err != nil {
		return err
	}
	if err := f.rdb.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Run relays every message on the channel to the local sink until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	f.logger.Info("relaying change events", "channel", f.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			f.handle(ctx, msg.Payload)
		}
	}
}

func (f *Feed) handle(ctx context.Context, payload string) {
	receiverID, event, err := decode(payload)
	if err != nil {
		f.logger.Warn("discarding malformed change event", "error", err)
		return
	}
	if err := f.local.Publish(ctx, receiverID, event); err != nil {
		f.logger.Warn("local delivery failed", "receiver_id", receiverID, "error", err)
	}
}

func encode(receiverID string, event domain.ChangeEvent) (string, error) {
	b, err := json.Marshal(envelope{ReceiverID: receiverID, Event: event})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(payload string) (string, domain.ChangeEvent, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", domain.ChangeEvent{}, err
	}
	if env.ReceiverID == "" {
		return "", domain.ChangeEvent{}, fmt.Errorf("envelope without receiver")
	}
	return env.ReceiverID, env.Event, nil
}
