// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

// Package events is the in-process fan-out that lets views react to cache
// changes and shows transient notices to the user.
//
// It runs on Watermill's gochannel pub/sub. Each subscriber sees events in
// publish order. A publish returns once every subscriber has buffered the
// event, so it only waits while a subscriber's buffer is full.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
)

// Topics.
const (
	TopicStateChanged = "state.changed"
	TopicNotices      = "notices"
)

// ChangeKind names the piece of client state that changed.
type ChangeKind string

const (
	ChangeLedger        ChangeKind = "ledger"
	ChangeConversations ChangeKind = "conversations"
	ChangeDanmu         ChangeKind = "danmu"
	ChangeSession       ChangeKind = "session"
	ChangeChannel       ChangeKind = "channel"
)

// Change is the payload of TopicStateChanged.
type Change struct {
	Kind ChangeKind `json:"kind"`
	At   time.Time  `json:"at"`
}

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the payload of TopicNotices.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
	At    time.Time   `json:"at"`
}

// Bus publishes changes and notices.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus. A nil logger routes Watermill's logs through the
// application logger.
func NewBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, logger),
	}
}

// PublishChange announces that the state named by kind changed.
func (b *Bus) PublishChange(kind ChangeKind) {
	b.publish(TopicStateChanged, Change{Kind: kind, At: time.Now()})
}

// Notify shows text to the user at the given level.
func (b *Bus) Notify(level NoticeLevel, text string) {
	b.publish(TopicNotices, Notice{Level: level, Text: text, At: time.Now()})
}

func (b *Bus) publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return
	}
	if err := b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		logging.Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
		return
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
}

// Subscribe returns the raw message stream for topic. Every message must
// be acked before the next one is delivered.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return msgs, nil
}

// Changes streams decoded change events until ctx is done.
func (b *Bus) Changes(ctx context.Context) (<-chan Change, error) {
	return subscribeTyped[Change](ctx, b, TopicStateChanged)
}

// Notices streams decoded notices until ctx is done.
func (b *Bus) Notices(ctx context.Context) (<-chan Notice, error) {
	return subscribeTyped[Notice](ctx, b, TopicNotices)
}

func subscribeTyped[T any](ctx context.Context, b *Bus, topic string) (<-chan T, error) {
	msgs, err := b.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	out := make(chan T, 16)
	go func() {
		defer close(out)
		for msg := range msgs {
			var v T
			if err := json.Unmarshal(msg.Payload, &v); err != nil {
				logging.Debug().Err(err).Str("topic", topic).Msg("Dropping undecodable event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts down every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
