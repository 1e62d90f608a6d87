package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const eventsChannel = "chat:events"

// Bridge publishes chat events to Redis and feeds received ones into the
// local hub, so events reach connections held by other instances. With a
// nil Redis client it degrades to local-only delivery.
type Bridge struct {
	hub    *Hub
	client *redis.Client
	logger *slog.Logger
}

func NewBridge(hub *Hub, client *redis.Client, logger *slog.Logger) *Bridge {
	return &Bridge{hub: hub, client: client, logger: logger}
}

// Publish sends the event to the given recipients, fire-and-forget.
// Implements the services' Notifier port.
func (b *Bridge) Publish(event Event, recipients []primitive.ObjectID) {
	ids := make([]string, 0, len(recipients))
	for _, id := range recipients {
		ids = append(ids, id.Hex())
	}
	go b.dispatch(envelope{Recipients: ids, Event: event})
}

// PublishToChat sends a chat-scoped event (typing) to the chat's
// subscribers on every instance, skipping the originating connection.
func (b *Bridge) PublishToChat(event Event, origin uuid.UUID) {
	go b.dispatch(envelope{Event: event, Origin: origin.String()})
}

func (b *Bridge) dispatch(env envelope) {
	if b.client == nil {
		b.deliver(env)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("failed to marshal event envelope", "error", err)
		return
	}
	if err := b.client.Publish(ctx, eventsChannel, data).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally", "error", err)
		b.deliver(env)
	}
}

func (b *Bridge) deliver(env envelope) {
	if len(env.Recipients) > 0 {
		b.hub.DeliverToUsers(env.Event, env.Recipients)
		return
	}
	if env.Event.ChatID != "" {
		origin, err := uuid.Parse(env.Origin)
		if err != nil {
			origin = uuid.Nil
		}
		b.hub.DeliverToChat(env.Event, env.Event.ChatID, origin)
	}
}

// Start runs the Redis subscriber loop until ctx is cancelled, with
// exponential backoff on connection errors.
func (b *Bridge) Start(ctx context.Context) {
	if b.client == nil {
		b.logger.Info("redis not configured; realtime events are local to this instance")
		return
	}
	go b.run(ctx)
}

func (b *Bridge) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := b.client.Subscribe(ctx, eventsChannel)
			defer pubsub.Close()

			b.logger.Info("chat event subscriber started", "channel", eventsChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					b.logger.Warn("redis subscriber error", "error", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}
				backoff = time.Second

				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("failed to unmarshal event envelope", "error", err)
					continue
				}
				b.deliver(env)
			}
		}()
	}
}
