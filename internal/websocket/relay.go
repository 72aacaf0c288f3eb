package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/metrics"
)

const relayChannel = "streamhub:rooms"

type relayEnvelope struct {
	InstanceID string          `json:"instance_id"`
	Room       string          `json:"room"`
	Frame      json.RawMessage `json:"frame,omitempty"`
	// Evict carries the reason when the envelope is an eviction, not a frame.
	Evict string `json:"evict,omitempty"`
}

// RedisRelay shares room frames between instances over Redis pub/sub.
// Frames published by this instance are ignored on the way back in.
type RedisRelay struct {
	client     *redis.Client
	hub        *Hub
	instanceID string
	channel    string
	log        *zap.Logger
	pubsub     *redis.PubSub
}

func NewRedisRelay(client *redis.Client, hub *Hub, instanceID string, log *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client:     client,
		hub:        hub,
		instanceID: instanceID,
		channel:    relayChannel,
		log:        log,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, room string, frame []byte) error {
	return r.publish(ctx, relayEnvelope{
		InstanceID: r.instanceID,
		Room:       room,
		Frame:      frame,
	})
}

// PublishEvict asks the other instances to drop their members of room.
func (r *RedisRelay) PublishEvict(ctx context.Context, room, reason string) error {
	return r.publish(ctx, relayEnvelope{
		InstanceID: r.instanceID,
		Room:       room,
		Evict:      reason,
	})
}

func (r *RedisRelay) publish(ctx context.Context, env relayEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal relay frame: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish relay frame: %w", err)
	}
	metrics.RelayMessages.WithLabelValues("out").Inc()
	return nil
}

// Start subscribes and returns once the subscription is confirmed; frames
// are then delivered in the background until ctx is done.
func (r *RedisRelay) Start(ctx context.Context) error {
	if r.pubsub != nil {
		return errors.New("relay already started")
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.pubsub = pubsub

	go r.consume(ctx, pubsub.Channel())
	return nil
}

func (r *RedisRelay) consume(ctx context.Context, ch <-chan *redis.Message) {
	defer r.pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn("invalid relay frame", zap.Error(err))
				continue
			}
			if env.InstanceID == r.instanceID {
				continue
			}
			metrics.RelayMessages.WithLabelValues("in").Inc()
			if env.Evict != "" {
				r.hub.EvictLocal(env.Room, env.Evict)
				continue
			}
			r.hub.DeliverLocal(env.Room, env.Frame)
		}
	}
}
