// Package notifications fans lifecycle events out to interested listeners
// over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"

	"feedbird/internal/models"
)

// Notifier publishes activity events into per-workspace Redis channels. A
// nil Redis client turns every method into a no-op so callers never need to
// guard for a missing broker.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func workspaceChannel(workspaceID string) string {
	return fmt.Sprintf("activities:workspace:%s", workspaceID)
}

// PublishActivity sends an activity to its workspace channel.
func (n *Notifier) PublishActivity(ctx context.Context, a models.Activity) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	return n.rdb.Publish(ctx, workspaceChannel(a.WorkspaceID), payload).Err()
}

// PublishBroadcast sends a payload to all workspaces.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, "activities:broadcast", payload).Err()
}

// StartPatternSubscriber subscribes to every workspace channel and the
// broadcast channel, calling onMessage for each incoming message.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "activities:workspace:*", "activities:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
	return nil
}
