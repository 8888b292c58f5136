// Package redis tracks hold-expiry timers for pending tickets. A key with a
// TTL is armed when seats are held; once the key lapses the reaper treats
// the hold as expired. The seat counts themselves live in the document
// store, never here.
package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const holdKeyPrefix = "hold:"

type Holds struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewHolds(client *redis.Client, ttl time.Duration) *Holds {
	return &Holds{Client: client, TTL: ttl}
}

// Arm starts (or restarts) the expiry timer for a pending ticket's hold.
func (h *Holds) Arm(ticketID string) error {
	return h.Client.Set(context.Background(), holdKeyPrefix+ticketID, "1", h.TTL).Err()
}

// Clear drops the timer, typically on confirmation or cancellation.
func (h *Holds) Clear(ticketID string) error {
	return h.Client.Del(context.Background(), holdKeyPrefix+ticketID).Err()
}

// Active reports whether the hold timer is still running. A missing key
// means the timer lapsed (or was never armed, which the reaper treats the
// same way: the hold is overdue).
func (h *Holds) Active(ticketID string) (bool, error) {
	_, err := h.Client.Get(context.Background(), holdKeyPrefix+ticketID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
