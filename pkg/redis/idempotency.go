package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RecordedResponse is a replayable copy of the first response produced
// under an idempotency key.
type RecordedResponse struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

const idempotencyInFlight = "__in_flight__"

// IdempotencyStore keeps per-key response records with an in-flight
// marker so duplicate requests during processing are rejected rather
// than processed twice.
type IdempotencyStore struct {
	client *Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Begin claims the key. Returns the recorded response when the key was
// already completed, inFlight=true when another request holds it.
func (s *IdempotencyStore) Begin(ctx context.Context, scope, key string) (rec *RecordedResponse, inFlight bool, err error) {
	ok, err := s.client.rdb.SetNX(ctx, s.key(scope, key), idempotencyInFlight, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return nil, false, nil
	}

	raw, err := s.client.rdb.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, goredis.Nil) {
		// Expired between SetNX and Get; treat as fresh.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency read: %w", err)
	}
	if raw == idempotencyInFlight {
		return nil, true, nil
	}

	var recorded RecordedResponse
	if err := json.Unmarshal([]byte(raw), &recorded); err != nil {
		return nil, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return &recorded, false, nil
}

// Complete stores the response for replay.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string, rec RecordedResponse) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	return s.client.rdb.Set(ctx, s.key(scope, key), raw, s.ttl).Err()
}

// Release drops the in-flight marker after a failure so the client can
// retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	return s.client.rdb.Del(ctx, s.key(scope, key)).Err()
}
