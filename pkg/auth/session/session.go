package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/redis"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string         `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store keeps sessions in redis so logout and admin revocation take
// effect before token expiry.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(id string) string {
	return "session:" + id
}

func (s *Store) Create(ctx context.Context, userID uuid.UUID, role enums.UserRole) (*Session, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	sess := &Session{
		ID:        hex.EncodeToString(buf),
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Raw().Set(ctx, key(sess.ID), raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Raw().Get(ctx, key(id)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Store) Revoke(ctx context.Context, id string) error {
	return s.client.Raw().Del(ctx, key(id)).Err()
}
