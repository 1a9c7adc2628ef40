package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisDrafts keeps the draft slot in Redis, under one key.
type RedisDrafts struct {
	rdb *redis.Client
	key string
}

var _ Drafts = (*RedisDrafts)(nil)

func NewRedisDrafts(rdb *redis.Client) *RedisDrafts {
	return &RedisDrafts{rdb: rdb, key: "invoice:draft:" + DraftSlot}
}

func (s *RedisDrafts) SaveDraft(ctx context.Context, inv models.Invoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.rdb.Set(ctx, s.key, payload, 0).Err()
}

func (s *RedisDrafts) LoadDraft(ctx context.Context) (models.Invoice, bool, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Invoice{}, false, nil
	}
	if err != nil {
		return models.Invoice{}, false, err
	}
	var inv models.Invoice
	if err := json.Unmarshal(b, &inv); err != nil {
		return models.Invoice{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return inv, true, nil
}

func (s *RedisDrafts) ClearDraft(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
