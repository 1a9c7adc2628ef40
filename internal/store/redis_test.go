package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisDraftsUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	s := NewRedisDrafts(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := s.LoadDraft(ctx); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
	if err := s.SaveDraft(ctx, sampleInvoice("000001", "A")); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
	if s.key != "invoice:draft:current" {
		t.Fatalf("unexpected key %q", s.key)
	}
}
