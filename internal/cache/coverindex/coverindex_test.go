package coverindex

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/open-spatial/geocell/internal/cache/redisstore"
	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/index"
	"github.com/open-spatial/geocell/internal/model"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	cli, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	s, err := New(cli, 16, time.Minute, time.Second, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, mr
}

func testCovering() cover.Covering {
	return cover.Covering{
		Tokens:    []string{"89283082803ffff", "89283082807ffff", "8928308280bffff"},
		Min:       "89283082803ffff",
		Max:       "8928308280bffff",
		Precision: 9,
	}
}

var testBox = model.BBox{South: 37.7, West: -122.5, North: 37.8, East: -122.4}

func TestPutGet_RoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if _, ok := s.Get(ctx, "h3", 9, testBox, 256); ok {
		t.Fatalf("empty store reported a hit")
	}

	want := testCovering()
	if err := s.Put(ctx, "h3", 9, testBox, 256, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := s.Get(ctx, "h3", 9, testBox, 256)
	if !ok {
		t.Fatalf("expected hit after Put")
	}
	if got.Min != want.Min || got.Max != want.Max || len(got.Tokens) != len(want.Tokens) {
		t.Fatalf("got %+v want %+v", got, want)
	}

	// A different request must not alias.
	if _, ok := s.Get(ctx, "h3", 8, testBox, 256); ok {
		t.Fatalf("different precision hit the same entry")
	}
	if _, ok := s.Get(ctx, "s2", 9, testBox, 256); ok {
		t.Fatalf("different scheme hit the same entry")
	}
}

func TestGet_FallsBackToRedisWhenLRUCold(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "h3", 9, testBox, 256, testCovering()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.lru.Purge()

	got, ok := s.Get(ctx, "h3", 9, testBox, 256)
	if !ok {
		t.Fatalf("expected redis hit after local purge")
	}
	if got.Precision != 9 {
		t.Fatalf("redis round trip corrupted entry: %+v", got)
	}

	// The redis hit must have refilled the local layer.
	if s.lru.Len() != 1 {
		t.Fatalf("lru len = %d after redis hit, want 1", s.lru.Len())
	}
}

func TestInvalidate_DropsCoveringsByToken(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "h3", 9, testBox, 256, testCovering()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	other := model.BBox{South: 10, West: 10, North: 11, East: 11}
	otherCov := cover.Covering{Tokens: []string{"891ea900003ffff"}, Min: "891ea900003ffff", Max: "891ea900003ffff", Precision: 9}
	if err := s.Put(ctx, "h3", 9, other, 256, otherCov); err != nil {
		t.Fatalf("Put other: %v", err)
	}

	if err := s.Invalidate(ctx, "h3", []string{"89283082807ffff"}); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if _, ok := s.Get(ctx, "h3", 9, testBox, 256); ok {
		t.Fatalf("covering mentioning the invalidated token survived")
	}
	// The unrelated covering is gone from the local layer but must still be
	// served from redis.
	if _, ok := s.Get(ctx, "h3", 9, other, 256); !ok {
		t.Fatalf("unrelated covering was dropped from redis")
	}
}

func TestInvalidate_FinerTokenSweepsAncestors(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "h3", 9, testBox, 256, testCovering()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	codec, err := index.Lookup("h3")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	children, err := codec.Children("89283082803ffff")
	if err != nil {
		t.Fatalf("children: %v", err)
	}

	// An event one precision finer than the covering must still drop it.
	if err := s.Invalidate(ctx, "h3", []string{children[0].Token}); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := s.Get(ctx, "h3", 9, testBox, 256); ok {
		t.Fatalf("covering containing the finer cell survived")
	}
}

func TestInvalidate_UnknownTokenIsHarmless(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Invalidate(context.Background(), "h3", []string{"8928308280fffff"}); err != nil {
		t.Fatalf("Invalidate unknown token: %v", err)
	}
}

func TestMemoryOnly_NoRedis(t *testing.T) {
	s, err := New(nil, 8, time.Minute, time.Second, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "s2", 12, testBox, 64, cover.Covering{Tokens: []string{"8085"}, Min: "8085", Max: "8085", Precision: 12}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := s.Get(ctx, "s2", 12, testBox, 64); !ok {
		t.Fatalf("memory-only store lost its entry")
	}
	if err := s.Invalidate(ctx, "s2", []string{"8085"}); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := s.Get(ctx, "s2", 12, testBox, 64); ok {
		t.Fatalf("entry survived invalidation")
	}
}
