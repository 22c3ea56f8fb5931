package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestSetMGetDel_HappyPath_AndMGetFiltersMissing(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.Set(ctx, "k1", []byte("v1"), 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := rc.Set(ctx, "k2", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := rc.MGet(ctx, []string{"k1", "k2", "missing"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("MGet size=%d want 2", len(got))
	}
	if string(got["k1"]) != "v1" || string(got["k2"]) != "v2" {
		t.Fatalf("unexpected values: %+v", got)
	}

	if err := rc.Del(ctx, "k1", "k2"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	got, err = rc.MGet(ctx, []string{"k1"})
	if err != nil {
		t.Fatalf("MGet after Del: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("deleted key still present: %+v", got)
	}
}

func TestSAddSMembers_ReverseIndexRoundTrip(t *testing.T) {
	rc, mr := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.SAdd(ctx, "tok:a", time.Minute, "cov1", "cov2"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if err := rc.SAdd(ctx, "tok:a", time.Minute, "cov2", "cov3"); err != nil {
		t.Fatalf("SAdd again: %v", err)
	}

	members, err := rc.SMembers(ctx, "tok:a")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("members = %v, want 3 distinct", members)
	}

	mr.FastForward(2 * time.Minute)
	members, err = rc.SMembers(ctx, "tok:a")
	if err != nil {
		t.Fatalf("SMembers after expiry: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("set survived its TTL: %v", members)
	}
}

func TestEntryTTL_Expires(t *testing.T) {
	rc, mr := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.Set(ctx, "short", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(time.Minute)

	got, err := rc.MGet(ctx, []string{"short"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entry survived its TTL: %+v", got)
	}
}

func TestContextCancel_IsRespected(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.Set(ctx, "k", []byte("v"), time.Second); err == nil {
		t.Fatalf("expected error on Set with canceled context")
	}
	if _, err := rc.MGet(ctx, []string{"k"}); err == nil {
		t.Fatalf("expected error on MGet with canceled context")
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
