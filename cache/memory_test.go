package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
)

func testPerms() []permission.Permission {
	return permission.CreateMany([]permission.Attributes{
		{Action: "read", Conditions: []string{"admin::is-creator"}},
		{Action: "update"},
	})
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	roleID := id.NewRoleID()

	// Miss
	if _, ok := c.Get(ctx, "t1", roleID); ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, "t1", roleID, testPerms())
	got, ok := c.Get(ctx, "t1", roleID)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].Action != "read" {
		t.Fatalf("unexpected cached permissions: %+v", got)
	}

	// Other tenant misses.
	if _, ok := c.Get(ctx, "t2", roleID); ok {
		t.Fatal("expected miss for another tenant")
	}
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewRoleID()
	perms := testPerms()

	c.Set(ctx, "t1", roleID, perms)
	perms[0].Conditions[0] = "changed"

	got, _ := c.Get(ctx, "t1", roleID)
	got[1].Action = "changed"

	again, _ := c.Get(ctx, "t1", roleID)
	if again[0].Conditions[0] != "admin::is-creator" || again[1].Action != "update" {
		t.Fatalf("cache entry was mutated through a caller slice: %+v", again)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))
	roleID := id.NewRoleID()

	c.Set(ctx, "t1", roleID, testPerms())
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "t1", roleID); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateRole(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	r1, r2 := id.NewRoleID(), id.NewRoleID()

	c.Set(ctx, "t1", r1, testPerms())
	c.Set(ctx, "t1", r2, testPerms())
	c.InvalidateRole(ctx, "t1", r1)

	if _, ok := c.Get(ctx, "t1", r1); ok {
		t.Fatal("expected r1 to be invalidated")
	}
	if _, ok := c.Get(ctx, "t1", r2); !ok {
		t.Fatal("expected r2 to survive")
	}
}

func TestMemoryCacheInvalidateTenant(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewRoleID()

	c.Set(ctx, "t1", roleID, testPerms())
	c.Set(ctx, "t2", roleID, testPerms())
	c.InvalidateTenant(ctx, "t1")

	if _, ok := c.Get(ctx, "t1", roleID); ok {
		t.Fatal("expected t1 to be invalidated")
	}
	if _, ok := c.Get(ctx, "t2", roleID); !ok {
		t.Fatal("expected t2 to survive")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for range 5 {
		c.Set(ctx, "t1", id.NewRoleID(), testPerms())
	}
	if c.Len() > 2 {
		t.Fatalf("expected at most 2 entries, got %d", c.Len())
	}
}
