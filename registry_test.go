package authsession

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRegistry(t *testing.T, mutate func(*Config)) *Registry {
	t.Helper()

	cfg := defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	registry, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(registry.Close)

	return registry
}

func newThrottledRegistry(t *testing.T, mutate func(*Config)) (*Registry, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := defaultConfig()
	cfg.Confirmation.EnableThrottle = true
	if mutate != nil {
		mutate(&cfg)
	}

	registry, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(registry.Close)

	return registry, mr
}

type testIdentity struct {
	mask string
}

func (id testIdentity) Mask() string { return id.mask }

func TestCreateThenLookupReturnsSameSession(t *testing.T) {
	registry := newTestRegistry(t, nil)

	created := registry.Create("user-1", "alice!~a@host")

	found, ok := registry.Lookup("alice!~a@host")
	if !ok {
		t.Fatal("expected lookup hit after create")
	}
	if found != created {
		t.Fatal("expected lookup to return the identical session object")
	}
	if found.User() != "user-1" {
		t.Fatalf("expected opaque user reference preserved, got %v", found.User())
	}
}

func TestLookupAcceptsMaskerIdentity(t *testing.T) {
	registry := newTestRegistry(t, nil)

	created := registry.Create("user-1", "bob!~b@host")

	found, ok := registry.Lookup(testIdentity{mask: "bob!~b@host"})
	if !ok || found != created {
		t.Fatal("expected Masker identity to resolve to the same session")
	}

	if _, ok := registry.Lookup(42); ok {
		t.Fatal("expected lookup miss for unsupported identity type")
	}
}

func TestLookupIsExactMatchOnly(t *testing.T) {
	registry := newTestRegistry(t, nil)
	registry.Create("user-1", "alice!~a@host")

	if _, ok := registry.Lookup("alice"); ok {
		t.Fatal("expected no prefix matching")
	}
	if _, ok := registry.Lookup("ALICE!~a@host"); ok {
		t.Fatal("expected case-sensitive exact matching")
	}
}

func TestCreateSameMaskReplacesEntry(t *testing.T) {
	registry := newTestRegistry(t, nil)

	first := registry.Create("user-1", "carol!~c@host")
	first.Storage().Set("note", "original")

	second := registry.Create("user-2", "carol!~c@host")

	found, ok := registry.Lookup("carol!~c@host")
	if !ok || found != second {
		t.Fatal("expected the newer session to own the mask")
	}
	if registry.Len() != 1 {
		t.Fatalf("expected 1 registered session, got %d", registry.Len())
	}

	// The displaced object is unreachable via lookup but not mutated.
	if got, _ := first.Storage().Get("note"); got != "original" {
		t.Fatalf("displaced session storage mutated: %v", got)
	}
	if _, ok := second.Storage().Get("note"); ok {
		t.Fatal("replacement must not inherit the displaced session's storage")
	}
}

func TestSessionsHaveIndependentStorage(t *testing.T) {
	registry := newTestRegistry(t, nil)

	alice := registry.Create("user-1", "alice!~a@host")
	bob := registry.Create("user-2", "bob!~b@host")

	alice.Storage().Set(&counterPlugin{}, "alice-state")

	if _, ok := bob.Storage().Get(&counterPlugin{}); ok {
		t.Fatal("writing to one session's storage must not affect another")
	}
	if alice.Storage() == bob.Storage() {
		t.Fatal("sessions must not share a storage object")
	}
}

func TestMigrateMovesEntry(t *testing.T) {
	registry := newTestRegistry(t, nil)

	created := registry.Create("user-1", "old!~o@host")

	if err := registry.Migrate("old!~o@host", "new!~o@host"); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if _, ok := registry.Lookup("old!~o@host"); ok {
		t.Fatal("expected old mask to be gone")
	}
	found, ok := registry.Lookup("new!~o@host")
	if !ok || found != created {
		t.Fatal("expected new mask to resolve to the original session")
	}
	if created.Mask() != "new!~o@host" {
		t.Fatalf("expected session mask updated, got %q", created.Mask())
	}
}

func TestMigrateMissingMask(t *testing.T) {
	registry := newTestRegistry(t, nil)

	if err := registry.Migrate("ghost!~g@host", "new!~g@host"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMigrateOntoOccupiedMaskRejected(t *testing.T) {
	registry := newTestRegistry(t, nil)

	first := registry.Create("user-1", "alice!~a@host")
	first.Storage().Set("owner", "alice")
	second := registry.Create("user-2", "bob!~b@host")
	second.Storage().Set("owner", "bob")

	err := registry.Migrate("bob!~b@host", "alice!~a@host")
	if !errors.Is(err, ErrMaskOccupied) {
		t.Fatalf("expected ErrMaskOccupied, got %v", err)
	}

	// Neither session is dropped, renamed, or merged.
	if got, _ := registry.Lookup("alice!~a@host"); got != first {
		t.Fatal("occupant displaced by rejected migration")
	}
	if got, _ := registry.Lookup("bob!~b@host"); got != second {
		t.Fatal("migrating session lost its entry on rejected migration")
	}
	if got, _ := first.Storage().Get("owner"); got != "alice" {
		t.Fatal("storage merged on rejected migration")
	}
}

func TestMigrateOntoOwnMaskIsNoOp(t *testing.T) {
	registry := newTestRegistry(t, nil)
	created := registry.Create("user-1", "alice!~a@host")

	if err := registry.Migrate("alice!~a@host", "alice!~a@host"); err != nil {
		t.Fatalf("expected self-migration no-op, got %v", err)
	}
	if found, ok := registry.Lookup("alice!~a@host"); !ok || found != created {
		t.Fatal("self-migration must keep the entry")
	}
}

func TestMigrateEmptyMaskRejected(t *testing.T) {
	registry := newTestRegistry(t, nil)
	registry.Create("user-1", "alice!~a@host")

	if err := registry.Migrate("alice!~a@host", ""); !errors.Is(err, ErrInvalidMask) {
		t.Fatalf("expected ErrInvalidMask, got %v", err)
	}
}

func TestSetMaskDelegatesToMigration(t *testing.T) {
	registry := newTestRegistry(t, nil)

	session := registry.Create("user-1", "alice!~a@host")
	registry.Create("user-2", "bob!~b@host")

	if err := session.SetMask("bob!~b@host"); !errors.Is(err, ErrMaskOccupied) {
		t.Fatalf("expected ErrMaskOccupied via SetMask, got %v", err)
	}

	if err := session.SetMask("alice!~renamed@host"); err != nil {
		t.Fatalf("SetMask failed: %v", err)
	}
	if found, ok := registry.Lookup("alice!~renamed@host"); !ok || found != session {
		t.Fatal("expected SetMask to re-key the registry entry")
	}
	if _, ok := registry.Lookup("alice!~a@host"); ok {
		t.Fatal("expected old mask entry removed after SetMask")
	}
}

func TestStopRemovesEntryOnly(t *testing.T) {
	registry := newTestRegistry(t, func(c *Config) {
		c.Session.Duration = time.Hour
	})

	session := registry.Create("user-1", "alice!~a@host")
	session.Start()
	session.Storage().Set("k", "v")

	session.Stop()

	if _, ok := registry.Lookup("alice!~a@host"); ok {
		t.Fatal("expected lookup miss after stop")
	}

	// Stop does not clear expiration or storage on the lingering object.
	if _, started := session.Expiration(); !started {
		t.Fatal("expected expiration untouched by stop")
	}
	if got, _ := session.Storage().Get("k"); got != "v" {
		t.Fatal("expected storage untouched by stop")
	}

	// Idempotent.
	session.Stop()
}

func TestRegistryStopByMask(t *testing.T) {
	registry := newTestRegistry(t, nil)
	registry.Create("user-1", "alice!~a@host")

	if !registry.Stop("alice!~a@host") {
		t.Fatal("expected Stop to remove the entry")
	}
	if registry.Stop("alice!~a@host") {
		t.Fatal("expected second Stop to report no entry")
	}
	if registry.Stop(42) {
		t.Fatal("expected Stop with unsupported identity to report false")
	}
}

func TestStopAfterMigrationUsesCurrentMask(t *testing.T) {
	registry := newTestRegistry(t, nil)

	session := registry.Create("user-1", "old!~o@host")
	if err := session.SetMask("new!~o@host"); err != nil {
		t.Fatalf("SetMask failed: %v", err)
	}

	session.Stop()

	if registry.Len() != 0 {
		t.Fatalf("expected empty registry after stop, got %d", registry.Len())
	}
}

func TestAllReturnsSnapshotCopy(t *testing.T) {
	registry := newTestRegistry(t, nil)

	registry.Create("user-1", "alice!~a@host")
	registry.Create("user-2", "bob!~b@host")

	all := registry.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}

	delete(all, "alice!~a@host")
	if registry.Len() != 2 {
		t.Fatal("mutating the All copy must not affect the registry")
	}
}
