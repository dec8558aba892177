package backup

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/objstore/objstoretest"
)

func TestSweeper_RetentionBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	k29 := env.putAged(t, "backup_29.json.zst", days(29))
	k30 := env.putAged(t, "backup_30.json.zst", days(30))
	k31 := env.putAged(t, "backup_31.json.zst", days(31))

	// Same name stem, different prefix: never touched.
	if err := env.mem.Put(ctx, testPrefix+"-old/backup_99.json.zst", nil, nil); err != nil {
		t.Fatal(err)
	}
	env.mem.SetLastModified(testPrefix+"-old/backup_99.json.zst", env.clock.Now().Add(-days(99)))

	sw := NewSweeper(env.store, testPrefix, 30, 0, env.log)
	res, err := sw.Sweep(ctx, env.clock.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if !slices.Equal(res.Deleted, []string{k31}) {
		t.Errorf("Deleted = %v, want [%s]", res.Deleted, k31)
	}
	if res.Listed != 3 {
		t.Errorf("Listed = %d, want 3", res.Listed)
	}
	for _, k := range []string{k29, k30} {
		if _, err := env.mem.Head(ctx, k); err != nil {
			t.Errorf("%s should be kept: %v", k, err)
		}
	}
	if env.mem.Len() != 3 {
		t.Errorf("store has %d objects, want 3", env.mem.Len())
	}
}

func TestSweeper_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.putAged(t, "a", days(40))
	env.putAged(t, "b", days(35))
	env.putAged(t, "c", days(1))

	sw := NewSweeper(env.store, testPrefix, 30, 0, env.log)
	first, err := sw.Sweep(ctx, env.clock.Now())
	if err != nil {
		t.Fatalf("first Sweep: %v", err)
	}
	if len(first.Deleted) != 2 {
		t.Fatalf("first sweep deleted %d, want 2", len(first.Deleted))
	}

	deletesBefore := env.store.Calls(objstoretest.OpDelete)
	second, err := sw.Sweep(ctx, env.clock.Now())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if len(second.Deleted) != 0 || len(second.Failed) != 0 {
		t.Errorf("second sweep = %+v, want no-op", second)
	}
	if env.store.Calls(objstoretest.OpDelete) != deletesBefore {
		t.Error("second sweep should issue no deletes")
	}
}

func TestSweeper_DeleteFailureContinues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := env.putAged(t, "a", days(40))
	good := env.putAged(t, "b", days(41))
	env.store.FailDelete(bad, domain.ErrStoreTransient)

	sw := NewSweeper(env.store, testPrefix, 30, 0, env.log)
	res, err := sw.Sweep(ctx, env.clock.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !slices.Equal(res.Deleted, []string{good}) {
		t.Errorf("Deleted = %v, want [%s]", res.Deleted, good)
	}
	if len(res.Failed) != 1 || res.Failed[0].Key != bad || !errors.Is(res.Failed[0].Err, domain.ErrStoreTransient) {
		t.Errorf("Failed = %+v", res.Failed)
	}

	// The failed object is retried next time.
	env.store.Heal()
	res, err = sw.Sweep(ctx, env.clock.Now())
	if err != nil || !slices.Equal(res.Deleted, []string{bad}) {
		t.Errorf("retry sweep = %+v, %v", res, err)
	}
}

func TestSweeper_ListFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	env.putAged(t, "a", days(40))
	env.store.Fail(objstoretest.OpList, domain.ErrStorePermission)

	sw := NewSweeper(env.store, testPrefix, 30, 0, env.log)
	_, err := sw.Sweep(context.Background(), env.clock.Now())
	if !errors.Is(err, domain.ErrStorePermission) {
		t.Errorf("Sweep() error = %v, want ErrStorePermission", err)
	}
	if env.store.Calls(objstoretest.OpDelete) != 0 {
		t.Error("no deletes should be attempted after a listing failure")
	}
}

func TestSweeper_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	env.putAged(t, "a", days(40))
	env.putAged(t, "b", days(41))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sw := NewSweeper(env.store, testPrefix, 30, 1, env.log)
	if _, err := sw.Sweep(ctx, env.clock.Now()); !errors.Is(err, domain.ErrStoreTransient) {
		t.Errorf("Sweep() error = %v, want ErrStoreTransient", err)
	}
	if env.mem.Len() != 2 {
		t.Errorf("nothing should be deleted after cancellation, store has %d", env.mem.Len())
	}
}

func TestSweeper_Paced(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"a", "b", "c"} {
		env.putAged(t, name, days(40))
	}

	sw := NewSweeper(env.store, testPrefix, 30, 1000, env.log)
	if sw.limiter.Limit() != 1000 || sw.limiter.Burst() != 1 {
		t.Errorf("limiter = %v/%d", sw.limiter.Limit(), sw.limiter.Burst())
	}
	res, err := sw.Sweep(context.Background(), env.clock.Now())
	if err != nil || len(res.Deleted) != 3 {
		t.Errorf("Sweep() = %+v, %v", res, err)
	}
}

func TestSweeper_Expired(t *testing.T) {
	env := newTestEnv(t)
	old := env.putAged(t, "old", days(31))
	env.putAged(t, "new", days(2))

	sw := NewSweeper(env.store, testPrefix, 30, 0, env.log)
	expired, listed, err := sw.Expired(context.Background(), env.clock.Now())
	if err != nil {
		t.Fatalf("Expired: %v", err)
	}
	if listed != 2 || len(expired) != 1 || expired[0].Key != old {
		t.Errorf("Expired() = %+v, %d", expired, listed)
	}
	if env.mem.Len() != 2 {
		t.Error("Expired must not delete")
	}
	if got := sw.Cutoff(env.clock.Now()); !got.Equal(env.clock.Now().Add(-days(30))) {
		t.Errorf("Cutoff() = %v", got)
	}
}
