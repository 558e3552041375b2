package metrics

import (
	"sync"
	"testing"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	t.Parallel()

	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncEntityCreated("tasks")
			m.IncPrincipalCacheHit()
		}()
	}
	wg.Wait()

	m.IncEntityUpdated("labels")
	m.IncEntityDeleted("tasks")
	m.IncEntityFailure("tasks", "not_found")
	m.IncEntityFailure("tasks", "not_found")
	m.IncAuthFailure("invalid_token")
	m.IncPrincipalCacheMiss()
	m.IncRateLimited()

	snap := m.Snapshot()

	if snap.EntitiesCreated["tasks"] != 10 {
		t.Errorf("EntitiesCreated[tasks] = %d, want 10", snap.EntitiesCreated["tasks"])
	}
	if snap.EntitiesUpdated["labels"] != 1 {
		t.Errorf("EntitiesUpdated[labels] = %d, want 1", snap.EntitiesUpdated["labels"])
	}
	if snap.EntitiesDeleted["tasks"] != 1 {
		t.Errorf("EntitiesDeleted[tasks] = %d, want 1", snap.EntitiesDeleted["tasks"])
	}
	if got := snap.EntityFailures[FailureKey{"tasks", "not_found"}]; got != 2 {
		t.Errorf("EntityFailures = %d, want 2", got)
	}
	if snap.AuthFailures["invalid_token"] != 1 {
		t.Errorf("AuthFailures = %d, want 1", snap.AuthFailures["invalid_token"])
	}
	if snap.PrincipalCacheHits != 10 || snap.PrincipalCacheMisses != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 10/1", snap.PrincipalCacheHits, snap.PrincipalCacheMisses)
	}
	if snap.RateLimited != 1 {
		t.Errorf("RateLimited = %d, want 1", snap.RateLimited)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncEntityCreated("tasks")

	snap := m.Snapshot()
	snap.EntitiesCreated["tasks"] = 100

	if m.Snapshot().EntitiesCreated["tasks"] != 1 {
		t.Error("mutating a snapshot changed the recorder")
	}
}
