package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/spektr-org/equipdash/engine"
)

// ============================================================================
// STORE CONTRACT — run against every implementation
// ============================================================================
// MemoryStore and Redis (on miniredis) always run. Real Redis and Postgres
// run when EQUIPDASH_TEST_REDIS_ADDR / EQUIPDASH_TEST_POSTGRES_DSN point at
// a scratch instance; the tests flush what they write.
// ============================================================================

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func upload(i int) Upload {
	return Upload{
		ID:         fmt.Sprintf("u%d", i),
		Filename:   fmt.Sprintf("plant-%d.csv", i),
		UploadedAt: base.Add(time.Duration(i) * time.Minute),
	}
}

func records(n int) []engine.EquipmentRecord {
	out := make([]engine.EquipmentRecord, n)
	for i := range out {
		out[i] = engine.EquipmentRecord{
			ID:          fmt.Sprint(i + 1),
			Name:        fmt.Sprintf("Pump-%d", i+1),
			Type:        "Pump",
			Flowrate:    engine.Some(float64(10 * (i + 1))),
			Pressure:    engine.None(),
			Temperature: engine.Some(-4.5),
		}
	}
	return out
}

func runContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("Latest on empty store: %v", err)
		}
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get unknown: %v", err)
		}
		if _, err := s.Records(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Records unknown: %v", err)
		}
		h, err := s.History(ctx, 0)
		if err != nil || len(h) != 0 {
			t.Errorf("History on empty store: %v %v", h, err)
		}
	})

	t.Run("save and read", func(t *testing.T) {
		if err := s.Save(ctx, upload(1), records(3)); err != nil {
			t.Fatal(err)
		}
		latest, err := s.Latest(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if latest.ID != "u1" || latest.RecordCount != 3 || latest.Filename != "plant-1.csv" {
			t.Errorf("latest = %+v", latest)
		}

		got, err := s.Records(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || got[2].Name != "Pump-3" || got[2].Flowrate.Or(0) != 30 {
			t.Errorf("records = %+v", got)
		}
		if got[0].Pressure.Present() {
			t.Error("absent pressure came back present")
		}
		if got[0].Temperature.Or(0) != -4.5 {
			t.Errorf("temperature = %v", got[0].Temperature)
		}
	})

	t.Run("keeps newest five", func(t *testing.T) {
		for i := 2; i <= 7; i++ {
			if err := s.Save(ctx, upload(i), records(i)); err != nil {
				t.Fatal(err)
			}
		}

		h, err := s.History(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, u := range h {
			ids = append(ids, u.ID)
		}
		if fmt.Sprint(ids) != "[u7 u6 u5 u4 u3]" {
			t.Errorf("history = %v", ids)
		}
		if _, err := s.Records(ctx, "u2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("pruned upload still readable: %v", err)
		}

		h, _ = s.History(ctx, 2)
		if len(h) != 2 || h[0].ID != "u7" {
			t.Errorf("limited history = %+v", h)
		}
	})

	t.Run("empty record set", func(t *testing.T) {
		if err := s.Save(ctx, upload(8), nil); err != nil {
			t.Fatal(err)
		}
		got, err := s.Records(ctx, "u8")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("records = %#v, want empty slice", got)
		}
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runContract(t, NewMemoryStore())
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithKeep(2))

	recs := records(2)
	if err := s.Save(ctx, upload(1), recs); err != nil {
		t.Fatal(err)
	}
	recs[0].Name = "mutated"

	got, _ := s.Records(ctx, "u1")
	if got[0].Name != "Pump-1" {
		t.Error("store aliases caller slice")
	}
	got[1].Name = "mutated"
	again, _ := s.Records(ctx, "u1")
	if again[1].Name != "Pump-2" {
		t.Error("Records returns internal slice")
	}
}

func TestMemoryStoreResaveMovesToFront(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithKeep(3))
	for i := 1; i <= 3; i++ {
		_ = s.Save(ctx, upload(i), records(1))
	}
	_ = s.Save(ctx, upload(1), records(4))

	h, _ := s.History(ctx, 0)
	if len(h) != 3 || h[0].ID != "u1" || h[0].RecordCount != 4 {
		t.Errorf("history = %+v", h)
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Save(ctx, upload(i), records(i%4))
			_, _ = s.History(ctx, 0)
			_, _ = s.Latest(ctx)
		}(i)
	}
	wg.Wait()

	h, _ := s.History(ctx, 0)
	if len(h) != DefaultKeep {
		t.Errorf("history len = %d", len(h))
	}
}

func newMiniRedisStore(t *testing.T, opts ...Option) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	s := NewRedisStore(client, opts...)
	t.Cleanup(func() { s.Close() })
	return mr, s
}

func TestRedisStoreContractMiniredis(t *testing.T) {
	_, s := newMiniRedisStore(t)
	runContract(t, s)
}

func TestRedisStorePrunesEvictedKeys(t *testing.T) {
	mr, s := newMiniRedisStore(t, WithKeep(2))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if err := s.Save(ctx, upload(i), records(i)); err != nil {
			t.Fatal(err)
		}
	}

	for _, id := range []string{"u1", "u2"} {
		if mr.Exists(uploadKey(id)) || mr.Exists(recordsKey(id)) {
			t.Errorf("keys for %s survived pruning", id)
		}
	}
	for _, id := range []string{"u3", "u4"} {
		if !mr.Exists(uploadKey(id)) || !mr.Exists(recordsKey(id)) {
			t.Errorf("keys for %s missing", id)
		}
	}
	ids, err := mr.List(redisHistoryKey)
	if err != nil || len(ids) != 2 || ids[0] != "u4" {
		t.Errorf("history list = %v, %v", ids, err)
	}
}

func TestRedisStoreSkipsExpiredUploads(t *testing.T) {
	mr, s := newMiniRedisStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.Save(ctx, upload(i), records(i)); err != nil {
			t.Fatal(err)
		}
	}
	if ttl := mr.TTL(uploadKey("u1")); ttl != time.Hour {
		t.Errorf("upload ttl = %v", ttl)
	}

	mr.Del(uploadKey("u2"))
	h, err := s.History(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 || h[0].ID != "u3" || h[1].ID != "u1" {
		t.Errorf("history = %+v", h)
	}
	if _, err := s.Get(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get expired = %v", err)
	}

	mr.FastForward(time.Hour)
	if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest after expiry = %v", err)
	}
	if _, err := s.Records(ctx, "u3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Records after expiry = %v", err)
	}
}

func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("EQUIPDASH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EQUIPDASH_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, RedisConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatal(err)
	}
	s := NewRedisStore(client)
	defer s.Close()

	runContract(t, s)
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("EQUIPDASH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EQUIPDASH_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := NewPostgresPool(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	s := NewPostgresStore(pool)
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE uploads CASCADE`); err != nil {
		t.Fatal(err)
	}

	runContract(t, s)
}
