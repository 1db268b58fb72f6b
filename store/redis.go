package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/spektr-org/equipdash/engine"
)

// ============================================================================
// REDIS STORE
// ============================================================================
// Keys:
//   equipdash:upload:<id>   JSON Upload
//   equipdash:records:<id>  JSON []EquipmentRecord
//   equipdash:history       list of ids, newest at the head, capped at keep
// ============================================================================

const (
	redisPrefix     = "equipdash:"
	redisHistoryKey = redisPrefix + "history"
)

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Printf("🔌 Connected to Redis at %s (db %d)", cfg.Addr, cfg.DB)
	return client, nil
}

// RedisStore keeps uploads in Redis.
type RedisStore struct {
	Client *redis.Client
	opts   options
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{Client: client, opts: applyOptions(opts)}
}

func uploadKey(id string) string  { return redisPrefix + "upload:" + id }
func recordsKey(id string) string { return redisPrefix + "records:" + id }

func (s *RedisStore) Save(ctx context.Context, upload Upload, records []engine.EquipmentRecord) error {
	upload.RecordCount = len(records)
	if records == nil {
		records = []engine.EquipmentRecord{}
	}

	uploadJSON, err := json.Marshal(upload)
	if err != nil {
		return fmt.Errorf("encode upload: %w", err)
	}
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	keep := int64(s.opts.keep)
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, uploadKey(upload.ID), uploadJSON, s.opts.ttl)
		pipe.Set(ctx, recordsKey(upload.ID), recordsJSON, s.opts.ttl)
		pipe.LRem(ctx, redisHistoryKey, 0, upload.ID)
		pipe.LPush(ctx, redisHistoryKey, upload.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save upload %s: %w", upload.ID, err)
	}

	// Prune ids past the cap, then trim the list.
	stale, err := s.Client.LRange(ctx, redisHistoryKey, keep, -1).Result()
	if err != nil {
		return fmt.Errorf("redis read history: %w", err)
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range stale {
			pipe.Del(ctx, uploadKey(id), recordsKey(id))
		}
		pipe.LTrim(ctx, redisHistoryKey, 0, keep-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis prune history: %w", err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context) (*Upload, error) {
	id, err := s.Client.LIndex(ctx, redisHistoryKey, 0).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis latest upload: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Upload, error) {
	raw, err := s.Client.Get(ctx, uploadKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get upload %s: %w", id, err)
	}
	var u Upload
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode upload %s: %w", id, err)
	}
	return &u, nil
}

func (s *RedisStore) Records(ctx context.Context, id string) ([]engine.EquipmentRecord, error) {
	raw, err := s.Client.Get(ctx, recordsKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get records %s: %w", id, err)
	}
	records := make([]engine.EquipmentRecord, 0)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode records %s: %w", id, err)
	}
	return records, nil
}

func (s *RedisStore) History(ctx context.Context, limit int) ([]Upload, error) {
	n := historyLimit(limit, s.opts.keep)
	ids, err := s.Client.LRange(ctx, redisHistoryKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read history: %w", err)
	}
	out := make([]Upload, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = uploadKey(id)
	}
	vals, err := s.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read uploads: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // expired
		}
		var u Upload
		if err := json.Unmarshal([]byte(str), &u); err != nil {
			return nil, fmt.Errorf("decode upload %s: %w", ids[i], err)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.Client.Close() }
