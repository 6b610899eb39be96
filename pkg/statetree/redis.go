package statetree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/redis/go-redis/v9"
	"github.com/sofarbridge/sofarbridge/pkg/types"
)

// RedisStore implements the Store interface on Redis. Metadata lives under
// <prefix>:obj:<id>[.<field>] and is written with SetNX so existing entries
// are never rewritten; current values live under <prefix>:state:<id>.<field>
// and are overwritten on every run.
type RedisStore struct {
	client   *redis.Client
	addr     string
	password string
	db       int
	prefix   string
}

// configuredRedis sets up the Redis provider. It registers flags for
// configuration.
func configuredRedis() *RedisStore {
	addr := lflag.String("redis-addr", "127.0.0.1:6379", "Redis address for the state tree")
	password := lflag.String("redis-password", "", "Redis password")
	db := lflag.Int("redis-db", 0, "Redis database number")
	prefix := lflag.String("redis-prefix", "sofarcloud", "Key prefix for all state tree entries")

	r := &RedisStore{}

	lflag.Do(func() {
		r.addr = *addr
		r.password = *password
		r.db = *db
		r.prefix = *prefix
	})

	return r
}

// Validate checks if the provider is properly configured.
func (r *RedisStore) Validate() error {
	if r.addr == "" {
		return errors.New("redis address cannot be empty")
	}
	return nil
}

// Init connects to Redis and verifies the connection. This must be called
// before using the provider methods.
func (r *RedisStore) Init(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     r.addr,
		Password: r.password,
		DB:       r.db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", r.addr, err)
	}
	r.client = client
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *RedisStore) objectKey(id string) string {
	return r.prefix + ":obj:" + id
}

func (r *RedisStore) stateKey(id string) string {
	return r.prefix + ":state:" + id
}

type containerMeta struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type leafMeta struct {
	Type   string     `json:"type"`
	Common types.Leaf `json:"common"`
}

type stateUpdate struct {
	Val types.Value `json:"val"`
	Ack bool        `json:"ack"`
	TS  int64       `json:"ts"`
}

// EnsureContainer creates the container entry for a station. SetNX keeps an
// existing container's metadata untouched.
func (r *RedisStore) EnsureContainer(ctx context.Context, id, name string) error {
	b, err := json.Marshal(containerMeta{Type: "channel", Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal container %s: %w", id, err)
	}
	if err := r.client.SetNX(ctx, r.objectKey(id), b, 0).Err(); err != nil {
		return fmt.Errorf("failed to ensure container %s: %w", id, err)
	}
	return nil
}

// EnsureLeaf creates the leaf metadata entry <containerID>.<field> if absent.
func (r *RedisStore) EnsureLeaf(ctx context.Context, containerID string, leaf types.Leaf) error {
	b, err := json.Marshal(leafMeta{Type: "state", Common: leaf})
	if err != nil {
		return fmt.Errorf("failed to marshal leaf %s.%s: %w", containerID, leaf.Field, err)
	}
	key := r.objectKey(containerID + "." + leaf.Field)
	if err := r.client.SetNX(ctx, key, b, 0).Err(); err != nil {
		return fmt.Errorf("failed to ensure leaf %s.%s: %w", containerID, leaf.Field, err)
	}
	return nil
}

// WriteValue overwrites the current reading of a leaf, marked acknowledged.
func (r *RedisStore) WriteValue(ctx context.Context, containerID, field string, value types.Value) error {
	b, err := json.Marshal(stateUpdate{Val: value, Ack: true, TS: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to marshal value %s.%s: %w", containerID, field, err)
	}
	key := r.stateKey(containerID + "." + field)
	if err := r.client.Set(ctx, key, b, 0).Err(); err != nil {
		return fmt.Errorf("failed to write value %s.%s: %w", containerID, field, err)
	}
	return nil
}
