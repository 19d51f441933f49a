package cache

import (
	"context"
	"fmt"
	"time"

	"guestbook/pkg/models"

	"github.com/redis/go-redis/v9"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Redis struct {
	client *redis.Client
}

// New connects to redisURL and pings it.
func New(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 3

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client}, nil
}

// Client exposes the underlying connection for the event broker.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// GetProto retrieves protobuf-encoded value from cache
func (r *Redis) GetProto(ctx context.Context, key string, dest proto.Message) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return proto.Unmarshal(val, dest) == nil
}

// SetProto stores protobuf-encoded value in cache
func (r *Redis) SetProto(ctx context.Context, key string, msg proto.Message, ttl time.Duration) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return
	}
	r.client.Set(ctx, key, data, ttl)
}

// GetEntries returns a cached snapshot.
func (r *Redis) GetEntries(ctx context.Context, key string) ([]models.Entry, bool) {
	var list structpb.ListValue
	if !r.GetProto(ctx, key, &list) {
		return nil, false
	}
	return models.EntriesFromProto(&list), true
}

func (r *Redis) SetEntries(ctx context.Context, key string, entries []models.Entry, ttl time.Duration) {
	r.SetProto(ctx, key, models.EntriesToProto(entries), ttl)
}

func (r *Redis) Del(ctx context.Context, keys ...string) {
	r.client.Del(ctx, keys...)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
