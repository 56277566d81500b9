// Package gamecache caches ready games in Redis so that repeated lookups of the
// same code do not hit the database.
package gamecache

import (
	"context"
	"encoding/json"
	nativeerrors "errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/games"
	"time"
)

// keyPrefix is the prefix for all keys used by the Cache.
const keyPrefix = "vrcafe:game:"

// Config for connecting to Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	// TTL is how long cached games are kept.
	TTL time.Duration
}

// client is the subset of redis.Cmdable that is used by Cache.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache implements games.Cache over Redis.
type Cache struct {
	client client
	ttl    time.Duration
}

// Connect creates a Redis client for the given Config and pings the server.
func Connect(ctx context.Context, config Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	err := rdb.Ping(ctx).Err()
	if err != nil {
		_ = rdb.Close()
		return nil, errors.Error{
			Code:    errors.ErrCommunication,
			Kind:    errors.KindCache,
			Err:     err,
			Message: "ping redis",
			Details: errors.Details{"addr": config.Addr},
		}
	}
	return rdb, nil
}

// New creates a new Cache using the given Redis client. Cached games expire
// after the given TTL.
func New(client client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

// key returns the Redis key for the game with the given canonical code.
func key(code string) string {
	return keyPrefix + code
}

// CachedGame returns the cached game with the given canonical code. The second
// return value is false on cache miss.
func (c *Cache) CachedGame(ctx context.Context, code string) (games.GameRecord, bool, error) {
	raw, err := c.client.Get(ctx, key(code)).Bytes()
	if err != nil {
		if nativeerrors.Is(err, redis.Nil) {
			return games.GameRecord{}, false, nil
		}
		return games.GameRecord{}, false, errors.Error{
			Code:    errors.ErrCommunication,
			Kind:    errors.KindCache,
			Err:     err,
			Message: "get cached game",
			Details: errors.Details{"game_code": code},
		}
	}
	var record games.GameRecord
	err = json.Unmarshal(raw, &record)
	if err != nil {
		return games.GameRecord{}, false, errors.Error{
			Code:    errors.ErrInternal,
			Kind:    errors.KindDecodeJSON,
			Err:     err,
			Message: "unmarshal cached game",
			Details: errors.Details{"game_code": code},
		}
	}
	return record, true, nil
}

// CacheGame caches the given record under its code.
func (c *Cache) CacheGame(ctx context.Context, record games.GameRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "marshal game record", errors.Details{"game_code": record.Code})
	}
	err = c.client.Set(ctx, key(record.Code), raw, c.ttl).Err()
	if err != nil {
		return errors.Error{
			Code:    errors.ErrCommunication,
			Kind:    errors.KindCache,
			Err:     err,
			Message: fmt.Sprintf("set cached game with ttl %v", c.ttl),
			Details: errors.Details{"game_code": record.Code},
		}
	}
	return nil
}
