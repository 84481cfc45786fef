package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowLua purges, counts and conditionally adds in one round trip
// returns {count before add, admitted 0|1, oldest score or -1}
const slidingWindowLua = `
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. (now - window))
local count = redis.call('ZCARD', key)
local admitted = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  admitted = 1
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local score = -1
if oldest[2] then score = tonumber(oldest[2]) end
return {count, admitted, score}
`

var slidingWindowScript = redis.NewScript(slidingWindowLua)

// RedisStore keeps each window in a sorted set scored by unix ms
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
}

// NewRedisStore returns a store over rdb, keys are written under prefix
func NewRedisStore(rdb redis.Scripter, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// SlidingWindow implements Store
func (s *RedisStore) SlidingWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int, member string) (Window, error) {
	res, err := slidingWindowScript.Run(ctx, s.rdb, []string{s.prefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, member).Int64Slice()
	if err != nil {
		return Window{}, err
	}
	if len(res) != 3 {
		return Window{}, fmt.Errorf("sliding window script: unexpected reply %v", res)
	}
	w := Window{Count: int(res[0]), Admitted: res[1] == 1}
	if res[2] >= 0 {
		w.Oldest = time.UnixMilli(res[2])
	}
	return w, nil
}
