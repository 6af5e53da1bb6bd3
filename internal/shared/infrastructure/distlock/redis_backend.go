package distlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireScript sets every key with PX only when none of them exists.
// KEYS are the lock keys, ARGV[1] the token, ARGV[2] the lease in ms.
var acquireScript = redis.NewScript(`
for i = 1, #KEYS do
	if redis.call('EXISTS', KEYS[i]) == 1 then
		return 0
	end
end
for i = 1, #KEYS do
	redis.call('SET', KEYS[i], ARGV[1], 'PX', ARGV[2])
end
return 1
`)

// releaseScript deletes only the keys whose value is still the caller's token.
var releaseScript = redis.NewScript(`
local released = 0
for i = 1, #KEYS do
	if redis.call('GET', KEYS[i]) == ARGV[1] then
		redis.call('DEL', KEYS[i])
		released = released + 1
	end
end
return released
`)

// RedisBackend runs the lock protocol as Lua scripts so each attempt is
// atomic on the server. Keys of one attempt must share a hash tag when
// running against Redis Cluster.
type RedisBackend struct {
	client redis.Scripter
}

// NewRedisBackend creates a backend on top of any go-redis client.
func NewRedisBackend(client redis.Scripter) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) TryAcquire(ctx context.Context, keys []string, token string, lease time.Duration) (bool, error) {
	n, err := acquireScript.Run(ctx, b.client, keys, token, lease.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (b *RedisBackend) Release(ctx context.Context, keys []string, token string) (int, error) {
	return releaseScript.Run(ctx, b.client, keys, token).Int()
}
