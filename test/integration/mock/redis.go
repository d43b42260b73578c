package mock

import (
	"context"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var redisOnce sync.Once
var redisServer *miniredis.Miniredis
var redisConn *redis.Client

// NewRedis starts one in-process Redis shared by every scenario.
func NewRedis() (*miniredis.Miniredis, *redis.Client) {
	redisOnce.Do(func() {
		server, err := miniredis.Run()
		if err != nil {
			panic(err)
		}
		redisServer = server
		redisConn = redis.NewClient(&redis.Options{
			Addr: server.Addr(),
		})
	})

	return redisServer, redisConn
}

func ClearRedis(client *redis.Client) error {
	return client.FlushAll(context.TODO()).Err()
}
