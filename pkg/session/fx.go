package session

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(
		NewTokenIssuer,
		func(rdb *redis.Client) RevocationStore { return NewRedisRevocationStore(rdb) },
		NewManager,
	),
)
