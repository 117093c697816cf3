package statscache

import (
	"context"
	"time"
)

// Минимальные интерфейсы, которые движку нужны от Redis-адаптера.
// Реализация — internal/infra/cache/redis.

type KV interface {
	SaveHash(ctx context.Context, key string, rec any, ttl time.Duration) error
	LoadHash(ctx context.Context, key string, dst any) (bool, error)
	LoadHashBatch(ctx context.Context, keys []string, newDst func() any) (map[string]any, error)
	IncrField(ctx context.Context, key, field string, delta int64) (int64, error)
	SetField(ctx context.Context, key, field string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type SetStore interface {
	SAdd(ctx context.Context, set string, members ...string) error
	SRem(ctx context.Context, set string, members ...string) error
	DrainSet(ctx context.Context, set string) ([]string, error)
}

// CacheStore — полный контракт Redis-адаптера: hash-записи + set-операции.
type CacheStore interface {
	KV
	SetStore
}

// Locker сериализует первичное наполнение одного ключа.
// TryLock ждёт не дольше wait и возвращает токен владения; взятый лок сам
// истекает через hold. Unlock снимает лок только с токеном текущего
// держателя — запоздавший вызов истёкшего захвата чужой лок не трогает.
type Locker interface {
	TryLock(ctx context.Context, key string, wait, hold time.Duration) (token string, ok bool)
	Unlock(ctx context.Context, key, token string)
}
