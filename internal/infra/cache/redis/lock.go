package redisx

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Лок на первичное наполнение кеш-записи: SET NX с TTL.
// hold ограничивает окно stampede, даже если держатель умер не разлочившись.
// Значение лока — uuid; TryLock возвращает его как токен владения, Unlock
// принимает токен назад и снимает лок только если тот всё ещё наш
// (compare-and-delete скрипт ниже). Запоздавший Unlock истёкшего захвата
// чужой лок не тронет.

const lockRetryInterval = time.Millisecond

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type Lock struct {
	rdb    *redis.Client
	logger *log.Logger
}

func NewLock(c *Cache, logger *log.Logger) *Lock {
	return &Lock{rdb: c.rdb, logger: logger}
}

func lockKey(key string) string { return "lock:" + key }

// TryLock пытается взять лок не дольше wait; взятый лок сам истекает через hold.
// Неудача (занят, таймаут, сетевая ошибка) — не фатальна: вызывающий
// деградирует до "повторим при следующем вызове".
func (l *Lock) TryLock(ctx context.Context, key string, wait, hold time.Duration) (string, bool) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey(key), token, hold).Result()
		if err != nil {
			l.logger.Printf("SETNX lock %q failed: %v", key, err)
			return "", false
		}
		if ok {
			return token, true
		}
		if time.Now().After(deadline) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(lockRetryInterval):
		}
	}
}

// Unlock идемпотентен и срабатывает только с токеном текущего держателя.
func (l *Lock) Unlock(ctx context.Context, key, token string) {
	if token == "" {
		return
	}
	if err := unlockScript.Run(ctx, l.rdb, []string{lockKey(key)}, token).Err(); err != nil {
		// лок всё равно истечёт сам по hold-таймауту
		l.logger.Printf("unlock %q failed: %v", key, err)
	}
}
