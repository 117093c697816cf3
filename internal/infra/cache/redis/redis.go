package redisx

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb    *redis.Client
	logger *log.Logger
}

type Config struct {
	Addr     string
	DB       int
	Password string
}

func New(cfg Config, logger *log.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Cache{rdb: rdb, logger: logger}
}

func (c *Cache) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.logger.Printf("PING failed: %v", err)
	} else {
		c.logger.Println("PING ok")
	}
	return err
}

func (c *Cache) Close() {
	if c.rdb == nil {
		c.logger.Println("nothing to close")
		return
	}

	if err := c.rdb.Close(); err != nil {
		c.logger.Printf("error while closing: %v", err)
		return
	}

	c.logger.Println("closed")
}

// ---- Hash-записи статистики ----

// SaveHash сериализует поля rec (redis-теги) в hash под key и выставляет TTL.
// Существующие поля перезаписываются.
func (c *Cache) SaveHash(ctx context.Context, key string, rec any, ttl time.Duration) error {
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, rec)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Printf("HSET %q failed: %v", key, err)
		return err
	}
	c.logger.Printf("HSET %q ok (ttl=%s)", key, ttl)
	return nil
}

// LoadHash читает все поля key в dst (указатель на структуру с redis-тегами).
// Возвращает found=false если ключа нет или запись не распарсилась —
// битая запись эквивалентна промаху, наполнение повторится при следующем чтении.
func (c *Cache) LoadHash(ctx context.Context, key string, dst any) (bool, error) {
	cmd := c.rdb.HGetAll(ctx, key)
	if err := cmd.Err(); err != nil {
		c.logger.Printf("HGETALL %q failed: %v", key, err)
		return false, err
	}
	if len(cmd.Val()) == 0 {
		c.logger.Printf("HGETALL %q: not found", key)
		return false, nil
	}
	if err := cmd.Scan(dst); err != nil {
		c.logger.Printf("HGETALL %q: scan failed, treating as miss: %v", key, err)
		return false, nil
	}
	return true, nil
}

// LoadHashBatch читает пачку ключей одним pipeline (не по одному запросу на ключ).
// Для отсутствующего или битого ключа в результате лежит nil — частичный сбой
// деградирует до промаха по конкретному ключу, не роняя всю пачку.
func (c *Cache) LoadHashBatch(ctx context.Context, keys []string, newDst func() any) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil {
		c.logger.Printf("pipelined HGETALL (%d keys) failed: %v", len(keys), err)
		return nil, err
	}

	hits := 0
	for i, k := range keys {
		out[k] = nil
		if cmds[i].Err() != nil {
			c.logger.Printf("HGETALL %q in batch failed: %v", k, cmds[i].Err())
			continue
		}
		if len(cmds[i].Val()) == 0 {
			continue
		}
		dst := newDst()
		if err := cmds[i].Scan(dst); err != nil {
			c.logger.Printf("HGETALL %q in batch: scan failed, treating as miss: %v", k, err)
			continue
		}
		out[k] = dst
		hits++
	}
	c.logger.Printf("pipelined HGETALL: %d/%d hits", hits, len(keys))
	return out, nil
}

// IncrField атомарно сдвигает числовое поле hash-записи на delta.
// Отсутствующее поле Redis считает нулём до инкремента.
func (c *Cache) IncrField(ctx context.Context, key, field string, delta int64) (int64, error) {
	n, err := c.rdb.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		c.logger.Printf("HINCRBY %q %s %+d failed: %v", key, field, delta, err)
		return 0, err
	}
	c.logger.Printf("HINCRBY %q %s %+d -> %d", key, field, delta, n)
	return n, nil
}

// SetField пишет одно числовое поле (используется clamp-ом декремента до нуля).
func (c *Cache) SetField(ctx context.Context, key, field string, val int64) error {
	if err := c.rdb.HSet(ctx, key, field, val).Err(); err != nil {
		c.logger.Printf("HSET %q %s=%d failed: %v", key, field, val, err)
		return err
	}
	return nil
}

func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		c.logger.Printf("EXPIRE %q failed: %v", key, err)
		return err
	}
	return nil
}

// Exists проверяет наличие ключа.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Printf("EXISTS %q failed: %v", key, err)
		return false, err
	}
	return n == 1, nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.logger.Printf("DEL %v failed: %v", keys, err)
		return err
	}
	c.logger.Printf("DEL %v: deleted=%d", keys, n)
	return nil
}

// ---- Set-операции (dirty-set) ----

func (c *Cache) SAdd(ctx context.Context, set string, members ...string) error {
	if err := c.rdb.SAdd(ctx, set, members).Err(); err != nil {
		c.logger.Printf("SADD %q failed: %v", set, err)
		return err
	}
	return nil
}

func (c *Cache) SRem(ctx context.Context, set string, members ...string) error {
	if err := c.rdb.SRem(ctx, set, members).Err(); err != nil {
		c.logger.Printf("SREM %q failed: %v", set, err)
		return err
	}
	return nil
}

// DrainSet атомарно вычитывает и очищает set через SPOP с count.
// SPOP на сервере атомарен: добавление, гонящееся с drain-ом, попадает либо
// в текущий результат, либо останется в set-е до следующего цикла — не теряется.
// Читать SMEMBERS и отдельно DEL нельзя: ключи, добавленные между двумя
// вызовами, пропали бы.
func (c *Cache) DrainSet(ctx context.Context, set string) ([]string, error) {
	n, err := c.rdb.SCard(ctx, set).Result()
	if err != nil {
		c.logger.Printf("SCARD %q failed: %v", set, err)
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	members, err := c.rdb.SPopN(ctx, set, n).Result()
	if err != nil {
		c.logger.Printf("SPOP %q count=%d failed: %v", set, n, err)
		return nil, err
	}
	c.logger.Printf("SPOP %q: drained=%d", set, len(members))
	return members, nil
}
