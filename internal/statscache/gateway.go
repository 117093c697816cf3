package statscache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
)

// Timings — границы ожидания/удержания лока наполнения.
// Критическая секция — "перепроверить наличие, записать одну запись",
// поэтому hold намеренно короткий.
type Timings struct {
	LockWait time.Duration
	LockHold time.Duration
}

var DefaultTimings = Timings{
	LockWait: 3 * time.Millisecond,
	LockHold: 10 * time.Millisecond,
}

// Gateway — generic-шлюз кеша счётчиков: load-or-populate под локом плюс
// атомарные инкременты с обновлением TTL и пометкой ключа в dirty-set.
type Gateway[T, V any] struct {
	kv     KV
	lock   Locker
	dirty  *DirtySet
	pol    Policy[T, V]
	tm     Timings
	logger *log.Logger
}

func NewGateway[T, V any](kv KV, lock Locker, dirty *DirtySet, pol Policy[T, V], tm Timings, logger *log.Logger) *Gateway[T, V] {
	if tm.LockWait <= 0 {
		tm.LockWait = DefaultTimings.LockWait
	}
	if tm.LockHold <= 0 {
		tm.LockHold = DefaultTimings.LockHold
	}
	return &Gateway[T, V]{kv: kv, lock: lock, dirty: dirty, pol: pol, tm: tm, logger: logger}
}

func (g *Gateway[T, V]) Dirty() *DirtySet { return g.dirty }

// FindBy наполняет запись при промахе и читает её из кеша.
// Если записи всё равно нет (лок не взят, наполнение не прошло) —
// domain.ErrNotFound; вызывающий падает назад на авторитетную строку.
func (g *Gateway[T, V]) FindBy(ctx context.Context, id int64) (V, error) {
	key := g.pol.Key(id)
	if _, err := g.ensurePopulated(ctx, key, func(ctx context.Context) (V, error) {
		return g.pol.LoadCurrent(ctx, id)
	}); err != nil {
		g.logger.Printf("%s: populate %q failed: %v", g.pol.Name, key, err)
	}
	return g.read(ctx, id, key)
}

// IncrementField: убедиться в наполненности, атомарно +1, обновить TTL,
// пометить ключ грязным. Отсутствующее поле до инкремента считается нулём.
func (g *Gateway[T, V]) IncrementField(ctx context.Context, id int64, field string) (int64, error) {
	return g.shiftField(ctx, id, field, +1)
}

// DecrementField — то же с -1 и clamp-ом до нуля: отрицательный счётчик —
// след потерянного инкремента, не валидное состояние.
func (g *Gateway[T, V]) DecrementField(ctx context.Context, id int64, field string) (int64, error) {
	return g.shiftField(ctx, id, field, -1)
}

func (g *Gateway[T, V]) shiftField(ctx context.Context, id int64, field string, delta int64) (int64, error) {
	key := g.pol.Key(id)
	populated, err := g.ensurePopulated(ctx, key, func(ctx context.Context) (V, error) {
		return g.pol.LoadCurrent(ctx, id)
	})
	if err != nil {
		// наполнение восстанавливается локально; сама мутация атомарна и дальше
		g.logger.Printf("%s: populate %q before mutation failed: %v", g.pol.Name, key, err)
	}

	n, err := g.kv.IncrField(ctx, key, field, delta)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %+d on %q: %v", domain.ErrFieldUpdate, field, delta, key, err)
	}
	if !populated {
		// ключ родился из самого инкремента — дописываем identity-поле,
		// иначе flush отправил бы строку с нулевым id
		if err := g.kv.SetField(ctx, key, g.pol.IdentityField, id); err != nil {
			g.logger.Printf("%s: set identity on %q failed: %v", g.pol.Name, key, err)
		}
	}
	if n < 0 {
		g.logger.Printf("%s: %s on %q went negative (%d), clamping to 0", g.pol.Name, field, key, n)
		if err := g.kv.SetField(ctx, key, field, 0); err != nil {
			g.logger.Printf("%s: clamp %s on %q failed: %v", g.pol.Name, field, key, err)
		}
		n = 0
	}
	if err := g.kv.Expire(ctx, key, g.pol.TTL); err != nil {
		g.logger.Printf("%s: refresh ttl on %q failed: %v", g.pol.Name, key, err)
	}
	if err := g.dirty.Mark(ctx, key); err != nil {
		// без пометки значение не доедет до БД — это ошибка мутации
		return n, fmt.Errorf("%w: mark dirty %q: %v", domain.ErrFieldUpdate, key, err)
	}
	return n, nil
}

// FindAllByItems — пакетное чтение: один pipeline на все ключи, промахи
// наполняются из уже материализованных элементов (без похода в БД).
// Возвращает запись на каждый входной id; неудачное наполнение одного
// элемента не роняет пачку — на его месте заглушка с нулевыми счётчиками.
func (g *Gateway[T, V]) FindAllByItems(ctx context.Context, items []T) (map[int64]V, error) {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = g.pol.Key(g.pol.ItemID(it))
	}
	loaded, err := g.kv.LoadHashBatch(ctx, keys, func() any { return new(V) })
	if err != nil {
		return nil, err
	}

	out := make(map[int64]V, len(items))
	for i, it := range items {
		item := it
		id := g.pol.ItemID(item)
		out[id] = g.resolve(ctx, id, keys[i], loaded[keys[i]], func(context.Context) (V, error) {
			return g.pol.FromItem(item), nil
		})
	}
	return out, nil
}

// FindAllByID — как FindAllByItems, но промахи наполняются точечным чтением
// Entity Source.
func (g *Gateway[T, V]) FindAllByID(ctx context.Context, ids []int64) (map[int64]V, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = g.pol.Key(id)
	}
	loaded, err := g.kv.LoadHashBatch(ctx, keys, func() any { return new(V) })
	if err != nil {
		return nil, err
	}

	out := make(map[int64]V, len(ids))
	for i, id := range ids {
		id := id
		out[id] = g.resolve(ctx, id, keys[i], loaded[keys[i]], func(ctx context.Context) (V, error) {
			return g.pol.LoadCurrent(ctx, id)
		})
	}
	return out, nil
}

// Delete убирает запись и её пометку в dirty-set. Best effort: неудача
// логируется, не отдаётся — осиротевшая запись безвредно отвалится сама.
func (g *Gateway[T, V]) Delete(ctx context.Context, id int64) {
	key := g.pol.Key(id)
	if err := g.kv.Del(ctx, key); err != nil {
		g.logger.Printf("%s: delete %q failed (best effort): %v", g.pol.Name, key, err)
	}
	if err := g.dirty.Unmark(ctx, key); err != nil {
		g.logger.Printf("%s: unmark %q failed (best effort): %v", g.pol.Name, key, err)
	}
}

// ---- внутренности ----

// ensurePopulated — ядро протокола: двойная проверка наличия вокруг лока,
// чтобы при любом числе конкурентных промахов наполняющая запись была
// максимум одна. Не взятый лок — не ошибка: кто-то другой уже наполняет,
// перечитаем при следующем вызове.
func (g *Gateway[T, V]) ensurePopulated(ctx context.Context, key string, load func(context.Context) (V, error)) (bool, error) {
	exists, err := g.kv.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	token, ok := g.lock.TryLock(ctx, key, g.tm.LockWait, g.tm.LockHold)
	if !ok {
		g.logger.Printf("%s: %v on %q, populate deferred to next call", g.pol.Name, domain.ErrLockNotAcquired, key)
		return false, nil
	}
	defer g.lock.Unlock(ctx, key, token)

	exists, err = g.kv.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	rec, err := load(ctx)
	if err != nil {
		return false, fmt.Errorf("load current row for %q: %w", key, err)
	}
	if err := g.kv.SaveHash(ctx, key, rec, g.pol.TTL); err != nil {
		return false, err
	}
	return true, nil
}

// read достаёт запись и валидирует identity против ключа.
// Несовпадение — порча: запись сносится, чтобы следующий доступ наполнил заново.
func (g *Gateway[T, V]) read(ctx context.Context, id int64, key string) (V, error) {
	var rec V
	found, err := g.kv.LoadHash(ctx, key, &rec)
	if err != nil {
		return g.pol.Empty(id), err
	}
	if !found {
		return g.pol.Empty(id), domain.ErrNotFound
	}
	if got := g.pol.IdentityOf(rec); got != id {
		g.logger.Printf("%s: %v on %q: identity %d != %d, dropping entry",
			g.pol.Name, domain.ErrCacheCorrupted, key, got, id)
		if err := g.kv.Del(ctx, key); err != nil {
			g.logger.Printf("%s: drop corrupted %q failed: %v", g.pol.Name, key, err)
		}
		return g.pol.Empty(id), domain.ErrNotFound
	}
	return rec, nil
}

// resolve — один элемент пакетного чтения: попадание отдаём сразу,
// промах наполняем под тем же пер-ключевым локом и перечитываем один ключ.
func (g *Gateway[T, V]) resolve(ctx context.Context, id int64, key string, hit any, load func(context.Context) (V, error)) V {
	if hit != nil {
		rec := *(hit.(*V))
		if g.pol.IdentityOf(rec) == id {
			return rec
		}
		g.logger.Printf("%s: identity mismatch on %q in batch, dropping entry", g.pol.Name, key)
		if err := g.kv.Del(ctx, key); err != nil {
			g.logger.Printf("%s: drop corrupted %q failed: %v", g.pol.Name, key, err)
		}
	}
	if _, err := g.ensurePopulated(ctx, key, load); err != nil {
		g.logger.Printf("%s: populate %q in batch failed: %v", g.pol.Name, key, err)
		return g.pol.Empty(id)
	}
	rec, err := g.read(ctx, id, key)
	if err != nil {
		return g.pol.Empty(id)
	}
	return rec
}
