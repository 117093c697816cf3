package statscache

import (
	"context"
	"fmt"
	"log"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
)

// Syncer переливает накопленные в кеше значения обратно в БД: забирает
// dirty-ключи, читает их текущие записи одним pipeline и применяет один
// пакетный UPDATE. Значения перезаписываются абсолютом, не дельтой, поэтому
// повторный прогон с теми же записями даёт то же состояние БД —
// at-least-once расписание безопасно.
type Syncer[V any] struct {
	name   string
	kv     KV
	dirty  *DirtySet
	apply  func(ctx context.Context, recs []V) (int, error)
	logger *log.Logger
}

func NewSyncer[V any](name string, kv KV, dirty *DirtySet, apply func(ctx context.Context, recs []V) (int, error), logger *log.Logger) *Syncer[V] {
	return &Syncer[V]{name: name, kv: kv, dirty: dirty, apply: apply, logger: logger}
}

func (s *Syncer[V]) Flush(ctx context.Context) error {
	keys, err := s.dirty.DrainAndClear(ctx)
	if err != nil {
		return fmt.Errorf("drain %s: %w", s.dirty.Name(), err)
	}
	if len(keys) == 0 {
		return nil
	}

	loaded, err := s.kv.LoadHashBatch(ctx, keys, func() any { return new(V) })
	if err != nil {
		// набор уже опустошён — возвращаем ключи, иначе обновления потеряются
		s.restore(ctx, keys)
		return fmt.Errorf("%w: batch load for %s: %v", domain.ErrSyncApply, s.name, err)
	}

	recs := make([]V, 0, len(keys))
	for _, k := range keys {
		v := loaded[k]
		if v == nil {
			// ключ истёк или был удалён между пометкой и flush-ом — ожидаемая
			// безвредная гонка
			s.logger.Printf("flush %s: %q gone between mark and flush, skipping", s.name, k)
			continue
		}
		recs = append(recs, *(v.(*V)))
	}
	if len(recs) == 0 {
		return nil
	}

	updated, err := s.apply(ctx, recs)
	if err != nil {
		s.restore(ctx, keys)
		return fmt.Errorf("%w: apply batch for %s: %v", domain.ErrSyncApply, s.name, err)
	}
	if updated < len(recs) {
		// строки, удалённые выше по течению: логируем, не ретраим
		s.logger.Printf("flush %s: %d/%d rows updated", s.name, updated, len(recs))
	} else {
		s.logger.Printf("flush %s: %d rows updated", s.name, updated)
	}
	return nil
}

func (s *Syncer[V]) restore(ctx context.Context, keys []string) {
	if err := s.dirty.Restore(ctx, keys); err != nil {
		s.logger.Printf("flush %s: restore %d dirty keys failed, pending updates may be lost until next mutation: %v",
			s.name, len(keys), err)
	}
}
