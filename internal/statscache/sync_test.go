package statscache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
)

// fakeStore — приёмник пакетных UPDATE: абсолютная перезапись по id,
// как делает настоящий Store.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[int64]testRecord
	applies int
	err     error
}

func newFakeStore(ids ...int64) *fakeStore {
	s := &fakeStore{rows: make(map[int64]testRecord)}
	for _, id := range ids {
		s.rows[id] = testRecord{ID: id}
	}
	return s
}

func (s *fakeStore) apply(_ context.Context, recs []testRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.applies++
	updated := 0
	for _, r := range recs {
		if _, ok := s.rows[r.ID]; !ok {
			continue // строка удалена выше по течению: 0 rows affected
		}
		s.rows[r.ID] = r
		updated++
	}
	return updated, nil
}

func newTestSyncer(kv *fakeKV, store *fakeStore) (*Syncer[testRecord], *DirtySet) {
	dirty := NewDirtySet(kv, "test:need_sync", testLogger())
	return NewSyncer("test", kv, dirty, store.apply, testLogger()), dirty
}

func TestFlushEndToEnd(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore(42)
	gw, _ := newTestGateway(kv, sourceReturning(testRecord{ID: 42, Likes: 5}))
	syn, _ := newTestSyncer(kv, store)

	// промах → наполнение из источника → инкремент
	rec, err := gw.FindBy(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, testRecord{ID: 42, Likes: 5}, rec)

	n, err := gw.IncrementField(context.Background(), 42, "likes")
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	assert.Contains(t, kv.setMembers("test:need_sync"), "test:stats:42")

	require.NoError(t, syn.Flush(context.Background()))

	assert.Equal(t, testRecord{ID: 42, Likes: 6}, store.rows[42])
	assert.Empty(t, kv.setMembers("test:need_sync"), "dirty-set пуст после flush")
	assert.EqualValues(t, 6, kv.likesOf("test:stats:42"), "flush не чистит кеш")
}

func TestFlushIdempotent(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore(1)
	syn, dirty := newTestSyncer(kv, store)

	require.NoError(t, kv.SaveHash(context.Background(), "test:stats:1", testRecord{ID: 1, Likes: 3}, time.Hour))

	// дважды с одними и теми же значениями — состояние БД одно и то же
	for i := 0; i < 2; i++ {
		require.NoError(t, dirty.Mark(context.Background(), "test:stats:1"))
		require.NoError(t, syn.Flush(context.Background()))
	}

	assert.Equal(t, testRecord{ID: 1, Likes: 3}, store.rows[1])
	assert.Equal(t, 2, store.applies)
}

func TestFlushSkipsGoneEntries(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore(1)
	syn, dirty := newTestSyncer(kv, store)

	// ключ помечен, но запись истекла между пометкой и flush-ом
	require.NoError(t, dirty.Mark(context.Background(), "test:stats:1"))

	require.NoError(t, syn.Flush(context.Background()))
	assert.Equal(t, 0, store.applies, "нечего применять — пачка не отправляется")
}

func TestFlushRestoresDirtyKeysOnApplyFailure(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore(1)
	store.err = errors.New("db down")
	syn, dirty := newTestSyncer(kv, store)

	require.NoError(t, kv.SaveHash(context.Background(), "test:stats:1", testRecord{ID: 1, Likes: 3}, time.Hour))
	require.NoError(t, dirty.Mark(context.Background(), "test:stats:1"))

	err := syn.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSyncApply)
	assert.Contains(t, kv.setMembers("test:need_sync"), "test:stats:1",
		"ключи возвращены в dirty-set, обновление не потеряно")

	// БД ожила — следующий flush доносит значение
	store.err = nil
	require.NoError(t, syn.Flush(context.Background()))
	assert.Equal(t, testRecord{ID: 1, Likes: 3}, store.rows[1])
}

func TestFlushLogsRowsGoneUpstream(t *testing.T) {
	kv := newFakeKV()
	store := newFakeStore(1) // строки 2 в БД нет
	syn, dirty := newTestSyncer(kv, store)

	require.NoError(t, kv.SaveHash(context.Background(), "test:stats:1", testRecord{ID: 1, Likes: 3}, time.Hour))
	require.NoError(t, kv.SaveHash(context.Background(), "test:stats:2", testRecord{ID: 2, Likes: 4}, time.Hour))
	require.NoError(t, dirty.Mark(context.Background(), "test:stats:1"))
	require.NoError(t, dirty.Mark(context.Background(), "test:stats:2"))

	// 0 rows по id=2 — не ошибка и не ретрай
	require.NoError(t, syn.Flush(context.Background()))
	assert.Equal(t, testRecord{ID: 1, Likes: 3}, store.rows[1])
	assert.Empty(t, kv.setMembers("test:need_sync"))
}

func TestDrainIsLossFreeUnderConcurrentMarks(t *testing.T) {
	kv := newFakeKV()
	dirty := NewDirtySet(kv, "test:need_sync", testLogger())

	const total = 500
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			_ = dirty.Mark(context.Background(), fmt.Sprintf("test:stats:%d", i))
		}
	}()

	// дренируем параллельно с пометками: каждый ключ обязан попасть
	// в какой-то из дренов — текущий или следующий, но не в никакой
	seen := make(map[string]struct{})
	drainInto := func() {
		keys, err := dirty.DrainAndClear(context.Background())
		require.NoError(t, err)
		for _, k := range keys {
			seen[k] = struct{}{}
		}
	}
	for {
		drainInto()
		select {
		case <-done:
			drainInto() // добираем хвост после последней пометки
			require.Len(t, seen, total)
			return
		default:
		}
	}
}
