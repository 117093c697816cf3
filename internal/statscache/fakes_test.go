package statscache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Тестовая кеш-запись: аналог доменных *Stats, но без привязки к домену.
type testRecord struct {
	ID    int64 `redis:"id"`
	Likes int64 `redis:"likes"`
}

// fakeKV — in-memory замена Redis-адаптера: hash-записи как map поле→число,
// set-операции и drain атомарны под общим мьютексом.
type fakeKV struct {
	mu       sync.Mutex
	hashes   map[string]map[string]int64
	sets     map[string]map[string]struct{}
	ttls     map[string]time.Duration
	incrErr  error
	batchErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		hashes: make(map[string]map[string]int64),
		sets:   make(map[string]map[string]struct{}),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeKV) SaveHash(_ context.Context, key string, rec any, ttl time.Duration) error {
	r := rec.(testRecord)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[key] = map[string]int64{"id": r.ID, "likes": r.Likes}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) LoadHash(_ context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		return false, nil
	}
	r := dst.(*testRecord)
	r.ID = h["id"]
	r.Likes = h["likes"]
	return true, nil
}

func (f *fakeKV) LoadHashBatch(_ context.Context, keys []string, newDst func() any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		h, ok := f.hashes[k]
		if !ok {
			out[k] = nil
			continue
		}
		r := newDst().(*testRecord)
		r.ID = h["id"]
		r.Likes = h["likes"]
		out[k] = r
	}
	return out, nil
}

func (f *fakeKV) IncrField(_ context.Context, key, field string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	h, ok := f.hashes[key]
	if !ok {
		// как Redis: HINCRBY создаёт ключ и поле с нулём
		h = make(map[string]int64)
		f.hashes[key] = h
	}
	h[field] += delta
	return h[field], nil
}

func (f *fakeKV) SetField(_ context.Context, key, field string, val int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]int64)
		f.hashes[key] = h
	}
	h[field] = val
	return nil
}

func (f *fakeKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.hashes[key]
	return ok, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.hashes, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeKV) SAdd(_ context.Context, set string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sets[set]
	if !ok {
		s = make(map[string]struct{})
		f.sets[set] = s
	}
	for _, m := range members {
		s[m] = struct{}{}
	}
	return nil
}

func (f *fakeKV) SRem(_ context.Context, set string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.sets[set], m)
	}
	return nil
}

func (f *fakeKV) DrainSet(_ context.Context, set string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sets[set]
	if len(s) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	delete(f.sets, set)
	return out, nil
}

func (f *fakeKV) setMembers(set string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sets[set]))
	for m := range f.sets[set] {
		out = append(out, m)
	}
	return out
}

func (f *fakeKV) likesOf(key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hashes[key]["likes"]
}

func (f *fakeKV) ttlOf(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

// fakeLock — процессный аналог распределённого лока: честный mutual
// exclusion по ключу, ожидание с дедлайном, владение через токен.
// Истечение hold-таймаута моделируется явным expire.
type fakeLock struct {
	mu   sync.Mutex
	seq  int64
	held map[string]string // key -> токен текущего держателя
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[string]string)}
}

func (l *fakeLock) TryLock(ctx context.Context, key string, wait, _ time.Duration) (string, bool) {
	deadline := time.Now().Add(wait)
	for {
		l.mu.Lock()
		if _, busy := l.held[key]; !busy {
			l.seq++
			token := strconv.FormatInt(l.seq, 10)
			l.held[key] = token
			l.mu.Unlock()
			return token, true
		}
		l.mu.Unlock()
		if time.Now().After(deadline) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(100 * time.Microsecond):
		}
	}
}

// Unlock снимает лок только если токен совпадает с текущим держателем.
func (l *fakeLock) Unlock(_ context.Context, key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
}

// expire моделирует серверное истечение hold-таймаута у живого держателя.
func (l *fakeLock) expire(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
