package statscache

import (
	"context"
	"log"
)

// DirtySet — множество кеш-ключей, менявшихся с последнего flush.
// Живёт в том же Redis, имя набора задаётся политикой (post:need_sync и т.п.).
type DirtySet struct {
	kv     SetStore
	name   string
	logger *log.Logger
}

func NewDirtySet(kv SetStore, name string, logger *log.Logger) *DirtySet {
	return &DirtySet{kv: kv, name: name, logger: logger}
}

func (d *DirtySet) Name() string { return d.name }

// Mark идемпотентен: повторная пометка того же ключа — no-op на уровне set-а.
func (d *DirtySet) Mark(ctx context.Context, key string) error {
	return d.kv.SAdd(ctx, d.name, key)
}

// Unmark снимает пометку (при явном удалении сущности).
func (d *DirtySet) Unmark(ctx context.Context, key string) error {
	return d.kv.SRem(ctx, d.name, key)
}

// DrainAndClear атомарно забирает всё содержимое и очищает набор.
// Атомарность на сервере: пометка, гонящаяся с drain-ом, попадает либо в
// этот результат, либо в следующий — никогда в никакой.
func (d *DirtySet) DrainAndClear(ctx context.Context) ([]string, error) {
	return d.kv.DrainSet(ctx, d.name)
}

// Restore возвращает ключи в набор после неудачного пакетного flush-а,
// чтобы накопленные обновления не потерялись до следующей мутации.
func (d *DirtySet) Restore(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return d.kv.SAdd(ctx, d.name, keys...)
}
