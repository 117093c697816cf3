package statscache

import (
	"context"
	"strconv"
	"time"
)

// Policy — всё пер-доменное в одном значении: префикс ключа, TTL, имя
// dirty-set'а, извлечение identity и загрузка авторитетной строки.
// T — исходный элемент для пакетного наполнения (пост, комментарий, участник),
// V — кеш-запись со счётчиками.
type Policy[T, V any] struct {
	// Name используется в логах ("post", "comment", "follow")
	Name      string
	KeyPrefix string
	DirtySet  string
	TTL       time.Duration

	// IdentityOf возвращает id из кеш-записи; несовпадение с ключом —
	// сигнал порчи, запись считается промахом.
	IdentityOf func(V) int64
	// IdentityField — имя identity-поля в hash-записи. Дописывается, когда
	// мутация создала ключ сама (наполнение не прошло), чтобы flush не
	// отправил строку с нулевым id.
	IdentityField string
	// ItemID/FromItem: наполнение из уже материализованного элемента
	// (без похода в БД)
	ItemID   func(T) int64
	FromItem func(T) V
	// Empty — заглушка с нулевыми счётчиками на случай неудачного наполнения
	Empty func(id int64) V
	// LoadCurrent — точечное чтение авторитетной строки (Entity Source)
	LoadCurrent func(ctx context.Context, id int64) (V, error)
}

func (p Policy[T, V]) Key(id int64) string {
	return p.KeyPrefix + strconv.FormatInt(id, 10)
}
