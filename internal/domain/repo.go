package domain

import "context"

// Entity Source: точечные чтения авторитетного состояния счётчиков.
// Вызываются под пер-ключевым локом при первичном наполнении кеша,
// поэтому обязаны быть чтением по первичному ключу, не тяжёлым запросом.
type PostStatsSource interface {
	PostStatsByID(ctx context.Context, id int64) (PostStats, error)
}

type CommentStatsSource interface {
	CommentStatsByID(ctx context.Context, id int64) (CommentStats, error)
}

type FollowStatsSource interface {
	FollowStatsByID(ctx context.Context, id int64) (FollowStats, error)
}

// Store: одна параметризованная пакетная команда UPDATE на flush.
// Возвращает число реально обновлённых строк; 0 rows по конкретному id
// логируется и не ретраится (строка удалена выше по течению).
type PostStatsStore interface {
	ApplyPostStatsBatch(ctx context.Context, recs []PostStats) (int, error)
}

type CommentStatsStore interface {
	ApplyCommentStatsBatch(ctx context.Context, recs []CommentStats) (int, error)
}

type FollowStatsStore interface {
	ApplyFollowStatsBatch(ctx context.Context, recs []FollowStats) (int, error)
}
