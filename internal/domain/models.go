package domain

// Счётчики — всегда int64, в Redis живут полями hash-записи.
// Тег redis использует go-redis (HSet со структурой / HGetAll().Scan).

// Статистика поста
type PostStats struct {
	PostID       int64 `json:"post_id" redis:"post_id"`
	LikeCount    int64 `json:"like_count" redis:"like_count"`
	CommentCount int64 `json:"comment_count" redis:"comment_count"`
}

// Статистика комментария
type CommentStats struct {
	CommentID      int64 `json:"comment_id" redis:"comment_id"`
	LikeCount      int64 `json:"like_count" redis:"like_count"`
	RecommentCount int64 `json:"recomment_count" redis:"recomment_count"`
}

// Статистика подписок пользователя
type FollowStats struct {
	MemberID       int64 `json:"member_id" redis:"member_id"`
	FollowerCount  int64 `json:"follower_count" redis:"follower_count"`
	FollowingCount int64 `json:"following_count" redis:"following_count"`
}

// Срезы сущностей для пакетного наполнения кеша: при выдаче ленты строки
// уже материализованы, счётчики берутся из них без повторного похода в БД.
type PostRow struct {
	ID           int64
	LikeCount    int64
	CommentCount int64
}

type CommentRow struct {
	ID             int64
	LikeCount      int64
	RecommentCount int64
}

type MemberRow struct {
	ID             int64
	FollowerCount  int64
	FollowingCount int64
}

// Имена инкрементируемых полей (совпадают с redis-тегами выше)
const (
	FieldLikeCount      = "like_count"
	FieldCommentCount   = "comment_count"
	FieldRecommentCount = "recomment_count"
	FieldFollowerCount  = "follower_count"
	FieldFollowingCount = "following_count"
)

// Identity-поля hash-записей
const (
	FieldPostID    = "post_id"
	FieldCommentID = "comment_id"
	FieldMemberID  = "member_id"
)
