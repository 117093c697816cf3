package domain

// Префиксы ключей кеша — единое место, чтобы не расползались по коду.
// Формат стабилен между рестартами: этими же ключами ведётся dirty-set.
const (
	KeyPrefixPostStats    = "post:stats:"
	KeyPrefixCommentStats = "comment:stats:"
	KeyPrefixFollowStats  = "follow:stats:"
)

// Имена dirty-set'ов: какие ключи менялись с последнего flush
const (
	DirtySetPostStats    = "post:need_sync"
	DirtySetCommentStats = "comment:need_sync"
	DirtySetFollowStats  = "follow:need_sync"
)
