// Package stats собирает generic-движок кеша счётчиков в пер-доменные
// стеки: политика + шлюз + синкер на каждый тип агрегата.
package stats

import (
	"context"
	"log"
	"time"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/statscache"
)

// Post — стек статистики постов: лайки и число комментариев.
type Post struct {
	*statscache.Gateway[domain.PostRow, domain.PostStats]
	Syncer *statscache.Syncer[domain.PostStats]
}

func NewPost(kv statscache.CacheStore, lock statscache.Locker, src domain.PostStatsSource,
	store domain.PostStatsStore, ttl time.Duration, tm statscache.Timings, logger *log.Logger) *Post {

	pol := statscache.Policy[domain.PostRow, domain.PostStats]{
		Name:          "post",
		KeyPrefix:     domain.KeyPrefixPostStats,
		DirtySet:      domain.DirtySetPostStats,
		TTL:           ttl,
		IdentityOf:    func(s domain.PostStats) int64 { return s.PostID },
		IdentityField: domain.FieldPostID,
		ItemID:        func(r domain.PostRow) int64 { return r.ID },
		FromItem: func(r domain.PostRow) domain.PostStats {
			return domain.PostStats{PostID: r.ID, LikeCount: r.LikeCount, CommentCount: r.CommentCount}
		},
		Empty:       func(id int64) domain.PostStats { return domain.PostStats{PostID: id} },
		LoadCurrent: src.PostStatsByID,
	}

	dirty := statscache.NewDirtySet(kv, pol.DirtySet, logger)
	return &Post{
		Gateway: statscache.NewGateway(kv, lock, dirty, pol, tm, logger),
		Syncer:  statscache.NewSyncer("post", kv, dirty, store.ApplyPostStatsBatch, logger),
	}
}

func (p *Post) Like(ctx context.Context, postID int64) (int64, error) {
	return p.IncrementField(ctx, postID, domain.FieldLikeCount)
}

func (p *Post) Unlike(ctx context.Context, postID int64) (int64, error) {
	return p.DecrementField(ctx, postID, domain.FieldLikeCount)
}

func (p *Post) CommentAdded(ctx context.Context, postID int64) (int64, error) {
	return p.IncrementField(ctx, postID, domain.FieldCommentCount)
}

func (p *Post) CommentRemoved(ctx context.Context, postID int64) (int64, error) {
	return p.DecrementField(ctx, postID, domain.FieldCommentCount)
}
