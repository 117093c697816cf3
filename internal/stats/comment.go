package stats

import (
	"context"
	"log"
	"time"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/statscache"
)

// Comment — стек статистики комментариев: лайки и число ответов.
type Comment struct {
	*statscache.Gateway[domain.CommentRow, domain.CommentStats]
	Syncer *statscache.Syncer[domain.CommentStats]
}

func NewComment(kv statscache.CacheStore, lock statscache.Locker, src domain.CommentStatsSource,
	store domain.CommentStatsStore, ttl time.Duration, tm statscache.Timings, logger *log.Logger) *Comment {

	pol := statscache.Policy[domain.CommentRow, domain.CommentStats]{
		Name:          "comment",
		KeyPrefix:     domain.KeyPrefixCommentStats,
		DirtySet:      domain.DirtySetCommentStats,
		TTL:           ttl,
		IdentityOf:    func(s domain.CommentStats) int64 { return s.CommentID },
		IdentityField: domain.FieldCommentID,
		ItemID:        func(r domain.CommentRow) int64 { return r.ID },
		FromItem: func(r domain.CommentRow) domain.CommentStats {
			return domain.CommentStats{CommentID: r.ID, LikeCount: r.LikeCount, RecommentCount: r.RecommentCount}
		},
		Empty:       func(id int64) domain.CommentStats { return domain.CommentStats{CommentID: id} },
		LoadCurrent: src.CommentStatsByID,
	}

	dirty := statscache.NewDirtySet(kv, pol.DirtySet, logger)
	return &Comment{
		Gateway: statscache.NewGateway(kv, lock, dirty, pol, tm, logger),
		Syncer:  statscache.NewSyncer("comment", kv, dirty, store.ApplyCommentStatsBatch, logger),
	}
}

func (c *Comment) Like(ctx context.Context, commentID int64) (int64, error) {
	return c.IncrementField(ctx, commentID, domain.FieldLikeCount)
}

func (c *Comment) Unlike(ctx context.Context, commentID int64) (int64, error) {
	return c.DecrementField(ctx, commentID, domain.FieldLikeCount)
}

func (c *Comment) RecommentAdded(ctx context.Context, commentID int64) (int64, error) {
	return c.IncrementField(ctx, commentID, domain.FieldRecommentCount)
}

func (c *Comment) RecommentRemoved(ctx context.Context, commentID int64) (int64, error) {
	return c.DecrementField(ctx, commentID, domain.FieldRecommentCount)
}
