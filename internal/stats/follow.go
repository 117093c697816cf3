package stats

import (
	"context"
	"log"
	"time"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/statscache"
)

// Follow — стек статистики подписок: подписчики и подписки участника.
type Follow struct {
	*statscache.Gateway[domain.MemberRow, domain.FollowStats]
	Syncer *statscache.Syncer[domain.FollowStats]
}

func NewFollow(kv statscache.CacheStore, lock statscache.Locker, src domain.FollowStatsSource,
	store domain.FollowStatsStore, ttl time.Duration, tm statscache.Timings, logger *log.Logger) *Follow {

	pol := statscache.Policy[domain.MemberRow, domain.FollowStats]{
		Name:          "follow",
		KeyPrefix:     domain.KeyPrefixFollowStats,
		DirtySet:      domain.DirtySetFollowStats,
		TTL:           ttl,
		IdentityOf:    func(s domain.FollowStats) int64 { return s.MemberID },
		IdentityField: domain.FieldMemberID,
		ItemID:        func(r domain.MemberRow) int64 { return r.ID },
		FromItem: func(r domain.MemberRow) domain.FollowStats {
			return domain.FollowStats{MemberID: r.ID, FollowerCount: r.FollowerCount, FollowingCount: r.FollowingCount}
		},
		Empty:       func(id int64) domain.FollowStats { return domain.FollowStats{MemberID: id} },
		LoadCurrent: src.FollowStatsByID,
	}

	dirty := statscache.NewDirtySet(kv, pol.DirtySet, logger)
	return &Follow{
		Gateway: statscache.NewGateway(kv, lock, dirty, pol, tm, logger),
		Syncer:  statscache.NewSyncer("follow", kv, dirty, store.ApplyFollowStatsBatch, logger),
	}
}

// Follow: у цели +1 подписчик, у подписавшегося +1 подписка.
// Две независимые атомарные мутации; частичный сбой отдаётся вызывающему.
func (f *Follow) Follow(ctx context.Context, followerID, targetID int64) error {
	if _, err := f.IncrementField(ctx, targetID, domain.FieldFollowerCount); err != nil {
		return err
	}
	_, err := f.IncrementField(ctx, followerID, domain.FieldFollowingCount)
	return err
}

func (f *Follow) Unfollow(ctx context.Context, followerID, targetID int64) error {
	if _, err := f.DecrementField(ctx, targetID, domain.FieldFollowerCount); err != nil {
		return err
	}
	_, err := f.DecrementField(ctx, followerID, domain.FieldFollowingCount)
	return err
}
