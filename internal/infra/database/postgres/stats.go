package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
)

// ---- Entity Source: точечные чтения для первичного наполнения кеша ----
// Вызываются под пер-ключевым локом, поэтому только чтение по PK.

func (r *PGRepo) PostStatsByID(ctx context.Context, id int64) (domain.PostStats, error) {
	q := r.qb().Select("id", "like_count", "comment_count").
		From(fmt.Sprintf("%s.posts", r.schema)).
		Where(sq.And{sq.Eq{"id": id}, sq.Expr("deleted_at IS NULL")})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostStatsByID", sqlStr, args)

	start := time.Now()
	var s domain.PostStats
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&s.PostID, &s.LikeCount, &s.CommentCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("PostStatsByID no row in %s id=%d", time.Since(start), id)
			return domain.PostStats{}, domain.ErrNotFound
		}
		r.logger.Printf("PostStatsByID scan error after %s: %v", time.Since(start), err)
		return domain.PostStats{}, err
	}
	r.logger.Printf("PostStatsByID ok in %s id=%d", time.Since(start), id)
	return s, nil
}

func (r *PGRepo) CommentStatsByID(ctx context.Context, id int64) (domain.CommentStats, error) {
	q := r.qb().Select("id", "like_count", "recomment_count").
		From(fmt.Sprintf("%s.comments", r.schema)).
		Where(sq.And{sq.Eq{"id": id}, sq.Expr("deleted_at IS NULL")})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CommentStatsByID", sqlStr, args)

	start := time.Now()
	var s domain.CommentStats
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&s.CommentID, &s.LikeCount, &s.RecommentCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("CommentStatsByID no row in %s id=%d", time.Since(start), id)
			return domain.CommentStats{}, domain.ErrNotFound
		}
		r.logger.Printf("CommentStatsByID scan error after %s: %v", time.Since(start), err)
		return domain.CommentStats{}, err
	}
	r.logger.Printf("CommentStatsByID ok in %s id=%d", time.Since(start), id)
	return s, nil
}

func (r *PGRepo) FollowStatsByID(ctx context.Context, id int64) (domain.FollowStats, error) {
	q := r.qb().Select("id", "follower_count", "following_count").
		From(fmt.Sprintf("%s.members", r.schema)).
		Where(sq.And{sq.Eq{"id": id}, sq.Expr("deleted_at IS NULL")})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("FollowStatsByID", sqlStr, args)

	start := time.Now()
	var s domain.FollowStats
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&s.MemberID, &s.FollowerCount, &s.FollowingCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("FollowStatsByID no row in %s id=%d", time.Since(start), id)
			return domain.FollowStats{}, domain.ErrNotFound
		}
		r.logger.Printf("FollowStatsByID scan error after %s: %v", time.Since(start), err)
		return domain.FollowStats{}, err
	}
	r.logger.Printf("FollowStatsByID ok in %s id=%d", time.Since(start), id)
	return s, nil
}

// ---- Пакетные UPDATE на flush ----
// Один pgx.Batch на вызов: N параметризованных UPDATE в одном roundtrip-е.
// Счётчики пишутся абсолютом — повторное применение тех же записей
// идемпотентно. 0 rows по id (строка удалена) логируется и не ретраится.

func (r *PGRepo) ApplyPostStatsBatch(ctx context.Context, recs []domain.PostStats) (int, error) {
	batch := &pgx.Batch{}
	for _, rec := range recs {
		q := r.qb().Update(fmt.Sprintf("%s.posts", r.schema)).
			Set("like_count", rec.LikeCount).
			Set("comment_count", rec.CommentCount).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.And{sq.Eq{"id": rec.PostID}, sq.Expr("deleted_at IS NULL")})
		sqlStr, args, _ := q.ToSql()
		batch.Queue(sqlStr, args...)
	}
	return r.sendStatsBatch(ctx, "ApplyPostStatsBatch", batch, func(i int) int64 { return recs[i].PostID })
}

func (r *PGRepo) ApplyCommentStatsBatch(ctx context.Context, recs []domain.CommentStats) (int, error) {
	batch := &pgx.Batch{}
	for _, rec := range recs {
		q := r.qb().Update(fmt.Sprintf("%s.comments", r.schema)).
			Set("like_count", rec.LikeCount).
			Set("recomment_count", rec.RecommentCount).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.And{sq.Eq{"id": rec.CommentID}, sq.Expr("deleted_at IS NULL")})
		sqlStr, args, _ := q.ToSql()
		batch.Queue(sqlStr, args...)
	}
	return r.sendStatsBatch(ctx, "ApplyCommentStatsBatch", batch, func(i int) int64 { return recs[i].CommentID })
}

func (r *PGRepo) ApplyFollowStatsBatch(ctx context.Context, recs []domain.FollowStats) (int, error) {
	batch := &pgx.Batch{}
	for _, rec := range recs {
		q := r.qb().Update(fmt.Sprintf("%s.members", r.schema)).
			Set("follower_count", rec.FollowerCount).
			Set("following_count", rec.FollowingCount).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.And{sq.Eq{"id": rec.MemberID}, sq.Expr("deleted_at IS NULL")})
		sqlStr, args, _ := q.ToSql()
		batch.Queue(sqlStr, args...)
	}
	return r.sendStatsBatch(ctx, "ApplyFollowStatsBatch", batch, func(i int) int64 { return recs[i].MemberID })
}

func (r *PGRepo) sendStatsBatch(ctx context.Context, op string, batch *pgx.Batch, idAt func(int) int64) (int, error) {
	start := time.Now()
	br := r.pool.SendBatch(ctx, batch)

	updated := 0
	var execErr error
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			execErr = err
			break
		}
		if tag.RowsAffected() == 0 {
			r.logger.Printf("%s: no row for id=%d (deleted upstream), skipping", op, idAt(i))
			continue
		}
		updated++
	}
	closeErr := br.Close()

	if execErr != nil {
		r.logger.Printf("%s exec error after %s: %v", op, time.Since(start), execErr)
		return 0, execErr
	}
	if closeErr != nil {
		r.logger.Printf("%s close error after %s: %v", op, time.Since(start), closeErr)
		return 0, closeErr
	}
	r.logger.Printf("%s ok in %s attempted=%d updated=%d", op, time.Since(start), batch.Len(), updated)
	return updated, nil
}
