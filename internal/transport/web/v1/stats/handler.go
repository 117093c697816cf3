package stats

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/logx"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/mw"
	v1 "github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/v1"
)

// Интерфейсы того, что хендлеру нужно от стеков статистики.
// Реализация — internal/stats.

type PostStats interface {
	FindBy(ctx context.Context, id int64) (domain.PostStats, error)
	Like(ctx context.Context, postID int64) (int64, error)
	Unlike(ctx context.Context, postID int64) (int64, error)
}

type CommentStats interface {
	FindBy(ctx context.Context, id int64) (domain.CommentStats, error)
	Like(ctx context.Context, commentID int64) (int64, error)
	Unlike(ctx context.Context, commentID int64) (int64, error)
}

type FollowStats interface {
	FindBy(ctx context.Context, id int64) (domain.FollowStats, error)
	Follow(ctx context.Context, followerID, targetID int64) error
	Unfollow(ctx context.Context, followerID, targetID int64) error
}

// Deps: стеки плюс авторитетные источники для фолбэка — если записи нет
// и в кеше после наполнения, читаем строку напрямую, а не отдаём ошибку.
type Deps struct {
	Posts         PostStats
	PostsFallback domain.PostStatsSource
	Comments      CommentStats
	CommentsFB    domain.CommentStatsSource
	Follows       FollowStats
	FollowsFB     domain.FollowStatsSource
}

type Handler struct {
	Log  *log.Logger
	Deps Deps
}

// ---- посты ----

func (h *Handler) PostStats(w http.ResponseWriter, r *http.Request) {
	const op = "stats.post.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := pathID(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	s, err := h.Deps.Posts.FindBy(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		// кеш не наполнился — падаем назад на авторитетную строку
		s, err = h.Deps.PostsFallback.PostStatsByID(r.Context(), id)
	}
	if err != nil {
		logx.Error(h.Log, reqID, op, "stats unavailable", err, "post_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, s)
}

func (h *Handler) PostLike(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "stats.post.like", func(ctx context.Context, id int64) (any, error) {
		n, err := h.Deps.Posts.Like(ctx, id)
		return map[string]int64{"like_count": n}, err
	})
}

func (h *Handler) PostUnlike(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "stats.post.unlike", func(ctx context.Context, id int64) (any, error) {
		n, err := h.Deps.Posts.Unlike(ctx, id)
		return map[string]int64{"like_count": n}, err
	})
}

// ---- комментарии ----

func (h *Handler) CommentStats(w http.ResponseWriter, r *http.Request) {
	const op = "stats.comment.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := pathID(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	s, err := h.Deps.Comments.FindBy(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s, err = h.Deps.CommentsFB.CommentStatsByID(r.Context(), id)
	}
	if err != nil {
		logx.Error(h.Log, reqID, op, "stats unavailable", err, "comment_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, s)
}

func (h *Handler) CommentLike(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "stats.comment.like", func(ctx context.Context, id int64) (any, error) {
		n, err := h.Deps.Comments.Like(ctx, id)
		return map[string]int64{"like_count": n}, err
	})
}

func (h *Handler) CommentUnlike(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "stats.comment.unlike", func(ctx context.Context, id int64) (any, error) {
		n, err := h.Deps.Comments.Unlike(ctx, id)
		return map[string]int64{"like_count": n}, err
	})
}

// ---- подписки ----

func (h *Handler) MemberStats(w http.ResponseWriter, r *http.Request) {
	const op = "stats.member.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := pathID(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	s, err := h.Deps.Follows.FindBy(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s, err = h.Deps.FollowsFB.FollowStatsByID(r.Context(), id)
	}
	if err != nil {
		logx.Error(h.Log, reqID, op, "stats unavailable", err, "member_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, s)
}

func (h *Handler) MemberFollow(w http.ResponseWriter, r *http.Request) {
	h.follow(w, r, "stats.member.follow", h.Deps.Follows.Follow)
}

func (h *Handler) MemberUnfollow(w http.ResponseWriter, r *http.Request) {
	h.follow(w, r, "stats.member.unfollow", h.Deps.Follows.Unfollow)
}

// ---- общее ----

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64) (any, error)) {
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := pathID(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	data, err := fn(r.Context(), id)
	if err != nil {
		// FieldUpdateError отдаём наружу: молча уроненный лайк хуже ошибки
		logx.Error(h.Log, reqID, op, "mutation failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKData(w, r, data)
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64, int64) error) {
	reqID := mw.RequestIDFromCtx(r.Context())

	targetID, err := pathID(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	followerID, err := strconv.ParseInt(r.URL.Query().Get("follower_id"), 10, 64)
	if err != nil || followerID <= 0 || followerID == targetID {
		logx.Error(h.Log, reqID, op, "bad follower_id", domain.ErrBadParams)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if err := fn(r.Context(), followerID, targetID); err != nil {
		logx.Error(h.Log, reqID, op, "mutation failed", err, "target_id", targetID, "follower_id", followerID)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "target_id", targetID, "follower_id", followerID)
	v1.WriteOKData(w, r, "ok")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrBadParams
	}
	return id, nil
}
