package web

import (
	"log"
	"net/http"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/mw"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/v1/health"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/v1/stats"
)

func newRouter(hh *health.Handler, sh *stats.Handler, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", hh.Liveness)
	mux.HandleFunc("GET /v1/readyz", hh.Readiness)

	// счётчики постов
	mux.HandleFunc("GET /v1/posts/{id}/stats", sh.PostStats)
	mux.HandleFunc("POST /v1/posts/{id}/like", sh.PostLike)
	mux.HandleFunc("DELETE /v1/posts/{id}/like", sh.PostUnlike)

	// счётчики комментариев
	mux.HandleFunc("GET /v1/comments/{id}/stats", sh.CommentStats)
	mux.HandleFunc("POST /v1/comments/{id}/like", sh.CommentLike)
	mux.HandleFunc("DELETE /v1/comments/{id}/like", sh.CommentUnlike)

	// подписки
	mux.HandleFunc("GET /v1/members/{id}/stats", sh.MemberStats)
	mux.HandleFunc("POST /v1/members/{id}/follow", sh.MemberFollow)
	mux.HandleFunc("DELETE /v1/members/{id}/follow", sh.MemberUnfollow)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}
