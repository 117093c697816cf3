package stats

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/domain"
)

type fakePostStats struct {
	findErr error
	stats   domain.PostStats
	likeErr error
	likes   int64
}

func (f *fakePostStats) FindBy(context.Context, int64) (domain.PostStats, error) {
	return f.stats, f.findErr
}
func (f *fakePostStats) Like(context.Context, int64) (int64, error)   { return f.likes, f.likeErr }
func (f *fakePostStats) Unlike(context.Context, int64) (int64, error) { return f.likes, f.likeErr }

type fakePostSource struct {
	stats domain.PostStats
	err   error
	calls int
}

func (f *fakePostSource) PostStatsByID(context.Context, int64) (domain.PostStats, error) {
	f.calls++
	return f.stats, f.err
}

func newHandler(deps Deps) *Handler {
	return &Handler{Log: log.New(io.Discard, "", 0), Deps: deps}
}

func doRequest(h http.HandlerFunc, method, target, id string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func TestPostStatsFromCache(t *testing.T) {
	svc := &fakePostStats{stats: domain.PostStats{PostID: 42, LikeCount: 6, CommentCount: 2}}
	src := &fakePostSource{}
	h := newHandler(Deps{Posts: svc, PostsFallback: src})

	w := doRequest(h.PostStats, http.MethodGet, "/v1/posts/42/stats", "42")

	require.Equal(t, http.StatusOK, w.Code)
	var env domain.APIEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var got domain.PostStats
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, domain.PostStats{PostID: 42, LikeCount: 6, CommentCount: 2}, got)
	assert.Equal(t, 0, src.calls, "при попадании фолбэк не дёргается")
}

func TestPostStatsFallsBackToSource(t *testing.T) {
	svc := &fakePostStats{findErr: domain.ErrNotFound}
	src := &fakePostSource{stats: domain.PostStats{PostID: 42, LikeCount: 5, CommentCount: 1}}
	h := newHandler(Deps{Posts: svc, PostsFallback: src})

	w := doRequest(h.PostStats, http.MethodGet, "/v1/posts/42/stats", "42")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, src.calls, "кеш не наполнился — читаем авторитетную строку")
}

func TestPostStatsNotFoundAnywhere(t *testing.T) {
	svc := &fakePostStats{findErr: domain.ErrNotFound}
	src := &fakePostSource{err: domain.ErrNotFound}
	h := newHandler(Deps{Posts: svc, PostsFallback: src})

	w := doRequest(h.PostStats, http.MethodGet, "/v1/posts/42/stats", "42")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostLike(t *testing.T) {
	svc := &fakePostStats{likes: 7}
	h := newHandler(Deps{Posts: svc})

	w := doRequest(h.PostLike, http.MethodPost, "/v1/posts/42/like", "42")

	require.Equal(t, http.StatusOK, w.Code)
	var env domain.APIEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.EqualValues(t, map[string]any{"like_count": float64(7)}, env.Data)
}

func TestPostLikeSurfacesFieldUpdateError(t *testing.T) {
	svc := &fakePostStats{likeErr: domain.ErrFieldUpdate}
	h := newHandler(Deps{Posts: svc})

	w := doRequest(h.PostLike, http.MethodPost, "/v1/posts/42/like", "42")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBadIDRejected(t *testing.T) {
	h := newHandler(Deps{Posts: &fakePostStats{}})

	w := doRequest(h.PostStats, http.MethodGet, "/v1/posts/abc/stats", "abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
