package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miraj-net/miraj/internal/entities"
	"github.com/miraj-net/miraj/internal/feed"
	"github.com/miraj-net/miraj/internal/service"
	"github.com/miraj-net/miraj/internal/service/mock"
	"github.com/miraj-net/miraj/internal/storage"
)

var timestamp = time.Unix(1000, 0).UTC()

func newTestRouter(t *testing.T) (chi.Router, *mock.MockService) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	svc := mock.NewMockService(ctrl)

	router := chi.NewRouter()
	router.Route("/v1", func(r chi.Router) {
		srv := server{s: svc}
		r.Post("/users", srv.createUser)
		r.Get("/feed", srv.getFeed)
		r.Post("/posts", srv.createPost)
		r.Put("/posts/{id}/caption", srv.editCaption)
		r.Delete("/posts/{id}", srv.deletePost)
		r.Post("/posts/{id}/like", srv.toggleLike)
		r.Get("/posts/{id}/comments", srv.listComments)
		r.Post("/posts/{id}/comments", srv.addComment)
	})

	return router, svc
}

func Test_getFeed(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().GetFeed(gomock.Any(), "viewer", uint16(20)).Return([]feed.Item{
		{
			Post: entities.Post{
				ID:        "1",
				Owner:     "viewer",
				Caption:   "mine",
				ImageRef:  "blob://1",
				LikeCount: 2,
				CreatedAt: timestamp,
			},
		},
		{
			Post: entities.Post{
				ID:        "2",
				Owner:     "other",
				LikeCount: 5,
				CreatedAt: timestamp,
			},
			Gated: true,
		},
	}, nil)

	r, err := http.NewRequest(http.MethodGet, "/v1/feed?limit=20", nil)
	require.NoError(t, err)
	r.Header.Set(userHeader, "viewer")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `
{
	"items": [
		{
			"id": "1",
			"owner": "viewer",
			"caption": "mine",
			"imageRef": "blob://1",
			"likeCount": 2,
			"createdAt": 1000,
			"gated": false
		},
		{
			"id": "2",
			"owner": "other",
			"likeCount": 5,
			"createdAt": 1000,
			"gated": true
		}
	]
}
	`, w.Body.String())
}

func Test_getFeed_Unauthenticated(t *testing.T) {
	router, _ := newTestRouter(t)

	r, err := http.NewRequest(http.MethodGet, "/v1/feed", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_getFeed_InvalidLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, q := range []string{"limit=0", "limit=abc", "limit=101"} {
		r, err := http.NewRequest(http.MethodGet, fmt.Sprintf("/v1/feed?%s", q), nil)
		require.NoError(t, err)
		r.Header.Set(userHeader, "viewer")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func Test_getFeed_ViewerNotFound(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().GetFeed(gomock.Any(), "ghost", uint16(0)).Return(nil, storage.ErrNotFound)

	r, err := http.NewRequest(http.MethodGet, "/v1/feed", nil)
	require.NoError(t, err)
	r.Header.Set(userHeader, "ghost")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_createUser(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().CreateUser(gomock.Any(), service.CreateUserParams{
		Handle: "alice",
		Email:  "alice@example.com",
	}).Return(&entities.User{
		ID:        "id",
		Handle:    "alice",
		Email:     "alice@example.com",
		CreatedAt: timestamp,
	}, nil)

	body := bytes.NewBufferString(`{"handle":"alice","email":"alice@example.com"}`)
	r, err := http.NewRequest(http.MethodPost, "/v1/users", body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `
{
	"id": "id",
	"handle": "alice",
	"email": "alice@example.com",
	"createdAt": 1000
}
	`, w.Body.String())
}

func Test_createPost(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().CreatePost(gomock.Any(), service.CreatePostParams{
		Author:   "author",
		Caption:  "hello",
		ImageRef: "blob://1",
		Location: &entities.Location{Name: "Kathmandu", Latitude: 27.7, Longitude: 85.3},
	}).Return(&entities.Post{
		ID:        "post",
		Owner:     "author",
		Caption:   "hello",
		ImageRef:  "blob://1",
		Location:  &entities.Location{Name: "Kathmandu", Latitude: 27.7, Longitude: 85.3},
		CreatedAt: timestamp,
		Version:   1,
	}, nil)

	body := bytes.NewBufferString(`{"caption":"hello","imageRef":"blob://1","location":{"name":"Kathmandu","latitude":27.7,"longitude":85.3}}`)
	r, err := http.NewRequest(http.MethodPost, "/v1/posts", body)
	require.NoError(t, err)
	r.Header.Set(userHeader, "author")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `
{
	"id": "post",
	"owner": "author",
	"caption": "hello",
	"imageRef": "blob://1",
	"location": {"name": "Kathmandu", "latitude": 27.7, "longitude": 85.3},
	"likeCount": 0,
	"createdAt": 1000
}
	`, w.Body.String())
}

func Test_createPost_InvalidArgument(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().CreatePost(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: empty image ref", service.ErrInvalidArgument))

	r, err := http.NewRequest(http.MethodPost, "/v1/posts", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	r.Header.Set(userHeader, "author")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_toggleLike(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().ToggleLike(gomock.Any(), "post", "user").Return(&service.LikeResult{
		LikeCount: 1,
		Liked:     true,
	}, nil)

	r, err := http.NewRequest(http.MethodPost, "/v1/posts/post/like", nil)
	require.NoError(t, err)
	r.Header.Set(userHeader, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"likeCount": 1, "liked": true}`, w.Body.String())
}

func Test_toggleLike_Conflict(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().ToggleLike(gomock.Any(), "post", "user").Return(nil, storage.ErrConflict)

	r, err := http.NewRequest(http.MethodPost, "/v1/posts/post/like", nil)
	require.NoError(t, err)
	r.Header.Set(userHeader, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func Test_toggleLike_NotFound(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().ToggleLike(gomock.Any(), "post", "user").Return(nil, storage.ErrNotFound)

	r, err := http.NewRequest(http.MethodPost, "/v1/posts/post/like", nil)
	require.NoError(t, err)
	r.Header.Set(userHeader, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_addComment(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().AddComment(gomock.Any(), "post", "user", "nice shot").Return(&entities.Comment{
		ID:        "comment",
		PostID:    "post",
		Author:    "user",
		Text:      "nice shot",
		CreatedAt: timestamp,
	}, nil)

	body := bytes.NewBufferString(`{"text":"nice shot"}`)
	r, err := http.NewRequest(http.MethodPost, "/v1/posts/post/comments", body)
	require.NoError(t, err)
	r.Header.Set(userHeader, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `
{
	"id": "comment",
	"author": "user",
	"text": "nice shot",
	"createdAt": 1000
}
	`, w.Body.String())
}

func Test_addComment_EmptyText(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().AddComment(gomock.Any(), "post", "user", "  ").
		Return(nil, fmt.Errorf("%w: empty comment text", service.ErrInvalidArgument))

	body := bytes.NewBufferString(`{"text":"  "}`)
	r, err := http.NewRequest(http.MethodPost, "/v1/posts/post/comments", body)
	require.NoError(t, err)
	r.Header.Set(userHeader, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_listComments(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().ListComments(gomock.Any(), "post").Return([]*entities.Comment{
		{ID: "1", PostID: "post", Author: "a", Text: "first", CreatedAt: timestamp},
		{ID: "2", PostID: "post", Author: "b", Text: "second", CreatedAt: timestamp.Add(time.Minute)},
	}, nil)

	r, err := http.NewRequest(http.MethodGet, "/v1/posts/post/comments", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `
{
	"comments": [
		{"id": "1", "author": "a", "text": "first", "createdAt": 1000},
		{"id": "2", "author": "b", "text": "second", "createdAt": 1060}
	]
}
	`, w.Body.String())
}

func Test_deletePost_PermissionDenied(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().DeletePost(gomock.Any(), "post", "stranger").Return(service.ErrPermissionDenied)

	r, err := http.NewRequest(http.MethodDelete, "/v1/posts/post", nil)
	require.NoError(t, err)
	r.Header.Set(userHeader, "stranger")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func Test_editCaption(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().EditCaption(gomock.Any(), "post", "owner", "updated").Return(nil)

	body := bytes.NewBufferString(`{"caption":"updated"}`)
	r, err := http.NewRequest(http.MethodPut, "/v1/posts/post/caption", body)
	require.NoError(t, err)
	r.Header.Set(userHeader, "owner")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}
