package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/miraj-net/miraj/internal/entities"
	"github.com/miraj-net/miraj/internal/service"
	"github.com/miraj-net/miraj/internal/storage"
)

func (s server) createUser(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /users Users CreateUser
	//
	// Register a user.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreateUserRequest"
	// responses:
	//   '201':
	//     description: User
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	u, err := s.s.CreateUser(r.Context(), service.CreateUserParams{
		Handle: req.Handle,
		Email:  req.Email,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err, "failed to create user")
		return
	}

	writeOK(w, http.StatusCreated, toAPIUser(u))
}

func (s server) updateProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /users/profile Users UpdateProfile
	//
	// Update the caller's handle and email.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/UpdateProfileRequest"
	// responses:
	//   '200':
	//     description: updated
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if err := s.s.UpdateProfile(r.Context(), userID, req.Handle, req.Email); err != nil {
		writeServiceError(r.Context(), w, err, "failed to update profile")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s server) getFeed(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /feed Feed GetFeed
	//
	// Return the viewer's feed. Posts outside the viewer's unlock window
	// come back gated, with content fields withheld.
	//
	// ---
	// parameters:
	// - name: limit
	//   description: limits count of returned posts
	//   in: query
	//   required: false
	//   default: 10
	//   minimum: 1
	//   maximum: 100
	// responses:
	//   '200':
	//     description: Feed
	//     schema:
	//       "$ref": "#/definitions/FeedResponse"
	//   '404':
	//     description: viewer not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var limit uint16
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.ParseUint(v, 10, 16)
		if err != nil || l == 0 || l > service.MaxFeedLimit {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		limit = uint16(l)
	}

	items, err := s.s.GetFeed(r.Context(), viewerID, limit)
	if err != nil {
		writeServiceError(r.Context(), w, err, "failed to get feed")
		return
	}

	writeOK(w, http.StatusOK, newFeedResponse(items))
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Publish a post. Moves the author's last-posted mark.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreatePostRequest"
	// responses:
	//   '201':
	//     description: Post
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	params := service.CreatePostParams{
		Author:   userID,
		Caption:  req.Caption,
		ImageRef: req.ImageRef,
	}

	if req.Location != nil {
		params.Location = &entities.Location{
			Name:      req.Location.Name,
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}

	p, err := s.s.CreatePost(r.Context(), params)
	if err != nil {
		writeServiceError(r.Context(), w, err, "failed to create post")
		return
	}

	writeOK(w, http.StatusCreated, toAPIPost(p))
}

func (s server) editCaption(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /posts/{id}/caption Posts EditCaption
	//
	// Change the caption of an owned post.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/EditCaptionRequest"
	// responses:
	//   '200':
	//     description: updated
	//   '403':
	//     description: not the owner
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req EditCaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if err := s.s.EditCaption(r.Context(), chi.URLParam(r, "id"), userID, req.Caption); err != nil {
		writeServiceError(r.Context(), w, err, "failed to edit caption")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{id} Posts DeletePost
	//
	// Delete an owned post.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: deleted
	//   '403':
	//     description: not the owner
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.s.DeletePost(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeServiceError(r.Context(), w, err, "failed to delete post")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s server) toggleLike(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/like Engagement ToggleLike
	//
	// Toggle the caller's like on a post. Returns the committed state.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Like state
	//     schema:
	//       "$ref": "#/definitions/LikeResponse"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '409':
	//     description: too much contention, retry
	//     schema:
	//       "$ref": "#/definitions/Error"

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := s.s.ToggleLike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "failed to toggle like")
		return
	}

	writeOK(w, http.StatusOK, newLikeResponse(res))
}

func (s server) addComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/comments Engagement AddComment
	//
	// Append a comment to a post.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/AddCommentRequest"
	// responses:
	//   '201':
	//     description: Comment
	//   '400':
	//     description: empty text
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	c, err := s.s.AddComment(r.Context(), chi.URLParam(r, "id"), userID, req.Text)
	if err != nil {
		writeServiceError(r.Context(), w, err, "failed to add comment")
		return
	}

	writeOK(w, http.StatusCreated, toAPIComment(c))
}

func (s server) listComments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id}/comments Engagement ListComments
	//
	// Return comments of a post, oldest first.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Comments
	//     schema:
	//       "$ref": "#/definitions/ListCommentsResponse"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	cc, err := s.s.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "failed to list comments")
		return
	}

	out := ListCommentsResponse{
		Comments: make([]Comment, len(cc)),
	}
	for i, v := range cc {
		out.Comments[i] = toAPIComment(v)
	}

	writeOK(w, http.StatusOK, out)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return "", false
	}

	return id, true
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		writeInternalError(ctx, w, message+": "+err.Error())
	}
}

func requestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}
