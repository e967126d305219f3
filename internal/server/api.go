package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/miraj-net/miraj/internal/entities"
	"github.com/miraj-net/miraj/internal/feed"
	"github.com/miraj-net/miraj/internal/service"
)

// userHeader carries the verified caller id. It is set by the upstream
// authentication gateway, never by the client itself.
const userHeader = "X-Miraj-User"

// Error ...
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// CreateUserRequest ...
type CreateUserRequest struct {
	Handle string `json:"handle"`
	Email  string `json:"email"`
}

// UpdateProfileRequest ...
type UpdateProfileRequest struct {
	Handle string `json:"handle"`
	Email  string `json:"email"`
}

// User ...
type User struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	Email        string `json:"email,omitempty"`
	LastPostedAt uint64 `json:"lastPostedAt,omitempty"`
	CreatedAt    uint64 `json:"createdAt"`
}

// Location ...
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreatePostRequest ...
type CreatePostRequest struct {
	Caption  string    `json:"caption"`
	ImageRef string    `json:"imageRef"`
	Location *Location `json:"location,omitempty"`
}

// EditCaptionRequest ...
type EditCaptionRequest struct {
	Caption string `json:"caption"`
}

// Post ...
type Post struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Caption   string    `json:"caption,omitempty"`
	ImageRef  string    `json:"imageRef,omitempty"`
	Location  *Location `json:"location,omitempty"`
	LikeCount uint32    `json:"likeCount"`
	CreatedAt uint64    `json:"createdAt"`
}

// FeedItem is a feed entry. Gated entries carry no caption, image ref or
// location.
type FeedItem struct {
	Post
	Gated bool `json:"gated"`
}

// FeedResponse ...
// swagger:model
type FeedResponse struct {
	Items []FeedItem `json:"items"`
}

// LikeResponse ...
// swagger:model
type LikeResponse struct {
	LikeCount uint32 `json:"likeCount"`
	Liked     bool   `json:"liked"`
}

// AddCommentRequest ...
type AddCommentRequest struct {
	Text string `json:"text"`
}

// Comment ...
type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt uint64 `json:"createdAt"`
}

// ListCommentsResponse ...
// swagger:model
type ListCommentsResponse struct {
	Comments []Comment `json:"comments"`
}

func writeOK(w http.ResponseWriter, status int, v interface{}) {
	data, _ := json.Marshal(v)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) // nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeOK(w, status, Error{Error: message})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter, message string) {
	log.WithField("request_id", requestID(ctx)).Error(message)

	writeError(w, http.StatusInternalServerError, "internal error")
}

var log = logrus.WithField("layer", "server")

func toAPIUser(u *entities.User) *User {
	if u == nil {
		return nil
	}

	out := User{
		ID:        u.ID,
		Handle:    u.Handle,
		Email:     u.Email,
		CreatedAt: uint64(u.CreatedAt.Unix()),
	}

	if u.LastPostedAt != nil {
		out.LastPostedAt = uint64(u.LastPostedAt.Unix())
	}

	return &out
}

func toAPIPost(p *entities.Post) Post {
	out := Post{
		ID:        p.ID,
		Owner:     p.Owner,
		Caption:   p.Caption,
		ImageRef:  p.ImageRef,
		LikeCount: p.LikeCount,
		CreatedAt: uint64(p.CreatedAt.Unix()),
	}

	if p.Location != nil {
		out.Location = &Location{
			Name:      p.Location.Name,
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		}
	}

	return out
}

func toAPIComment(c *entities.Comment) Comment {
	return Comment{
		ID:        c.ID,
		Author:    c.Author,
		Text:      c.Text,
		CreatedAt: uint64(c.CreatedAt.Unix()),
	}
}

func newFeedResponse(items []feed.Item) FeedResponse {
	out := FeedResponse{
		Items: make([]FeedItem, len(items)),
	}

	for i := range items {
		out.Items[i] = FeedItem{
			Post:  toAPIPost(&items[i].Post),
			Gated: items[i].Gated,
		}
	}

	return out
}

func newLikeResponse(r *service.LikeResult) LikeResponse {
	return LikeResponse{
		LikeCount: r.LikeCount,
		Liked:     r.Liked,
	}
}
