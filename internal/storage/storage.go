// Package storage contains a storage interface.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/miraj-net/miraj/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound returned when the addressed record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict returned when a version precondition does not match current state.
var ErrConflict = errors.New("conflict")

// LikeOp is a membership mutation applied to a post's likedBy set.
type LikeOp uint8

const (
	// AddLike adds the member and increments the counter.
	AddLike LikeOp = iota
	// RemoveLike removes the member and decrements the counter.
	RemoveLike
)

// Storage provides methods for interacting with database.
type Storage interface {
	CreateUser(ctx context.Context, u *entities.User) error
	GetUser(ctx context.Context, id string) (*entities.User, error)
	UpdateProfile(ctx context.Context, id, handle, email string) error
	// SetLastPostedAt moves the user's last-posted mark forward. An earlier
	// timestamp than the current one is ignored.
	SetLastPostedAt(ctx context.Context, id string, t time.Time) error
	// ListStaleUsers returns ids of users who have not posted since the
	// given moment, never-posted users included.
	ListStaleUsers(ctx context.Context, since time.Time) ([]string, error)

	CreatePost(ctx context.Context, p *entities.Post) error
	GetPost(ctx context.Context, id string) (*entities.Post, error)
	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	SetCaption(ctx context.Context, id, caption string) error
	DeletePost(ctx context.Context, id string, timestamp time.Time) error

	// GetLikes returns the likedBy membership of a post.
	GetLikes(ctx context.Context, postID string) ([]string, error)
	// IsLiked reports whether likedBy of a post contains the user.
	IsLiked(ctx context.Context, postID, userID string) (bool, error)
	// UpdateLikes applies the membership op and the matching counter change
	// atomically, conditioned on the post's observed version. A stale
	// version yields ErrConflict; a missing or deleted post yields
	// ErrNotFound.
	UpdateLikes(ctx context.Context, postID string, op LikeOp, userID string, version uint64) error

	CreateComment(ctx context.Context, c *entities.Comment) error
	ListComments(ctx context.Context, postID string) ([]*entities.Comment, error)
}

// ListPostsParams ...
type ListPostsParams struct {
	// From is an inclusive lower bound for created_at.
	From  *time.Time
	Owner *string
	Limit uint16
}
