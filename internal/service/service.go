// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"

	"github.com/miraj-net/miraj/internal/entities"
	"github.com/miraj-net/miraj/internal/feed"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// ErrInvalidArgument returned on malformed input, before any write.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrPermissionDenied returned when a caller mutates a post they do not own.
var ErrPermissionDenied = errors.New("permission denied")

// DefaultFeedLimit ...
const DefaultFeedLimit = 10

// MaxFeedLimit ...
const MaxFeedLimit = 100

// CreateUserParams ...
type CreateUserParams struct {
	Handle string
	Email  string
}

// CreatePostParams ...
type CreatePostParams struct {
	Author   string
	Caption  string
	ImageRef string
	Location *entities.Location
}

// LikeResult is the authoritative post-commit like state for the caller.
// A client that predicted the toggle locally reconciles against it, or
// rolls back to its last confirmed state when the call fails.
type LikeResult struct {
	LikeCount uint32
	Liked     bool
}

// Service ...
type Service interface {
	CreateUser(ctx context.Context, p CreateUserParams) (*entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
	UpdateProfile(ctx context.Context, id, handle, email string) error

	GetFeed(ctx context.Context, viewerID string, limit uint16) ([]feed.Item, error)

	CreatePost(ctx context.Context, p CreatePostParams) (*entities.Post, error)
	EditCaption(ctx context.Context, postID, ownerID, caption string) error
	DeletePost(ctx context.Context, postID, ownerID string) error

	ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error)
	AddComment(ctx context.Context, postID, userID, text string) (*entities.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*entities.Comment, error)
}
