// Package impl is implementation of service interface.
package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/miraj-net/miraj/internal/entities"
	"github.com/miraj-net/miraj/internal/feed"
	"github.com/miraj-net/miraj/internal/notifier"
	"github.com/miraj-net/miraj/internal/service"
	"github.com/miraj-net/miraj/internal/storage"
)

var log = logrus.WithField("layer", "service")

// likeRetries bounds the read-modify-write loop of ToggleLike.
const likeRetries = 5

const notifyTimeout = 5 * time.Second

type srv struct {
	s   storage.Storage
	n   notifier.Notifier
	now func() time.Time
}

// New creates new instance of service.
func New(s storage.Storage, n notifier.Notifier) service.Service {
	return &srv{
		s:   s,
		n:   n,
		now: time.Now,
	}
}

func (s *srv) CreateUser(ctx context.Context, p service.CreateUserParams) (*entities.User, error) {
	if strings.TrimSpace(p.Handle) == "" {
		return nil, fmt.Errorf("%w: empty handle", service.ErrInvalidArgument)
	}

	u := entities.User{
		ID:        uuid.New().String(),
		Handle:    strings.TrimSpace(p.Handle),
		Email:     p.Email,
		CreatedAt: s.now().UTC(),
	}

	if err := s.s.CreateUser(ctx, &u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &u, nil
}

func (s *srv) GetUser(ctx context.Context, id string) (*entities.User, error) {
	u, err := s.s.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *srv) UpdateProfile(ctx context.Context, id, handle, email string) error {
	if strings.TrimSpace(handle) == "" {
		return fmt.Errorf("%w: empty handle", service.ErrInvalidArgument)
	}

	if err := s.s.UpdateProfile(ctx, id, strings.TrimSpace(handle), email); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

func (s *srv) GetFeed(ctx context.Context, viewerID string, limit uint16) ([]feed.Item, error) {
	if limit == 0 {
		limit = service.DefaultFeedLimit
	}
	if limit > service.MaxFeedLimit {
		limit = service.MaxFeedLimit
	}

	viewer, err := s.s.GetUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer: %w", err)
	}

	now := s.now().UTC()
	from := now.Add(-feed.UnlockWindow)

	posts, err := s.s.ListPosts(ctx, &storage.ListPostsParams{
		From:  &from,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return feed.Assemble(viewer, posts, now), nil
}

func (s *srv) CreatePost(ctx context.Context, p service.CreatePostParams) (*entities.Post, error) {
	if p.ImageRef == "" {
		return nil, fmt.Errorf("%w: empty image ref", service.ErrInvalidArgument)
	}

	post := entities.Post{
		ID:        uuid.New().String(),
		Owner:     p.Author,
		Caption:   p.Caption,
		ImageRef:  p.ImageRef,
		Location:  p.Location,
		CreatedAt: s.now().UTC(),
		Version:   1,
	}

	if err := s.s.CreatePost(ctx, &post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if err := s.s.SetLastPostedAt(ctx, p.Author, post.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to set last posted at: %w", err)
	}

	// delivery is at-most-once and never fails the write
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.n.LastPostedChanged(ctx, post.Owner, post.CreatedAt); err != nil {
			log.WithError(err).WithField("user", post.Owner).Error("failed to notify last posted change")
		}
	}()

	return &post, nil
}

func (s *srv) EditCaption(ctx context.Context, postID, ownerID, caption string) error {
	post, err := s.s.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}

	if post.Owner != ownerID {
		return service.ErrPermissionDenied
	}

	if err := s.s.SetCaption(ctx, postID, caption); err != nil {
		return fmt.Errorf("failed to set caption: %w", err)
	}

	return nil
}

func (s *srv) DeletePost(ctx context.Context, postID, ownerID string) error {
	post, err := s.s.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}

	if post.Owner != ownerID {
		return service.ErrPermissionDenied
	}

	if err := s.s.DeletePost(ctx, postID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

// ToggleLike flips the caller's membership in the post's likedBy set. The
// commit is conditioned on the post version observed at read time; on a
// stale read the whole step is retried against fresh state, up to
// likeRetries attempts.
func (s *srv) ToggleLike(ctx context.Context, postID, userID string) (*service.LikeResult, error) {
	for i := 0; i < likeRetries; i++ {
		post, err := s.s.GetPost(ctx, postID)
		if err != nil {
			return nil, fmt.Errorf("failed to get post: %w", err)
		}

		liked, err := s.s.IsLiked(ctx, postID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get like state: %w", err)
		}

		op := storage.AddLike
		if liked {
			op = storage.RemoveLike
		}

		if err := s.s.UpdateLikes(ctx, postID, op, userID, post.Version); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				log.WithField("post", postID).WithField("attempt", i+1).Debug("like commit conflicted, retrying")
				continue
			}

			return nil, fmt.Errorf("failed to update likes: %w", err)
		}

		res := service.LikeResult{Liked: !liked}
		if liked {
			if post.LikeCount > 0 {
				res.LikeCount = post.LikeCount - 1
			}
		} else {
			res.LikeCount = post.LikeCount + 1
		}

		return &res, nil
	}

	return nil, storage.ErrConflict
}

func (s *srv) AddComment(ctx context.Context, postID, userID, text string) (*entities.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty comment text", service.ErrInvalidArgument)
	}

	c := entities.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		Author:    userID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}

	if err := s.s.CreateComment(ctx, &c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return &c, nil
}

func (s *srv) ListComments(ctx context.Context, postID string) ([]*entities.Comment, error) {
	cc, err := s.s.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return cc, nil
}
