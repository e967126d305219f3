// Package feed contains pure rules of the reciprocal-visibility feed:
// a user sees others' posts only while their own last post is within the
// unlock window of the post being viewed.
package feed

import (
	"time"

	"github.com/miraj-net/miraj/internal/entities"
)

// UnlockWindow is the reciprocal visibility window.
const UnlockWindow = 24 * time.Hour

// Item is a classified feed entry. Gated items carry no caption, image
// reference or location: redaction happens here, not at render time.
type Item struct {
	Post  entities.Post
	Gated bool
}

// IsVisible reports whether the viewer may see the post's content.
//
// Owners always see their own posts. A viewer who never posted sees nothing
// from others. Otherwise the post is visible iff the absolute difference
// between its creation time and the viewer's last post is within
// UnlockWindow. The comparison is deliberately symmetric: a post older than
// the viewer's last post by more than the window is gated too.
func IsVisible(viewer *entities.User, post *entities.Post, now time.Time) bool {
	if post.Owner == viewer.ID {
		return true
	}

	if !viewer.HasPosted() {
		return false
	}

	if post.CreatedAt.IsZero() {
		// uncommitted post, fail closed
		return false
	}

	d := post.CreatedAt.Sub(*viewer.LastPostedAt)
	if d < 0 {
		d = -d
	}

	return d <= UnlockWindow
}

// Assemble classifies candidate posts for the viewer, preserving their
// order. Gated entries are redacted copies of the posts.
func Assemble(viewer *entities.User, posts []*entities.Post, now time.Time) []Item {
	out := make([]Item, len(posts))

	for i, p := range posts {
		if IsVisible(viewer, p, now) {
			out[i] = Item{Post: *p}
			continue
		}

		out[i] = Item{Post: redact(p), Gated: true}
	}

	return out
}

func redact(p *entities.Post) entities.Post {
	return entities.Post{
		ID:        p.ID,
		Owner:     p.Owner,
		LikeCount: p.LikeCount,
		CreatedAt: p.CreatedAt,
		Version:   p.Version,
	}
}
