// Package entities contains main entities of service.
package entities

import (
	"time"
)

// User ...
type User struct {
	ID           string
	Handle       string
	Email        string
	LastPostedAt *time.Time
	CreatedAt    time.Time
}

// HasPosted reports whether the user ever created a post.
func (u User) HasPosted() bool {
	return u.LastPostedAt != nil && !u.LastPostedAt.IsZero()
}

// Location is an optional geotag of a post.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Post ...
type Post struct {
	ID        string
	Owner     string
	Caption   string
	ImageRef  string
	Location  *Location
	LikeCount uint32
	CreatedAt time.Time

	// Version is a storage-side counter used for optimistic commits.
	Version uint64
}

// Comment ...
type Comment struct {
	ID        string
	PostID    string
	Author    string
	Text      string
	CreatedAt time.Time
}
