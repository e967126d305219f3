package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miraj-net/miraj/internal/entities"
)

var now = time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)

func user(id string, lastPostedAt *time.Time) *entities.User {
	return &entities.User{
		ID:           id,
		Handle:       id,
		LastPostedAt: lastPostedAt,
	}
}

func post(id, owner string, createdAt time.Time) *entities.Post {
	return &entities.Post{
		ID:        id,
		Owner:     owner,
		Caption:   "caption",
		ImageRef:  "blob://image",
		Location:  &entities.Location{Name: "Kathmandu", Latitude: 27.7, Longitude: 85.3},
		LikeCount: 3,
		CreatedAt: createdAt,
	}
}

func ts(t time.Time) *time.Time { return &t }

func TestIsVisible_OwnPost(t *testing.T) {
	// own posts are visible regardless of timestamps
	assert.True(t, IsVisible(user("a", nil), post("1", "a", now.Add(-100*time.Hour)), now))
	assert.True(t, IsVisible(user("a", ts(now.Add(-100*time.Hour))), post("1", "a", now), now))
}

func TestIsVisible_NeverPosted(t *testing.T) {
	assert.False(t, IsVisible(user("a", nil), post("1", "b", now), now))
}

func TestIsVisible_Window(t *testing.T) {
	tt := []struct {
		name         string
		lastPostedAt time.Time
		createdAt    time.Time
		visible      bool
	}{
		{
			name:         "post_23h_before_last_post",
			lastPostedAt: now,
			createdAt:    now.Add(-23 * time.Hour),
			visible:      true,
		},
		{
			name:         "post_25h_before_last_post",
			lastPostedAt: now,
			createdAt:    now.Add(-25 * time.Hour),
			visible:      false,
		},
		{
			name:         "post_23h_after_last_post",
			lastPostedAt: now.Add(-23 * time.Hour),
			createdAt:    now,
			visible:      true,
		},
		{
			name:         "post_25h_after_last_post",
			lastPostedAt: now.Add(-25 * time.Hour),
			createdAt:    now,
			visible:      false,
		},
		{
			name:         "exactly_24h",
			lastPostedAt: now,
			createdAt:    now.Add(-24 * time.Hour),
			visible:      true,
		},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			v := user("viewer", ts(tc.lastPostedAt))
			assert.Equal(t, tc.visible, IsVisible(v, post("1", "author", tc.createdAt), now))
		})
	}
}

func TestIsVisible_MissingCreatedAt(t *testing.T) {
	// fail closed
	p := post("1", "b", time.Time{})
	assert.False(t, IsVisible(user("a", ts(now)), p, now))
}

func TestAssemble(t *testing.T) {
	viewer := user("viewer", ts(now))

	posts := []*entities.Post{
		post("1", "viewer", now.Add(-30*time.Hour)), // own, revealed
		post("2", "other", now.Add(-time.Hour)),     // within window, revealed
		post("3", "other", now.Add(-25*time.Hour)),  // outside window, gated
	}

	items := Assemble(viewer, posts, now)
	require.Len(t, items, 3)

	assert.False(t, items[0].Gated)
	assert.False(t, items[1].Gated)
	assert.True(t, items[2].Gated)

	// order is preserved
	assert.Equal(t, "1", items[0].Post.ID)
	assert.Equal(t, "2", items[1].Post.ID)
	assert.Equal(t, "3", items[2].Post.ID)

	// revealed entries carry content
	assert.Equal(t, "caption", items[1].Post.Caption)
	assert.Equal(t, "blob://image", items[1].Post.ImageRef)

	// gated entries are redacted
	assert.Empty(t, items[2].Post.Caption)
	assert.Empty(t, items[2].Post.ImageRef)
	assert.Nil(t, items[2].Post.Location)
	assert.Equal(t, "other", items[2].Post.Owner)
	assert.Equal(t, posts[2].CreatedAt, items[2].Post.CreatedAt)
}

func TestAssemble_Deterministic(t *testing.T) {
	viewer := user("viewer", ts(now.Add(-10*time.Hour)))

	posts := []*entities.Post{
		post("1", "a", now.Add(-time.Hour)),
		post("2", "b", now.Add(-20*time.Hour)),
		post("3", "c", now.Add(-23*time.Hour)),
	}

	first := Assemble(viewer, posts, now)
	second := Assemble(viewer, posts, now)

	assert.Equal(t, first, second)
}

func TestAssemble_PostToUnlock(t *testing.T) {
	// user A has never posted; B posted at T; A sees it gated.
	// After A posts at T+2h, B's post is revealed.
	T := now

	a := user("a", nil)
	b := post("post-b", "b", T)

	items := Assemble(a, []*entities.Post{b}, T.Add(time.Hour))
	require.Len(t, items, 1)
	assert.True(t, items[0].Gated)
	assert.Empty(t, items[0].Post.Caption)
	assert.Empty(t, items[0].Post.ImageRef)

	a = user("a", ts(T.Add(2*time.Hour)))

	items = Assemble(a, []*entities.Post{b}, T.Add(3*time.Hour))
	require.Len(t, items, 1)
	assert.False(t, items[0].Gated)
	assert.Equal(t, "caption", items[0].Post.Caption)
}
