// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/miraj-net/miraj/internal/entities"
	"github.com/miraj-net/miraj/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type pg struct {
	ext sqlx.ExtContext
}

type userDTO struct {
	ID           string       `db:"id"`
	Handle       string       `db:"handle"`
	Email        string       `db:"email"`
	LastPostedAt sql.NullTime `db:"last_posted_at"`
	CreatedAt    time.Time    `db:"created_at"`
}

type postDTO struct {
	ID           string          `db:"id"`
	Owner        string          `db:"owner"`
	Caption      string          `db:"caption"`
	ImageRef     string          `db:"image_ref"`
	LocationName sql.NullString  `db:"location_name"`
	Latitude     sql.NullFloat64 `db:"latitude"`
	Longitude    sql.NullFloat64 `db:"longitude"`
	LikeCount    uint32          `db:"like_count"`
	Version      uint64          `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
}

type commentDTO struct {
	ID        string    `db:"id"`
	PostID    string    `db:"post_id"`
	Author    string    `db:"author"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) CreateUser(ctx context.Context, u *entities.User) error {
	dto := userDTO{
		ID:        u.ID,
		Handle:    u.Handle,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
	}

	if u.LastPostedAt != nil {
		dto.LastPostedAt = sql.NullTime{Time: u.LastPostedAt.UTC(), Valid: true}
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO "user"(id, handle, email, last_posted_at, created_at)
			VALUES(:id, :handle, :email, :last_posted_at, :created_at)
		`, dto,
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return storage.ErrConflict
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetUser(ctx context.Context, id string) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			SELECT id, handle, email, last_posted_at, created_at FROM "user" WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toUser(&u), nil
}

func (s pg) UpdateProfile(ctx context.Context, id, handle, email string) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE "user" SET handle=$2, email=$3 WHERE id=$1`,
		id, handle, email,
	)

	if err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return storage.ErrConflict
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) SetLastPostedAt(ctx context.Context, id string, t time.Time) error {
	res, err := s.ext.ExecContext(ctx, `
			UPDATE "user" SET last_posted_at=$2
			WHERE id=$1 AND (last_posted_at IS NULL OR last_posted_at <= $2)
		`, id, t.UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		// either the user is missing or the mark is already further ahead
		var exists bool
		if err := sqlx.GetContext(ctx, s.ext, &exists, `SELECT EXISTS(SELECT 1 FROM "user" WHERE id=$1)`, id); err != nil {
			return fmt.Errorf("failed to query: %w", err)
		}

		if !exists {
			return storage.ErrNotFound
		}
	}

	return nil
}

func (s pg) ListStaleUsers(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string

	if err := sqlx.SelectContext(ctx, s.ext, &ids, `
			SELECT id FROM "user" WHERE last_posted_at IS NULL OR last_posted_at < $1
		`, since.UTC(),
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return ids, nil
}

func (s pg) CreatePost(ctx context.Context, p *entities.Post) error {
	dto := postDTO{
		ID:        p.ID,
		Owner:     p.Owner,
		Caption:   p.Caption,
		ImageRef:  p.ImageRef,
		CreatedAt: p.CreatedAt.UTC(),
	}

	if p.Location != nil {
		dto.LocationName = sql.NullString{String: p.Location.Name, Valid: true}
		dto.Latitude = sql.NullFloat64{Float64: p.Location.Latitude, Valid: true}
		dto.Longitude = sql.NullFloat64{Float64: p.Location.Longitude, Valid: true}
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO post(id, owner, caption, image_ref, location_name, latitude, longitude, created_at)
			VALUES(:id, :owner, :caption, :image_ref, :location_name, :latitude, :longitude, :created_at)
		`, dto,
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetPost(ctx context.Context, id string) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, owner, caption, image_ref, location_name, latitude, longitude, like_count, version, created_at
			FROM post
			WHERE id = $1 AND deleted_at IS NULL
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toPost(&p), nil
}

func (s pg) ListPosts(ctx context.Context, params *storage.ListPostsParams) ([]*entities.Post, error) {
	where := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0, 3)

	if params.From != nil {
		args = append(args, params.From.UTC())
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if params.Owner != nil {
		args = append(args, *params.Owner)
		where = append(where, fmt.Sprintf("owner = $%d", len(args)))
	}

	args = append(args, params.Limit)

	var pp []*postDTO

	if err := sqlx.SelectContext(ctx, s.ext, &pp, fmt.Sprintf(`
			SELECT id, owner, caption, image_ref, location_name, latitude, longitude, like_count, version, created_at
			FROM post
			WHERE %s
			ORDER BY created_at DESC, id
			LIMIT $%d
		`, strings.Join(where, " AND "), len(args)),
		args...,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Post, len(pp))
	for i, v := range pp {
		out[i] = toPost(v)
	}

	return out, nil
}

func (s pg) SetCaption(ctx context.Context, id, caption string) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE post SET caption=$2, version=version+1 WHERE id=$1 AND deleted_at IS NULL`,
		id, caption,
	)

	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) DeletePost(ctx context.Context, id string, timestamp time.Time) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE post SET deleted_at=$2 WHERE id=$1 AND deleted_at IS NULL`,
		id, timestamp.UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) GetLikes(ctx context.Context, postID string) ([]string, error) {
	var ids []string

	if err := sqlx.SelectContext(ctx, s.ext, &ids, `
			SELECT liked_by FROM "like" WHERE post_id = $1 ORDER BY liked_by
		`, postID,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return ids, nil
}

func (s pg) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool

	if err := sqlx.GetContext(ctx, s.ext, &liked,
		`SELECT EXISTS(SELECT 1 FROM "like" WHERE post_id=$1 AND liked_by=$2)`,
		postID, userID,
	); err != nil {
		return false, fmt.Errorf("failed to query: %w", err)
	}

	return liked, nil
}

// UpdateLikes commits a single like-toggle step: the membership change and
// the counter change land in one transaction conditioned on the post version
// observed by the caller.
func (s pg) UpdateLikes(ctx context.Context, postID string, op storage.LikeOp, userID string, version uint64) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return errors.New("can not run UpdateLikes within tx")
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to create tx: %w", err)
	}

	if err := updateLikesTx(ctx, tx, postID, op, userID, version); err != nil {
		if err := tx.Rollback(); err != nil {
			log.WithError(err).Error("failed to rollback tx")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

func updateLikesTx(ctx context.Context, tx *sqlx.Tx, postID string, op storage.LikeOp, userID string, version uint64) error {
	var (
		res sql.Result
		err error
	)

	switch op {
	case storage.AddLike:
		res, err = tx.ExecContext(ctx, `
				INSERT INTO "like"(post_id, liked_by, liked_at) VALUES($1, $2, now())
				ON CONFLICT(post_id, liked_by) DO NOTHING
			`, postID, userID,
		)
	case storage.RemoveLike:
		res, err = tx.ExecContext(ctx,
			`DELETE FROM "like" WHERE post_id=$1 AND liked_by=$2`,
			postID, userID,
		)
	default:
		return fmt.Errorf("unknown like op %d", op)
	}

	if err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		// membership already matches the target state, the caller's read
		// was stale
		return storage.ErrConflict
	}

	delta := "+ 1"
	if op == storage.RemoveLike {
		delta = "- 1"
	}

	res, err = tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE post SET like_count = like_count %s, version = version + 1
			WHERE id=$1 AND version=$2 AND deleted_at IS NULL
		`, delta), postID, version,
	)

	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		var exists bool
		if err := sqlx.GetContext(ctx, tx, &exists,
			`SELECT EXISTS(SELECT 1 FROM post WHERE id=$1 AND deleted_at IS NULL)`, postID,
		); err != nil {
			return fmt.Errorf("failed to query: %w", err)
		}

		if !exists {
			return storage.ErrNotFound
		}

		return storage.ErrConflict
	}

	return nil
}

func (s pg) CreateComment(ctx context.Context, c *entities.Comment) error {
	res, err := s.ext.ExecContext(ctx, `
			INSERT INTO comment(id, post_id, author, text, created_at)
			SELECT $1, $2, $3, $4, $5
			WHERE EXISTS(SELECT 1 FROM post WHERE id=$2 AND deleted_at IS NULL)
		`, c.ID, c.PostID, c.Author, c.Text, c.CreatedAt.UTC(),
	)

	if err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) ListComments(ctx context.Context, postID string) ([]*entities.Comment, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, s.ext, &exists,
		`SELECT EXISTS(SELECT 1 FROM post WHERE id=$1 AND deleted_at IS NULL)`, postID,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	if !exists {
		return nil, storage.ErrNotFound
	}

	var cc []*commentDTO

	if err := sqlx.SelectContext(ctx, s.ext, &cc, `
			SELECT id, post_id, author, text, created_at FROM comment
			WHERE post_id = $1
			ORDER BY created_at, seq
		`, postID,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Comment, len(cc))
	for i, v := range cc {
		out[i] = &entities.Comment{
			ID:        v.ID,
			PostID:    v.PostID,
			Author:    v.Author,
			Text:      v.Text,
			CreatedAt: v.CreatedAt,
		}
	}

	return out, nil
}

func toUser(u *userDTO) *entities.User {
	out := entities.User{
		ID:        u.ID,
		Handle:    u.Handle,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}

	if u.LastPostedAt.Valid {
		t := u.LastPostedAt.Time
		out.LastPostedAt = &t
	}

	return &out
}

func toPost(p *postDTO) *entities.Post {
	out := entities.Post{
		ID:        p.ID,
		Owner:     p.Owner,
		Caption:   p.Caption,
		ImageRef:  p.ImageRef,
		LikeCount: p.LikeCount,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
	}

	if p.LocationName.Valid {
		out.Location = &entities.Location{
			Name:      p.LocationName.String,
			Latitude:  p.Latitude.Float64,
			Longitude: p.Longitude.Float64,
		}
	}

	return &out
}
