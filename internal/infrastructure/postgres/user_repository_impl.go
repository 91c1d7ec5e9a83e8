package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
	"github.com/oksasatya/streamtube-backend/internal/domain/repository"
)

const userColumns = `id, username, email, fullname, avatar_url, cover_image_url, password_hash, coalesce(refresh_token, ''), created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL,
		&u.Password, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, fullname, avatar_url, cover_image_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL, u.Password)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
	`, username, email))
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		)
	`, username, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET fullname = $1, email = $2, updated_at = $3
		WHERE id = $4
		RETURNING `+userColumns+`
	`, fullName, email, time.Now(), id))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumn(ctx, id, `password_hash`, passwordHash)
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	return r.updateColumn(ctx, id, `refresh_token`, token)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	return r.updateColumn(ctx, id, `avatar_url`, avatarURL)
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, coverImageURL string) error {
	return r.updateColumn(ctx, id, `cover_image_url`, coverImageURL)
}

// updateColumn performs a single-column read-modify-write. Postgres row-level
// atomicity on this statement is what serializes racing login/refresh/logout
// writes to the refresh_token field (last writer wins).
func (r *UserRepository) updateColumn(ctx context.Context, id, column, value string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET `+column+` = $1, updated_at = now() WHERE id = $2
	`, value, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error) {
	p := &entity.ChannelProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.email, u.fullname, u.avatar_url, u.cover_image_url,
			(SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id),
			(SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND $2 <> '' AND s.subscriber_id::text = $2
			)
		FROM users u
		WHERE u.username = $1
	`, username, viewerID).Scan(&p.ID, &p.Username, &p.Email, &p.FullName, &p.AvatarURL, &p.CoverImageURL,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *UserRepository) WatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.title, v.description, v.duration, v.video_url, v.thumbnail_url, v.views,
			w.watched_at, o.fullname, o.username, o.avatar_url
		FROM watch_history w
		JOIN videos v ON v.id = w.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE w.user_id = $1
		ORDER BY w.watched_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]entity.WatchHistoryEntry, 0)
	for rows.Next() {
		var e entity.WatchHistoryEntry
		if err := rows.Scan(&e.VideoID, &e.Title, &e.Description, &e.Duration, &e.VideoURL,
			&e.ThumbnailURL, &e.Views, &e.WatchedAt,
			&e.Owner.FullName, &e.Owner.Username, &e.Owner.AvatarURL); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
