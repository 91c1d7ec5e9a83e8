package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
)

// ErrNotFound is returned when no record matches the lookup key.
var ErrNotFound = errors.New("not found")

// UserRepository is the credential-store contract. Only the auth use-cases
// mutate the password hash and refresh-token fields; everything else is
// read-only over this interface.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByUsernameOrEmail matches either unique key; empty arguments are
	// skipped. Returns ErrNotFound when nothing matches.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateRefreshToken overwrites the stored refresh-token value; an empty
	// token clears it. Last writer wins, which is what enforces the
	// single-active-session invariant.
	UpdateRefreshToken(ctx context.Context, id, token string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) error

	// ChannelProfile resolves a channel page by username with subscription
	// counts derived relative to viewerID (which may be empty).
	ChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error)
	// WatchHistory returns the viewer's history, most recent first, each
	// entry joined with a restricted view of the owning channel.
	WatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error)
}
