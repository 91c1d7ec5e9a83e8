package application

import (
	"context"
	"time"

	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

// PasswordHasher is the narrow capability the use-cases need from a hashing
// backend. Production uses bcrypt; tests substitute a deterministic fake.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// TokenSigner issues and verifies the two token classes.
type TokenSigner interface {
	GenerateAccessToken(userID, email, username, fullName string) (string, time.Time, error)
	GenerateRefreshToken(userID string) (string, time.Time, error)
	ParseRefreshToken(token string) (*helpers.RefreshClaims, error)
}

// MediaUploader pushes a buffered local file to the media host and returns a
// stable URL. Implementations own local temp-file cleanup on both paths.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
