package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
	repo "github.com/oksasatya/streamtube-backend/internal/domain/repository"
	"github.com/oksasatya/streamtube-backend/pkg/apperr"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
	"github.com/oksasatya/streamtube-backend/pkg/mailer"
)

// Service orchestrates the auth use-cases over the credential store, token
// signer, password hasher and media host. Redis, Elasticsearch and the
// email queue are optional collaborators; nil disables them.
type Service struct {
	Repo            repo.UserRepository
	Tokens          TokenSigner
	Hasher          PasswordHasher
	Media           MediaUploader
	Redis           *redis.Client
	ES              *elasticsearch.Client
	ESChannelsIndex string
	Pub             *helpers.RabbitPublisher
	Logger          *logrus.Logger
}

func NewService(r repo.UserRepository, tokens TokenSigner, hasher PasswordHasher, media MediaUploader,
	rdb *redis.Client, es *elasticsearch.Client, esChannelsIndex string,
	pub *helpers.RabbitPublisher, logger *logrus.Logger) *Service {
	return &Service{
		Repo:            r,
		Tokens:          tokens,
		Hasher:          hasher,
		Media:           media,
		Redis:           rdb,
		ES:              es,
		ESChannelsIndex: esChannelsIndex,
		Pub:             pub,
		Logger:          logger,
	}
}

// TokenPair is one access/refresh issuance.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func channelCacheKey(username, viewerID string) string {
	return "channel:profile:" + username + ":" + viewerID
}

type RegisterInput struct {
	FullName       string
	Username       string
	Email          string
	Password       string
	AvatarPath     string // local temp file, required
	CoverImagePath string // local temp file, optional
}

// Register creates a user after uniqueness and field validation. Media
// uploads happen only after the uniqueness check so a duplicate registration
// never costs an upload.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.PublicUser, error) {
	fullName := strings.TrimSpace(in.FullName)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)

	if fullName == "" || username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperr.Validation("all fields are required")
	}
	if in.AvatarPath == "" {
		return nil, apperr.Validation("avatar is required")
	}

	exists, err := s.Repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperr.Internal("failed to check existing user", err)
	}
	if exists {
		return nil, apperr.Conflict("username or email already exists")
	}

	avatarURL, err := s.Media.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		return nil, apperr.Internal("failed to upload avatar", err)
	}
	coverURL := ""
	if in.CoverImagePath != "" {
		coverURL, err = s.Media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			return nil, apperr.Internal("failed to upload cover image", err)
		}
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	u := &entity.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		Password:      hash,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	s.enqueueWelcome(ctx, u)
	s.indexChannel(ctx, u)
	return u.Public(), nil
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Login verifies credentials and issues a token pair. The new refresh token
// overwrites any previous one, so an earlier session's refresh token stops
// being trusted.
func (s *Service) Login(ctx context.Context, in LoginInput) (*entity.PublicUser, TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return nil, TokenPair{}, apperr.Validation("username or email is required")
	}

	u, err := s.Repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, TokenPair{}, apperr.NotFound("invalid username or email")
		}
		return nil, TokenPair{}, apperr.Internal("failed to look up user", err)
	}
	if !s.Hasher.Verify(u.Password, in.Password) {
		return nil, TokenPair{}, apperr.Auth("invalid password")
	}

	pair, err := s.issueTokenPair(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u.Public(), pair, nil
}

// Logout clears the persisted refresh token. Logging out twice is not an
// error.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.UpdateRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return apperr.Internal("failed to clear refresh token", err)
	}
	return nil
}

// Refresh rotates the token pair. A presented refresh token is accepted only
// when the signature verifies AND it equals the stored value; a rotated or
// stale token fails the equality check and the whole call is a 401.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, apperr.Auth("refresh token is required")
	}
	claims, err := s.Tokens.ParseRefreshToken(presented)
	if err != nil {
		return TokenPair{}, apperr.Auth("invalid refresh token")
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, apperr.Auth("invalid refresh token")
	}
	if u.RefreshToken == "" || u.RefreshToken != presented {
		return TokenPair{}, apperr.Auth("invalid refresh token")
	}
	return s.issueTokenPair(ctx, u)
}

// ChangePassword re-verifies the old password before hashing and persisting
// the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("new password is required")
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to look up user", err)
	}
	if !s.Hasher.Verify(u.Password, oldPassword) {
		return apperr.Auth("invalid old password")
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

// UpdateAccount updates fullname and email together; both are required.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (*entity.PublicUser, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return nil, apperr.Validation("all fields are required")
	}
	u, err := s.Repo.UpdateAccount(ctx, userID, strings.TrimSpace(fullName), strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to update account", err)
	}
	s.indexChannel(ctx, u)
	return u.Public(), nil
}

// UpdateAvatar replaces the avatar with a freshly uploaded file.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (*entity.PublicUser, error) {
	return s.updateImage(ctx, userID, localPath, "avatar", s.Repo.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image with a freshly uploaded file.
func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (*entity.PublicUser, error) {
	return s.updateImage(ctx, userID, localPath, "cover image", s.Repo.UpdateCoverImage)
}

func (s *Service) updateImage(ctx context.Context, userID, localPath, kind string,
	persist func(context.Context, string, string) error) (*entity.PublicUser, error) {
	if localPath == "" {
		return nil, apperr.Validation(kind + " is required")
	}
	url, err := s.Media.Upload(ctx, localPath)
	if err != nil || url == "" {
		return nil, apperr.Internal("failed to upload "+kind, err)
	}
	if err := persist(ctx, userID, url); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to update "+kind, err)
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to reload user", err)
	}
	s.indexChannel(ctx, u)
	return u.Public(), nil
}

// ChannelProfile resolves a channel page with subscription counts. Results
// are cached briefly in Redis since channel pages are read-heavy.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperr.Validation("username is required")
	}

	key := channelCacheKey(username, viewerID)
	if s.Redis != nil {
		var cached entity.ChannelProfile
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	p, err := s.Repo.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("channel not found")
		}
		return nil, apperr.Internal("failed to load channel", err)
	}

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, key, p, time.Minute); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("channel cache write failed")
		}
	}
	return p, nil
}

// WatchHistory returns the viewer's history, most recent first.
func (s *Service) WatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error) {
	entries, err := s.Repo.WatchHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load watch history", err)
	}
	return entries, nil
}

func (s *Service) issueTokenPair(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.Tokens.GenerateAccessToken(u.ID, u.Email, u.Username, u.FullName)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to generate access token", err)
	}
	refresh, rexp, err := s.Tokens.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to generate refresh token", err)
	}
	// Persist before returning so the stored copy is the source of truth the
	// moment the caller sees the token.
	if err := s.Repo.UpdateRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, apperr.Internal("failed to persist refresh token", err)
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

// enqueueWelcome publishes a welcome-email job; delivery is best-effort and
// never blocks registration.
func (s *Service) enqueueWelcome(ctx context.Context, u *entity.User) {
	if s.Pub == nil {
		return
	}
	job := mailer.WelcomeJob(u.Email, u.FullName, u.Username)
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
	}
}

// indexChannel mirrors the public channel fields into Elasticsearch for
// /search. Failures are logged and swallowed.
func (s *Service) indexChannel(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESChannelsIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"fullname":   u.FullName,
		"avatar":     u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESChannelsIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchChannels performs a multi_match search on username and fullname.
func (s *Service) SearchChannels(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESChannelsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "fullname"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESChannelsIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, apperr.Internal("channel search failed", err)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.Internal("channel search decode failed", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
