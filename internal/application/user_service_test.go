package application

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
	repo "github.com/oksasatya/streamtube-backend/internal/domain/repository"
	"github.com/oksasatya/streamtube-backend/pkg/apperr"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

// ---- fakes ----

type fakeRepo struct {
	users  map[string]*entity.User // by id
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*entity.User{}}
}

func (f *fakeRepo) Create(_ context.Context, u *entity.User) error {
	f.nextID++
	u.ID = fmt.Sprintf("id-%d", f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := f.GetByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeRepo) UpdateAccount(_ context.Context, id, fullName, email string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u.FullName, u.Email = fullName, email
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeRepo) UpdateRefreshToken(_ context.Context, id, token string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (f *fakeRepo) UpdateAvatar(_ context.Context, id, url string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.AvatarURL = url
	return nil
}

func (f *fakeRepo) UpdateCoverImage(_ context.Context, id, url string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.CoverImageURL = url
	return nil
}

func (f *fakeRepo) ChannelProfile(_ context.Context, username, _ string) (*entity.ChannelProfile, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &entity.ChannelProfile{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) WatchHistory(context.Context, string) ([]entity.WatchHistoryEntry, error) {
	return []entity.WatchHistoryEntry{}, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }
func (fakeHasher) Verify(hash, plain string) bool    { return hash == "h:"+plain }

type fakeSigner struct {
	counter int
}

func (s *fakeSigner) GenerateAccessToken(userID, _, _, _ string) (string, time.Time, error) {
	s.counter++
	return fmt.Sprintf("access:%s:%d", userID, s.counter), time.Now().Add(time.Hour), nil
}

func (s *fakeSigner) GenerateRefreshToken(userID string) (string, time.Time, error) {
	s.counter++
	return fmt.Sprintf("refresh:%s:%d", userID, s.counter), time.Now().Add(24 * time.Hour), nil
}

func (s *fakeSigner) ParseRefreshToken(token string) (*helpers.RefreshClaims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "refresh" {
		return nil, helpers.ErrInvalidToken
	}
	return &helpers.RefreshClaims{UserID: parts[1]}, nil
}

type fakeUploader struct {
	calls []string
	fail  bool
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	f.calls = append(f.calls, localPath)
	if f.fail {
		return "", fmt.Errorf("upload failed")
	}
	return "https://media.example.com/" + localPath, nil
}

func newTestService() (*Service, *fakeRepo, *fakeUploader) {
	r := newFakeRepo()
	up := &fakeUploader{}
	svc := NewService(r, &fakeSigner{}, fakeHasher{}, up, nil, nil, "", nil, nil)
	return svc, r, up
}

func registerTestUser(t *testing.T, svc *Service) *entity.PublicUser {
	t.Helper()
	pub, err := svc.Register(context.Background(), RegisterInput{
		FullName:   "Alice A",
		Username:   "alice",
		Email:      "alice@example.com",
		Password:   "pass123",
		AvatarPath: "avatar.png",
	})
	require.NoError(t, err)
	return pub
}

// ---- register ----

func TestRegisterSuccess(t *testing.T) {
	svc, r, up := newTestService()

	pub, err := svc.Register(context.Background(), RegisterInput{
		FullName:       "  Alice A ",
		Username:       " ALICE ",
		Email:          " alice@example.com ",
		Password:       "pass123",
		AvatarPath:     "avatar.png",
		CoverImagePath: "cover.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", pub.Username)
	assert.Equal(t, "Alice A", pub.FullName)
	assert.Equal(t, "alice@example.com", pub.Email)
	assert.Equal(t, "https://media.example.com/avatar.png", pub.AvatarURL)
	assert.Equal(t, "https://media.example.com/cover.png", pub.CoverImageURL)
	assert.Equal(t, []string{"avatar.png", "cover.png"}, up.calls)

	stored := r.users[pub.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "h:pass123", stored.Password, "password must be stored hashed")
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@b.com", Password: "x", AvatarPath: "a.png",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = svc.Register(context.Background(), RegisterInput{
		FullName: "Alice", Username: "alice", Email: "a@b.com", Password: "x",
	})
	require.Error(t, err)
	assert.Equal(t, "avatar is required", apperr.MessageOf(err))
}

func TestRegisterDuplicateSkipsUpload(t *testing.T) {
	svc, _, up := newTestService()
	registerTestUser(t, svc)
	uploadsAfterFirst := len(up.calls)

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName:   "Other",
		Username:   "alice",
		Email:      "other@example.com",
		Password:   "pass123",
		AvatarPath: "other.png",
	})
	require.Error(t, err)
	assert.Equal(t, "username or email already exists", apperr.MessageOf(err))
	assert.Len(t, up.calls, uploadsAfterFirst, "duplicate registration must not upload media")
}

func TestRegisterUploadFailure(t *testing.T) {
	svc, _, up := newTestService()
	up.fail = true

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Alice", Username: "alice", Email: "a@b.com", Password: "x", AvatarPath: "a.png",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperr.StatusOf(err))
	assert.Equal(t, "internal server error", apperr.MessageOf(err))
}

// ---- login ----

func TestLoginSuccessPersistsRefreshToken(t *testing.T) {
	svc, r, _ := newTestService()
	pub := registerTestUser(t, svc)

	user, pair, err := svc.Login(context.Background(), LoginInput{Username: "Alice", Password: "pass123"})
	require.NoError(t, err)
	assert.Equal(t, pub.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, pair.RefreshToken, r.users[pub.ID].RefreshToken,
		"stored refresh token must equal the issued one")
}

func TestLoginByEmail(t *testing.T) {
	svc, _, _ := newTestService()
	registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "pass123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	assert.Equal(t, "invalid username or email", apperr.MessageOf(err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	registerTestUser(t, svc)

	_, _, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Equal(t, "invalid password", apperr.MessageOf(err))
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	svc, r, _ := newTestService()
	pub := registerTestUser(t, svc)

	_, first, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "pass123"})
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "pass123"})
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, r.users[pub.ID].RefreshToken)

	// The first session's refresh token is no longer trusted.
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

// ---- refresh ----

func TestRefreshRotatesPair(t *testing.T) {
	svc, r, _ := newTestService()
	pub := registerTestUser(t, svc)
	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "pass123"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, r.users[pub.ID].RefreshToken)

	// The consumed token fails the stored-value equality check.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Equal(t, "invalid refresh token", apperr.MessageOf(err))
}

func TestRefreshRejectsEmptyAndMalformed(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Refresh(context.Background(), "")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	svc, _, _ := newTestService()
	pub := registerTestUser(t, svc)
	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "pass123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pub.ID))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

// ---- logout ----

func TestLogoutIdempotent(t *testing.T) {
	svc, r, _ := newTestService()
	pub := registerTestUser(t, svc)
	_, _, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "pass123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pub.ID))
	assert.Empty(t, r.users[pub.ID].RefreshToken)

	// Second logout, and logout of an unknown id, are both fine.
	require.NoError(t, svc.Logout(context.Background(), pub.ID))
	require.NoError(t, svc.Logout(context.Background(), "missing-id"))
}

// ---- change password ----

func TestChangePassword(t *testing.T) {
	svc, r, _ := newTestService()
	pub := registerTestUser(t, svc)

	err := svc.ChangePassword(context.Background(), pub.ID, "wrong", "newpass1")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Equal(t, "invalid old password", apperr.MessageOf(err))

	require.NoError(t, svc.ChangePassword(context.Background(), pub.ID, "pass123", "newpass1"))
	assert.Equal(t, "h:newpass1", r.users[pub.ID].Password)

	_, _, err = svc.Login(context.Background(), LoginInput{Username: "alice", Password: "newpass1"})
	require.NoError(t, err)
}

func TestChangePasswordRequiresNewPassword(t *testing.T) {
	svc, _, _ := newTestService()
	pub := registerTestUser(t, svc)

	err := svc.ChangePassword(context.Background(), pub.ID, "pass123", "  ")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

// ---- account & media updates ----

func TestUpdateAccount(t *testing.T) {
	svc, _, _ := newTestService()
	pub := registerTestUser(t, svc)

	_, err := svc.UpdateAccount(context.Background(), pub.ID, "", "new@example.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	updated, err := svc.UpdateAccount(context.Background(), pub.ID, " New Name ", " new@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	assert.Equal(t, "new@example.com", updated.Email)
}

func TestUpdateAvatar(t *testing.T) {
	svc, r, up := newTestService()
	pub := registerTestUser(t, svc)

	updated, err := svc.UpdateAvatar(context.Background(), pub.ID, "new-avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/new-avatar.png", updated.AvatarURL)
	assert.Equal(t, updated.AvatarURL, r.users[pub.ID].AvatarURL)
	assert.Contains(t, up.calls, "new-avatar.png")

	_, err = svc.UpdateAvatar(context.Background(), pub.ID, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestUpdateCoverImage(t *testing.T) {
	svc, r, _ := newTestService()
	pub := registerTestUser(t, svc)

	updated, err := svc.UpdateCoverImage(context.Background(), pub.ID, "new-cover.png")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/new-cover.png", updated.CoverImageURL)
	assert.Equal(t, updated.CoverImageURL, r.users[pub.ID].CoverImageURL)
}

func TestUpdateImageUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UpdateAvatar(context.Background(), "missing-id", "a.png")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

// ---- channel profile ----

func TestChannelProfile(t *testing.T) {
	svc, _, _ := newTestService()
	pub := registerTestUser(t, svc)

	p, err := svc.ChannelProfile(context.Background(), " ALICE ", "")
	require.NoError(t, err)
	assert.Equal(t, pub.ID, p.ID)

	_, err = svc.ChannelProfile(context.Background(), "ghost", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	assert.Equal(t, "channel not found", apperr.MessageOf(err))

	_, err = svc.ChannelProfile(context.Background(), "  ", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}
