package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/streamtube-backend/internal/application"
	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
	"github.com/oksasatya/streamtube-backend/internal/interface/middleware"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
	"github.com/oksasatya/streamtube-backend/pkg/response"
	"github.com/oksasatya/streamtube-backend/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

type updateAccountRequest struct {
	FullName string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// saveTemp buffers a multipart file to a local temp path for the media
// uploader, which owns deleting it afterwards.
func (h *UserHandler) saveTemp(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	dst := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Register POST /register (multipart: avatar[1], coverImage[0..1])
func (h *UserHandler) Register(c *gin.Context) {
	in := userapp.RegisterInput{
		FullName: c.PostForm("fullname"),
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}

	if fh, err := c.FormFile("avatar"); err == nil {
		path, serr := h.saveTemp(c, fh)
		if serr != nil {
			response.Fail(c, http.StatusInternalServerError, "failed to buffer avatar upload", nil)
			return
		}
		in.AvatarPath = path
	}
	if fh, err := c.FormFile("coverImage"); err == nil {
		path, serr := h.saveTemp(c, fh)
		if serr != nil {
			response.Fail(c, http.StatusInternalServerError, "failed to buffer cover upload", nil)
			return
		}
		in.CoverImagePath = path
	}

	u, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "user registered successfully")
}

// Login POST /login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), userapp.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":         u,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout POST /logout (auth)
func (h *UserHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		response.FromError(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{}, "user logged out successfully")
}

// Refresh POST /refresh-token; the token comes from the cookie or the body.
func (h *UserHandler) Refresh(c *gin.Context) {
	presented, _ := c.Cookie(helpers.RefreshTokenCookie)
	if presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.Svc.Refresh(c.Request.Context(), presented)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed successfully")
}

// ChangePassword PATCH /change-password (auth)
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{}, "password changed successfully")
}

// CurrentUser GET /current-user (auth)
func (h *UserHandler) CurrentUser(c *gin.Context) {
	u, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "please authenticate", nil)
		return
	}
	response.Success(c, http.StatusOK, u.(*entity.PublicUser), "current user found successfully")
}

// UpdateAccount PATCH /update-account (auth)
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.UpdateAccount(c.Request.Context(), uid, req.FullName, req.Email)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "account details updated")
}

// UpdateAvatar PATCH /avatar (auth, single file)
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.Svc.UpdateAvatar)
}

// UpdateCoverImage PATCH /cover-image (auth, single file)
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.Svc.UpdateCoverImage)
}

func (h *UserHandler) updateImage(c *gin.Context, field string,
	update func(ctx context.Context, uid, path string) (*entity.PublicUser, error)) {
	fh, err := c.FormFile(field)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, field+" is required", nil)
		return
	}
	path, err := h.saveTemp(c, fh)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "failed to buffer upload", nil)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := update(c.Request.Context(), uid, path)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, field+" updated successfully")
}

// Channel GET /channel/:username (auth)
func (h *UserHandler) Channel(c *gin.Context) {
	viewerID := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.ChannelProfile(c.Request.Context(), c.Param("username"), viewerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "channel found successfully")
}

// History GET /history (auth)
func (h *UserHandler) History(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	entries, err := h.Svc.WatchHistory(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries, "watch history found successfully")
}

// Search GET /search?q=...&size=... (auth)
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "query is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchChannels(c.Request.Context(), q, size)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "channels found")
}
