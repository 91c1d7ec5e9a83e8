package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/streamtube-backend/internal/container"
	repouser "github.com/oksasatya/streamtube-backend/internal/domain/repository"
	handlers "github.com/oksasatya/streamtube-backend/internal/interface/http"
	"github.com/oksasatya/streamtube-backend/internal/interface/middleware"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

// Module wires the user HTTP handlers and session middleware into routes.
// Public: POST /users/register, /users/login, /users/refresh-token
// Protected: everything else under /users

type Module struct {
	Handler *handlers.UserHandler
	Repo    repouser.UserRepository
	JWT     *helpers.JWTManager
}

func New(h *handlers.UserHandler, repo repouser.UserRepository, jwt *helpers.JWTManager) *Module {
	return &Module{Handler: h, Repo: repo, JWT: jwt}
}

func (m *Module) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	// Public with per-IP rate limiting
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	users.POST("/register", registerLimiter, m.Handler.Register)
	users.POST("/login", loginLimiter, m.Handler.Login)
	users.POST("/refresh-token", refreshLimiter, m.Handler.Refresh)

	// Protected
	auth := users.Group("/")
	auth.Use(middleware.Auth(m.Repo, m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.PATCH("/change-password", m.Handler.ChangePassword)
		auth.GET("/current-user", m.Handler.CurrentUser)
		auth.PATCH("/update-account", m.Handler.UpdateAccount)
		auth.PATCH("/avatar", m.Handler.UpdateAvatar)
		auth.PATCH("/cover-image", m.Handler.UpdateCoverImage)
		auth.GET("/channel/:username", m.Handler.Channel)
		auth.GET("/history", m.Handler.History)
		auth.GET("/search", m.Handler.Search)
	}
}
