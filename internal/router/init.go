package router

import (
	appuser "github.com/oksasatya/streamtube-backend/internal/application"
	"github.com/oksasatya/streamtube-backend/internal/container"
	repouser "github.com/oksasatya/streamtube-backend/internal/domain/repository"
	"github.com/oksasatya/streamtube-backend/internal/infrastructure/media"
	pginfra "github.com/oksasatya/streamtube-backend/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/streamtube-backend/internal/interface/http"
	usermodule "github.com/oksasatya/streamtube-backend/internal/router/modules"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())
	uploader := media.NewGCSUploader(container.GetGCS(), cfg.GCSBucket, "media", container.GetLogger())

	service := appuser.NewService(
		repo,
		container.GetJWT(),
		helpers.BcryptHasher{},
		uploader,
		container.GetRedis(),
		container.GetES(),
		cfg.ESChannelsIndex,
		container.GetRabbitPub(),
		container.GetLogger(),
	)

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
	)

	return UserModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	userDeps := buildUserDeps()
	r.Add(usermodule.New(userDeps.Handler, userDeps.Repo, container.GetJWT()))
}
