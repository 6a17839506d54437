package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/adapters/api"
	tomlrepo "github.com/AmineMekki01/healthcare-management-platform-sub002/internal/adapters/repo/toml"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/application"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/config"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/logx"
	"github.com/spf13/viper"
)

type app struct {
	cfg config.Config
	log *slog.Logger

	creds       *application.CredentialStore
	sessions    *application.SessionService
	coordinator *application.RefreshCoordinator
	api         *api.Client
	store       *application.ChatStore
}

func wireApp() (*app, error) {
	v := viper.New()

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	log := logx.New(os.Stderr, cfg.LogLevel)

	repo, err := tomlrepo.NewRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	creds := application.NewCredentialStore(context.Background(), repo, log)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	apiClient := api.NewClient(cfg.APIBaseURL, httpClient, nil)

	coordinator := application.NewRefreshCoordinator(creds, apiClient, application.RefreshOptions{
		Interval:   cfg.RefreshInterval,
		ExpirySkew: cfg.TokenExpirySkew,
		HTTPClient: httpClient,
		Logger:     log,
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run `portal login` to sign in again.")
		},
	})
	apiClient.SetDoer(coordinator)

	return &app{
		cfg:         cfg,
		log:         log,
		creds:       creds,
		sessions:    application.NewSessionService(creds, apiClient, log),
		coordinator: coordinator,
		api:         apiClient,
		store: application.NewChatStore(application.ChatStoreOptions{
			Sender: apiClient,
			Logger: log,
		}),
	}, nil
}
