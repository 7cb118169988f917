package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Logger *slog.Logger

	// Shared dependencies
	NetworkResolver usecase.NetworkResolver
	NetworkSelector usecase.NetworkSelector
	Progress        usecase.ProgressSink

	// Use cases
	BuildContracts *usecase.BuildContracts
	DeployProxy    *usecase.DeployProxy
	UpgradeProxy   *usecase.UpgradeProxy
	ListNetworks   *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	logger *slog.Logger,
	networkResolver usecase.NetworkResolver,
	networkSelector usecase.NetworkSelector,
	progress usecase.ProgressSink,
	buildContracts *usecase.BuildContracts,
	deployProxy *usecase.DeployProxy,
	upgradeProxy *usecase.UpgradeProxy,
	listNetworks *usecase.ListNetworks,
) (*App, error) {
	return &App{
		Config:          cfg,
		Logger:          logger,
		NetworkResolver: networkResolver,
		NetworkSelector: networkSelector,
		Progress:        progress,
		BuildContracts:  buildContracts,
		DeployProxy:     deployProxy,
		UpgradeProxy:    upgradeProxy,
		ListNetworks:    listNetworks,
	}, nil
}
