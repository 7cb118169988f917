package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-proxy/internal/app"
	"github.com/trebuchet-org/treb-proxy/internal/config"
	domainconfig "github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-proxy",
		Short: "Deploy and upgrade admin-managed proxies",
		Long: `treb-proxy deploys an implementation contract behind a proxy created by a
dedicated admin contract, and later upgrades that proxy in place.

The proxy address never changes across upgrades; keep the admin address
printed after deployment (ADMIN_CONTRACT_ADDRESS) to upgrade later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot := config.FindProjectRoot()
			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., sepolia, anvil, memory, or an RPC URL)")
	rootCmd.PersistentFlags().Uint64("chain-id", 0, "Expected chain ID; the run aborts if the RPC reports another")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Broadcast without asking for confirmation")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Minute, "Overall time limit for the run")
	rootCmd.PersistentFlags().Duration("confirm-timeout", 5*time.Minute, "Time limit for each transaction to confirm")
	rootCmd.PersistentFlags().String("artifacts", "", "Compiled artifacts directory (defaults to foundry out/ or artifacts/)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	upgradeCmd := NewUpgradeCmd()
	upgradeCmd.GroupID = "main"
	rootCmd.AddCommand(upgradeCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// resolveNetwork returns the network given on the command line, or lets the
// operator pick one when the session is interactive. A nil network is left
// for the use case to report.
func resolveNetwork(cmd *cobra.Command, a *app.App) (*domainconfig.Network, error) {
	if a.Config.Network != nil || a.Config.NonInteractive {
		return a.Config.Network, nil
	}

	name, err := a.NetworkSelector.SelectNetwork(cmd.Context(), a.NetworkResolver.Networks())
	if err != nil {
		return nil, err
	}
	network, err := a.NetworkResolver.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network %s: %w", name, err)
	}
	if chainID, _ := cmd.Flags().GetUint64("chain-id"); chainID != 0 {
		network.ChainID = chainID
	}
	return network, nil
}

// buildTarget builds the connection settings for a run
func buildTarget(cmd *cobra.Command, a *app.App) (domainconfig.Target, error) {
	network, err := resolveNetwork(cmd, a)
	if err != nil {
		return domainconfig.Target{}, err
	}
	return domainconfig.Target{
		Network:    network,
		PrivateKey: a.Config.PrivateKey,
	}, nil
}

// stopProgress clears the spinner line before anything else is printed
func stopProgress(a *app.App) {
	if s, ok := a.Progress.(interface{ Stop() }); ok {
		s.Stop()
	}
}
