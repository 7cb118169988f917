package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-proxy/internal/cli/render"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade an existing proxy to a freshly deployed implementation",
		Long: `Deploy a new implementation contract and ask an existing admin to repoint
its proxy at it. The proxy address stays the same.

The admin address comes from --admin, TREB_ADMIN_ADDRESS, or
ADMIN_CONTRACT_ADDRESS (also read from .env). It is checked before
anything is deployed.

Examples:
  # Upgrade using the admin recorded by 'deploy --write-env .env'
  treb-proxy upgrade --network sepolia

  # Upgrade an explicit admin
  treb-proxy upgrade --network anvil --admin 0x5FbDB2315678afecb367f032d93F642f64180aa3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			// A missing admin fails before any prompt or connection
			if _, err := usecase.ParseAdminAddress(app.Config.AdminAddress); err != nil {
				return err
			}

			target, err := buildTarget(cmd, app)
			if err != nil {
				return err
			}

			if build, _ := cmd.Flags().GetBool("build"); build {
				if err := app.BuildContracts.Run(cmd.Context()); err != nil {
					stopProgress(app)
					return err
				}
			}

			result, err := app.UpgradeProxy.Run(cmd.Context(), usecase.UpgradeProxyParams{
				Target:                 target,
				AdminAddress:           app.Config.AdminAddress,
				ImplementationContract: app.Config.ImplementationContract,
				AdminContract:          app.Config.AdminContract,
				ConfirmTimeout:         app.Config.ConfirmTimeout,
				SkipConfirmation:       app.Config.AssumeYes,
				ManifestPath:           app.Config.ManifestPath,
			})
			stopProgress(app)
			if err != nil {
				return err
			}

			return render.NewManifestRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderUpgrade(result.Report)
		},
	}

	cmd.Flags().String("admin", "", "Address of the admin contract that owns the proxy")
	cmd.Flags().String("implementation", "", "Implementation contract type (default GameVoting)")
	cmd.Flags().String("admin-contract", "", "Admin contract type (default GameVotingAdmin)")
	cmd.Flags().String("manifest", "", "Write the upgrade report to this file (.json or .yaml)")
	cmd.Flags().Bool("build", false, "Run forge build before deploying the new implementation")

	return cmd
}
