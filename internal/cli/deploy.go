package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-proxy/internal/cli/render"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy an implementation behind a new admin-managed proxy",
		Long: `Deploy the implementation contract, then a dedicated admin contract, and
ask the admin to create a proxy pointing at the implementation.

Steps run strictly in order and stop at the first failure; nothing is
retried. On success the admin address is printed for later upgrades.

Examples:
  # Deploy to a local anvil node
  treb-proxy deploy --network anvil

  # Deploy to sepolia and record the admin address for upgrades
  treb-proxy deploy --network sepolia --write-env .env

  # Use different contract types and save a manifest
  treb-proxy deploy --implementation MyToken --admin-contract MyTokenAdmin --manifest deployments/proxy.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
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

			result, err := app.DeployProxy.Run(cmd.Context(), usecase.DeployProxyParams{
				Target:                 target,
				ImplementationContract: app.Config.ImplementationContract,
				AdminContract:          app.Config.AdminContract,
				ConfirmTimeout:         app.Config.ConfirmTimeout,
				SkipConfirmation:       app.Config.AssumeYes,
				ManifestPath:           app.Config.ManifestPath,
				EnvFile:                app.Config.EnvFile,
			})
			stopProgress(app)
			if err != nil {
				return err
			}

			return render.NewManifestRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderDeployment(result.Manifest)
		},
	}

	cmd.Flags().String("implementation", "", "Implementation contract type (default GameVoting)")
	cmd.Flags().String("admin-contract", "", "Admin contract type (default GameVotingAdmin)")
	cmd.Flags().String("manifest", "", "Write the deployment manifest to this file (.json or .yaml)")
	cmd.Flags().String("write-env", "", "Record ADMIN_CONTRACT_ADDRESS in this env file")
	cmd.Flags().Bool("build", false, "Run forge build before deploying")

	return cmd
}
