package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

// DeployProxy deploys an implementation, a dedicated admin, and a proxy
// created through that admin, in that order
type DeployProxy struct {
	connector ChainConnector
	writer    ManifestWriter
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployProxy creates a new DeployProxy use case
func NewDeployProxy(
	connector ChainConnector,
	writer ManifestWriter,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployProxy {
	return &DeployProxy{
		connector: connector,
		writer:    writer,
		confirmer: confirmer,
		progress:  progress,
		log:       log.With("usecase", "deploy-proxy"),
	}
}

// DeployProxyParams contains everything one deploy run needs
type DeployProxyParams struct {
	Target                 config.Target
	ImplementationContract string
	AdminContract          string
	ConfirmTimeout         time.Duration
	SkipConfirmation       bool

	// Optional outputs
	ManifestPath string
	EnvFile      string
}

const deploySteps = 4

// Run executes the deployment. Any failure aborts the remaining steps;
// nothing is retried.
func (uc *DeployProxy) Run(ctx context.Context, params DeployProxyParams) (*DeployProxyResult, error) {
	if err := validateTarget(params.Target); err != nil {
		return nil, err
	}
	if params.ImplementationContract == "" {
		params.ImplementationContract = domain.DefaultImplementationContract
	}
	if params.AdminContract == "" {
		params.AdminContract = domain.DefaultAdminContract
	}

	network := params.Target.Network
	prompt := fmt.Sprintf("Deploy %s behind a new %s proxy on %s", params.ImplementationContract, params.AdminContract, network.Name)
	if err := confirmBroadcast(ctx, uc.confirmer, network, params.SkipConfirmation, prompt); err != nil {
		return nil, err
	}

	chain, err := uc.connector.Connect(ctx, params.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
	}
	defer chain.Close()

	chainID, err := chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	uc.progress.Info("Starting deployment...")
	uc.log.Info("starting deployment", "network", network.Name, "chainId", chainID, "deployer", chain.Sender().Hex())

	run := newStepRunner(chain, uc.progress, uc.log, params.ConfirmTimeout, deploySteps)

	// Step 1: implementation
	implAddr, err := run.deploy(ctx, 1, StepDeployImplementation, domain.RoleImplementation, params.ImplementationContract)
	if err != nil {
		return nil, err
	}

	// Step 2: admin. A failure leaves the implementation orphaned, which is harmless.
	adminAddr, err := run.deploy(ctx, 2, StepDeployAdmin, domain.RoleAdmin, params.AdminContract)
	if err != nil {
		return nil, withOrphans(err, domain.OrphanedContract{Role: domain.RoleImplementation, Address: implAddr})
	}

	orphans := []domain.OrphanedContract{
		{Role: domain.RoleImplementation, Address: implAddr},
		{Role: domain.RoleAdmin, Address: adminAddr},
	}

	admin, err := chain.Attach(ctx, params.AdminContract, adminAddr)
	if err != nil {
		err = fmt.Errorf("failed to attach to %s at %s: %w", params.AdminContract, adminAddr.Hex(), err)
		return nil, stepFailed(StepCreateProxy, err, orphans...)
	}

	// Step 3: create the proxy through the admin, refusing to rebind
	existing, err := readAddress(ctx, admin, domain.MethodProxy)
	if err != nil {
		return nil, stepFailed(StepCreateProxy, err, orphans...)
	}
	if existing != (common.Address{}) {
		return nil, fmt.Errorf("admin %s already owns proxy %s: %w", adminAddr.Hex(), existing.Hex(), domain.ErrProxyAlreadyCreated)
	}

	createMsg := fmt.Sprintf("Deploying proxy through %s...", params.AdminContract)
	if err := run.call(ctx, 3, StepCreateProxy, createMsg, admin, domain.MethodDeployProxy, implAddr); err != nil {
		return nil, withOrphans(err, orphans...)
	}
	run.done(ctx, 3, StepCreateProxy, fmt.Sprintf("Proxy created for implementation %s", implAddr.Hex()))

	// Step 4: read the binding back from chain state
	run.begin(ctx, 4, StepVerify, "Reading proxy address from admin...")
	proxyAddr, err := readAddress(ctx, admin, domain.MethodProxy)
	if err != nil {
		return nil, stepFailed(StepVerify, err, orphans...)
	}
	if proxyAddr == (common.Address{}) {
		return nil, &domain.InvariantError{Invariant: "admin reports a proxy after creation", Actual: proxyAddr}
	}

	observed, err := observeImplementation(ctx, chain, admin, proxyAddr)
	if err != nil {
		return nil, stepFailed(StepVerify, err, orphans...)
	}
	if observed != (common.Address{}) && observed != implAddr {
		return nil, &domain.InvariantError{Invariant: "proxy points at the deployed implementation", Expected: implAddr, Actual: observed}
	}
	if observed == (common.Address{}) {
		uc.log.Warn("proxy implementation is not observable on this chain, skipping check", "proxy", proxyAddr.Hex())
	}
	run.done(ctx, 4, StepVerify, fmt.Sprintf("Proxy deployed to: %s", proxyAddr.Hex()))

	manifest := &domain.DeploymentManifest{
		Network:                network.Name,
		ChainID:                chainID,
		Deployer:               chain.Sender(),
		Implementation:         implAddr,
		Admin:                  adminAddr,
		Proxy:                  proxyAddr,
		ImplementationContract: params.ImplementationContract,
		AdminContract:          params.AdminContract,
		Transactions:           run.transactions(),
	}

	uc.persist(ctx, params, manifest)

	return &DeployProxyResult{Manifest: manifest}, nil
}

// persist writes the optional outputs. The run already succeeded on chain
// and the manifest is still rendered, so failures here only warn.
func (uc *DeployProxy) persist(ctx context.Context, params DeployProxyParams, manifest *domain.DeploymentManifest) {
	if uc.writer == nil {
		return
	}
	if params.ManifestPath != "" {
		if err := uc.writer.WriteManifest(ctx, params.ManifestPath, manifest); err != nil {
			uc.log.Warn("failed to write manifest", "path", params.ManifestPath, "error", err)
			uc.progress.Error(fmt.Sprintf("Failed to write manifest to %s: %v", params.ManifestPath, err))
		}
	}
	if params.EnvFile != "" {
		if err := uc.writer.WriteAdminAddress(ctx, params.EnvFile, manifest.Admin); err != nil {
			uc.log.Warn("failed to record admin address", "path", params.EnvFile, "error", err)
			uc.progress.Error(fmt.Sprintf("Failed to record admin address in %s: %v", params.EnvFile, err))
		}
	}
}

// withOrphans attaches contracts left behind by an aborted run to a transaction error
func withOrphans(err error, orphans ...domain.OrphanedContract) error {
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) {
		txErr.Orphaned = append(txErr.Orphaned, orphans...)
	}
	return err
}

// stepFailed reports a failure that happened between transactions as a
// failure of step, so contracts already deployed are still listed
func stepFailed(step string, err error, orphans ...domain.OrphanedContract) error {
	var txErr *domain.TransactionError
	if !errors.As(err, &txErr) {
		err = &domain.TransactionError{Step: step, Err: err}
	}
	return withOrphans(err, orphans...)
}
