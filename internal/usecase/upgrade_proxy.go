package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

// UpgradeProxy deploys a new implementation and repoints an existing
// admin's proxy at it. The proxy address never changes.
type UpgradeProxy struct {
	connector ChainConnector
	writer    ManifestWriter
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewUpgradeProxy creates a new UpgradeProxy use case
func NewUpgradeProxy(
	connector ChainConnector,
	writer ManifestWriter,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *UpgradeProxy {
	return &UpgradeProxy{
		connector: connector,
		writer:    writer,
		confirmer: confirmer,
		progress:  progress,
		log:       log.With("usecase", "upgrade-proxy"),
	}
}

// UpgradeProxyParams contains everything one upgrade run needs
type UpgradeProxyParams struct {
	Target                 config.Target
	AdminAddress           string // as configured; validated before anything is sent
	ImplementationContract string
	AdminContract          string
	ConfirmTimeout         time.Duration
	SkipConfirmation       bool

	// Optional output
	ManifestPath string
}

const upgradeSteps = 3

// Run executes the upgrade. Until the upgrade transaction confirms, the
// proxy keeps serving the previous implementation.
func (uc *UpgradeProxy) Run(ctx context.Context, params UpgradeProxyParams) (*UpgradeProxyResult, error) {
	adminAddr, err := ParseAdminAddress(params.AdminAddress)
	if err != nil {
		return nil, err
	}
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
	prompt := fmt.Sprintf("Upgrade the proxy owned by %s to a new %s on %s", adminAddr.Hex(), params.ImplementationContract, network.Name)
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

	uc.progress.Info("Starting upgrade process...")
	uc.log.Info("starting upgrade", "network", network.Name, "chainId", chainID, "admin", adminAddr.Hex())

	admin, err := chain.Attach(ctx, params.AdminContract, adminAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to attach to %s at %s: %w", params.AdminContract, adminAddr.Hex(), err)
	}

	// An upgrade is only valid against an existing binding; check before
	// spending gas on a new implementation.
	proxyBefore, err := readAddress(ctx, admin, domain.MethodProxy)
	if err != nil {
		return nil, err
	}
	if proxyBefore == (common.Address{}) {
		return nil, fmt.Errorf("admin %s has no proxy to upgrade: %w", adminAddr.Hex(), domain.ErrProxyNotCreated)
	}
	previousImpl, err := observeImplementation(ctx, chain, admin, proxyBefore)
	if err != nil {
		return nil, err
	}

	run := newStepRunner(chain, uc.progress, uc.log, params.ConfirmTimeout, upgradeSteps)

	// Step 1: new implementation. A failure leaves the live binding untouched.
	newImpl, err := run.deploy(ctx, 1, StepDeployImplementation, domain.RoleImplementation, params.ImplementationContract)
	if err != nil {
		return nil, err
	}

	// Step 2: repoint the existing proxy
	upgradeMsg := fmt.Sprintf("Upgrading proxy %s to new implementation...", proxyBefore.Hex())
	if err := run.call(ctx, 2, StepUpgradeProxy, upgradeMsg, admin, domain.MethodUpgrade, newImpl); err != nil {
		return nil, withOrphans(err, domain.OrphanedContract{Role: domain.RoleImplementation, Address: newImpl})
	}
	run.done(ctx, 2, StepUpgradeProxy, fmt.Sprintf("Proxy %s upgraded", proxyBefore.Hex()))

	// Step 3: the proxy address must be unchanged and point at the new implementation
	run.begin(ctx, 3, StepVerify, "Verifying proxy binding...")
	proxyAfter, err := readAddress(ctx, admin, domain.MethodProxy)
	if err != nil {
		return nil, err
	}
	if proxyAfter != proxyBefore {
		return nil, &domain.InvariantError{Invariant: "proxy address is stable across upgrades", Expected: proxyBefore, Actual: proxyAfter}
	}

	observed, err := observeImplementation(ctx, chain, admin, proxyAfter)
	if err != nil {
		return nil, err
	}
	if observed != (common.Address{}) && observed != newImpl {
		return nil, &domain.InvariantError{Invariant: "proxy points at the new implementation", Expected: newImpl, Actual: observed}
	}
	if observed == (common.Address{}) {
		uc.log.Warn("proxy implementation is not observable on this chain, skipping check", "proxy", proxyAfter.Hex())
	}
	run.done(ctx, 3, StepVerify, fmt.Sprintf("Proxy address unchanged: %s", proxyAfter.Hex()))

	report := &domain.UpgradeReport{
		Network:                network.Name,
		ChainID:                chainID,
		Admin:                  adminAddr,
		Proxy:                  proxyAfter,
		PreviousImplementation: previousImpl,
		NewImplementation:      newImpl,
		ImplementationContract: params.ImplementationContract,
		Transactions:           run.transactions(),
	}

	if params.ManifestPath != "" && uc.writer != nil {
		if err := uc.writer.WriteManifest(ctx, params.ManifestPath, report); err != nil {
			uc.log.Warn("failed to write upgrade report", "path", params.ManifestPath, "error", err)
			uc.progress.Error(fmt.Sprintf("Failed to write upgrade report to %s: %v", params.ManifestPath, err))
		}
	}

	return &UpgradeProxyResult{Report: report}, nil
}
