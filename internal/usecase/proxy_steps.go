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

// Step names used in progress events and transaction errors
const (
	StepDeployImplementation = "deploy implementation"
	StepDeployAdmin          = "deploy admin"
	StepCreateProxy          = "create proxy"
	StepUpgradeProxy         = "upgrade proxy"
	StepVerify               = "verify binding"
	StepBuild                = "build contracts"
)

// stepRunner runs the numbered, strictly sequential steps of one
// orchestrator run. Every step blocks until its transaction is confirmed.
type stepRunner struct {
	chain          Chain
	progress       ProgressSink
	log            *slog.Logger
	confirmTimeout time.Duration
	total          int
	txs            []domain.TransactionRecord
}

func newStepRunner(chain Chain, progress ProgressSink, log *slog.Logger, confirmTimeout time.Duration, total int) *stepRunner {
	return &stepRunner{
		chain:          chain,
		progress:       progress,
		log:            log,
		confirmTimeout: confirmTimeout,
		total:          total,
	}
}

// begin announces a step before anything is sent
func (r *stepRunner) begin(ctx context.Context, n int, step, message string) {
	r.log.Debug("step started", "step", step, "n", n, "total", r.total)
	r.progress.OnProgress(ctx, ProgressEvent{
		Stage:   step,
		Current: n,
		Total:   r.total,
		Message: fmt.Sprintf("[%d/%d] %s", n, r.total, message),
		Spinner: true,
	})
}

// done announces a confirmed step
func (r *stepRunner) done(ctx context.Context, n int, step, message string) {
	r.progress.OnProgress(ctx, ProgressEvent{Stage: step, Current: n, Total: r.total})
	r.progress.Info(fmt.Sprintf("[%d/%d] %s", n, r.total, message))
}

// deploy creates contractType and waits for its address
func (r *stepRunner) deploy(ctx context.Context, n int, step, role, contractType string) (common.Address, error) {
	r.begin(ctx, n, step, fmt.Sprintf("Deploying %s %s...", contractType, role))

	pending, err := r.chain.Deploy(ctx, contractType)
	if err != nil {
		return common.Address{}, &domain.TransactionError{Step: step, Err: err}
	}
	r.log.Info("deployment submitted", "contract", contractType, "role", role, "tx", pending.TxHash().Hex())

	waitCtx, cancel := r.waitContext(ctx)
	defer cancel()

	address, err := pending.WaitConfirmed(waitCtx)
	if err != nil {
		return common.Address{}, &domain.TransactionError{Step: step, TxHash: pending.TxHash(), Err: err}
	}

	r.txs = append(r.txs, domain.TransactionRecord{Step: step, TxHash: pending.TxHash()})
	r.log.Info("deployment confirmed", "contract", contractType, "role", role, "address", address.Hex())
	r.done(ctx, n, step, fmt.Sprintf("%s %s deployed to: %s", contractType, role, address.Hex()))
	return address, nil
}

// call sends a state-changing transaction and waits for it
func (r *stepRunner) call(ctx context.Context, n int, step, message string, handle ContractHandle, method string, args ...any) error {
	r.begin(ctx, n, step, message)

	pending, err := handle.Call(ctx, method, args...)
	if err != nil {
		return &domain.TransactionError{Step: step, Err: err}
	}
	r.log.Info("transaction submitted", "contract", handle.Address().Hex(), "method", method, "tx", pending.Hash().Hex())

	waitCtx, cancel := r.waitContext(ctx)
	defer cancel()

	if err := pending.WaitConfirmed(waitCtx); err != nil {
		return &domain.TransactionError{Step: step, TxHash: pending.Hash(), Err: err}
	}

	r.txs = append(r.txs, domain.TransactionRecord{Step: step, TxHash: pending.Hash()})
	r.log.Info("transaction confirmed", "method", method, "tx", pending.Hash().Hex())
	return nil
}

func (r *stepRunner) waitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.confirmTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.confirmTimeout)
}

// transactions returns the confirmed transactions so far, in order
func (r *stepRunner) transactions() []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, len(r.txs))
	copy(out, r.txs)
	return out
}

// readAddress performs a view call that returns a single address
func readAddress(ctx context.Context, handle ContractHandle, method string) (common.Address, error) {
	value, err := handle.Read(ctx, method)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read %s on %s: %w", method, handle.Address().Hex(), err)
	}
	address, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s on %s returned %T, expected address", method, handle.Address().Hex(), value)
	}
	return address, nil
}

// observeImplementation returns the proxy's current implementation as seen
// on chain, or the zero address if neither the admin nor the chain expose it
func observeImplementation(ctx context.Context, chain Chain, admin ContractHandle, proxy common.Address) (common.Address, error) {
	if admin.HasMethod(domain.MethodImplementation) {
		return readAddress(ctx, admin, domain.MethodImplementation)
	}
	impl, err := chain.ProxyImplementation(ctx, proxy)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read implementation of proxy %s: %w", proxy.Hex(), err)
	}
	return impl, nil
}

// validateTarget checks the connection settings before anything is sent
func validateTarget(target config.Target) error {
	if target.Network == nil {
		return &domain.ConfigError{Field: "network", Err: domain.ErrMissingNetwork}
	}
	if target.PrivateKey == "" && !target.Network.IsMemory() {
		return &domain.ConfigError{Field: "private_key", Err: domain.ErrMissingPrivateKey}
	}
	return nil
}

// ParseAdminAddress validates a configured admin address
func ParseAdminAddress(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, &domain.ConfigError{Field: "admin_address", Err: domain.ErrMissingAdminAddress}
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, &domain.ConfigError{Field: "admin_address", Err: fmt.Errorf("%q: %w", raw, domain.ErrInvalidAddress)}
	}
	address := common.HexToAddress(raw)
	if address == (common.Address{}) {
		return common.Address{}, &domain.ConfigError{Field: "admin_address", Err: fmt.Errorf("zero address: %w", domain.ErrInvalidAddress)}
	}
	return address, nil
}

// confirmBroadcast asks before sending to a network where transactions cost real funds
func confirmBroadcast(ctx context.Context, confirmer Confirmer, network *config.Network, skip bool, prompt string) error {
	if skip || confirmer == nil || network.IsLocal() {
		return nil
	}
	ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return domain.ErrAborted
	}
	return nil
}
