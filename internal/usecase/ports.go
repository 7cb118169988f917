package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

// ChainConnector opens a chain session for a target network and signer
type ChainConnector interface {
	Connect(ctx context.Context, target config.Target) (Chain, error)
}

// Chain is a connected, signing session on a single network. It is the
// only way the orchestrators touch the chain.
type Chain interface {
	ContractFactory

	// ChainID returns the chain ID reported by the network
	ChainID(ctx context.Context) (uint64, error)
	// Sender returns the address transactions are signed with
	Sender() common.Address
	// ProxyImplementation returns the implementation a proxy currently
	// forwards to, or the zero address when the chain cannot observe it
	ProxyImplementation(ctx context.Context, proxy common.Address) (common.Address, error)
	Close() error
}

// ContractFactory instantiates named contract types, either as new
// deployments or bound to an existing address
type ContractFactory interface {
	// Deploy submits a creation transaction for contractType
	Deploy(ctx context.Context, contractType string) (PendingDeployment, error)
	// Attach binds contractType's ABI to an existing address without deploying
	Attach(ctx context.Context, contractType string, address common.Address) (ContractHandle, error)
}

// PendingDeployment is a submitted, not yet confirmed, contract creation
type PendingDeployment interface {
	TxHash() common.Hash
	// WaitConfirmed blocks until the creation is mined successfully and
	// returns the new contract's address
	WaitConfirmed(ctx context.Context) (common.Address, error)
}

// ContractHandle is a contract bound to an address
type ContractHandle interface {
	Address() common.Address
	// HasMethod reports whether the contract's ABI exposes method
	HasMethod(method string) bool
	// Call submits a state-changing transaction
	Call(ctx context.Context, method string, args ...any) (PendingTx, error)
	// Read performs a view call and returns its single return value
	Read(ctx context.Context, method string, args ...any) (any, error)
}

// PendingTx is a submitted, not yet confirmed, transaction
type PendingTx interface {
	Hash() common.Hash
	// WaitConfirmed blocks until the transaction is mined successfully
	WaitConfirmed(ctx context.Context) error
}

// ContractBuilder compiles the project's contracts into artifacts
type ContractBuilder interface {
	Build(ctx context.Context) error
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	Networks() []string
	Resolve(networkName string) (*config.Network, error)
}

// ManifestWriter persists run results for operators
type ManifestWriter interface {
	WriteManifest(ctx context.Context, path string, manifest any) error
	WriteAdminAddress(ctx context.Context, envFile string, admin common.Address) error
}

// Confirmer asks the operator before anything is broadcast
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// NetworkSelector lets the operator pick a network interactively
type NetworkSelector interface {
	SelectNetwork(ctx context.Context, networks []string) (string, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Current int
	Total   int
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// Use case result types

// DeployProxyResult contains the result of a deploy run
type DeployProxyResult struct {
	Manifest *domain.DeploymentManifest
}

// UpgradeProxyResult contains the result of an upgrade run
type UpgradeProxyResult struct {
	Report *domain.UpgradeReport
}
