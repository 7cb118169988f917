package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/contracts"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// implementationSlot is the EIP-1967 storage slot holding a proxy's
// implementation: bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1)
var implementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

// Backend is the part of an RPC client the chain client needs
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
	Close()
}

// ArtifactSource supplies compiled contracts by name
type ArtifactSource interface {
	Load(name string) (*contracts.Artifact, error)
}

// Client is a signing connection to one EVM network
type Client struct {
	backend   Backend
	chainID   uint64
	auth      *bind.TransactOpts
	artifacts ArtifactSource
	log       *slog.Logger
}

// NewClient verifies the backend's chain ID and prepares a signer for key.
// expectedChainID 0 accepts whatever the backend reports.
func NewClient(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, expectedChainID uint64, artifacts ArtifactSource, log *slog.Logger) (*Client, error) {
	networkChainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if expectedChainID != 0 && networkChainID.Uint64() != expectedChainID {
		return nil, &domain.ConfigError{
			Field: "chain_id",
			Err:   fmt.Errorf("%w: expected %d, got %d", domain.ErrNetworkMismatch, expectedChainID, networkChainID.Uint64()),
		}
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, networkChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return &Client{
		backend:   backend,
		chainID:   networkChainID.Uint64(),
		auth:      auth,
		artifacts: artifacts,
		log:       log,
	}, nil
}

func (c *Client) ChainID(ctx context.Context) (uint64, error) { return c.chainID, nil }

func (c *Client) Sender() common.Address { return c.auth.From }

func (c *Client) Close() error {
	c.backend.Close()
	return nil
}

// transactOpts returns a copy of the signer bound to ctx
func (c *Client) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *c.auth
	opts.Context = ctx
	return &opts
}

// Deploy submits the creation transaction for contractType
func (c *Client) Deploy(ctx context.Context, contractType string) (usecase.PendingDeployment, error) {
	art, err := c.artifacts.Load(contractType)
	if err != nil {
		return nil, err
	}

	address, tx, _, err := bind.DeployContract(c.transactOpts(ctx), art.ABI, art.Bytecode, c.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s deployment: %w", contractType, err)
	}
	c.log.Debug("deployment sent", "contract", contractType, "tx", tx.Hash().Hex(), "nonce", tx.Nonce(), "address", address.Hex())

	return &pendingDeployment{backend: c.backend, tx: tx, address: address}, nil
}

// Attach binds to a contract already on chain
func (c *Client) Attach(ctx context.Context, contractType string, address common.Address) (usecase.ContractHandle, error) {
	art, err := c.artifacts.Load(contractType)
	if err != nil {
		return nil, err
	}

	code, err := c.backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check code at %s: %w", address.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no contract code at %s", address.Hex())
	}

	return &boundContract{
		client:   c,
		address:  address,
		artifact: art,
		contract: bind.NewBoundContract(address, art.ABI, c.backend, c.backend, c.backend),
	}, nil
}

// ProxyImplementation reads the EIP-1967 implementation slot of proxy
func (c *Client) ProxyImplementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	value, err := c.backend.StorageAt(ctx, proxy, implementationSlot, nil)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(value), nil
}

type pendingDeployment struct {
	backend Backend
	tx      *types.Transaction
	address common.Address
}

func (p *pendingDeployment) TxHash() common.Hash { return p.tx.Hash() }

func (p *pendingDeployment) WaitConfirmed(ctx context.Context) (common.Address, error) {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed waiting for transaction: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, fmt.Errorf("%w in block %d", domain.ErrTransactionReverted, receipt.BlockNumber)
	}

	code, err := p.backend.CodeAt(ctx, p.address, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to check code at %s: %w", p.address.Hex(), err)
	}
	if len(code) == 0 {
		return common.Address{}, fmt.Errorf("no code at %s after deployment", p.address.Hex())
	}
	return p.address, nil
}

type boundContract struct {
	client   *Client
	address  common.Address
	artifact *contracts.Artifact
	contract *bind.BoundContract
}

func (b *boundContract) Address() common.Address { return b.address }

func (b *boundContract) HasMethod(method string) bool { return b.artifact.HasMethod(method) }

func (b *boundContract) Call(ctx context.Context, method string, args ...any) (usecase.PendingTx, error) {
	if !b.HasMethod(method) {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnknownMethod, method, b.artifact.Name)
	}
	tx, err := b.contract.Transact(b.client.transactOpts(ctx), method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}
	b.client.log.Debug("transaction sent", "method", method, "tx", tx.Hash().Hex(), "nonce", tx.Nonce())
	return &pendingTx{backend: b.client.backend, tx: tx}, nil
}

func (b *boundContract) Read(ctx context.Context, method string, args ...any) (any, error) {
	if !b.HasMethod(method) {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnknownMethod, method, b.artifact.Name)
	}
	var out []any
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, err
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

type pendingTx struct {
	backend Backend
	tx      *types.Transaction
}

func (p *pendingTx) Hash() common.Hash { return p.tx.Hash() }

func (p *pendingTx) WaitConfirmed(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return fmt.Errorf("failed waiting for transaction: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w in block %d", domain.ErrTransactionReverted, receipt.BlockNumber)
	}
	return nil
}

var (
	_ usecase.Chain          = (*Client)(nil)
	_ usecase.ContractHandle = (*boundContract)(nil)
)
