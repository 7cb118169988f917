package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/contracts"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/devchain"
	"github.com/trebuchet-org/treb-proxy/internal/config"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	domainconfig "github.com/trebuchet-org/treb-proxy/internal/domain/config"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// Connector opens chain sessions: the in-memory chain for the memory
// network, an RPC client for everything else
type Connector struct {
	artifacts     ArtifactSource
	adminContract string
	log           *slog.Logger

	mu     sync.Mutex
	memory *devchain.Chain
}

// NewConnector creates a new chain connector
func NewConnector(cfg *config.RuntimeConfig, artifacts *contracts.Loader, log *slog.Logger) *Connector {
	adminContract := cfg.AdminContract
	if adminContract == "" {
		adminContract = domain.DefaultAdminContract
	}
	return &Connector{
		artifacts:     artifacts,
		adminContract: adminContract,
		log:           log.With("component", "blockchain"),
	}
}

// Connect dials target and returns a signing session
func (c *Connector) Connect(ctx context.Context, target domainconfig.Target) (usecase.Chain, error) {
	if target.Network == nil {
		return nil, &domain.ConfigError{Field: "network", Err: domain.ErrMissingNetwork}
	}
	if target.Network.IsMemory() {
		return c.memoryChain(target)
	}

	key, err := ParsePrivateKey(target.PrivateKey)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, target.Network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chain, err := NewClient(ctx, client, key, target.Network.ChainID, c.artifacts, c.log.With("network", target.Network.Name))
	if err != nil {
		client.Close()
		return nil, err
	}
	c.log.Debug("connected", "network", target.Network.Name, "chainId", chain.chainID, "sender", chain.Sender().Hex())
	return chain, nil
}

// memoryChain returns the process-wide in-memory chain, created on first use
func (c *Connector) memoryChain(target domainconfig.Target) (usecase.Chain, error) {
	sender := devchain.DefaultSender
	if target.PrivateKey != "" {
		key, err := ParsePrivateKey(target.PrivateKey)
		if err != nil {
			return nil, err
		}
		sender = crypto.PubkeyToAddress(key.PublicKey)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memory == nil {
		chainID := target.Network.ChainID
		if chainID == 0 {
			chainID = devchain.DefaultChainID
		}
		c.memory = devchain.New(chainID, sender, c.adminContract)
		c.log.Debug("started in-memory chain", "chainId", chainID, "sender", sender.Hex())
	}
	return c.memory.WithSender(sender), nil
}

// ParsePrivateKey decodes a hex private key, with or without 0x prefix
func ParsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	if raw == "" {
		return nil, &domain.ConfigError{Field: "private_key", Err: domain.ErrMissingPrivateKey}
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		// never echo the key itself
		return nil, &domain.ConfigError{Field: "private_key", Err: fmt.Errorf("invalid private key")}
	}
	return key, nil
}

// Ensure the adapter implements the interface
var _ usecase.ChainConnector = (*Connector)(nil)
