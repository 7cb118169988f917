package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	ArtifactsDir string // empty means search out/ and artifacts/

	// Target
	Network      *Network // nil if not specified
	PrivateKey   string   // hex, with or without 0x
	AdminAddress string   // upgrade target, raw as configured

	// Contract types
	ImplementationContract string
	AdminContract          string

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	AssumeYes      bool // Skip broadcast confirmation
	Timeout        time.Duration
	ConfirmTimeout time.Duration // per transaction

	// Output
	ManifestPath string
	EnvFile      string
}

// Network represents network configuration
type Network struct {
	Name        string `json:"name"`
	ChainID     uint64 `json:"chainId,omitempty"` // 0 means accept whatever the RPC reports
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// MemoryNetwork is the name of the in-process simulated chain
const MemoryNetwork = "memory"

// IsMemory reports whether the network is the in-process simulated chain
func (n *Network) IsMemory() bool {
	return n != nil && n.Name == MemoryNetwork
}

// IsLocal reports whether broadcasting to the network is free of real-world cost
func (n *Network) IsLocal() bool {
	if n == nil {
		return false
	}
	if n.IsMemory() || n.ChainID == 31337 {
		return true
	}
	switch n.Name {
	case "localhost", "anvil", "hardhat":
		return true
	}
	return false
}

// Target is the explicit connection configuration every orchestrator run takes
type Target struct {
	Network    *Network
	PrivateKey string
}
