package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

// builtinNetworks are available without any foundry.toml entry
var builtinNetworks = map[string]config.Network{
	"sepolia":            {Name: "sepolia", ChainID: 11155111, RPCURL: "https://sepolia.drpc.org"},
	"localhost":          {Name: "localhost", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
	"anvil":              {Name: "anvil", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
	"hardhat":            {Name: "hardhat", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
	config.MemoryNetwork: {Name: config.MemoryNetwork, ChainID: 1337},
}

// NetworkResolver resolves network names to configurations
type NetworkResolver struct {
	foundryConfig *config.FoundryConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(foundryConfig *config.FoundryConfig) *NetworkResolver {
	if foundryConfig == nil {
		foundryConfig = &config.FoundryConfig{}
	}
	return &NetworkResolver{foundryConfig: foundryConfig}
}

// Networks returns every resolvable network name, sorted
func (r *NetworkResolver) Networks() []string {
	names := append(lo.Keys(r.foundryConfig.RpcEndpoints), lo.Keys(builtinNetworks)...)
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

// Resolve resolves a network name or raw RPC URL to its configuration.
// foundry.toml [rpc_endpoints] entries take precedence over built-in networks.
func (r *NetworkResolver) Resolve(networkName string) (*config.Network, error) {
	if networkName == "" {
		return nil, fmt.Errorf("network not specified")
	}

	if isRPCURL(networkName) {
		return &config.Network{Name: "custom", RPCURL: networkName}, nil
	}

	if rpcURL, ok := r.foundryConfig.RpcEndpoints[networkName]; ok {
		network := &config.Network{Name: networkName, RPCURL: rpcURL}
		if builtin, ok := builtinNetworks[networkName]; ok {
			network.ChainID = builtin.ChainID
		}
		if rpcURL == "" {
			return nil, fmt.Errorf("rpc endpoint for %s is empty (unset environment variable?)", networkName)
		}
		network.ExplorerURL = r.explorerURL(networkName, network.ChainID)
		return network, nil
	}

	if builtin, ok := builtinNetworks[strings.ToLower(networkName)]; ok {
		network := builtin
		network.ExplorerURL = r.explorerURL(network.Name, network.ChainID)
		return &network, nil
	}

	if suggestions := r.suggest(networkName); len(suggestions) > 0 {
		return nil, fmt.Errorf("unknown network %q (did you mean %s?)", networkName, strings.Join(suggestions, ", "))
	}
	return nil, fmt.Errorf("unknown network %q: add it to foundry.toml [rpc_endpoints] or pass an RPC URL", networkName)
}

// suggest returns up to three known network names that fuzzily match input
func (r *NetworkResolver) suggest(input string) []string {
	matches := fuzzy.Find(strings.ToLower(input), r.Networks())
	suggestions := lo.Map(matches, func(m fuzzy.Match, _ int) string { return m.Str })
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// explorerURL returns the explorer URL for a network
func (r *NetworkResolver) explorerURL(networkName string, chainID uint64) string {
	if etherscan, exists := r.foundryConfig.Etherscan[networkName]; exists && etherscan.URL != "" {
		return etherscan.URL
	}

	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 8453:
		return "https://basescan.org"
	case 42161:
		return "https://arbiscan.io"
	default:
		return ""
	}
}

func isRPCURL(s string) bool {
	for _, prefix := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
