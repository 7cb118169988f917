package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/contracts"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/forge"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/fs"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-proxy/internal/adapters/progress"
	"github.com/trebuchet-org/treb-proxy/internal/config"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// ProvideProgressSink picks the spinner for humans and stays silent for --json
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.JSON {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerProgressReporter()
}

// ProvideConfirmer returns nil when broadcasts were pre-approved with --yes
func ProvideConfirmer(cfg *config.RuntimeConfig, selector *interactive.SelectorAdapter) usecase.Confirmer {
	if cfg.AssumeYes {
		return nil
	}
	return selector
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewManifestWriterAdapter,
	wire.Bind(new(usecase.ManifestWriter), new(*fs.ManifestWriterAdapter)),
)

// ForgeSet provides forge-based implementations
var ForgeSet = wire.NewSet(
	forge.NewBuilder,
	wire.Bind(new(usecase.ContractBuilder), new(*forge.Builder)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.NetworkSelector), new(*interactive.SelectorAdapter)),
	ProvideConfirmer,
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*config.NetworkResolver)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	contracts.NewLoader,
	blockchain.NewConnector,
	wire.Bind(new(usecase.ChainConnector), new(*blockchain.Connector)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ProvideProgressSink,

	FSSet,
	ForgeSet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
)
