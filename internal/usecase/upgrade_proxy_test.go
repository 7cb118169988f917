package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
)

func newUpgradeScenario() (*fakeChain, *fakeConnector) {
	chain := newFakeChain().withBoundAdmin(addrBB, addrCC, addrAA)
	chain.nextAddrs = []common.Address{addrDD}
	return chain, &fakeConnector{chain: chain}
}

func TestUpgradeProxy_ScenarioB(t *testing.T) {
	chain, connector := newUpgradeScenario()
	sink := &recordingSink{}
	uc := NewUpgradeProxy(connector, nil, nil, sink, discardLogger())

	result, err := uc.Run(context.Background(), UpgradeProxyParams{
		Target:       memoryTarget(),
		AdminAddress: addrBB.Hex(),
	})
	require.NoError(t, err)

	r := result.Report
	assert.Equal(t, addrBB, r.Admin)
	assert.Equal(t, addrCC, r.Proxy)
	assert.Equal(t, addrAA, r.PreviousImplementation)
	assert.Equal(t, addrDD, r.NewImplementation)
	assert.Equal(t, "GameVoting", r.ImplementationContract)

	admin := chain.admins[addrBB]
	assert.Equal(t, addrCC, admin.Proxy())
	assert.Equal(t, addrDD, admin.Implementation())
	assert.Equal(t, []common.Address{addrAA, addrDD}, admin.History())

	assert.Equal(t, []string{"deploy:GameVoting", "call:upgrade"}, chain.submitted)
	require.Len(t, r.Transactions, 2)
	assert.Equal(t, StepDeployImplementation, r.Transactions[0].Step)
	assert.Equal(t, StepUpgradeProxy, r.Transactions[1].Step)

	assert.Equal(t, []string{
		"Starting upgrade process...",
		"[1/3] GameVoting implementation deployed to: " + addrDD.Hex(),
		"[2/3] Proxy " + addrCC.Hex() + " upgraded",
		"[3/3] Proxy address unchanged: " + addrCC.Hex(),
	}, sink.infos)
}

func TestUpgradeProxy_ScenarioC_MissingAdmin(t *testing.T) {
	chain, connector := newUpgradeScenario()
	uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

	result, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget()})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMissingAdminAddress)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "admin_address", cfgErr.Field)

	assert.Zero(t, connector.connects)
	assert.Empty(t, chain.submitted)
	assert.Equal(t, addrAA, chain.admins[addrBB].Implementation())
}

func TestUpgradeProxy_AdminValidatedBeforeNetwork(t *testing.T) {
	chain, connector := newUpgradeScenario()
	uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

	// the admin address is the first thing checked, even with no network
	_, err := uc.Run(context.Background(), UpgradeProxyParams{})
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "admin_address", cfgErr.Field)
	assert.Empty(t, chain.submitted)
}

func TestUpgradeProxy_InvalidAdminAddress(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not hex", raw: "game-voting-admin"},
		{name: "too short", raw: "0x1234"},
		{name: "zero address", raw: "0x0000000000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, connector := newUpgradeScenario()
			uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

			_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: tt.raw})
			require.ErrorIs(t, err, domain.ErrInvalidAddress)
			assert.Zero(t, connector.connects)
			assert.Empty(t, chain.submitted)
		})
	}
}

func TestUpgradeProxy_UnboundAdmin(t *testing.T) {
	chain := newFakeChain()
	chain.admins[addrBB] = domain.NewProxyAdmin(addrBB, deployer)
	chain.nextAddrs = []common.Address{addrDD}
	uc := NewUpgradeProxy(&fakeConnector{chain: chain}, nil, nil, NopProgress{}, discardLogger())

	_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: addrBB.Hex()})
	require.ErrorIs(t, err, domain.ErrProxyNotCreated)
	assert.Empty(t, chain.submitted)
}

func TestUpgradeProxy_FailuresKeepOldImplementationLive(t *testing.T) {
	boom := errors.New("replacement transaction underpriced")

	t.Run("new implementation not deployed", func(t *testing.T) {
		chain, connector := newUpgradeScenario()
		chain.deployErr["GameVoting"] = boom
		uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

		_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: addrBB.Hex()})
		var txErr *domain.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, StepDeployImplementation, txErr.Step)
		assert.Empty(t, txErr.Orphaned)
		assert.Equal(t, []string{"deploy:GameVoting"}, chain.submitted)
		assert.Equal(t, addrAA, chain.admins[addrBB].Implementation())
	})

	t.Run("upgrade not confirmed", func(t *testing.T) {
		chain, connector := newUpgradeScenario()
		chain.callErr[domain.MethodUpgrade] = boom
		uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

		_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: addrBB.Hex()})
		require.ErrorIs(t, err, boom)

		var txErr *domain.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, StepUpgradeProxy, txErr.Step)
		assert.NotEqual(t, common.Hash{}, txErr.TxHash)
		assert.Equal(t, []domain.OrphanedContract{{Role: domain.RoleImplementation, Address: addrDD}}, txErr.Orphaned)
		assert.Contains(t, err.Error(), addrDD.Hex())

		admin := chain.admins[addrBB]
		assert.Equal(t, addrCC, admin.Proxy())
		assert.Equal(t, addrAA, admin.Implementation())
	})
}

func TestUpgradeProxy_InvariantViolations(t *testing.T) {
	t.Run("proxy address changed", func(t *testing.T) {
		chain, connector := newUpgradeScenario()
		chain.readSeq[domain.MethodProxy] = []common.Address{addrCC, addrEE}
		uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

		_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: addrBB.Hex()})
		require.ErrorIs(t, err, domain.ErrInvariantViolated)
		var invErr *domain.InvariantError
		require.ErrorAs(t, err, &invErr)
		assert.Equal(t, addrCC, invErr.Expected)
		assert.Equal(t, addrEE, invErr.Actual)
	})

	t.Run("proxy still points at the old implementation", func(t *testing.T) {
		chain, connector := newUpgradeScenario()
		chain.exposeImpl = true
		chain.readFixed[domain.MethodImplementation] = addrAA
		uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

		_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: addrBB.Hex()})
		require.ErrorIs(t, err, domain.ErrInvariantViolated)
		var invErr *domain.InvariantError
		require.ErrorAs(t, err, &invErr)
		assert.Equal(t, addrDD, invErr.Expected)
		assert.Equal(t, addrAA, invErr.Actual)
	})
}

func TestUpgradeProxy_RepeatedUpgrades(t *testing.T) {
	chain, connector := newUpgradeScenario()
	chain.nextAddrs = []common.Address{addrDD, addrEE}
	uc := NewUpgradeProxy(connector, nil, nil, NopProgress{}, discardLogger())

	for _, want := range []common.Address{addrDD, addrEE} {
		result, err := uc.Run(context.Background(), UpgradeProxyParams{Target: memoryTarget(), AdminAddress: addrBB.Hex()})
		require.NoError(t, err)
		assert.Equal(t, addrCC, result.Report.Proxy)
		assert.Equal(t, want, result.Report.NewImplementation)
	}
	assert.Equal(t, []common.Address{addrAA, addrDD, addrEE}, chain.admins[addrBB].History())
}

func TestUpgradeProxy_WritesReport(t *testing.T) {
	_, connector := newUpgradeScenario()
	writer := newFakeWriter()
	uc := NewUpgradeProxy(connector, writer, nil, NopProgress{}, discardLogger())

	result, err := uc.Run(context.Background(), UpgradeProxyParams{
		Target:       memoryTarget(),
		AdminAddress: addrBB.Hex(),
		ManifestPath: "upgrade.json",
	})
	require.NoError(t, err)
	assert.Same(t, result.Report, writer.manifests["upgrade.json"])
}

func TestUpgradeProxy_ConfirmationDeclined(t *testing.T) {
	chain, connector := newUpgradeScenario()
	confirmer := &fakeConfirmer{}
	uc := NewUpgradeProxy(connector, nil, confirmer, NopProgress{}, discardLogger())

	_, err := uc.Run(context.Background(), UpgradeProxyParams{Target: sepoliaTarget(), AdminAddress: addrBB.Hex()})
	require.ErrorIs(t, err, domain.ErrAborted)
	require.Len(t, confirmer.asked, 1)
	assert.Contains(t, confirmer.asked[0], addrBB.Hex())
	assert.Zero(t, connector.connects)
	assert.Empty(t, chain.submitted)
}
