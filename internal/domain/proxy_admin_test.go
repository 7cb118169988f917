package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000F0")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	implAA   = common.HexToAddress("0xAA")
	adminBB  = common.HexToAddress("0xBB")
	proxyCC  = common.HexToAddress("0xCC")
	implDD   = common.HexToAddress("0xDD")
)

func TestProxyAdmin_CreateThenUpgrade(t *testing.T) {
	admin := NewProxyAdmin(adminBB, owner)
	assert.Equal(t, AdminUnbound, admin.State())
	assert.Equal(t, common.Address{}, admin.Proxy())

	// Scenario A
	require.NoError(t, admin.CreateProxy(owner, implAA, proxyCC))
	assert.Equal(t, AdminBound, admin.State())
	assert.Equal(t, proxyCC, admin.Proxy())
	assert.Equal(t, implAA, admin.Implementation())

	// Scenario B
	require.NoError(t, admin.Upgrade(owner, implDD))
	assert.Equal(t, proxyCC, admin.Proxy())
	assert.Equal(t, implDD, admin.Implementation())
	assert.Equal(t, []common.Address{implAA, implDD}, admin.History())
}

func TestProxyAdmin_ReadsAreStable(t *testing.T) {
	admin := NewProxyAdmin(adminBB, owner)
	require.NoError(t, admin.CreateProxy(owner, implAA, proxyCC))

	first := admin.Proxy()
	second := admin.Proxy()
	assert.Equal(t, first, second)
	assert.Equal(t, admin.Implementation(), admin.Implementation())
}

func TestProxyAdmin_UpgradeBeforeCreate(t *testing.T) {
	admin := NewProxyAdmin(adminBB, owner)

	err := admin.Upgrade(owner, implDD)
	require.ErrorIs(t, err, ErrProxyNotCreated)

	assert.Equal(t, AdminUnbound, admin.State())
	assert.Equal(t, common.Address{}, admin.Proxy())
	assert.Equal(t, common.Address{}, admin.Implementation())
	assert.Empty(t, admin.History())
}

func TestProxyAdmin_SecondCreateFails(t *testing.T) {
	admin := NewProxyAdmin(adminBB, owner)
	require.NoError(t, admin.CreateProxy(owner, implAA, proxyCC))

	err := admin.CreateProxy(owner, implDD, common.HexToAddress("0xEE"))
	require.ErrorIs(t, err, ErrProxyAlreadyCreated)

	assert.Equal(t, proxyCC, admin.Proxy())
	assert.Equal(t, implAA, admin.Implementation())
	assert.Len(t, admin.History(), 1)
}

func TestProxyAdmin_Authorization(t *testing.T) {
	tests := []struct {
		name  string
		bound bool
		run   func(a *ProxyAdmin) error
	}{
		{
			name: "create from stranger",
			run:  func(a *ProxyAdmin) error { return a.CreateProxy(stranger, implAA, proxyCC) },
		},
		{
			name:  "upgrade from stranger",
			bound: true,
			run:   func(a *ProxyAdmin) error { return a.Upgrade(stranger, implDD) },
		},
		{
			// authorization is checked before state
			name: "upgrade from stranger while unbound",
			run:  func(a *ProxyAdmin) error { return a.Upgrade(stranger, implDD) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := NewProxyAdmin(adminBB, owner)
			if tt.bound {
				require.NoError(t, admin.CreateProxy(owner, implAA, proxyCC))
			}
			before := *admin

			err := tt.run(admin)
			require.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, before.State(), admin.State())
			assert.Equal(t, before.Proxy(), admin.Proxy())
			assert.Equal(t, before.Implementation(), admin.Implementation())
		})
	}
}

func TestProxyAdmin_RejectsZeroAddresses(t *testing.T) {
	admin := NewProxyAdmin(adminBB, owner)
	assert.ErrorIs(t, admin.CreateProxy(owner, common.Address{}, proxyCC), ErrInvalidAddress)
	assert.ErrorIs(t, admin.CreateProxy(owner, implAA, common.Address{}), ErrInvalidAddress)
	assert.Equal(t, AdminUnbound, admin.State())

	require.NoError(t, admin.CreateProxy(owner, implAA, proxyCC))
	assert.ErrorIs(t, admin.Upgrade(owner, common.Address{}), ErrInvalidAddress)
	assert.Equal(t, implAA, admin.Implementation())
}

func TestAdminState_String(t *testing.T) {
	assert.Equal(t, "unbound", AdminUnbound.String())
	assert.Equal(t, "bound", AdminBound.String())
	assert.Equal(t, "AdminState(7)", AdminState(7).String())
}
