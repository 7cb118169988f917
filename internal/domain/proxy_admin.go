package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AdminState is the binding state of a proxy admin
type AdminState int

const (
	// AdminUnbound is the initial state: no proxy has been created yet
	AdminUnbound AdminState = iota
	// AdminBound means the admin owns exactly one proxy pointing at an implementation
	AdminBound
)

func (s AdminState) String() string {
	switch s {
	case AdminUnbound:
		return "unbound"
	case AdminBound:
		return "bound"
	default:
		return fmt.Sprintf("AdminState(%d)", int(s))
	}
}

// ProxyAdmin models the on-chain authority that owns a single proxy binding.
//
// Transitions:
//
//	Unbound --CreateProxy(impl)--> Bound(impl)
//	Bound   --Upgrade(impl')-----> Bound(impl')
//
// The proxy address is fixed by CreateProxy and never changes afterwards.
// Only the owner may trigger a transition. A rejected transition leaves the
// admin untouched.
type ProxyAdmin struct {
	address        common.Address
	owner          common.Address
	state          AdminState
	proxy          common.Address
	implementation common.Address
	history        []common.Address
}

// NewProxyAdmin creates an unbound admin at address, owned by owner
func NewProxyAdmin(address, owner common.Address) *ProxyAdmin {
	return &ProxyAdmin{
		address: address,
		owner:   owner,
		state:   AdminUnbound,
	}
}

// CreateProxy binds a new proxy at proxyAddr to impl. Legal only while unbound.
func (a *ProxyAdmin) CreateProxy(caller, impl, proxyAddr common.Address) error {
	if caller != a.owner {
		return fmt.Errorf("create proxy from %s: %w", caller.Hex(), ErrUnauthorized)
	}
	if a.state == AdminBound {
		return fmt.Errorf("admin %s already owns proxy %s: %w", a.address.Hex(), a.proxy.Hex(), ErrProxyAlreadyCreated)
	}
	if impl == (common.Address{}) {
		return fmt.Errorf("implementation: %w", ErrInvalidAddress)
	}
	if proxyAddr == (common.Address{}) {
		return fmt.Errorf("proxy: %w", ErrInvalidAddress)
	}

	a.state = AdminBound
	a.proxy = proxyAddr
	a.implementation = impl
	a.history = append(a.history, impl)
	return nil
}

// Upgrade repoints the existing proxy at impl. Legal only while bound.
func (a *ProxyAdmin) Upgrade(caller, impl common.Address) error {
	if caller != a.owner {
		return fmt.Errorf("upgrade from %s: %w", caller.Hex(), ErrUnauthorized)
	}
	if a.state != AdminBound {
		return fmt.Errorf("admin %s: %w", a.address.Hex(), ErrProxyNotCreated)
	}
	if impl == (common.Address{}) {
		return fmt.Errorf("implementation: %w", ErrInvalidAddress)
	}

	a.implementation = impl
	a.history = append(a.history, impl)
	return nil
}

// Address returns the admin's own address
func (a *ProxyAdmin) Address() common.Address { return a.address }

// Owner returns the only account allowed to drive transitions
func (a *ProxyAdmin) Owner() common.Address { return a.owner }

// State returns the current binding state
func (a *ProxyAdmin) State() AdminState { return a.state }

// Proxy returns the bound proxy, or the zero address while unbound
func (a *ProxyAdmin) Proxy() common.Address { return a.proxy }

// Implementation returns the proxy's current implementation, or the zero address while unbound
func (a *ProxyAdmin) Implementation() common.Address { return a.implementation }

// History returns every implementation the proxy has pointed at, oldest first
func (a *ProxyAdmin) History() []common.Address {
	out := make([]common.Address, len(a.history))
	copy(out, a.history)
	return out
}
