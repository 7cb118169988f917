// Package devchain is a deterministic single-process chain that serves the
// proxy orchestration ports without a node. Admin contracts are backed by
// domain.ProxyAdmin; every other contract is an opaque code holder.
package devchain

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// DefaultSender is the first well-known anvil/hardhat development account
var DefaultSender = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// DefaultChainID matches the memory network entry
const DefaultChainID uint64 = 1337

const proxyContractType = "Proxy"

var adminMethods = map[string]bool{
	domain.MethodDeployProxy:    true,
	domain.MethodUpgrade:        true,
	domain.MethodProxy:          true,
	domain.MethodImplementation: true,
	domain.MethodOwner:          true,
}

type state struct {
	mu         sync.Mutex
	chainID    uint64
	adminTypes map[string]bool
	nonces     map[common.Address]uint64
	code       map[common.Address]string // address -> contract type
	admins     map[common.Address]*domain.ProxyAdmin
	faults     map[string]error // "deploy:<Type>" or "call:<method>" -> revert reason, consumed once
}

// Chain is one signer's view of a shared in-memory chain
type Chain struct {
	st     *state
	sender common.Address
}

// New creates an empty chain. Contracts deployed under one of adminTypes
// behave as proxy admins.
func New(chainID uint64, sender common.Address, adminTypes ...string) *Chain {
	st := &state{
		chainID:    chainID,
		adminTypes: make(map[string]bool),
		nonces:     make(map[common.Address]uint64),
		code:       make(map[common.Address]string),
		admins:     make(map[common.Address]*domain.ProxyAdmin),
		faults:     make(map[string]error),
	}
	for _, t := range adminTypes {
		st.adminTypes[t] = true
	}
	return &Chain{st: st, sender: sender}
}

// WithSender returns a view of the same chain that signs as sender
func (c *Chain) WithSender(sender common.Address) *Chain {
	return &Chain{st: c.st, sender: sender}
}

// FailNext makes the next matching transaction revert with reason.
// op is "deploy:<ContractType>" or "call:<method>".
func (c *Chain) FailNext(op string, reason error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.faults[op] = reason
}

// Admin returns the state machine behind an admin contract
func (c *Chain) Admin(address common.Address) (*domain.ProxyAdmin, bool) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	a, ok := c.st.admins[address]
	return a, ok
}

func (c *Chain) ChainID(ctx context.Context) (uint64, error) { return c.st.chainID, nil }
func (c *Chain) Sender() common.Address                      { return c.sender }
func (c *Chain) Close() error                                { return nil }

// ProxyImplementation returns the implementation behind proxy, or the zero
// address when no admin owns it
func (c *Chain) ProxyImplementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	for _, a := range c.st.admins {
		if a.State() == domain.AdminBound && a.Proxy() == proxy {
			return a.Implementation(), nil
		}
	}
	return common.Address{}, nil
}

// Deploy creates contractType at the next CREATE address of the sender.
// The transaction is mined as soon as it is submitted.
func (c *Chain) Deploy(ctx context.Context, contractType string) (usecase.PendingDeployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	hash, nonce := c.st.consumeNonce(c.sender)
	pending := &pendingDeployment{hash: hash}

	op := "deploy:" + contractType
	if reason, ok := c.st.faults[op]; ok {
		delete(c.st.faults, op)
		pending.err = fmt.Errorf("%w: %v", domain.ErrTransactionReverted, reason)
		return pending, nil
	}

	address := crypto.CreateAddress(c.sender, nonce)
	c.st.code[address] = contractType
	if c.st.adminTypes[contractType] {
		c.st.admins[address] = domain.NewProxyAdmin(address, c.sender)
		// contract accounts start at nonce 1
		c.st.nonces[address] = 1
	}
	pending.address = address
	return pending, nil
}

// Attach binds to a deployed contract
func (c *Chain) Attach(ctx context.Context, contractType string, address common.Address) (usecase.ContractHandle, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	deployed, ok := c.st.code[address]
	if !ok {
		return nil, fmt.Errorf("no contract code at %s", address.Hex())
	}
	if deployed != contractType {
		return nil, fmt.Errorf("contract at %s is a %s, not a %s", address.Hex(), deployed, contractType)
	}
	return &handle{chain: c, address: address, admin: c.st.admins[address]}, nil
}

// consumeNonce must be called with the lock held
func (s *state) consumeNonce(sender common.Address) (common.Hash, uint64) {
	nonce := s.nonces[sender]
	s.nonces[sender] = nonce + 1

	buf := make([]byte, common.AddressLength+8)
	copy(buf, sender.Bytes())
	binary.BigEndian.PutUint64(buf[common.AddressLength:], nonce)
	return crypto.Keccak256Hash(buf), nonce
}

type handle struct {
	chain   *Chain
	address common.Address
	admin   *domain.ProxyAdmin
}

func (h *handle) Address() common.Address { return h.address }

func (h *handle) HasMethod(method string) bool {
	return h.admin != nil && adminMethods[method]
}

func (h *handle) Call(ctx context.Context, method string, args ...any) (usecase.PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !h.HasMethod(method) {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnknownMethod, method, h.address.Hex())
	}
	if method != domain.MethodDeployProxy && method != domain.MethodUpgrade {
		return nil, fmt.Errorf("%s is a view method", method)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%s expects 1 argument, got %d", method, len(args))
	}
	impl, ok := args[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("%s expects an address argument, got %T", method, args[0])
	}

	st := h.chain.st
	st.mu.Lock()
	defer st.mu.Unlock()

	hash, _ := st.consumeNonce(h.chain.sender)
	tx := &pendingTx{hash: hash}

	op := "call:" + method
	if reason, ok := st.faults[op]; ok {
		delete(st.faults, op)
		tx.err = fmt.Errorf("%w: %v", domain.ErrTransactionReverted, reason)
		return tx, nil
	}

	// the proxy only binds to code that is neither a proxy nor an admin
	if t, ok := st.code[impl]; !ok || t == proxyContractType || st.adminTypes[t] {
		tx.err = fmt.Errorf("%w: %s is not a deployed implementation", domain.ErrTransactionReverted, impl.Hex())
		return tx, nil
	}

	var err error
	switch method {
	case domain.MethodDeployProxy:
		proxy := crypto.CreateAddress(h.address, st.nonces[h.address])
		if err = h.admin.CreateProxy(h.chain.sender, impl, proxy); err == nil {
			st.nonces[h.address]++
			st.code[proxy] = proxyContractType
		}
	case domain.MethodUpgrade:
		err = h.admin.Upgrade(h.chain.sender, impl)
	}
	if err != nil {
		tx.err = fmt.Errorf("%w: %v", domain.ErrTransactionReverted, err)
	}
	return tx, nil
}

func (h *handle) Read(ctx context.Context, method string, args ...any) (any, error) {
	if !h.HasMethod(method) {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnknownMethod, method, h.address.Hex())
	}

	h.chain.st.mu.Lock()
	defer h.chain.st.mu.Unlock()

	switch method {
	case domain.MethodProxy:
		return h.admin.Proxy(), nil
	case domain.MethodImplementation:
		return h.admin.Implementation(), nil
	case domain.MethodOwner:
		return h.admin.Owner(), nil
	}
	return nil, fmt.Errorf("%s is not a view method", method)
}

type pendingDeployment struct {
	hash    common.Hash
	address common.Address
	err     error
}

func (p *pendingDeployment) TxHash() common.Hash { return p.hash }

func (p *pendingDeployment) WaitConfirmed(ctx context.Context) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	if p.err != nil {
		return common.Address{}, p.err
	}
	return p.address, nil
}

type pendingTx struct {
	hash common.Hash
	err  error
}

func (p *pendingTx) Hash() common.Hash { return p.hash }

func (p *pendingTx) WaitConfirmed(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.err
}

var (
	_ usecase.Chain          = (*Chain)(nil)
	_ usecase.ContractHandle = (*handle)(nil)
)
