package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

var (
	deployer = common.HexToAddress("0x00000000000000000000000000000000000000F0")
	addrAA   = common.HexToAddress("0xAA")
	addrBB   = common.HexToAddress("0xBB")
	addrCC   = common.HexToAddress("0xCC")
	addrDD   = common.HexToAddress("0xDD")
	addrEE   = common.HexToAddress("0xEE")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChain is a scripted chain: deployments receive addresses from a
// queue and admin contracts are backed by the domain state machine
type fakeChain struct {
	chainID    uint64
	adminType  string
	nextAddrs  []common.Address
	proxyAddrs []common.Address
	admins     map[common.Address]*domain.ProxyAdmin
	exposeImpl bool

	deployErr map[string]error            // contract type -> submission error
	waitErr   map[string]error            // contract type -> confirmation error
	callErr   map[string]error            // method -> confirmation error, call not applied
	readSeq   map[string][]common.Address // method -> forced results, consumed in order
	readFixed map[string]common.Address   // method -> forced result
	readErr   map[string][]error          // method -> read failures, consumed in order; nil passes through

	submitted []string
	nonce     uint64
	closed    bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:   1337,
		adminType: domain.DefaultAdminContract,
		admins:    make(map[common.Address]*domain.ProxyAdmin),
		deployErr: make(map[string]error),
		waitErr:   make(map[string]error),
		callErr:   make(map[string]error),
		readSeq:   make(map[string][]common.Address),
		readFixed: make(map[string]common.Address),
		readErr:   make(map[string][]error),
	}
}

// withBoundAdmin seeds an admin that already owns proxy -> impl
func (c *fakeChain) withBoundAdmin(admin, proxy, impl common.Address) *fakeChain {
	a := domain.NewProxyAdmin(admin, deployer)
	if err := a.CreateProxy(deployer, impl, proxy); err != nil {
		panic(err)
	}
	c.admins[admin] = a
	return c
}

func (c *fakeChain) nextHash() common.Hash {
	c.nonce++
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d", c.nonce)))
}

func (c *fakeChain) ChainID(ctx context.Context) (uint64, error) { return c.chainID, nil }
func (c *fakeChain) Sender() common.Address                      { return deployer }
func (c *fakeChain) Close() error                                { c.closed = true; return nil }

func (c *fakeChain) ProxyImplementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	for _, a := range c.admins {
		if a.Proxy() == proxy {
			return a.Implementation(), nil
		}
	}
	return common.Address{}, nil
}

func (c *fakeChain) Deploy(ctx context.Context, contractType string) (PendingDeployment, error) {
	c.submitted = append(c.submitted, "deploy:"+contractType)
	if err := c.deployErr[contractType]; err != nil {
		return nil, err
	}
	if len(c.nextAddrs) == 0 {
		return nil, fmt.Errorf("no scripted address left for %s", contractType)
	}
	addr := c.nextAddrs[0]
	c.nextAddrs = c.nextAddrs[1:]
	if contractType == c.adminType {
		c.admins[addr] = domain.NewProxyAdmin(addr, deployer)
	}
	return &fakeDeployment{hash: c.nextHash(), addr: addr, err: c.waitErr[contractType]}, nil
}

func (c *fakeChain) Attach(ctx context.Context, contractType string, address common.Address) (ContractHandle, error) {
	return &fakeHandle{chain: c, addr: address, admin: c.admins[address]}, nil
}

type fakeDeployment struct {
	hash common.Hash
	addr common.Address
	err  error
}

func (d *fakeDeployment) TxHash() common.Hash { return d.hash }

func (d *fakeDeployment) WaitConfirmed(ctx context.Context) (common.Address, error) {
	if d.err != nil {
		return common.Address{}, d.err
	}
	return d.addr, nil
}

type fakeHandle struct {
	chain *fakeChain
	addr  common.Address
	admin *domain.ProxyAdmin
}

func (h *fakeHandle) Address() common.Address { return h.addr }

func (h *fakeHandle) HasMethod(method string) bool {
	if method == domain.MethodImplementation {
		return h.chain.exposeImpl
	}
	return true
}

func (h *fakeHandle) Call(ctx context.Context, method string, args ...any) (PendingTx, error) {
	h.chain.submitted = append(h.chain.submitted, "call:"+method)
	tx := &fakeTx{hash: h.chain.nextHash()}
	if err := h.chain.callErr[method]; err != nil {
		tx.err = err
		return tx, nil
	}
	if h.admin == nil {
		tx.err = fmt.Errorf("no contract at %s", h.addr.Hex())
		return tx, nil
	}

	impl := args[0].(common.Address)
	switch method {
	case domain.MethodDeployProxy:
		var proxy common.Address
		if len(h.chain.proxyAddrs) > 0 {
			proxy = h.chain.proxyAddrs[0]
			h.chain.proxyAddrs = h.chain.proxyAddrs[1:]
		}
		if err := h.admin.CreateProxy(deployer, impl, proxy); err != nil {
			tx.err = fmt.Errorf("%w: %v", domain.ErrTransactionReverted, err)
		}
	case domain.MethodUpgrade:
		if err := h.admin.Upgrade(deployer, impl); err != nil {
			tx.err = fmt.Errorf("%w: %v", domain.ErrTransactionReverted, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, method)
	}
	return tx, nil
}

func (h *fakeHandle) Read(ctx context.Context, method string, args ...any) (any, error) {
	if errs := h.chain.readErr[method]; len(errs) > 0 {
		h.chain.readErr[method] = errs[1:]
		if errs[0] != nil {
			return nil, errs[0]
		}
	}
	if seq := h.chain.readSeq[method]; len(seq) > 0 {
		h.chain.readSeq[method] = seq[1:]
		return seq[0], nil
	}
	if addr, ok := h.chain.readFixed[method]; ok {
		return addr, nil
	}
	if h.admin == nil {
		return common.Address{}, nil
	}
	switch method {
	case domain.MethodProxy:
		return h.admin.Proxy(), nil
	case domain.MethodImplementation:
		return h.admin.Implementation(), nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, method)
}

type fakeTx struct {
	hash common.Hash
	err  error
}

func (t *fakeTx) Hash() common.Hash { return t.hash }

func (t *fakeTx) WaitConfirmed(ctx context.Context) error { return t.err }

type fakeConnector struct {
	chain    *fakeChain
	err      error
	connects int
	target   config.Target
}

func (c *fakeConnector) Connect(ctx context.Context, target config.Target) (Chain, error) {
	c.connects++
	c.target = target
	if c.err != nil {
		return nil, c.err
	}
	return c.chain, nil
}

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (c *fakeConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.asked = append(c.asked, prompt)
	return c.answer, nil
}

type fakeWriter struct {
	manifests map[string]any
	envFiles  map[string]common.Address
	err       error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{manifests: make(map[string]any), envFiles: make(map[string]common.Address)}
}

func (w *fakeWriter) WriteManifest(ctx context.Context, path string, manifest any) error {
	if w.err != nil {
		return w.err
	}
	w.manifests[path] = manifest
	return nil
}

func (w *fakeWriter) WriteAdminAddress(ctx context.Context, envFile string, admin common.Address) error {
	if w.err != nil {
		return w.err
	}
	w.envFiles[envFile] = admin
	return nil
}

// recordingSink keeps every progress message in order
type recordingSink struct {
	events []ProgressEvent
	infos  []string
	errors []string
}

func (s *recordingSink) OnProgress(ctx context.Context, event ProgressEvent) {
	s.events = append(s.events, event)
}
func (s *recordingSink) Info(message string)  { s.infos = append(s.infos, message) }
func (s *recordingSink) Error(message string) { s.errors = append(s.errors, message) }

func memoryTarget() config.Target {
	return config.Target{Network: &config.Network{Name: config.MemoryNetwork, ChainID: 1337}}
}

func sepoliaTarget() config.Target {
	return config.Target{
		Network:    &config.Network{Name: "sepolia", ChainID: 11155111, RPCURL: "https://sepolia.drpc.org"},
		PrivateKey: "0x01",
	}
}
