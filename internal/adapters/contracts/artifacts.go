package contracts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-proxy/internal/config"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
)

// Artifact is a compiled contract ready to deploy
type Artifact struct {
	Name     string
	Path     string
	ABI      abi.ABI
	Bytecode []byte
}

// HasMethod reports whether the contract ABI exposes method
func (a *Artifact) HasMethod(method string) bool {
	_, ok := a.ABI.Methods[method]
	return ok
}

// rawArtifact covers both the Foundry and the Hardhat artifact layouts.
// Foundry nests creation code under bytecode.object, Hardhat stores it as a string.
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

type foundryBytecode struct {
	Object string `json:"object"`
}

// Loader finds and parses contract artifacts by contract name
type Loader struct {
	dirs []string

	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewLoader creates a loader searching the configured artifacts directory,
// then the Hardhat artifacts directory under the project root
func NewLoader(cfg *config.RuntimeConfig) *Loader {
	dirs := []string{cfg.ArtifactsDir}
	if cfg.ProjectRoot != "" {
		dirs = append(dirs,
			filepath.Join(cfg.ProjectRoot, "out"),
			filepath.Join(cfg.ProjectRoot, "artifacts", "contracts"),
		)
	}
	return NewLoaderWithDirs(dirs...)
}

// NewLoaderWithDirs creates a loader over an explicit list of directories
func NewLoaderWithDirs(dirs ...string) *Loader {
	seen := make(map[string]bool)
	var clean []string
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		clean = append(clean, d)
	}
	return &Loader{dirs: clean, cache: make(map[string]*Artifact)}
}

// Load returns the artifact for contract name, parsing it once per loader
func (l *Loader) Load(name string) (*Artifact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if art, ok := l.cache[name]; ok {
		return art, nil
	}

	path, err := l.find(name)
	if err != nil {
		return nil, err
	}
	art, err := parseArtifact(name, path)
	if err != nil {
		return nil, err
	}
	l.cache[name] = art
	return art, nil
}

func (l *Loader) find(name string) (string, error) {
	var tried []string
	for _, dir := range l.dirs {
		// <dir>/<Name>.sol/<Name>.json is the layout of both toolchains
		candidate := filepath.Join(dir, name+".sol", name+".json")
		tried = append(tried, candidate)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		// contracts declared in a file with a different name
		matches, _ := filepath.Glob(filepath.Join(dir, "*.sol", name+".json"))
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w: %s (looked in %s)", domain.ErrArtifactNotFound, name, strings.Join(tried, ", "))
}

func parseArtifact(name, path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", path)
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", name, err)
	}

	code, err := creationCode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	return &Artifact{Name: name, Path: path, ABI: parsedABI, Bytecode: code}, nil
}

func creationCode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no bytecode")
	}

	var hexCode string
	if err := json.Unmarshal(raw, &hexCode); err != nil {
		var nested foundryBytecode
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("unrecognised bytecode format: %w", err)
		}
		hexCode = nested.Object
	}

	if !strings.HasPrefix(hexCode, "0x") {
		hexCode = "0x" + hexCode
	}
	if hexCode == "0x" {
		return nil, fmt.Errorf("empty bytecode (abstract contract or interface?)")
	}
	if strings.Contains(hexCode, "__") {
		return nil, fmt.Errorf("bytecode has unlinked libraries")
	}

	code, err := hexutil.Decode(hexCode)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}
	return code, nil
}
