package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-proxy/internal/config"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
	"gopkg.in/yaml.v3"
)

// AdminAddressEnvVar is the variable upgrade runs read the admin address from
const AdminAddressEnvVar = "ADMIN_CONTRACT_ADDRESS"

// ManifestWriterAdapter persists run results under the project root
type ManifestWriterAdapter struct {
	projectRoot string
}

// NewManifestWriterAdapter creates a new manifest writer adapter
func NewManifestWriterAdapter(cfg *config.RuntimeConfig) *ManifestWriterAdapter {
	return &ManifestWriterAdapter{projectRoot: cfg.ProjectRoot}
}

// WriteManifest writes manifest as YAML for .yaml/.yml paths and JSON otherwise
func (w *ManifestWriterAdapter) WriteManifest(ctx context.Context, path string, manifest any) error {
	path = w.resolve(path)

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(manifest)
	default:
		data, err = json.MarshalIndent(manifest, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteAdminAddress sets ADMIN_CONTRACT_ADDRESS in envFile, keeping every
// other entry
func (w *ManifestWriterAdapter) WriteAdminAddress(ctx context.Context, envFile string, admin common.Address) error {
	envFile = w.resolve(envFile)

	env := map[string]string{}
	if _, err := os.Stat(envFile); err == nil {
		existing, err := godotenv.Read(envFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		env = existing
	} else if !os.IsNotExist(err) {
		return err
	}

	env[AdminAddressEnvVar] = admin.Hex()
	if err := godotenv.Write(env, envFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", envFile, err)
	}
	return nil
}

func (w *ManifestWriterAdapter) resolve(path string) string {
	if filepath.IsAbs(path) || w.projectRoot == "" {
		return path
	}
	return filepath.Join(w.projectRoot, path)
}

// Ensure the adapter implements the interface
var _ usecase.ManifestWriter = (*ManifestWriterAdapter)(nil)
