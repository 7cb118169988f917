package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-proxy/internal/domain/config"
)

// RuntimeConfig is re-exported so adapters can depend on this package alone
type RuntimeConfig = config.RuntimeConfig

// flagKeys maps CLI flag names to viper keys where they differ
var flagKeys = map[string]string{
	"admin":          "admin_address",
	"implementation": "implementation_contract",
	"manifest":       "manifest_path",
	"yes":            "assume_yes",
	"artifacts":      "artifacts_dir",
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		projectRoot = FindProjectRoot()
	}

	foundryConfig, err := loadFoundryConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:            projectRoot,
		ArtifactsDir:           v.GetString("artifacts_dir"),
		PrivateKey:             strings.TrimSpace(v.GetString("private_key")),
		AdminAddress:           strings.TrimSpace(v.GetString("admin_address")),
		ImplementationContract: v.GetString("implementation_contract"),
		AdminContract:          v.GetString("admin_contract"),
		Debug:                  v.GetBool("debug"),
		NonInteractive:         v.GetBool("non_interactive"),
		JSON:                   v.GetBool("json"),
		AssumeYes:              v.GetBool("assume_yes"),
		Timeout:                v.GetDuration("timeout"),
		ConfirmTimeout:         v.GetDuration("confirm_timeout"),
		ManifestPath:           v.GetString("manifest_path"),
		EnvFile:                v.GetString("write_env"),
	}

	if cfg.ArtifactsDir == "" {
		if out := foundryConfig.OutDir(); out != "" {
			cfg.ArtifactsDir = out
		}
	}
	if cfg.ArtifactsDir != "" && !filepath.IsAbs(cfg.ArtifactsDir) {
		cfg.ArtifactsDir = filepath.Join(projectRoot, cfg.ArtifactsDir)
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		network, err := NewNetworkResolver(foundryConfig).Resolve(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		if chainID := v.GetUint64("chain_id"); chainID != 0 {
			network.ChainID = chainID
		}
		cfg.Network = network
	}

	return cfg, nil
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) (*NetworkResolver, error) {
	foundryConfig, err := loadFoundryConfig(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	return NewNetworkResolver(foundryConfig), nil
}

// FindProjectRoot walks up from the current directory to the nearest Foundry
// or Hardhat project. Falls back to the current directory.
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	markers := []string{"foundry.toml", "hardhat.config.js", "hardhat.config.ts"}
	for dir := cwd; ; {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	loadDotEnv(projectRoot)

	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// The unprefixed names are the ones the GameVoting scripts used
	_ = v.BindEnv("private_key", "TREB_PRIVATE_KEY", "PRIVATE_KEY")
	_ = v.BindEnv("admin_address", "TREB_ADMIN_ADDRESS", "ADMIN_CONTRACT_ADDRESS")

	// Set defaults
	v.SetDefault("project_root", projectRoot)
	v.SetDefault("timeout", "10m")
	v.SetDefault("confirm_timeout", "5m")
	v.SetDefault("implementation_contract", "GameVoting")
	v.SetDefault("admin_contract", "GameVotingAdmin")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(flagKey(f.Name), f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

// flagKey returns the viper key a flag is bound to
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// loadDotEnv loads .env files from the project root without overriding the
// process environment
func loadDotEnv(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}
