package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFoundryToml = `
[profile.default]
src = "src"
out = "build/out"

[rpc_endpoints]
sepolia = "${TEST_SEPOLIA_RPC_URL}"
`

func TestProvider(t *testing.T) {
	t.Run("resolves network, artifacts dir and defaults", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "foundry.toml"), []byte(testFoundryToml), 0644))
		t.Setenv("TEST_SEPOLIA_RPC_URL", "https://rpc.example.org")

		v := SetupViper(dir, nil)
		v.Set("network", "sepolia")
		v.Set("private_key", " 0xabc ")

		cfg, err := Provider(v)
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.ProjectRoot)
		assert.Equal(t, filepath.Join(dir, "build/out"), cfg.ArtifactsDir)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, "https://rpc.example.org", cfg.Network.RPCURL)
		assert.Equal(t, uint64(11155111), cfg.Network.ChainID)
		assert.Equal(t, "0xabc", cfg.PrivateKey)
		assert.Equal(t, "GameVoting", cfg.ImplementationContract)
		assert.Equal(t, "GameVotingAdmin", cfg.AdminContract)
		assert.Equal(t, 10*time.Minute, cfg.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.ConfirmTimeout)
	})

	t.Run("reads the legacy admin and key variables", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("ADMIN_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000BB")
		t.Setenv("PRIVATE_KEY", "deadbeef")

		cfg, err := Provider(SetupViper(dir, nil))
		require.NoError(t, err)

		assert.Equal(t, "0x00000000000000000000000000000000000000BB", cfg.AdminAddress)
		assert.Equal(t, "deadbeef", cfg.PrivateKey)
		assert.Nil(t, cfg.Network)
		assert.Empty(t, cfg.ArtifactsDir)
	})

	t.Run("loads .env from project root", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TREB_ADMIN_ADDRESS=0x00000000000000000000000000000000000000cc\n"), 0644))
		t.Cleanup(func() { os.Unsetenv("TREB_ADMIN_ADDRESS") })

		cfg, err := Provider(SetupViper(dir, nil))
		require.NoError(t, err)
		assert.Equal(t, "0x00000000000000000000000000000000000000cc", cfg.AdminAddress)
	})

	t.Run("chain id override", func(t *testing.T) {
		v := viper.New()
		v.Set("project_root", t.TempDir())
		v.Set("network", "http://127.0.0.1:9545")
		v.Set("chain_id", 42)

		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), cfg.Network.ChainID)
		assert.Equal(t, "custom", cfg.Network.Name)
	})

	t.Run("unknown network fails", func(t *testing.T) {
		v := viper.New()
		v.Set("project_root", t.TempDir())
		v.Set("network", "nowhere")

		_, err := Provider(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve network nowhere")
	})
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "admin_address", flagKey("admin"))
	assert.Equal(t, "implementation_contract", flagKey("implementation"))
	assert.Equal(t, "admin_contract", flagKey("admin-contract"))
	assert.Equal(t, "non_interactive", flagKey("non-interactive"))
	assert.Equal(t, "write_env", flagKey("write-env"))
}
