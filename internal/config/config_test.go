package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalbrew/pkg/models"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	t.Setenv("PETALBREW_CONFIG", file)
	return file
}

func TestLoadMissingConfigIsEmpty(t *testing.T) {
	useTempConfig(t)

	config, err := Load()
	require.NoError(t, err)
	assert.Empty(t, config.Warehouse.Account)
	assert.False(t, Exists())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	file := useTempConfig(t)

	in := &models.Config{
		Warehouse: models.WarehouseConfig{
			Driver:    "snowflake",
			Account:   "petalbrew.us-east-1",
			Username:  "etl_user",
			Database:  "PETALBREW",
			Schema:    "PUBLIC",
			Warehouse: "ETL_WH",
			Timeout:   "45s",
		},
		ModelRepo: models.ModelRepo{
			GitURL: "https://github.com/petalbrew/warehouse-models.git",
			Branch: "main",
		},
		Pipeline: models.PipelineConfig{ProcedureName: "nightly_refresh", AuditLimit: 50},
	}
	require.NoError(t, Save(in))
	assert.True(t, Exists())

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err := Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	file := useTempConfig(t)
	require.NoError(t, os.WriteFile(file, []byte("warehouse: [not a map"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("PETALBREW_ENCRYPTION_KEY", "test-key")

	encrypted, err := EncryptPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(encrypted))
	assert.NotContains(t, encrypted, "hunter2")

	// Encrypting again is a no-op.
	again, err := EncryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, encrypted, again)

	plain, err := DecryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
}

func TestDecryptPassesThroughPlaintext(t *testing.T) {
	plain, err := DecryptPassword("not-encrypted")
	require.NoError(t, err)
	assert.Equal(t, "not-encrypted", plain)
}

func TestDecryptRejectsTampering(t *testing.T) {
	t.Setenv("PETALBREW_ENCRYPTION_KEY", "test-key")

	encrypted, err := EncryptPassword("hunter2")
	require.NoError(t, err)

	t.Setenv("PETALBREW_ENCRYPTION_KEY", "different-key")
	_, err = DecryptPassword(encrypted)
	assert.Error(t, err)
}

func TestResolvePasswordDecryptsConfigValue(t *testing.T) {
	t.Setenv("PETALBREW_ENCRYPTION_KEY", "test-key")

	encrypted, err := EncryptPassword("hunter2")
	require.NoError(t, err)

	config := &models.Config{Warehouse: models.WarehouseConfig{Password: encrypted}}
	require.NoError(t, ResolvePassword(config))
	assert.Equal(t, "hunter2", config.Warehouse.Password)
}

func TestResolvePasswordFallsBackToEnvironment(t *testing.T) {
	t.Setenv(EnvPassword, "from-env")

	config := &models.Config{}
	require.NoError(t, ResolvePassword(config))
	assert.Equal(t, "from-env", config.Warehouse.Password)
}
