package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalbrew/internal/pipeline"
	"petalbrew/pkg/models"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"run", "setup", "audit", "generate", "models", "version"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestModelsSubcommands(t *testing.T) {
	sub := map[string]bool{}
	for _, c := range modelsCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["list"])
	assert.True(t, sub["sync"])
}

func TestDemoStoreSupportsFullRun(t *testing.T) {
	report, err := pipeline.NewRunner(demoStore(), nil, "").Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Succeeded)
	assert.NotEmpty(t, report.Stages)
}

func TestEnvironmentOverridesSavedConfig(t *testing.T) {
	t.Setenv("PETALBREW_WAREHOUSE_DRIVER", "postgres")
	t.Setenv("PETALBREW_WAREHOUSE_DSN", "host=localhost dbname=petalbrew")
	t.Setenv("PETALBREW_PIPELINE_AUDIT_LIMIT", "7")
	initConfig()

	cfg := &models.Config{}
	cfg.Warehouse.Driver = "snowflake"
	cfg.Warehouse.Account = "petalbrew.us-east-1"
	cfg.Pipeline.AuditLimit = 20
	applyViperOverrides(cfg)

	assert.Equal(t, "postgres", cfg.Warehouse.Driver)
	assert.Equal(t, "host=localhost dbname=petalbrew", cfg.Warehouse.DSN)
	assert.Equal(t, 7, cfg.Pipeline.AuditLimit)
	assert.Equal(t, "petalbrew.us-east-1", cfg.Warehouse.Account, "unset keys leave the saved value alone")
}

func TestRunFlags(t *testing.T) {
	assert.NotNil(t, runCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("quiet"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}
