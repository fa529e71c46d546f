package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"petalbrew/internal/config"
	"petalbrew/internal/observability"
	"petalbrew/pkg/models"
)

var (
	flagVerbose bool
	flagQuiet   bool

	rootCmd = &cobra.Command{
		Use:   "petalbrew",
		Short: "Run the flower shop analytics warehouse pipeline",
		Long: "Petalbrew - a CLI for the combined flower shop and coffee shop analytics\n" +
			"warehouse: staging loads, data quality checks, order joins, and marts,\n" +
			"plus the SQL model toolkit behind them.",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-error output")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home + "/.petalbrew")
	}

	viper.SetEnvPrefix("PETALBREW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file not found is okay; setup creates it.
	_ = viper.ReadInConfig()
}

// loadConfig reads the saved config file and layers viper-resolved settings
// on top, so a config.yaml in the working directory or PETALBREW_* env vars
// override what setup stored under ~/.petalbrew.
func loadConfig() (*models.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyViperOverrides(cfg)
	return cfg, nil
}

func applyViperOverrides(cfg *models.Config) {
	setString := func(key string, dst *string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	setString("warehouse.driver", &cfg.Warehouse.Driver)
	setString("warehouse.account", &cfg.Warehouse.Account)
	setString("warehouse.username", &cfg.Warehouse.Username)
	setString("warehouse.database", &cfg.Warehouse.Database)
	setString("warehouse.schema", &cfg.Warehouse.Schema)
	setString("warehouse.warehouse", &cfg.Warehouse.Warehouse)
	setString("warehouse.role", &cfg.Warehouse.Role)
	setString("warehouse.dsn", &cfg.Warehouse.DSN)
	setString("warehouse.timeout", &cfg.Warehouse.Timeout)
	setString("model_repo.git_url", &cfg.ModelRepo.GitURL)
	setString("model_repo.branch", &cfg.ModelRepo.Branch)
	setString("pipeline.procedure_name", &cfg.Pipeline.ProcedureName)
	if v := viper.GetInt("pipeline.audit_limit"); v > 0 {
		cfg.Pipeline.AuditLimit = v
	}
}

// newLogger builds the logger the active command should use, honoring the
// global verbosity flags.
func newLogger() *observability.Logger {
	level := observability.InfoLevel
	if flagVerbose {
		level = observability.DebugLevel
	}
	if flagQuiet {
		return observability.Nop()
	}
	return observability.NewLogger(observability.LoggerConfig{
		Level:   level,
		Service: "petalbrew",
		Version: Version,
	})
}
