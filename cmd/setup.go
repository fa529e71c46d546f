package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"petalbrew/internal/config"
	"petalbrew/internal/ui"
	"petalbrew/internal/warehouse"
	"petalbrew/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Setting up Petalbrew...")
	fmt.Println()

	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		survey.AskOne(prompt, &overwrite) //nolint:errcheck
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := &models.Config{}

	driver, err := ui.Select("Warehouse driver:",
		[]string{"snowflake", "postgres", "sqlite3"}, "snowflake")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Warehouse.Driver = driver

	fmt.Println()
	fmt.Println("Warehouse Configuration")
	fmt.Println("-----------------------")

	var password string
	switch driver {
	case "snowflake":
		questions := []*survey.Question{
			{
				Name: "account",
				Prompt: &survey.Input{
					Message: "Snowflake account (e.g., xy12345.us-east-1):",
				},
				Validate: survey.Required,
			},
			{
				Name: "username",
				Prompt: &survey.Input{
					Message: "Username:",
				},
				Validate: survey.Required,
			},
			{
				Name: "database",
				Prompt: &survey.Input{
					Message: "Database:",
					Default: "PETALBREW",
				},
				Validate: survey.Required,
			},
			{
				Name: "schema",
				Prompt: &survey.Input{
					Message: "Schema:",
					Default: "PUBLIC",
				},
				Validate: survey.Required,
			},
			{
				Name: "warehouse",
				Prompt: &survey.Input{
					Message: "Warehouse:",
					Default: "COMPUTE_WH",
				},
				Validate: survey.Required,
			},
			{
				Name: "role",
				Prompt: &survey.Input{
					Message: "Role:",
					Default: "TRANSFORMER",
				},
			},
		}
		if err := survey.Ask(questions, &cfg.Warehouse); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		password, err = ui.Password("Password:", "Stored in the OS keyring, not the config file")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	case "postgres":
		cfg.Warehouse.DSN, err = ui.Input("Postgres DSN:",
			"host=localhost user=petalbrew dbname=petalbrew sslmode=disable", "")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	case "sqlite3":
		cfg.Warehouse.DSN, err = ui.Input("Database file path:", "petalbrew.db", "")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	if password != "" {
		if err := config.StorePassword(cfg.Warehouse.Username, password); err != nil {
			ui.ShowWarning(fmt.Sprintf("keyring unavailable (%v); storing encrypted password in config", err))
			encrypted, encErr := config.EncryptPassword(password)
			if encErr != nil {
				fmt.Printf("Error: %v\n", encErr)
				os.Exit(1)
			}
			cfg.Warehouse.Password = encrypted
		}
	}

	fmt.Println()
	fmt.Println("Model Repository (optional)")
	fmt.Println("---------------------------")

	addRepo, err := ui.Confirm("Configure a model repository to sync?", false)
	if err == nil && addRepo {
		cfg.ModelRepo.GitURL, _ = ui.Input("Git URL:", "", "")
		cfg.ModelRepo.Branch, _ = ui.Input("Branch:", "main", "")
	}

	if err := config.Save(cfg); err != nil {
		fmt.Printf("Error saving configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate but do not fail setup on a bad connection; the user may be
	// offline while configuring.
	if err := warehouse.ValidateConfig(warehouseConfigForValidation(cfg, password)); err != nil {
		ui.ShowWarning(fmt.Sprintf("configuration saved, but validation reported: %v", err))
	} else {
		ui.ShowSuccess("configuration saved to " + config.GetConfigFile())
	}
}

// warehouseConfigForValidation fills the in-memory password back in so
// validation sees what a run will see.
func warehouseConfigForValidation(cfg *models.Config, password string) models.WarehouseConfig {
	wc := cfg.Warehouse
	if password != "" {
		wc.Password = password
	}
	return wc
}
