package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"petalbrew/internal/git"
	"petalbrew/internal/modelgen"
	"petalbrew/internal/ui"
)

var modelsDir string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and sync the SQL model project",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the SQL models in the project",
	Run:   runModelsList,
}

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update the configured model repository",
	Run:   runModelsSync,
}

func init() {
	modelsCmd.PersistentFlags().StringVar(&modelsDir, "models-dir", "models", "models directory root")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, args []string) {
	found, err := modelgen.NewGenerator(modelsDir).List()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	if len(found) == 0 {
		ui.ShowInfo("no models found under " + modelsDir)
		return
	}

	rows := make([][]string, 0, len(found))
	for _, m := range found {
		rows = append(rows, []string{
			m.Name,
			string(m.Layer),
			m.Materialization,
			fmt.Sprintf("%d B", m.SizeBytes),
		})
	}
	ui.RenderTable([]string{"Model", "Layer", "Materialization", "Size"}, rows)
}

func runModelsSync(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	spinner := ui.NewSpinner("Syncing model repository")
	if !flagQuiet {
		spinner.Start()
	}

	localPath, err := git.NewService().Sync(cmd.Context(), cfg.ModelRepo)
	if err != nil {
		if !flagQuiet {
			spinner.Stop(false, "sync failed")
		}
		ui.ShowError(err)
		os.Exit(1)
	}

	if !flagQuiet {
		spinner.Stop(true, "model repository up to date")
	}
	fmt.Printf("  %s\n", localPath)
}
