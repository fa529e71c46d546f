package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"petalbrew/internal/modelgen"
	"petalbrew/internal/ui"
)

var (
	generateForce bool
	generateDir   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <request>",
	Short: "Generate a SQL model from a plain-language request",
	Long: "Classifies the request (daily metric, customer mart, staging view, or\n" +
		"exploration) and writes the rendered model under the models directory,\n" +
		"registering it in the layer's schema.yml.",
	Example: `  petalbrew generate "revenue by day"
  petalbrew generate "staging for supplies"
  petalbrew generate "customer lifetime value" --force`,
	Args: cobra.MinimumNArgs(1),
	Run:  runGenerate,
}

func init() {
	generateCmd.Flags().BoolVarP(&generateForce, "force", "f", false, "overwrite an existing model")
	generateCmd.Flags().StringVar(&generateDir, "models-dir", "models", "models directory root")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	request := strings.Join(args, " ")

	model, err := modelgen.NewGenerator(generateDir).Generate(request, generateForce)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	ui.ShowSuccess(fmt.Sprintf("generated %s (%s, materialized as %s)",
		model.Name, model.Layer, model.Materialization))
	fmt.Printf("  %s\n", model.Path)
}
