package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"petalbrew/internal/config"
	"petalbrew/internal/pipeline"
	"petalbrew/internal/store"
	"petalbrew/internal/ui"
	"petalbrew/internal/warehouse"
	"petalbrew/pkg/models"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the warehouse pipeline",
	Long: "Runs every pipeline stage in order: schema ensure, staging loads,\n" +
		"the order join, the data quality sweep, the marts, and cleanup.\n" +
		"Prints a single SUCCESS or ERROR line and exits non-zero on failure.",
	Run: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false,
		"run against an in-memory store with demo data instead of the warehouse")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	var st store.Store
	if runDryRun {
		st = demoStore()
		if !flagQuiet {
			ui.ShowInfo("dry run: using in-memory demo data")
		}
	} else {
		if err := config.ResolvePassword(cfg); err != nil {
			ui.ShowError(err)
			os.Exit(1)
		}

		service := warehouse.NewService(cfg.Warehouse)
		spinner := ui.NewSpinner("Connecting to the warehouse")
		if !flagQuiet {
			spinner.Start()
		}
		if err := service.Connect(ctx); err != nil {
			if !flagQuiet {
				spinner.Stop(false, "connection failed")
			}
			ui.ShowError(err)
			os.Exit(1)
		}
		if !flagQuiet {
			spinner.Stop(true, "connected")
		}
		defer service.Close()

		st, err = service.Store()
		if err != nil {
			ui.ShowError(err)
			os.Exit(1)
		}
	}

	runner := pipeline.NewRunner(st, log, cfg.Pipeline.ProcedureName)
	report, runErr := runner.Run(ctx)
	if report == nil {
		ui.ShowError(runErr)
		os.Exit(1)
	}

	if !flagQuiet {
		for _, stage := range report.Stages {
			fmt.Printf("  %-22s %6d rows\n", stage.Name, stage.RowCount)
		}
		for _, finding := range report.QualityFindings {
			ui.ShowWarning(fmt.Sprintf("%s in %s (%d rows)",
				finding.IssueType, finding.TableName, finding.IssueCount))
		}
	}

	if report.Succeeded {
		ui.ShowSuccess(report.Result)
		return
	}
	fmt.Println(ui.ColorError(report.Result))
	os.Exit(1)
}

// demoStore builds the seeded in-memory store used by --dry-run.
func demoStore() *store.MemStore {
	m := store.NewMemStore()
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(-72 * time.Hour)

	m.SeedFlowers(
		models.RawFlower{FlowerID: "F1", FlowerName: "Rose", Color: "red", Season: "spring",
			PricePerStem: decimal.NewFromFloat(2.50), Supplier: "Bloom & Co"},
		models.RawFlower{FlowerID: "F2", FlowerName: "Tulip", Color: "yellow", Season: "spring",
			PricePerStem: decimal.NewFromFloat(1.75), Supplier: "Bloom & Co"},
	)
	m.SeedArrangements(
		models.RawArrangement{ArrangementID: "A1", ArrangementName: "Spring Bouquet",
			Category: "bouquet", Price: decimal.NewFromInt(35), FlowerCount: 12},
	)
	m.SeedOrders(
		models.RawOrder{OrderID: "O1", CustomerName: "Iris Nakamura", CustomerEmail: "iris@example.com",
			ArrangementID: "A1", DeliveryID: "D1", OrderDate: day,
			TotalAmount: decimal.NewFromInt(45), DiscountAmount: decimal.NewFromInt(5),
			DeliveryFee: decimal.NewFromFloat(7.50), OrderStatus: "delivered"},
		models.RawOrder{OrderID: "O2", CustomerName: "Fern Okafor", CustomerEmail: "fern@example.com",
			ArrangementID: "A1", OrderDate: day.Add(24 * time.Hour),
			TotalAmount: decimal.NewFromInt(35), OrderStatus: "confirmed"},
	)
	m.SeedDeliveries(
		models.RawDelivery{DeliveryID: "D1", DeliveryDate: day.Add(24 * time.Hour),
			DeliveryStatus: "delivered", Recipient: "Iris Nakamura", Address: "12 Garden Way",
			DeliveryFee: decimal.NewFromFloat(7.50)},
	)
	m.SeedSupplies(
		models.RawSupply{SupplyID: "S1", SupplyName: "Glass Vase", Quantity: 24,
			UnitCost: decimal.NewFromFloat(4.50)},
	)
	m.SeedCoffeeOrders(
		models.RawCoffeeOrder{OrderID: "C1", CustomerEmail: "iris@example.com",
			OrderDate: day.Add(2 * time.Hour), Amount: decimal.NewFromFloat(4.75)},
	)
	return m
}
