package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"petalbrew/internal/config"
	"petalbrew/internal/store"
	"petalbrew/internal/ui"
	"petalbrew/internal/warehouse"
)

var (
	auditLimit   int
	auditQuality bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent pipeline runs from the audit log",
	Run:   runAudit,
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 0, "number of entries to show (0 uses the configured default)")
	auditCmd.Flags().BoolVar(&auditQuality, "quality", false, "show data quality findings instead of run entries")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	if err := config.ResolvePassword(cfg); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	limit := auditLimit
	if limit == 0 {
		limit = cfg.Pipeline.AuditLimit
	}
	if limit == 0 {
		limit = 20
	}

	service := warehouse.NewService(cfg.Warehouse)
	if err := service.Connect(ctx); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	defer service.Close()

	st, err := service.Store()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	if auditQuality {
		showQualityIssues(cmd, st, limit)
		return
	}
	showAuditEntries(cmd, st, limit)
}

func showAuditEntries(cmd *cobra.Command, st store.Store, limit int) {
	entries, err := st.AuditEntries(cmd.Context(), limit)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		ui.ShowInfo("no pipeline runs recorded yet")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		elapsed := ""
		if !e.EndTime.IsZero() {
			elapsed = ui.FormatDuration(e.EndTime.Sub(e.StartTime))
		}
		status := ui.StatusColor(string(e.Status))("%s", string(e.Status))
		rows = append(rows, []string{
			e.ProcedureName,
			e.StartTime.Format(time.RFC3339),
			status,
			elapsed,
			e.Message,
		})
	}
	ui.RenderTable([]string{"Procedure", "Started", "Status", "Elapsed", "Message"}, rows)
}

func showQualityIssues(cmd *cobra.Command, st store.Store, limit int) {
	issues, err := st.QualityIssues(cmd.Context(), limit)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	if len(issues) == 0 {
		ui.ShowSuccess("no data quality findings recorded")
		return
	}

	rows := make([][]string, 0, len(issues))
	for _, q := range issues {
		rows = append(rows, []string{
			q.TableName,
			q.IssueType,
			strconv.Itoa(q.IssueCount),
			q.DetectedAt.Format(time.RFC3339),
		})
	}
	ui.RenderTable([]string{"Table", "Issue", "Count", "Detected"}, rows)
	fmt.Println()
	ui.ShowWarning(fmt.Sprintf("%d finding(s); quality issues are advisory and do not block runs", len(issues)))
}
