// Package pipeline orchestrates the warehouse run: schema ensure, staging
// loads, the order join, the quality sweep, the marts, and scratch cleanup,
// in a fixed order with fail-fast semantics. Every run is bracketed in the
// audit log by a STARTED entry and exactly one COMPLETED or FAILED entry.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"petalbrew/internal/observability"
	"petalbrew/internal/quality"
	"petalbrew/internal/staging"
	"petalbrew/internal/store"
	"petalbrew/internal/transform"
	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

// DefaultProcedureName identifies pipeline runs in the audit log.
const DefaultProcedureName = "process_flower_shop_data"

// StageResult records one completed stage.
type StageResult struct {
	Name     string
	RowCount int
}

// RunReport is the outcome of one pipeline run. Result always holds exactly
// one terminal string, either "SUCCESS: ..." or "ERROR: ...".
type RunReport struct {
	Result          string
	Succeeded       bool
	Stages          []StageResult
	QualityFindings []models.QualityIssue
	Elapsed         time.Duration
}

// Runner executes the pipeline against a Store.
type Runner struct {
	store     store.Store
	log       *observability.Logger
	procedure string
	now       func() time.Time
}

// NewRunner creates a Runner. An empty procedure name falls back to
// DefaultProcedureName.
func NewRunner(s store.Store, log *observability.Logger, procedure string) *Runner {
	if log == nil {
		log = observability.Nop()
	}
	if procedure == "" {
		procedure = DefaultProcedureName
	}
	return &Runner{store: s, log: log, procedure: procedure, now: time.Now}
}

// WithClock fixes the runner's clock. Tests use this to make upsert
// timestamps and audit entries deterministic.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes every stage in order and returns the report. The returned
// error mirrors the fatal failure recorded in the report, so callers can
// exit nonzero without parsing the result string.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	start := r.now()
	report := &RunReport{}
	log := r.log.WithField("procedure", r.procedure)

	if err := r.store.AppendAuditEntry(ctx, models.AuditEntry{
		ProcedureName: r.procedure,
		StartTime:     start,
		Status:        models.RunStarted,
	}); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to open audit run")
	}
	log.Info("pipeline run started")

	fail := func(stage string, cause error) (*RunReport, error) {
		err := errors.StageError(stage, cause)
		end := r.now()
		report.Result = fmt.Sprintf("ERROR: %s failed: %v", stage, cause)
		report.Elapsed = end.Sub(start)
		log.Error("pipeline run failed", map[string]interface{}{
			"stage": stage,
			"error": cause.Error(),
		})
		if auditErr := r.store.AppendAuditEntry(ctx, models.AuditEntry{
			ProcedureName: r.procedure,
			StartTime:     start,
			EndTime:       end,
			Status:        models.RunFailed,
			Message:       report.Result,
		}); auditErr != nil {
			return nil, errors.Wrap(auditErr, errors.ErrCodeAuditWrite, "failed to close audit run")
		}
		return report, err
	}

	info := func(stage string, rows int) error {
		report.Stages = append(report.Stages, StageResult{Name: stage, RowCount: rows})
		log.Info("stage complete", map[string]interface{}{"stage": stage, "rows": rows})
		return r.store.AppendAuditEntry(ctx, models.AuditEntry{
			ProcedureName: r.procedure,
			StartTime:     r.now(),
			Status:        models.RunInfo,
			Message:       fmt.Sprintf("%s: %d rows", stage, rows),
		})
	}

	if err := r.store.EnsureSchema(ctx); err != nil {
		return fail("ensure_schema", err)
	}

	loader := staging.NewLoader(r.store)
	loadStages := []struct {
		name string
		run  func(context.Context, time.Time) (staging.LoadResult, error)
	}{
		{"load_flowers", loader.LoadFlowers},
		{"load_arrangements", loader.LoadArrangements},
		{"load_orders", loader.LoadOrders},
		{"load_deliveries", loader.LoadDeliveries},
		{"load_supplies", loader.LoadSupplies},
	}
	for _, stage := range loadStages {
		result, err := stage.run(ctx, r.now())
		if err != nil {
			return fail(stage.name, err)
		}
		if result.Skipped > 0 {
			log.Warn("rows skipped by validity checks", map[string]interface{}{
				"stage":   stage.name,
				"skipped": result.Skipped,
			})
		}
		if err := info(stage.name, result.Loaded); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to record stage")
		}
	}

	builder := transform.NewBuilder(r.store)
	joined, err := builder.BuildJoinedOrders(ctx, r.now())
	if err != nil {
		return fail("build_order_details", err)
	}
	if err := info("build_order_details", joined); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to record stage")
	}

	findings, err := quality.NewChecker(r.store).Run(ctx, r.now())
	if err != nil {
		return fail("quality_sweep", err)
	}
	report.QualityFindings = findings
	for _, f := range findings {
		log.Warn("data quality finding", map[string]interface{}{
			"table": f.TableName,
			"issue": f.IssueType,
			"count": f.IssueCount,
		})
	}
	if err := info("quality_sweep", len(findings)); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to record stage")
	}

	martStages := []struct {
		name string
		run  func(context.Context, time.Time) (int, error)
	}{
		{"build_customer_value", builder.BuildCustomerValues},
		{"build_daily_revenue", builder.BuildDailyRevenue},
		{"build_cross_business", builder.BuildCrossBusinessCustomers},
	}
	for _, stage := range martStages {
		rows, err := stage.run(ctx, r.now())
		if err != nil {
			return fail(stage.name, err)
		}
		if err := info(stage.name, rows); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to record stage")
		}
	}

	if err := r.store.Cleanup(ctx); err != nil {
		return fail("cleanup", err)
	}

	end := r.now()
	report.Elapsed = end.Sub(start)
	report.Succeeded = true
	report.Result = fmt.Sprintf("SUCCESS: pipeline completed in %s", report.Elapsed)

	if err := r.store.AppendAuditEntry(ctx, models.AuditEntry{
		ProcedureName: r.procedure,
		StartTime:     start,
		EndTime:       end,
		Status:        models.RunCompleted,
		Message:       report.Result,
	}); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAuditWrite, "failed to close audit run")
	}
	log.Info("pipeline run completed", map[string]interface{}{"elapsed": report.Elapsed.String()})

	return report, nil
}
