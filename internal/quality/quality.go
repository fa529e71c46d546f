// Package quality runs advisory data quality checks over the warehouse.
// Findings are recorded in the data_quality_issues table; they never fail
// a pipeline run.
package quality

import (
	"context"
	"regexp"
	"time"

	"petalbrew/internal/store"
	"petalbrew/pkg/models"
)

// Issue type names as written to the quality table.
const (
	IssueNegativePrice     = "NEGATIVE_PRICE"
	IssueInvalidEmail      = "INVALID_EMAIL"
	IssueOrphanedOrders    = "ORPHANED_ORDERS"
	IssueNegativeNetAmount = "NEGATIVE_NET_AMOUNT"
	IssueFutureOrderDate   = "FUTURE_ORDER_DATE"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether addr looks like a deliverable address. The
// empty string is not valid here; callers decide whether empty counts.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// Checker runs the quality sweep.
type Checker struct {
	store store.Store
}

// NewChecker creates a Checker over the given store.
func NewChecker(s store.Store) *Checker {
	return &Checker{store: s}
}

// Run executes every check and records each non-zero finding. The returned
// slice holds only the findings with a positive count, in check order.
func (c *Checker) Run(ctx context.Context, now time.Time) ([]models.QualityIssue, error) {
	var found []models.QualityIssue

	record := func(table, issueType string, count int) error {
		if count == 0 {
			return nil
		}
		issue := models.QualityIssue{
			TableName:  table,
			IssueType:  issueType,
			IssueCount: count,
			DetectedAt: now,
		}
		if err := c.store.AppendQualityIssue(ctx, issue); err != nil {
			return err
		}
		found = append(found, issue)
		return nil
	}

	n, err := c.negativePrices(ctx)
	if err != nil {
		return nil, err
	}
	if err := record(store.TableRawFlowers, IssueNegativePrice, n); err != nil {
		return nil, err
	}

	n, err = c.invalidEmails(ctx)
	if err != nil {
		return nil, err
	}
	if err := record(store.TableStagingOrders, IssueInvalidEmail, n); err != nil {
		return nil, err
	}

	n, err = c.orphanedOrders(ctx)
	if err != nil {
		return nil, err
	}
	if err := record(store.TableJoinedOrders, IssueOrphanedOrders, n); err != nil {
		return nil, err
	}

	n, err = c.negativeNetAmounts(ctx)
	if err != nil {
		return nil, err
	}
	if err := record(store.TableJoinedOrders, IssueNegativeNetAmount, n); err != nil {
		return nil, err
	}

	n, err = c.futureOrderDates(ctx, now)
	if err != nil {
		return nil, err
	}
	if err := record(store.TableStagingOrders, IssueFutureOrderDate, n); err != nil {
		return nil, err
	}

	return found, nil
}

// negativePrices counts raw flower rows priced at or below zero. This looks
// at the raw table on purpose: staging already filtered these out.
func (c *Checker) negativePrices(ctx context.Context) (int, error) {
	rows, err := c.store.RawFlowers(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.PricePerStem.Sign() <= 0 {
			n++
		}
	}
	return n, nil
}

// invalidEmails counts staged orders whose email is present but malformed.
// Empty emails are allowed and not counted.
func (c *Checker) invalidEmails(ctx context.Context) (int, error) {
	rows, err := c.store.StagingOrders(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.CustomerEmail != "" && !ValidEmail(r.CustomerEmail) {
			n++
		}
	}
	return n, nil
}

// orphanedOrders counts joined orders whose left join found no arrangement.
func (c *Checker) orphanedOrders(ctx context.Context) (int, error) {
	rows, err := c.store.JoinedOrders(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.Arrangement == nil {
			n++
		}
	}
	return n, nil
}

// negativeNetAmounts counts joined orders where discounts and fees exceed
// the order total.
func (c *Checker) negativeNetAmounts(ctx context.Context) (int, error) {
	rows, err := c.store.JoinedOrders(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.NetProductAmount.IsNegative() {
			n++
		}
	}
	return n, nil
}

// futureOrderDates counts staged orders dated after now.
func (c *Checker) futureOrderDates(ctx context.Context, now time.Time) (int, error) {
	rows, err := c.store.StagingOrders(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.OrderDate.After(now) {
			n++
		}
	}
	return n, nil
}
