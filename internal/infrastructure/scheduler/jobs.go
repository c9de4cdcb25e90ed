package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Job names
const (
	JobExpireCheckouts = "expire_checkouts"
	JobLowStockMetrics = "low_stock_metrics"
)

// CheckoutExpirer flips overdue PENDING checkouts to EXPIRED
type CheckoutExpirer interface {
	ExpirePending(ctx context.Context) (int64, error)
}

// LowStockCounter reports low-stock product counts per organization
type LowStockCounter interface {
	CountLowStockByOrganization(ctx context.Context) (map[uuid.UUID]int64, error)
}

// LowStockRecorder publishes the counts, e.g. as a gauge
type LowStockRecorder interface {
	RecordLowStock(organizationID uuid.UUID, count int64)
}

// ExpireCheckoutsJob expires storefront checkouts that were never paid
func ExpireCheckoutsJob(spec string, expirer CheckoutExpirer) Job {
	return Job{
		Name: JobExpireCheckouts,
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := expirer.ExpirePending(ctx)
			return err
		},
	}
}

// LowStockMetricsJob refreshes the low-stock gauge. Organizations that had
// low stock on the previous run and none now are reset to zero.
func LowStockMetricsJob(spec string, counter LowStockCounter, recorder LowStockRecorder) Job {
	seen := make(map[uuid.UUID]struct{})
	return Job{
		Name: JobLowStockMetrics,
		Spec: spec,
		Run: func(ctx context.Context) error {
			counts, err := counter.CountLowStockByOrganization(ctx)
			if err != nil {
				return fmt.Errorf("count low stock: %w", err)
			}
			for orgID := range seen {
				if _, ok := counts[orgID]; !ok {
					recorder.RecordLowStock(orgID, 0)
					delete(seen, orgID)
				}
			}
			for orgID, n := range counts {
				recorder.RecordLowStock(orgID, n)
				seen[orgID] = struct{}{}
			}
			return nil
		},
	}
}
