package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/tenant"
)

// DispatchCost is the cost-of-goods rollup for one goods dispatch.
type DispatchCost struct {
	TotalCost float64
	ItemCount int64
}

// CostRepository derives dispatch cost from stock units' product cost
// prices. The accounting core consumes this read-only; stock movement
// itself is owned by the warehouse surface.
type CostRepository interface {
	DispatchCost(ctx context.Context, scope tenant.Scope, dispatchID uuid.UUID) (DispatchCost, error)
}

type costRepository struct {
	db *pgxpool.Pool
}

func NewCostRepository(db *pgxpool.Pool) CostRepository {
	return &costRepository{db: db}
}

func (r *costRepository) DispatchCost(ctx context.Context, scope tenant.Scope, dispatchID uuid.UUID) (DispatchCost, error) {
	var cost DispatchCost
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(gdi.dispatched_quantity * COALESCE(p.cost_price_per_unit, 0)), 0), COUNT(gdi.id)
FROM goods_dispatch_items gdi
JOIN stock_units su ON su.id = gdi.stock_unit_id
JOIN products p ON p.id = su.product_id
WHERE gdi.dispatch_id = $1 AND gdi.company_id = $2`,
		dispatchID, scope.CompanyID).
		Scan(&cost.TotalCost, &cost.ItemCount)
	return cost, err
}
