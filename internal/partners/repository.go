package partners

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/tenant"
)

// ErrNotFound indicates the referenced partner does not exist for the
// company.
var ErrNotFound = errors.New("partners: partner not found")

// Repository reads partner records.
type Repository interface {
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Partner, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Partner, error) {
	var p Partner
	err := r.db.QueryRow(ctx,
		`SELECT id, company_id, partner_type, COALESCE(company_name,''), COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(state_code,'')
FROM partners WHERE id = $1 AND company_id = $2`,
		id, scope.CompanyID).
		Scan(&p.ID, &p.CompanyID, &p.PartnerType, &p.CompanyName, &p.FirstName, &p.LastName, &p.StateCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
