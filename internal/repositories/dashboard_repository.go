package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/pkg/money"
	"sales-crm/pkg/types"
)

// GroupDimension describes one grouped count. Key is selected from the
// filtered listing as "key"; Join resolves display names from it.
type GroupDimension struct {
	Name     string
	Key      string
	Join     string
	IDExpr   string
	NameExpr string
}

func lookupDimension(name, column, table string) GroupDimension {
	return GroupDimension{
		Name:     name,
		Key:      column,
		Join:     fmt.Sprintf("LEFT JOIN %s n ON n.id = f.key", table),
		IDExpr:   "f.key",
		NameExpr: "COALESCE(n.name, '')",
	}
}

var (
	DimensionStage        = lookupDimension("stage", "c.stage_id", "stages")
	DimensionCustomerType = lookupDimension("customer_type", "c.customer_type_id", "customer_types")
	DimensionTemperature  = lookupDimension("temperature", "c.temperature_id", "temperatures")
	DimensionLeadSource   = lookupDimension("lead_source", "c.lead_source_id", "lead_sources")
	DimensionProvince     = lookupDimension("province", "c.province_id", "provinces")
	DimensionSalesperson  = lookupDimension("salesperson", "c.assigned_salesperson", "users")
	DimensionProduct      = GroupDimension{
		Name:     "product",
		Key:      "c.id",
		Join:     "JOIN customer_products cp ON cp.customer_id = f.key JOIN products n ON n.id = cp.product_id",
		IDExpr:   "n.id",
		NameExpr: "n.name",
	}
	DimensionContactType = GroupDimension{
		Name:     "contact_type",
		Key:      "h.type",
		IDExpr:   "NULL::bigint",
		NameExpr: "f.key",
	}
	DimensionAppointmentStatus = GroupDimension{
		Name:     "appointment_status",
		Key:      "a.status",
		IDExpr:   "NULL::bigint",
		NameExpr: "f.key",
	}
)

// DashboardRepositoryInterface aggregates over listing specs, so every
// number is computed from exactly the predicates the matching list uses.
type DashboardRepositoryInterface interface {
	Count(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria) (uint64, error)
	Sum(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria, column string) (string, error)
	GroupCount(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria, dim GroupDimension) ([]entities.GroupCount, error)
}

type DashboardRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDashboardRepository(storage *pgxpool.Pool, logger *zap.Logger) DashboardRepositoryInterface {
	return &DashboardRepository{storage: storage, logger: logger}
}

func (r *DashboardRepository) Count(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria) (uint64, error) {
	b, err := spec.Filtered(scope, criteria, "COUNT(*)")
	if err != nil {
		return 0, err
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build dashboard count: %w", err)
	}
	var n uint64
	if err := r.storage.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, mapPgError(err, "dashboard")
	}
	return n, nil
}

// Sum adds a money column over the filtered rows.
func (r *DashboardRepository) Sum(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria, column string) (string, error) {
	b, err := spec.Filtered(scope, criteria, fmt.Sprintf("COALESCE(SUM(%s), 0)::text", column))
	if err != nil {
		return "", err
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return "", fmt.Errorf("build dashboard sum: %w", err)
	}
	var total string
	if err := r.storage.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return "", mapPgError(err, "dashboard")
	}
	return money.Normalize(total), nil
}

func (r *DashboardRepository) GroupCount(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria, dim GroupDimension) ([]entities.GroupCount, error) {
	sub, err := spec.Filtered(scope, criteria, dim.Key+" AS key")
	if err != nil {
		return nil, err
	}

	b := db.Psql.Select(dim.IDExpr+" AS id", dim.NameExpr+" AS name", "COUNT(*) AS cnt").
		FromSelect(sub, "f")
	if dim.Join != "" {
		b = b.JoinClause(dim.Join)
	}
	b = b.GroupBy("1", "2").OrderBy("cnt DESC", "name ASC")

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s group count: %w", dim.Name, err)
	}

	return collect(ctx, r.storage, sql, args, "dashboard", func(row pgx.CollectableRow) (entities.GroupCount, error) {
		var (
			g  = entities.GroupCount{Dimension: dim.Name}
			id null.Int64
		)
		if err := row.Scan(&id, &g.Name, &g.Count); err != nil {
			return g, err
		}
		if id.Valid {
			v := id.Int64
			g.ID = &v
		}
		return g, nil
	})
}
