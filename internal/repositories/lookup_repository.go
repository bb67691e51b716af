package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

// lookupRef is one place a lookup item can be referenced from. Count only
// sees live rows; Detach clears references held by soft-deleted customers so
// that an unused item can really be removed.
type lookupRef struct {
	Count  string
	Detach string
}

var lookupRefs = map[entities.LookupTable][]lookupRef{
	entities.LookupCustomerTypes:   {customerColumnRef("customer_type_id")},
	entities.LookupBusinessTypes:   {customerColumnRef("business_type_id")},
	entities.LookupCompanySizes:    {customerColumnRef("company_size_id")},
	entities.LookupProvinces:       {customerColumnRef("province_id")},
	entities.LookupLeadSources:     {customerColumnRef("lead_source_id")},
	entities.LookupStages:          {customerColumnRef("stage_id")},
	entities.LookupTemperatures:    {customerColumnRef("temperature_id")},
	entities.LookupContactStatuses: {customerColumnRef("contact_status_id")},
	entities.LookupProducts: {
		{
			Count: `SELECT COUNT(*) FROM customer_products cp
				JOIN customers c ON c.id = cp.customer_id AND c.deleted_at IS NULL
				WHERE cp.product_id = $1`,
			Detach: `DELETE FROM customer_products cp USING customers c
				WHERE c.id = cp.customer_id AND c.deleted_at IS NOT NULL AND cp.product_id = $1`,
		},
		{Count: `SELECT COUNT(*) FROM order_items WHERE product_id = $1`},
	},
}

func customerColumnRef(column string) lookupRef {
	return lookupRef{
		Count:  fmt.Sprintf(`SELECT COUNT(*) FROM customers WHERE %s = $1 AND deleted_at IS NULL`, column),
		Detach: fmt.Sprintf(`UPDATE customers SET %[1]s = NULL WHERE %[1]s = $1 AND deleted_at IS NOT NULL`, column),
	}
}

func lookupListSpec(table entities.LookupTable) db.ListSpec {
	return db.ListSpec{
		From:    string(table) + " l",
		Columns: []string{"l.id", "l.name", "l.active", "l.created_at", "l.updated_at"},
		Filters: []db.FilterDef{
			{Name: "active", Apply: db.Bool("l.active")},
		},
		SearchColumns: []string{"l.name"},
		Sortable: []db.SortDef{
			{Key: "name", Expr: "l.name"},
			{Key: "created", Expr: "l.created_at"},
			{Key: "created_at", Expr: "l.created_at"},
			{Key: "updated", Expr: "l.updated_at"},
		},
		DefaultSort: "name",
		DefaultDir:  types.SortAsc,
		TieBreaker:  "l.id",
	}
}

// LookupRepositoryInterface serves every lookup table through one set of
// operations. table must come from entities.LookupTables.
type LookupRepositoryInterface interface {
	List(ctx context.Context, table entities.LookupTable, scope sq.Sqlizer, criteria types.Criteria) ([]entities.LookupItem, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) (*entities.LookupItem, error)
	FindByName(ctx context.Context, tx pgx.Tx, table entities.LookupTable, name string) (*entities.LookupItem, error)
	Create(ctx context.Context, tx pgx.Tx, table entities.LookupTable, name string, active bool) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64, name string, active bool) error
	Delete(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) error
	UsageCount(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) (int64, error)
}

type lookupRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewLookupRepository(storage *pgxpool.Pool, logger *zap.Logger) LookupRepositoryInterface {
	return &lookupRepository{storage: storage, logger: logger}
}

func checkTable(table entities.LookupTable) error {
	if _, ok := lookupRefs[table]; !ok {
		return apperrors.NewValidationError("unknown lookup table %q", string(table))
	}
	return nil
}

func entityName(table entities.LookupTable) string {
	if table == entities.LookupContactStatuses {
		return "contact status"
	}
	return strings.TrimSuffix(strings.ReplaceAll(string(table), "_", " "), "s")
}

func (r *lookupRepository) List(ctx context.Context, table entities.LookupTable, scope sq.Sqlizer, criteria types.Criteria) ([]entities.LookupItem, uint64, error) {
	if err := checkTable(table); err != nil {
		return nil, 0, err
	}
	query, err := lookupListSpec(table).Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, entityName(table), scanLookup)
}

func (r *lookupRepository) findOne(ctx context.Context, q Querier, table entities.LookupTable, where sq.Sqlizer) (*entities.LookupItem, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	sql, args, err := db.Psql.Select("l.id", "l.name", "l.active", "l.created_at", "l.updated_at").
		From(string(table) + " l").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s select: %w", table, err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err, entityName(table))
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanLookup)
	if err != nil {
		return nil, mapPgError(err, entityName(table))
	}
	return &item, nil
}

func (r *lookupRepository) FindByID(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) (*entities.LookupItem, error) {
	return r.findOne(ctx, getQuerier(r.storage, tx), table, sq.Eq{"l.id": id})
}

// FindByName matches case-insensitively.
func (r *lookupRepository) FindByName(ctx context.Context, tx pgx.Tx, table entities.LookupTable, name string) (*entities.LookupItem, error) {
	return r.findOne(ctx, getQuerier(r.storage, tx), table, sq.Expr("LOWER(l.name) = LOWER(?)", strings.TrimSpace(name)))
}

func (r *lookupRepository) Create(ctx context.Context, tx pgx.Tx, table entities.LookupTable, name string, active bool) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	sql, args, err := db.Psql.Insert(string(table)).
		Columns("name", "active").Values(name, active).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s insert: %w", table, err)
	}
	var id int64
	if err := getQuerier(r.storage, tx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, r.nameConflict(err, table, name)
	}
	return id, nil
}

func (r *lookupRepository) Update(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64, name string, active bool) error {
	if err := checkTable(table); err != nil {
		return err
	}
	sql, args, err := db.Psql.Update(string(table)).
		Set("name", name).Set("active", active).Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build %s update: %w", table, err)
	}
	tag, err := getQuerier(r.storage, tx).Exec(ctx, sql, args...)
	if err != nil {
		return r.nameConflict(err, table, name)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, entityName(table))
	}
	return nil
}

func (r *lookupRepository) nameConflict(err error, table entities.LookupTable, name string) error {
	mapped := mapPgError(err, entityName(table))
	if apperrors.KindOf(mapped) == apperrors.ErrConflict {
		return apperrors.NewConflictError("%s %q already exists", entityName(table), name)
	}
	return mapped
}

// Delete removes the item after detaching it from soft-deleted customers.
// Callers check UsageCount first; a reference that appears after that check
// still fails on the foreign key and comes back as a Conflict.
func (r *lookupRepository) Delete(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) error {
	if err := checkTable(table); err != nil {
		return err
	}
	q := getQuerier(r.storage, tx)
	for _, ref := range lookupRefs[table] {
		if ref.Detach == "" {
			continue
		}
		if _, err := q.Exec(ctx, ref.Detach, id); err != nil {
			return mapPgError(err, entityName(table))
		}
	}
	tag, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return deleteError(err, table)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, entityName(table))
	}
	return nil
}

func deleteError(err error, table entities.LookupTable) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return apperrors.NewConflictError("%s is in use", entityName(table))
	}
	return mapPgError(err, entityName(table))
}

// UsageCount counts live rows that still reference the item.
func (r *lookupRepository) UsageCount(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) (int64, error) {
	refs, ok := lookupRefs[table]
	if !ok {
		return 0, checkTable(table)
	}
	q := getQuerier(r.storage, tx)
	var total int64
	for _, ref := range refs {
		var n int64
		if err := q.QueryRow(ctx, ref.Count, id).Scan(&n); err != nil {
			return 0, mapPgError(err, entityName(table))
		}
		total += n
	}
	return total, nil
}

func scanLookup(row pgx.CollectableRow) (entities.LookupItem, error) {
	var item entities.LookupItem
	err := row.Scan(&item.ID, &item.Name, &item.Active, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}
