package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/pkg/constants"
	"sales-crm/pkg/types"
)

const contactHistoryEntity = "contact history"

func ContactHistoryListSpec() db.ListSpec {
	return db.ListSpec{
		From:        "contact_histories h",
		Joins:       []string{"JOIN customers c ON c.id = h.customer_id"},
		SelectJoins: []string{"JOIN users cr ON cr.id = h.created_by"},
		Columns: []string{
			"h.id", "h.customer_id", "c.name", "c.assigned_salesperson",
			"h.type", "h.subject", "h.notes", "h.outcome", "h.next_step", "h.duration_minutes",
			"h.created_by", "cr.name", "h.created_at", "h.updated_at",
		},
		Base: []sq.Sqlizer{sq.Expr("c.deleted_at IS NULL")},
		Filters: []db.FilterDef{
			{Name: "customer_id", Apply: db.EqInt64("h.customer_id")},
			{Name: "type", Apply: db.OneOf("h.type", constants.ContactTypes)},
			{Name: "created_by", Apply: db.EqInt64("h.created_by")},
			{Name: "date_from", Apply: db.DateFrom("h.created_at")},
			{Name: "date_to", Apply: db.DateTo("h.created_at")},
		},
		SearchColumns: []string{"h.subject", "h.notes", "c.name", "c.company_name", "c.phone", "c.email"},
		Sortable: []db.SortDef{
			{Key: "created", Expr: "h.created_at"},
			{Key: "created_at", Expr: "h.created_at"},
			{Key: "subject", Expr: "h.subject"},
			{Key: "name", Expr: "c.name"},
		},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "h.id",
	}
}

// ContactHistoryRepositoryInterface has no update path: entries are
// immutable once written.
type ContactHistoryRepositoryInterface interface {
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.ContactHistory, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.ContactHistory, error)
	Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error)
	Create(ctx context.Context, tx pgx.Tx, w entities.ContactHistoryWrite) (int64, error)
}

type contactHistoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	spec    db.ListSpec
}

func NewContactHistoryRepository(storage *pgxpool.Pool, logger *zap.Logger) ContactHistoryRepositoryInterface {
	return &contactHistoryRepository{storage: storage, logger: logger, spec: ContactHistoryListSpec()}
}

func (r *contactHistoryRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.ContactHistory, uint64, error) {
	query, err := r.spec.Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, contactHistoryEntity, scanContactHistory)
}

func (r *contactHistoryRepository) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.ContactHistory, error) {
	return findOne(ctx, getQuerier(r.storage, tx), r.spec, scope, "h.id", id, contactHistoryEntity, scanContactHistory)
}

func (r *contactHistoryRepository) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	res := authz.Resource{Kind: authz.KindContactHistory, ID: id}
	err := getQuerier(r.storage, tx).QueryRow(ctx, `
		SELECT c.assigned_salesperson
		FROM contact_histories h JOIN customers c ON c.id = h.customer_id
		WHERE h.id = $1 AND c.deleted_at IS NULL`, id,
	).Scan(&res.Owner)
	if err != nil {
		return authz.Resource{}, mapPgError(err, contactHistoryEntity)
	}
	return res, nil
}

func (r *contactHistoryRepository) Create(ctx context.Context, tx pgx.Tx, w entities.ContactHistoryWrite) (int64, error) {
	sql, args, err := db.Psql.Insert("contact_histories").SetMap(map[string]interface{}{
		"customer_id":      w.CustomerID,
		"type":             w.Type,
		"subject":          w.Subject,
		"notes":            w.Notes,
		"outcome":          w.Outcome,
		"next_step":        w.NextStep,
		"duration_minutes": w.DurationMinutes,
		"created_by":       w.ActorID,
	}).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build contact history insert: %w", err)
	}
	var id int64
	if err := getQuerier(r.storage, tx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, contactHistoryEntity)
	}
	return id, nil
}

func scanContactHistory(row pgx.CollectableRow) (entities.ContactHistory, error) {
	var (
		h                         entities.ContactHistory
		customerName, creatorName null.String
	)
	err := row.Scan(
		&h.ID, &h.Customer.ID, &customerName, &h.CustomerOwnerID,
		&h.Type, &h.Subject, &h.Notes, &h.Outcome, &h.NextStep, &h.DurationMinutes,
		&h.CreatedBy.ID, &creatorName, &h.CreatedAt, &h.UpdatedAt,
	)
	h.Customer.Name = customerName.String
	h.CreatedBy.Name = creatorName.String
	return h, err
}
