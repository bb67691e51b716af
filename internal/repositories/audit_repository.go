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
	"sales-crm/pkg/types"
)

func auditListSpec() db.ListSpec {
	return db.ListSpec{
		From:    "audit_log al",
		Columns: []string{"al.id", "al.actor_id", "al.action", "al.entity", "al.entity_id", "al.payload", "al.created_at"},
		Filters: []db.FilterDef{
			{Name: "actor_id", Apply: db.EqInt64("al.actor_id")},
			{Name: "entity", Apply: db.EqString("al.entity")},
			{Name: "entity_id", Apply: db.EqInt64("al.entity_id")},
			{Name: "action", Apply: db.EqString("al.action")},
			{Name: "date_from", Apply: db.DateFrom("al.created_at")},
			{Name: "date_to", Apply: db.DateTo("al.created_at")},
		},
		Sortable:    []db.SortDef{{Key: "created", Expr: "al.created_at"}},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "al.id",
	}
}

type AuditRepositoryInterface interface {
	Insert(ctx context.Context, e entities.AuditEntry) error
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.AuditEntry, uint64, error)
}

type auditRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAuditRepository(storage *pgxpool.Pool, logger *zap.Logger) AuditRepositoryInterface {
	return &auditRepository{storage: storage, logger: logger}
}

func (r *auditRepository) Insert(ctx context.Context, e entities.AuditEntry) error {
	var payload interface{}
	if len(e.Payload) > 0 {
		payload = string(e.Payload)
	}
	sql, args, err := db.Psql.Insert("audit_log").
		Columns("actor_id", "action", "entity", "entity_id", "payload").
		Values(null.NewInt64(e.ActorID, e.ActorID > 0), e.Action, e.Entity, null.NewInt64(e.EntityID, e.EntityID > 0), payload).ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := r.storage.Exec(ctx, sql, args...); err != nil {
		return mapPgError(err, "audit entry")
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.AuditEntry, uint64, error) {
	query, err := auditListSpec().Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, "audit entry", func(row pgx.CollectableRow) (entities.AuditEntry, error) {
		var (
			e                 entities.AuditEntry
			actorID, entityID null.Int64
		)
		err := row.Scan(&e.ID, &actorID, &e.Action, &e.Entity, &entityID, &e.Payload, &e.CreatedAt)
		e.ActorID = actorID.Int64
		e.EntityID = entityID.Int64
		return e, err
	})
}
