package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/pkg/constants"
	"sales-crm/pkg/money"
	"sales-crm/pkg/types"
)

const paymentEntity = "payment"

func PaymentListSpec() db.ListSpec {
	return db.ListSpec{
		From:  "payments p",
		Joins: []string{"JOIN customers c ON c.id = p.customer_id"},
		SelectJoins: []string{
			"JOIN users cr ON cr.id = p.created_by",
			"LEFT JOIN orders o ON o.id = p.order_id",
		},
		Columns: []string{
			"p.id", "p.customer_id", "c.name", "c.assigned_salesperson",
			"p.order_id", "o.order_number",
			"p.payment_number", "p.amount::text", "p.currency", "p.method", "p.status",
			"p.reference_number", "p.paid_at", "p.notes",
			"p.created_by", "cr.name", "p.created_at", "p.updated_at",
		},
		Base: []sq.Sqlizer{sq.Expr("c.deleted_at IS NULL")},
		Filters: []db.FilterDef{
			{Name: "customer_id", Apply: db.EqInt64("p.customer_id")},
			{Name: "order_id", Apply: db.EqInt64("p.order_id")},
			{Name: "status", Apply: db.OneOf("p.status", constants.PaymentStatuses)},
			{Name: "method", Apply: db.OneOf("p.method", constants.PaymentMethods)},
			{Name: "date_from", Apply: db.DateFrom("p.created_at")},
			{Name: "date_to", Apply: db.DateTo("p.created_at")},
		},
		SearchColumns: []string{"p.payment_number", "p.reference_number", "c.name", "c.company_name", "c.phone", "c.email"},
		Sortable: []db.SortDef{
			{Key: "created", Expr: "p.created_at"},
			{Key: "created_at", Expr: "p.created_at"},
			{Key: "paid_at", Expr: "p.paid_at"},
			{Key: "amount", Expr: "p.amount"},
			{Key: "payment_number", Expr: "p.payment_number"},
		},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "p.id",
	}
}

type PaymentRepositoryInterface interface {
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Payment, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Payment, error)
	Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error)
	Create(ctx context.Context, tx pgx.Tx, w entities.PaymentWrite) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, w entities.PaymentWrite) error
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

type paymentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	spec    db.ListSpec
}

func NewPaymentRepository(storage *pgxpool.Pool, logger *zap.Logger) PaymentRepositoryInterface {
	return &paymentRepository{storage: storage, logger: logger, spec: PaymentListSpec()}
}

func (r *paymentRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Payment, uint64, error) {
	query, err := r.spec.Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, paymentEntity, scanPayment)
}

func (r *paymentRepository) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Payment, error) {
	return findOne(ctx, getQuerier(r.storage, tx), r.spec, scope, "p.id", id, paymentEntity, scanPayment)
}

func (r *paymentRepository) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	res := authz.Resource{Kind: authz.KindPayment, ID: id}
	err := getQuerier(r.storage, tx).QueryRow(ctx, `
		SELECT c.assigned_salesperson
		FROM payments p JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1 AND c.deleted_at IS NULL`, id,
	).Scan(&res.Owner)
	if err != nil {
		return authz.Resource{}, mapPgError(err, paymentEntity)
	}
	return res, nil
}

func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, w entities.PaymentWrite) (int64, error) {
	sql, args, err := db.Psql.Insert("payments").SetMap(map[string]interface{}{
		"customer_id":      w.CustomerID,
		"order_id":         w.OrderID,
		"payment_number":   w.PaymentNumber,
		"amount":           w.Amount,
		"currency":         w.Currency,
		"method":           w.Method,
		"status":           w.Status,
		"reference_number": w.ReferenceNumber,
		"paid_at":          w.PaidAt,
		"notes":            w.Notes,
		"created_by":       w.ActorID,
	}).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build payment insert: %w", err)
	}
	var id int64
	if err := getQuerier(r.storage, tx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, paymentEntity)
	}
	return id, nil
}

func (r *paymentRepository) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.PaymentWrite) error {
	sql, args, err := db.Psql.Update("payments").SetMap(map[string]interface{}{
		"status":           w.Status,
		"reference_number": w.ReferenceNumber,
		"paid_at":          w.PaidAt,
		"notes":            w.Notes,
		"updated_at":       time.Now(),
	}).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build payment update: %w", err)
	}
	tag, err := getQuerier(r.storage, tx).Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err, paymentEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, paymentEntity)
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := getQuerier(r.storage, tx).Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err, paymentEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, paymentEntity)
	}
	return nil
}

func scanPayment(row pgx.CollectableRow) (entities.Payment, error) {
	var (
		p                         entities.Payment
		customerName, creatorName null.String
		orderID                   null.Int64
		orderNumber               null.String
	)
	err := row.Scan(
		&p.ID, &p.Customer.ID, &customerName, &p.CustomerOwnerID,
		&orderID, &orderNumber,
		&p.PaymentNumber, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.ReferenceNumber, &p.PaidAt, &p.Notes,
		&p.CreatedBy.ID, &creatorName, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Customer.Name = customerName.String
	p.CreatedBy.Name = creatorName.String
	if orderID.Valid {
		p.Order = &entities.OrderRef{ID: orderID.Int64, OrderNumber: orderNumber.String}
	}
	p.Amount = money.Normalize(p.Amount)
	p.Currency = strings.TrimSpace(p.Currency)
	return p, err
}
