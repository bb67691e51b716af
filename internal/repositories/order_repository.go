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

const orderEntity = "order"

func OrderListSpec() db.ListSpec {
	return db.ListSpec{
		From:  "orders o",
		Joins: []string{"JOIN customers c ON c.id = o.customer_id"},
		SelectJoins: []string{
			"JOIN users cr ON cr.id = o.created_by",
			`LEFT JOIN LATERAL (
				SELECT COALESCE(SUM(p.amount), 0)::text AS paid
				FROM payments p
				WHERE p.order_id = o.id AND p.status = 'completed'
			) pay ON TRUE`,
		},
		Columns: []string{
			"o.id", "o.customer_id", "c.name", "c.assigned_salesperson",
			"o.order_number", "o.total_amount::text", "o.currency", "o.status", "o.license_type",
			"o.order_date", "o.start_date", "o.end_date", "o.notes", "pay.paid",
			"o.created_by", "cr.name", "o.created_at", "o.updated_at",
		},
		Base: []sq.Sqlizer{sq.Expr("c.deleted_at IS NULL")},
		Filters: []db.FilterDef{
			{Name: "customer_id", Apply: db.EqInt64("o.customer_id")},
			{Name: "status", Apply: db.OneOf("o.status", constants.OrderStatuses)},
			{Name: "currency", Apply: db.EqString("o.currency")},
			{Name: "date_from", Apply: db.DateFrom("o.order_date")},
			{Name: "date_to", Apply: db.DateTo("o.order_date")},
		},
		SearchColumns: []string{"o.order_number", "c.name", "c.company_name", "c.phone", "c.email"},
		Sortable: []db.SortDef{
			{Key: "created", Expr: "o.created_at"},
			{Key: "created_at", Expr: "o.created_at"},
			{Key: "order_date", Expr: "o.order_date"},
			{Key: "total", Expr: "o.total_amount"},
			{Key: "order_number", Expr: "o.order_number"},
			{Key: "name", Expr: "c.name"},
		},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "o.id",
	}
}

type OrderRepositoryInterface interface {
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Order, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Order, error)
	Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error)
	CustomerIDOf(ctx context.Context, tx pgx.Tx, id int64) (int64, error)
	Create(ctx context.Context, tx pgx.Tx, w entities.OrderWrite) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, w entities.OrderWrite) error
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

type orderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	spec    db.ListSpec
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &orderRepository{storage: storage, logger: logger, spec: OrderListSpec()}
}

func (r *orderRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Order, uint64, error) {
	query, err := r.spec.Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	orders, total, err := runList(ctx, r.storage, query, orderEntity, scanOrder)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, r.storage, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Order, error) {
	q := getQuerier(r.storage, tx)
	o, err := findOne(ctx, q, r.spec, scope, "o.id", id, orderEntity, scanOrder)
	if err != nil {
		return nil, err
	}
	one := []entities.Order{*o}
	if err := r.attachItems(ctx, q, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachItems loads the items of every order in one query.
func (r *orderRepository) attachItems(ctx context.Context, q Querier, orders []entities.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []entities.OrderItem{}
	}

	rows, err := q.Query(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, p.name, oi.product_name, oi.quantity,
		       oi.unit_price::text, oi.total_price::text
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id`, ids)
	if err != nil {
		return mapPgError(err, orderEntity)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID     int64
			item        entities.OrderItem
			productID   null.Int64
			productName null.String
		)
		if err := rows.Scan(&orderID, &item.ID, &productID, &productName, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return mapPgError(err, orderEntity)
		}
		item.Product = refOf(productID, productName)
		item.UnitPrice = money.Normalize(item.UnitPrice)
		item.TotalPrice = money.Normalize(item.TotalPrice)
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return mapPgError(rows.Err(), orderEntity)
}

func (r *orderRepository) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	res := authz.Resource{Kind: authz.KindOrder, ID: id}
	err := getQuerier(r.storage, tx).QueryRow(ctx, `
		SELECT c.assigned_salesperson
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1 AND c.deleted_at IS NULL`, id,
	).Scan(&res.Owner)
	if err != nil {
		return authz.Resource{}, mapPgError(err, orderEntity)
	}
	return res, nil
}

func (r *orderRepository) CustomerIDOf(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {
	var customerID int64
	err := getQuerier(r.storage, tx).QueryRow(ctx, `SELECT customer_id FROM orders WHERE id = $1`, id).Scan(&customerID)
	if err != nil {
		return 0, mapPgError(err, orderEntity)
	}
	return customerID, nil
}

// Create inserts the header and its items. Callers run it inside a
// transaction so a failed item leaves no header behind.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, w entities.OrderWrite) (int64, error) {
	q := getQuerier(r.storage, tx)

	orderDate := w.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	sql, args, err := db.Psql.Insert("orders").SetMap(map[string]interface{}{
		"customer_id":  w.CustomerID,
		"order_number": w.OrderNumber,
		"total_amount": w.TotalAmount,
		"currency":     w.Currency,
		"status":       w.Status,
		"license_type": w.LicenseType,
		"order_date":   orderDate,
		"start_date":   w.StartDate,
		"end_date":     w.EndDate,
		"notes":        w.Notes,
		"created_by":   w.ActorID,
	}).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build order insert: %w", err)
	}

	var id int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, orderEntity)
	}
	if len(w.Items) == 0 {
		return id, nil
	}

	insert := db.Psql.Insert("order_items").
		Columns("order_id", "product_id", "product_name", "quantity", "unit_price", "total_price")
	for _, it := range w.Items {
		insert = insert.Values(id, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.TotalPrice)
	}
	sql, args, err = insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build order_items insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return 0, mapPgError(err, orderEntity)
	}
	return id, nil
}

// Update rewrites the mutable header fields. Items and totals are fixed at creation.
func (r *orderRepository) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.OrderWrite) error {
	sql, args, err := db.Psql.Update("orders").SetMap(map[string]interface{}{
		"status":       w.Status,
		"license_type": w.LicenseType,
		"start_date":   w.StartDate,
		"end_date":     w.EndDate,
		"notes":        w.Notes,
		"updated_at":   time.Now(),
	}).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build order update: %w", err)
	}
	tag, err := getQuerier(r.storage, tx).Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err, orderEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, orderEntity)
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := getQuerier(r.storage, tx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err, orderEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, orderEntity)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (entities.Order, error) {
	var (
		o                         entities.Order
		customerName, creatorName null.String
		paid                      null.String
	)
	err := row.Scan(
		&o.ID, &o.Customer.ID, &customerName, &o.CustomerOwnerID,
		&o.OrderNumber, &o.TotalAmount, &o.Currency, &o.Status, &o.LicenseType,
		&o.OrderDate, &o.StartDate, &o.EndDate, &o.Notes, &paid,
		&o.CreatedBy.ID, &creatorName, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Customer.Name = customerName.String
	o.CreatedBy.Name = creatorName.String
	o.TotalAmount = money.Normalize(o.TotalAmount)
	o.PaidAmount = money.Normalize(paid.String)
	o.Currency = strings.TrimSpace(o.Currency)
	return o, err
}
