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
	"sales-crm/pkg/types"
)

const customerEntity = "customer"

// customerLookupJoins maps every nullable lookup column to its alias.
var customerLookupJoins = []struct {
	table, alias, column string
}{
	{"customer_types", "ct", "customer_type_id"},
	{"business_types", "bt", "business_type_id"},
	{"company_sizes", "cs", "company_size_id"},
	{"provinces", "pv", "province_id"},
	{"lead_sources", "ls", "lead_source_id"},
	{"stages", "st", "stage_id"},
	{"temperatures", "tp", "temperature_id"},
	{"contact_statuses", "cst", "contact_status_id"},
}

var customerColumns = func() []string {
	cols := []string{
		"c.id", "c.name", "c.phone", "c.email", "c.address", "c.company_name", "c.tax_code", "c.website",
	}
	for _, j := range customerLookupJoins {
		cols = append(cols, "c."+j.column, j.alias+".name")
	}
	return append(cols,
		"c.assigned_salesperson", "su.name",
		"c.feedback", "c.notes",
		"prod.products",
		"lc.id", "lc.type", "lc.subject", "lc.created_at",
		"na.id", "na.title", "na.scheduled_at", "COALESCE(na.upcoming_count, 0)",
		"c.created_by", "cu.name", "c.updated_by", "uu.name",
		"c.created_at", "c.updated_at",
	)
}()

var customerSelectJoins = func() []string {
	joins := make([]string, 0, len(customerLookupJoins)+7)
	for _, j := range customerLookupJoins {
		joins = append(joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.id = c.%s", j.table, j.alias, j.alias, j.column))
	}
	return append(joins,
		"JOIN users su ON su.id = c.assigned_salesperson",
		"LEFT JOIN users cu ON cu.id = c.created_by",
		"LEFT JOIN users uu ON uu.id = c.updated_by",
		`LEFT JOIN LATERAL (
			SELECT COALESCE(json_agg(json_build_object('id', p.id, 'name', p.name) ORDER BY p.name), '[]'::json) AS products
			FROM customer_products cp JOIN products p ON p.id = cp.product_id
			WHERE cp.customer_id = c.id
		) prod ON TRUE`,
		`LEFT JOIN LATERAL (
			SELECT ch.id, ch.type, ch.subject, ch.created_at
			FROM contact_histories ch
			WHERE ch.customer_id = c.id
			ORDER BY ch.created_at DESC, ch.id DESC
			LIMIT 1
		) lc ON TRUE`,
		`LEFT JOIN LATERAL (
			SELECT ap.id, ap.title, ap.scheduled_at, COUNT(*) OVER () AS upcoming_count
			FROM appointments ap
			WHERE ap.customer_id = c.id AND ap.status = 'scheduled' AND ap.scheduled_at >= NOW()
			ORDER BY ap.scheduled_at, ap.id
			LIMIT 1
		) na ON TRUE`,
	)
}()

// CustomerListSpec describes the customer listing. Dashboard counts are
// built from the same spec.
func CustomerListSpec() db.ListSpec {
	filters := make([]db.FilterDef, 0, len(customerLookupJoins)+4)
	for _, j := range customerLookupJoins {
		filters = append(filters, db.FilterDef{Name: j.column, Apply: db.EqInt64("c." + j.column)})
	}
	filters = append(filters,
		db.FilterDef{Name: "assigned_salesperson", Apply: db.EqInt64("c.assigned_salesperson")},
		db.FilterDef{Name: "product_id", Apply: customerHasProduct},
		db.FilterDef{Name: "created_from", Apply: db.DateFrom("c.created_at")},
		db.FilterDef{Name: "created_to", Apply: db.DateTo("c.created_at")},
	)

	return db.ListSpec{
		From:          "customers c",
		SelectJoins:   customerSelectJoins,
		Columns:       customerColumns,
		Base:          []sq.Sqlizer{sq.Expr("c.deleted_at IS NULL")},
		Filters:       filters,
		SearchColumns: []string{"c.name", "c.company_name", "c.phone", "c.email"},
		Sortable: []db.SortDef{
			{Key: "name", Expr: "c.name"},
			{Key: "created", Expr: "c.created_at"},
			{Key: "created_at", Expr: "c.created_at"},
			{Key: "updated", Expr: "c.updated_at"},
			{Key: "updated_at", Expr: "c.updated_at"},
			{Key: "latest_contact", Expr: "lc.created_at"},
			{Key: "latestContact", Expr: "lc.created_at"},
		},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "c.id",
	}
}

func customerHasProduct(value string) (sq.Sqlizer, error) {
	eq, err := db.EqInt64("cpf.product_id")(value)
	if err != nil {
		return nil, err
	}
	sub, args, err := db.Psql.Select("1").From("customer_products cpf").
		Where(sq.Expr("cpf.customer_id = c.id")).Where(eq).
		PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, err
	}
	return sq.Expr("EXISTS ("+sub+")", args...), nil
}

type CustomerRepositoryInterface interface {
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Customer, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Customer, error)
	Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error)
	FindDuplicate(ctx context.Context, tx pgx.Tx, phone, email null.String, excludeID int64) (string, error)
	Create(ctx context.Context, tx pgx.Tx, w entities.CustomerWrite) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, w entities.CustomerWrite) error
	ReplaceProducts(ctx context.Context, tx pgx.Tx, customerID int64, productIDs []int64) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id, actorID int64) error
}

type customerRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	spec    db.ListSpec
}

func NewCustomerRepository(storage *pgxpool.Pool, logger *zap.Logger) CustomerRepositoryInterface {
	return &customerRepository{storage: storage, logger: logger, spec: CustomerListSpec()}
}

func (r *customerRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Customer, uint64, error) {
	query, err := r.spec.Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, customerEntity, scanCustomer)
}

func (r *customerRepository) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Customer, error) {
	return findOne(ctx, getQuerier(r.storage, tx), r.spec, scope, "c.id", id, customerEntity, scanCustomer)
}

// Ownership reads only the ownership fields of a live customer. It backs
// authorization decisions and never returns customer data.
func (r *customerRepository) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	res := authz.Resource{Kind: authz.KindCustomer, ID: id}
	err := getQuerier(r.storage, tx).QueryRow(ctx,
		`SELECT assigned_salesperson FROM customers WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&res.Owner)
	if err != nil {
		return authz.Resource{}, mapPgError(err, customerEntity)
	}
	return res, nil
}

// FindDuplicate reports which contact field ("phone" or "email") already
// belongs to another live customer, or "" when both are free.
func (r *customerRepository) FindDuplicate(ctx context.Context, tx pgx.Tx, phone, email null.String, excludeID int64) (string, error) {
	q := getQuerier(r.storage, tx)

	if phone.Valid && phone.String != "" {
		var exists bool
		err := q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM customers WHERE phone = $1 AND id <> $2 AND deleted_at IS NULL)`,
			phone.String, excludeID).Scan(&exists)
		if err != nil {
			return "", mapPgError(err, customerEntity)
		}
		if exists {
			return "phone", nil
		}
	}
	if email.Valid && email.String != "" {
		var exists bool
		err := q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM customers WHERE LOWER(email) = LOWER($1) AND id <> $2 AND deleted_at IS NULL)`,
			email.String, excludeID).Scan(&exists)
		if err != nil {
			return "", mapPgError(err, customerEntity)
		}
		if exists {
			return "email", nil
		}
	}
	return "", nil
}

func customerValues(w entities.CustomerWrite) map[string]interface{} {
	return map[string]interface{}{
		"name":                 w.Name,
		"phone":                w.Phone,
		"email":                w.Email,
		"address":              w.Address,
		"company_name":         w.CompanyName,
		"tax_code":             w.TaxCode,
		"website":              w.Website,
		"customer_type_id":     w.CustomerTypeID,
		"business_type_id":     w.BusinessTypeID,
		"company_size_id":      w.CompanySizeID,
		"province_id":          w.ProvinceID,
		"lead_source_id":       w.LeadSourceID,
		"stage_id":             w.StageID,
		"temperature_id":       w.TemperatureID,
		"contact_status_id":    w.ContactStatusID,
		"assigned_salesperson": w.AssignedSalesperson,
		"feedback":             w.Feedback,
		"notes":                w.Notes,
		"updated_by":           w.ActorID,
	}
}

func (r *customerRepository) Create(ctx context.Context, tx pgx.Tx, w entities.CustomerWrite) (int64, error) {
	values := customerValues(w)
	values["created_by"] = w.ActorID

	sql, args, err := db.Psql.Insert("customers").SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build customer insert: %w", err)
	}
	var id int64
	if err := getQuerier(r.storage, tx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, customerEntity)
	}
	return id, nil
}

func (r *customerRepository) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.CustomerWrite) error {
	values := customerValues(w)
	values["updated_at"] = time.Now()

	sql, args, err := db.Psql.Update("customers").SetMap(values).
		Where(sq.Eq{"id": id}).Where("deleted_at IS NULL").ToSql()
	if err != nil {
		return fmt.Errorf("build customer update: %w", err)
	}
	tag, err := getQuerier(r.storage, tx).Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err, customerEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, customerEntity)
	}
	return nil
}

// ReplaceProducts drops every link of the customer and inserts productIDs.
func (r *customerRepository) ReplaceProducts(ctx context.Context, tx pgx.Tx, customerID int64, productIDs []int64) error {
	q := getQuerier(r.storage, tx)
	if _, err := q.Exec(ctx, `DELETE FROM customer_products WHERE customer_id = $1`, customerID); err != nil {
		return mapPgError(err, customerEntity)
	}
	if len(productIDs) == 0 {
		return nil
	}

	insert := db.Psql.Insert("customer_products").Columns("customer_id", "product_id")
	seen := make(map[int64]bool, len(productIDs))
	for _, pid := range productIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		insert = insert.Values(customerID, pid)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build customer_products insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return mapPgError(err, customerEntity)
	}
	return nil
}

func (r *customerRepository) SoftDelete(ctx context.Context, tx pgx.Tx, id, actorID int64) error {
	tag, err := getQuerier(r.storage, tx).Exec(ctx,
		`UPDATE customers SET deleted_at = NOW(), updated_at = NOW(), updated_by = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, actorID)
	if err != nil {
		return mapPgError(err, customerEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, customerEntity)
	}
	r.logger.Debug("customer soft-deleted", zap.Int64("customer_id", id), zap.Int64("actor_id", actorID))
	return nil
}

func scanCustomer(row pgx.CollectableRow) (entities.Customer, error) {
	var (
		c          entities.Customer
		lookupIDs  = make([]null.Int64, len(customerLookupJoins))
		lookupName = make([]null.String, len(customerLookupJoins))
		ownerName  null.String

		lcID                     null.Int64
		lcType, lcSubject        null.String
		lcAt                     null.Time
		naID                     null.Int64
		naTitle                  null.String
		naAt                     null.Time
		upcoming                 int64
		createdBy, updatedBy     null.Int64
		createdName, updatedName null.String
	)

	dest := []interface{}{
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CompanyName, &c.TaxCode, &c.Website,
	}
	for i := range customerLookupJoins {
		dest = append(dest, &lookupIDs[i], &lookupName[i])
	}
	dest = append(dest,
		&c.AssignedSalesperson.ID, &ownerName,
		&c.Feedback, &c.Notes,
		&c.Products,
		&lcID, &lcType, &lcSubject, &lcAt,
		&naID, &naTitle, &naAt, &upcoming,
		&createdBy, &createdName, &updatedBy, &updatedName,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return c, err
	}

	refs := []**types.Ref{
		&c.CustomerType, &c.BusinessType, &c.CompanySize, &c.Province,
		&c.LeadSource, &c.Stage, &c.Temperature, &c.ContactStatus,
	}
	for i, ref := range refs {
		*ref = refOf(lookupIDs[i], lookupName[i])
	}
	c.AssignedSalesperson.Name = ownerName.String
	c.CreatedBy = refOf(createdBy, createdName)
	c.UpdatedBy = refOf(updatedBy, updatedName)
	if c.Products == nil {
		c.Products = []types.Ref{}
	}

	if lcID.Valid {
		c.LatestContact = &entities.LatestContact{
			ID: lcID.Int64, Type: lcType.String, Subject: strings.TrimSpace(lcSubject.String), CreatedAt: lcAt.Time,
		}
	}
	c.AppointmentInfo = &entities.AppointmentInfo{UpcomingCount: int(upcoming)}
	if naID.Valid {
		at := naAt.Time
		c.AppointmentInfo.NextAppointmentID = naID.Int64
		c.AppointmentInfo.NextTitle = naTitle.String
		c.AppointmentInfo.NextScheduledAt = &at
	}
	return c, nil
}
