package repositories

import (
	"context"
	"fmt"
	"strconv"
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
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

const appointmentEntity = "appointment"

// AppointmentListSpec lists appointments of live customers. The customer is
// joined as "c" so the ownership predicate can reach it.
func AppointmentListSpec() db.ListSpec {
	return db.ListSpec{
		From:  "appointments a",
		Joins: []string{"JOIN customers c ON c.id = a.customer_id"},
		SelectJoins: []string{
			"JOIN users cr ON cr.id = a.created_by",
			"JOIN users asg ON asg.id = a.assigned_to",
		},
		Columns: []string{
			"a.id", "a.customer_id", "c.name", "c.assigned_salesperson",
			"a.title", "a.description", "a.scheduled_at", "a.duration_minutes", "a.status", "a.reminder_minutes",
			"a.created_by", "cr.name", "a.assigned_to", "asg.name",
			"a.created_at", "a.updated_at",
		},
		Base: []sq.Sqlizer{sq.Expr("c.deleted_at IS NULL")},
		Filters: []db.FilterDef{
			{Name: "customer_id", Apply: db.EqInt64("a.customer_id")},
			{Name: "status", Apply: db.OneOf("a.status", constants.AppointmentStatuses)},
			{Name: "assigned_to", Apply: db.EqInt64("a.assigned_to")},
			{Name: "date_from", Apply: db.DateFrom("a.scheduled_at")},
			{Name: "date_to", Apply: db.DateTo("a.scheduled_at")},
			{Name: "upcoming", Apply: upcomingFilter},
		},
		SearchColumns: []string{"a.title", "c.name", "c.company_name", "c.phone", "c.email"},
		Sortable: []db.SortDef{
			{Key: "scheduled", Expr: "a.scheduled_at"},
			{Key: "scheduled_at", Expr: "a.scheduled_at"},
			{Key: "title", Expr: "a.title"},
			{Key: "name", Expr: "c.name"},
			{Key: "created", Expr: "a.created_at"},
			{Key: "created_at", Expr: "a.created_at"},
			{Key: "updated", Expr: "a.updated_at"},
			{Key: "updated_at", Expr: "a.updated_at"},
		},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "a.id",
	}
}

// upcoming=true keeps scheduled appointments that have not started yet;
// upcoming=false imposes nothing.
func upcomingFilter(value string) (sq.Sqlizer, error) {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return nil, apperrors.NewValidationError("filter upcoming: %q is not a boolean", value)
	}
	if !on {
		return nil, nil
	}
	return sq.And{
		sq.Eq{"a.status": constants.AppointmentScheduled},
		sq.Expr("a.scheduled_at >= NOW()"),
	}, nil
}

type AppointmentRepositoryInterface interface {
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Appointment, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Appointment, error)
	Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error)
	Create(ctx context.Context, tx pgx.Tx, w entities.AppointmentWrite) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, w entities.AppointmentWrite) error
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

type appointmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	spec    db.ListSpec
}

func NewAppointmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AppointmentRepositoryInterface {
	return &appointmentRepository{storage: storage, logger: logger, spec: AppointmentListSpec()}
}

func (r *appointmentRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Appointment, uint64, error) {
	query, err := r.spec.Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, appointmentEntity, scanAppointment)
}

func (r *appointmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Appointment, error) {
	return findOne(ctx, getQuerier(r.storage, tx), r.spec, scope, "a.id", id, appointmentEntity, scanAppointment)
}

func (r *appointmentRepository) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	res := authz.Resource{Kind: authz.KindAppointment, ID: id}
	err := getQuerier(r.storage, tx).QueryRow(ctx, `
		SELECT c.assigned_salesperson, a.assigned_to
		FROM appointments a JOIN customers c ON c.id = a.customer_id
		WHERE a.id = $1 AND c.deleted_at IS NULL`, id,
	).Scan(&res.Owner, &res.AssignedTo)
	if err != nil {
		return authz.Resource{}, mapPgError(err, appointmentEntity)
	}
	return res, nil
}

func appointmentValues(w entities.AppointmentWrite) map[string]interface{} {
	reminders := w.ReminderMinutes
	if reminders == nil {
		reminders = []int{}
	}
	return map[string]interface{}{
		"customer_id":      w.CustomerID,
		"title":            w.Title,
		"description":      w.Description,
		"scheduled_at":     w.ScheduledAt,
		"duration_minutes": w.DurationMinutes,
		"status":           w.Status,
		"reminder_minutes": reminders,
		"assigned_to":      w.AssignedTo,
	}
}

func (r *appointmentRepository) Create(ctx context.Context, tx pgx.Tx, w entities.AppointmentWrite) (int64, error) {
	values := appointmentValues(w)
	values["created_by"] = w.ActorID

	sql, args, err := db.Psql.Insert("appointments").SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build appointment insert: %w", err)
	}
	var id int64
	if err := getQuerier(r.storage, tx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, appointmentEntity)
	}
	return id, nil
}

func (r *appointmentRepository) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.AppointmentWrite) error {
	values := appointmentValues(w)
	values["updated_at"] = time.Now()

	sql, args, err := db.Psql.Update("appointments").SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build appointment update: %w", err)
	}
	tag, err := getQuerier(r.storage, tx).Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err, appointmentEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, appointmentEntity)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := getQuerier(r.storage, tx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err, appointmentEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, appointmentEntity)
	}
	return nil
}

func scanAppointment(row pgx.CollectableRow) (entities.Appointment, error) {
	var (
		a                       entities.Appointment
		customerName            null.String
		creatorName, assignName null.String
	)
	err := row.Scan(
		&a.ID, &a.Customer.ID, &customerName, &a.CustomerOwnerID,
		&a.Title, &a.Description, &a.ScheduledAt, &a.DurationMinutes, &a.Status, &a.ReminderMinutes,
		&a.CreatedBy.ID, &creatorName, &a.AssignedTo.ID, &assignName,
		&a.CreatedAt, &a.UpdatedAt,
	)
	a.Customer.Name = customerName.String
	a.CreatedBy.Name = creatorName.String
	a.AssignedTo.Name = assignName.String
	if a.ReminderMinutes == nil {
		a.ReminderMinutes = []int{}
	}
	return a, err
}
