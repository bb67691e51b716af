package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/pkg/constants"
	"sales-crm/pkg/types"
)

const userEntity = "user"

var userColumns = []string{
	"u.id", "u.email", "u.name", "u.phone", "u.role", "u.active", "u.password_hash", "u.created_at", "u.updated_at",
}

func userListSpec() db.ListSpec {
	return db.ListSpec{
		From:    "users u",
		Columns: userColumns,
		Filters: []db.FilterDef{
			{Name: "role", Apply: db.OneOf("u.role", []string{constants.RoleAdmin, constants.RoleEmployee})},
			{Name: "active", Apply: db.Bool("u.active")},
		},
		SearchColumns: []string{"u.name", "u.email", "u.phone"},
		Sortable: []db.SortDef{
			{Key: "name", Expr: "u.name"},
			{Key: "email", Expr: "u.email"},
			{Key: "created", Expr: "u.created_at"},
			{Key: "created_at", Expr: "u.created_at"},
		},
		DefaultSort: "created",
		DefaultDir:  types.SortDesc,
		TieBreaker:  "u.id",
	}
}

type UserRepositoryInterface interface {
	List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.User, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int64) (*entities.User, error)
	FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error)
	Create(ctx context.Context, tx pgx.Tx, w entities.UserWrite) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, w entities.UserWrite) error
	SetActive(ctx context.Context, tx pgx.Tx, id int64, active bool) error
}

type userRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	spec    db.ListSpec
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &userRepository{storage: storage, logger: logger, spec: userListSpec()}
}

func (r *userRepository) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.User, uint64, error) {
	query, err := r.spec.Build(scope, criteria)
	if err != nil {
		return nil, 0, err
	}
	return runList(ctx, r.storage, query, userEntity, scanUser)
}

func (r *userRepository) findOne(ctx context.Context, q Querier, where sq.Sqlizer) (*entities.User, error) {
	sql, args, err := db.Psql.Select(userColumns...).From("users u").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user select: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err, userEntity)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		return nil, mapPgError(err, userEntity)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, tx pgx.Tx, id int64) (*entities.User, error) {
	return r.findOne(ctx, getQuerier(r.storage, tx), sq.Eq{"u.id": id})
}

func (r *userRepository) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error) {
	return r.findOne(ctx, getQuerier(r.storage, tx), sq.Expr("LOWER(u.email) = ?", strings.ToLower(strings.TrimSpace(email))))
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, w entities.UserWrite) (int64, error) {
	sql, args, err := db.Psql.Insert("users").SetMap(map[string]interface{}{
		"email":         strings.ToLower(strings.TrimSpace(w.Email)),
		"name":          w.Name,
		"phone":         w.Phone,
		"role":          w.Role,
		"active":        w.Active,
		"password_hash": w.PasswordHash,
	}).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build user insert: %w", err)
	}
	var id int64
	if err := getQuerier(r.storage, tx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, userEntity)
	}
	return id, nil
}

func (r *userRepository) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.UserWrite) error {
	b := db.Psql.Update("users").
		Set("email", strings.ToLower(strings.TrimSpace(w.Email))).
		Set("name", w.Name).
		Set("phone", w.Phone).
		Set("role", w.Role).
		Set("active", w.Active).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id})
	if w.PasswordHash != "" {
		b = b.Set("password_hash", w.PasswordHash)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	tag, err := getQuerier(r.storage, tx).Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err, userEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, userEntity)
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, tx pgx.Tx, id int64, active bool) error {
	tag, err := getQuerier(r.storage, tx).Exec(ctx,
		`UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return mapPgError(err, userEntity)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, userEntity)
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
