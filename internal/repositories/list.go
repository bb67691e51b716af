package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/pkg/types"
)

// runList executes the COUNT and the SELECT of one built query. When the
// count is zero the SELECT is skipped.
func runList[T any](ctx context.Context, q Querier, query *db.Query, entity string, scan pgx.RowToFunc[T]) ([]T, uint64, error) {
	countSQL, countArgs, err := query.Count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s count: %w", entity, err)
	}
	var total uint64
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err, entity)
	}
	if total == 0 {
		return []T{}, 0, nil
	}

	selectSQL, selectArgs, err := query.Select.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s select: %w", entity, err)
	}
	items, err := collect(ctx, q, selectSQL, selectArgs, entity, scan)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collect[T any](ctx context.Context, q Querier, sql string, args []interface{}, entity string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err, entity)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, mapPgError(err, entity)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, entity)
	}
	return items, nil
}

// refOf resolves a nullable foreign key and its joined display name.
func refOf(id null.Int64, name null.String) *types.Ref {
	if !id.Valid {
		return nil
	}
	return &types.Ref{ID: id.Int64, Name: name.String}
}

func refOrZero(id null.Int64, name null.String) types.Ref {
	if r := refOf(id, name); r != nil {
		return *r
	}
	return types.Ref{}
}

// findOne selects a single row of spec by id under scope.
func findOne[T any](ctx context.Context, q Querier, spec db.ListSpec, scope sq.Sqlizer, idColumn string, id int64, entity string, scan pgx.RowToFunc[T]) (*T, error) {
	base, err := spec.Filtered(scope, types.NewCriteria(), spec.Columns...)
	if err != nil {
		return nil, err
	}
	for _, j := range spec.SelectJoins {
		base = base.JoinClause(j)
	}
	sql, args, err := base.Where(sq.Eq{idColumn: id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s select: %w", entity, err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err, entity)
	}
	item, err := pgx.CollectExactlyOneRow(rows, scan)
	if err != nil {
		return nil, mapPgError(err, entity)
	}
	return &item, nil
}
