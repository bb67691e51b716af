package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sales-crm/internal/entities"
	"sales-crm/pkg/config"
	"sales-crm/pkg/constants"
	"sales-crm/pkg/utils"
)

// SeedLookups inserts the starting lookup values. Existing names are left
// untouched, so the seeder can run any number of times.
func SeedLookups(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range entities.LookupTables {
		inserted := 0
		// table comes from the closed LookupTables list
		query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table)
		for _, name := range lookupData[table] {
			tag, err := tx.Exec(ctx, query, name)
			if err != nil {
				return fmt.Errorf("seed %s %q: %w", table, name, err)
			}
			inserted += int(tag.RowsAffected())
		}
		logger.Info("lookup table seeded", zap.String("table", string(table)), zap.Int("inserted", inserted))
	}

	return tx.Commit(ctx)
}

// SeedAdmin creates the initial administrator from cfg unless a user with
// that email already exists.
func SeedAdmin(ctx context.Context, db *pgxpool.Pool, cfg config.AdminConfig, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return errors.New("ADMIN_EMAIL is empty")
	}
	if len(cfg.Password) < utils.MinPasswordLength {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		logger.Info("admin already exists, skipping", zap.String("email", email))
		return nil
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO users (email, name, role, active, password_hash) VALUES ($1, $2, $3, TRUE, $4)`,
		email, cfg.Name, constants.RoleAdmin, hash); err != nil {
		return err
	}
	logger.Info("admin created", zap.String("email", email))
	return nil
}
