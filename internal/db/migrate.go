package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
)

// ForeignKeyer is implemented by models whose table references other tables.
// Each entry is a bun ForeignKey clause, e.g. `("student_id") REFERENCES "students" ("id")`.
type ForeignKeyer interface {
	ForeignKeys() []string
}

// RunMigrations creates the tables for models in order; referenced tables must come first.
func RunMigrations(ctx context.Context, db *bun.DB, models ...interface{}) error {
	for _, model := range models {
		q := db.NewCreateTable().
			Model(model).
			IfNotExists()

		if fk, ok := model.(ForeignKeyer); ok {
			for _, clause := range fk.ForeignKeys() {
				q = q.ForeignKey(clause)
			}
		}

		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for model: %w", err)
		}
	}
	slog.Info("database migrations completed successfully")
	return nil
}
