package auth

import (
	"context"
	"time"

	"college-service/internal/db"
	"college-service/internal/metrics"

	"github.com/uptrace/bun"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, idb bun.IDB, user *User) error
	GetByUsername(ctx context.Context, idb bun.IDB, username string) (*User, error)
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, user *User) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(user).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "users", time.Since(start), err)

	if _, ok := db.IsUniqueViolation(err); ok {
		return ErrUsernameTaken
	}
	return err
}

func (r *repository) GetByUsername(ctx context.Context, idb bun.IDB, username string) (*User, error) {
	start := time.Now()
	user := new(User)
	err := idb.NewSelect().Model(user).Where("username = ?", username).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
