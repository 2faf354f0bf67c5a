package course

import (
	"context"
	"time"

	"college-service/internal/db"
	"college-service/internal/httputil"
	"college-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, idb bun.IDB, course *Course) error
	List(ctx context.Context, idb bun.IDB, filter ListFilter, page httputil.Page) ([]Course, error)
	GetByID(ctx context.Context, idb bun.IDB, id int) (*Course, error)
	GetByCode(ctx context.Context, idb bun.IDB, code string) (*Course, error)
	Update(ctx context.Context, idb bun.IDB, course *Course) error
	Delete(ctx context.Context, idb bun.IDB, id int) error
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, course *Course) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(course).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "courses", time.Since(start), err)

	if _, ok := db.IsUniqueViolation(err); ok {
		return ErrCodeExists
	}
	return err
}

func (r *repository) List(ctx context.Context, idb bun.IDB, filter ListFilter, page httputil.Page) ([]Course, error) {
	start := time.Now()
	courses := make([]Course, 0)
	q := idb.NewSelect().Model(&courses)

	if filter.Code != "" {
		q = q.Where("c.code = ?", filter.Code)
	}

	err := q.OrderExpr("c.id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "courses", time.Since(start), err)

	return courses, err
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int) (*Course, error) {
	return r.getOne(ctx, idb, "c.id = ?", id)
}

func (r *repository) GetByCode(ctx context.Context, idb bun.IDB, code string) (*Course, error) {
	return r.getOne(ctx, idb, "c.code = ?", code)
}

func (r *repository) getOne(ctx context.Context, idb bun.IDB, where string, arg interface{}) (*Course, error) {
	start := time.Now()
	course := new(Course)
	err := idb.NewSelect().Model(course).Where(where, arg).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "courses", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (r *repository) Update(ctx context.Context, idb bun.IDB, course *Course) error {
	start := time.Now()
	result, err := idb.NewUpdate().
		Model(course).
		Column("name", "code", "credits").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "courses", time.Since(start), err)

	if err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return ErrCodeExists
		}
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, idb bun.IDB, id int) error {
	start := time.Now()
	result, err := idb.NewDelete().Model((*Course)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "courses", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
