package student

import (
	"context"
	"strings"
	"time"

	"college-service/internal/db"
	"college-service/internal/httputil"
	"college-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, idb bun.IDB, student *Student) error
	List(ctx context.Context, idb bun.IDB, filter ListFilter, page httputil.Page) ([]Student, error)
	GetByID(ctx context.Context, idb bun.IDB, id int) (*Student, error)
	GetByEmail(ctx context.Context, idb bun.IDB, email string) (*Student, error)
	Update(ctx context.Context, idb bun.IDB, student *Student) error
	Delete(ctx context.Context, idb bun.IDB, id int) error
	Search(ctx context.Context, idb bun.IDB, query string, page httputil.Page) ([]Student, error)
	ListByCourse(ctx context.Context, idb bun.IDB, courseID int) ([]Student, error)
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, student *Student) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(student).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	if _, ok := db.IsUniqueViolation(err); ok {
		return ErrEmailExists
	}
	return err
}

func (r *repository) List(ctx context.Context, idb bun.IDB, filter ListFilter, page httputil.Page) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)
	q := idb.NewSelect().Model(&students)

	if filter.Department != "" {
		q = q.Where("s.department = ?", filter.Department)
	}
	if filter.Name != "" {
		q = q.Where("s.name ILIKE ?", containsPattern(filter.Name))
	}

	err := q.OrderExpr("s.id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return students, err
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := idb.NewSelect().Model(student).Where("s.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) GetByEmail(ctx context.Context, idb bun.IDB, email string) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := idb.NewSelect().
		Model(student).
		Where("s.email = ?", email).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) Update(ctx context.Context, idb bun.IDB, student *Student) error {
	start := time.Now()
	result, err := idb.NewUpdate().
		Model(student).
		Column("name", "email", "department").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	if err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return ErrEmailExists
		}
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, idb bun.IDB, id int) error {
	start := time.Now()
	student := &Student{ID: id}
	result, err := idb.NewDelete().Model(student).WherePK().Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// Search matches query case-insensitively against name, email and department.
func (r *repository) Search(ctx context.Context, idb bun.IDB, query string, page httputil.Page) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)
	pattern := containsPattern(query)

	err := idb.NewSelect().
		Model(&students).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("s.name ILIKE ?", pattern).
				WhereOr("s.email ILIKE ?", pattern).
				WhereOr("s.department ILIKE ?", pattern)
		}).
		OrderExpr("s.id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "search", "students", time.Since(start), err)

	return students, err
}

// ListByCourse returns the students holding at least one enrollment in courseID.
func (r *repository) ListByCourse(ctx context.Context, idb bun.IDB, courseID int) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)

	err := idb.NewSelect().
		Model(&students).
		Where("EXISTS (SELECT 1 FROM enrollments AS e WHERE e.student_id = s.id AND e.course_id = ?)", courseID).
		OrderExpr("s.id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return students, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
