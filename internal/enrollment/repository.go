package enrollment

import (
	"context"
	"strings"
	"time"

	"college-service/internal/course"
	"college-service/internal/db"
	"college-service/internal/httputil"
	"college-service/internal/metrics"
	"college-service/internal/student"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, idb bun.IDB, enrollment *Enrollment) error
	List(ctx context.Context, idb bun.IDB, filter ListFilter, page httputil.Page) ([]Enrollment, error)
	GetByID(ctx context.Context, idb bun.IDB, id int) (*Enrollment, error)
	Exists(ctx context.Context, idb bun.IDB, studentID, courseID int, semester string) (bool, error)
	ListByStudent(ctx context.Context, idb bun.IDB, studentID int) ([]Enrollment, error)
	Delete(ctx context.Context, idb bun.IDB, id int) error
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, enrollment *Enrollment) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(enrollment).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "enrollments", time.Since(start), err)

	if err == nil {
		return nil
	}
	if _, ok := db.IsUniqueViolation(err); ok {
		return ErrDuplicateEnrollment
	}
	if constraint, ok := db.IsForeignKeyViolation(err); ok {
		if strings.Contains(constraint, "student_id") {
			return student.ErrStudentNotFound
		}
		return course.ErrCourseNotFound
	}
	return err
}

func (r *repository) List(ctx context.Context, idb bun.IDB, filter ListFilter, page httputil.Page) ([]Enrollment, error) {
	start := time.Now()
	enrollments := make([]Enrollment, 0)
	q := idb.NewSelect().Model(&enrollments)

	if filter.Semester != "" {
		q = q.Where("e.semester = ?", filter.Semester)
	}

	err := q.OrderExpr("e.id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	return enrollments, err
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int) (*Enrollment, error) {
	start := time.Now()
	enrollment := new(Enrollment)
	err := idb.NewSelect().Model(enrollment).Where("e.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

func (r *repository) Exists(ctx context.Context, idb bun.IDB, studentID, courseID int, semester string) (bool, error) {
	start := time.Now()
	exists, err := idb.NewSelect().
		Model((*Enrollment)(nil)).
		Where("e.student_id = ?", studentID).
		Where("e.course_id = ?", courseID).
		Where("e.semester = ?", semester).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	return exists, err
}

func (r *repository) ListByStudent(ctx context.Context, idb bun.IDB, studentID int) ([]Enrollment, error) {
	start := time.Now()
	enrollments := make([]Enrollment, 0)
	err := idb.NewSelect().
		Model(&enrollments).
		Where("e.student_id = ?", studentID).
		OrderExpr("e.id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	return enrollments, err
}

func (r *repository) Delete(ctx context.Context, idb bun.IDB, id int) error {
	start := time.Now()
	result, err := idb.NewDelete().Model((*Enrollment)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "enrollments", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}
