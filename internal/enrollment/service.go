package enrollment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"college-service/internal/course"
	"college-service/internal/db"
	"college-service/internal/events"
	"college-service/internal/httputil"
	"college-service/internal/metrics"
	"college-service/internal/student"

	"github.com/uptrace/bun"
)

var (
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrDuplicateEnrollment = errors.New("duplicate enrollment")
	ErrInvalidInput        = errors.New("invalid input")
)

type Service interface {
	CreateEnrollment(ctx context.Context, req EnrollmentRequest) (*Enrollment, error)
	ListEnrollments(ctx context.Context, filter ListFilter, page httputil.Page) ([]Enrollment, error)
	GetEnrollmentByID(ctx context.Context, id int) (*Enrollment, error)
	DeleteEnrollment(ctx context.Context, id int) error
	ListByStudent(ctx context.Context, studentID int) ([]Enrollment, error)
	ListStudentsInCourse(ctx context.Context, courseID int) ([]student.Student, error)
}

type service struct {
	tx        db.Transactor
	repo      Repository
	students  student.Repository
	courses   course.Repository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	tx db.Transactor,
	repo Repository,
	students student.Repository,
	courses course.Repository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) Service {
	return &service{
		tx:        tx,
		repo:      repo,
		students:  students,
		courses:   courses,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// CreateEnrollment checks the student, then the course, then the triple, and inserts.
// The unique constraint backs the duplicate check for concurrent requests.
func (s *service) CreateEnrollment(ctx context.Context, req EnrollmentRequest) (*Enrollment, error) {
	if req.StudentID <= 0 || req.CourseID <= 0 || strings.TrimSpace(req.Semester) == "" {
		return nil, ErrInvalidInput
	}

	enrollment := &Enrollment{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Semester:  req.Semester,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if _, err := s.students.GetByID(ctx, tx, req.StudentID); err != nil {
			return err
		}
		if _, err := s.courses.GetByID(ctx, tx, req.CourseID); err != nil {
			return err
		}

		exists, err := s.repo.Exists(ctx, tx, req.StudentID, req.CourseID, req.Semester)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEnrollment
		}

		return s.repo.Create(ctx, tx, enrollment)
	})
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	s.metrics.College.RecordEnrollmentCreated(ctx)
	events.Emit(ctx, s.publisher, s.logger, events.EnrollmentCreated, enrollment.ID, enrollment)
	return enrollment, nil
}

func (s *service) recordRejection(ctx context.Context, err error) {
	switch {
	case errors.Is(err, student.ErrStudentNotFound):
		s.metrics.College.RecordEnrollmentRejected(ctx, "student_not_found")
	case errors.Is(err, course.ErrCourseNotFound):
		s.metrics.College.RecordEnrollmentRejected(ctx, "course_not_found")
	case errors.Is(err, ErrDuplicateEnrollment):
		s.metrics.College.RecordEnrollmentRejected(ctx, "duplicate")
	}
}

func (s *service) ListEnrollments(ctx context.Context, filter ListFilter, page httputil.Page) ([]Enrollment, error) {
	var enrollments []Enrollment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		enrollments, err = s.repo.List(ctx, tx, filter, page)
		return err
	})
	return enrollments, err
}

func (s *service) GetEnrollmentByID(ctx context.Context, id int) (*Enrollment, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}

	var enrollment *Enrollment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		enrollment, err = s.repo.GetByID(ctx, tx, id)
		return err
	})
	return enrollment, err
}

func (s *service) DeleteEnrollment(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidInput
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	events.Emit(ctx, s.publisher, s.logger, events.EnrollmentDeleted, id, map[string]int{"id": id})
	return nil
}

// ListByStudent fails with student.ErrStudentNotFound for an unknown student
// so an empty list always means "enrolled in nothing".
func (s *service) ListByStudent(ctx context.Context, studentID int) ([]Enrollment, error) {
	if studentID <= 0 {
		return nil, ErrInvalidInput
	}

	var enrollments []Enrollment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if _, err := s.students.GetByID(ctx, tx, studentID); err != nil {
			return err
		}
		var err error
		enrollments, err = s.repo.ListByStudent(ctx, tx, studentID)
		return err
	})
	return enrollments, err
}

func (s *service) ListStudentsInCourse(ctx context.Context, courseID int) ([]student.Student, error) {
	if courseID <= 0 {
		return nil, ErrInvalidInput
	}

	var students []student.Student
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if _, err := s.courses.GetByID(ctx, tx, courseID); err != nil {
			return err
		}
		var err error
		students, err = s.students.ListByCourse(ctx, tx, courseID)
		return err
	})
	return students, err
}
