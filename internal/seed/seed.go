package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"college-service/internal/course"
	"college-service/internal/db"
	"college-service/internal/enrollment"
	"college-service/internal/student"

	"github.com/uptrace/bun"
)

// UserEnsurer creates the admin account if it is missing.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, username, password string) (bool, error)
}

type Seeder struct {
	tx          db.Transactor
	users       UserEnsurer
	students    student.Repository
	courses     course.Repository
	enrollments enrollment.Repository
	logger      *slog.Logger
}

func New(
	tx db.Transactor,
	users UserEnsurer,
	students student.Repository,
	courses course.Repository,
	enrollments enrollment.Repository,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		tx:          tx,
		users:       users,
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		logger:      logger,
	}
}

var sampleStudents = []student.Student{
	{Name: "John Doe", Email: "john@college.edu", Department: "Computer Science"},
	{Name: "Jane Smith", Email: "jane@college.edu", Department: "Mathematics"},
}

var sampleCourses = []course.Course{
	{Name: "Advanced Programming", Code: "CS501", Credits: 4},
	{Name: "Database Systems", Code: "CS502", Credits: 3},
}

// Each seeded enrollment pairs sampleStudents[i] with sampleCourses[i] in this semester.
const sampleSemester = "Fall 2023"

// Run loads the admin user and the sample catalogue. Rows that already exist are left alone,
// so running it twice is a no-op.
func (s *Seeder) Run(ctx context.Context, adminUsername, adminPassword string) error {
	if err := s.EnsureAdmin(ctx, adminUsername, adminPassword); err != nil {
		return err
	}
	return s.LoadSamples(ctx)
}

// EnsureAdmin creates the login account if it is missing.
func (s *Seeder) EnsureAdmin(ctx context.Context, username, password string) error {
	created, err := s.users.EnsureUser(ctx, username, password)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		s.logger.InfoContext(ctx, "seeded admin user", "username", username)
	}
	return nil
}

// LoadSamples inserts the sample students, courses and enrollments in one transaction.
func (s *Seeder) LoadSamples(ctx context.Context) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		studentIDs := make([]int, len(sampleStudents))
		for i, sample := range sampleStudents {
			id, err := s.ensureStudent(ctx, tx, sample)
			if err != nil {
				return err
			}
			studentIDs[i] = id
		}

		courseIDs := make([]int, len(sampleCourses))
		for i, sample := range sampleCourses {
			id, err := s.ensureCourse(ctx, tx, sample)
			if err != nil {
				return err
			}
			courseIDs[i] = id
		}

		for i := range studentIDs {
			if err := s.ensureEnrollment(ctx, tx, studentIDs[i], courseIDs[i], sampleSemester); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Seeder) ensureStudent(ctx context.Context, tx bun.IDB, sample student.Student) (int, error) {
	existing, err := s.students.GetByEmail(ctx, tx, sample.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, student.ErrStudentNotFound) {
		return 0, err
	}

	row := sample
	if err := s.students.Create(ctx, tx, &row); err != nil {
		return 0, fmt.Errorf("failed to seed student %s: %w", sample.Email, err)
	}
	s.logger.InfoContext(ctx, "seeded student", "id", row.ID, "email", row.Email)
	return row.ID, nil
}

func (s *Seeder) ensureCourse(ctx context.Context, tx bun.IDB, sample course.Course) (int, error) {
	existing, err := s.courses.GetByCode(ctx, tx, sample.Code)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, course.ErrCourseNotFound) {
		return 0, err
	}

	row := sample
	if err := s.courses.Create(ctx, tx, &row); err != nil {
		return 0, fmt.Errorf("failed to seed course %s: %w", sample.Code, err)
	}
	s.logger.InfoContext(ctx, "seeded course", "id", row.ID, "code", row.Code)
	return row.ID, nil
}

func (s *Seeder) ensureEnrollment(ctx context.Context, tx bun.IDB, studentID, courseID int, semester string) error {
	exists, err := s.enrollments.Exists(ctx, tx, studentID, courseID, semester)
	if err != nil || exists {
		return err
	}

	row := &enrollment.Enrollment{StudentID: studentID, CourseID: courseID, Semester: semester}
	if err := s.enrollments.Create(ctx, tx, row); err != nil {
		return fmt.Errorf("failed to seed enrollment: %w", err)
	}
	s.logger.InfoContext(ctx, "seeded enrollment", "student_id", studentID, "course_id", courseID, "semester", semester)
	return nil
}
