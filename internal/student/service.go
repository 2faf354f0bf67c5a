package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"college-service/internal/db"
	"college-service/internal/events"
	"college-service/internal/httputil"

	"github.com/uptrace/bun"
)

// MinSearchLength is the shortest query GET /search/students accepts.
const MinSearchLength = 2

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidInput    = errors.New("invalid input")
)

type Service interface {
	CreateStudent(ctx context.Context, req StudentRequest) (*Student, error)
	ListStudents(ctx context.Context, filter ListFilter, page httputil.Page) ([]Student, error)
	GetStudentByID(ctx context.Context, id int) (*Student, error)
	UpdateStudent(ctx context.Context, id int, req StudentRequest) (*Student, error)
	DeleteStudent(ctx context.Context, id int) error
	SearchStudents(ctx context.Context, query string, page httputil.Page) ([]Student, error)
}

type service struct {
	tx        db.Transactor
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(tx db.Transactor, repo Repository, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		tx:        tx,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) CreateStudent(ctx context.Context, req StudentRequest) (*Student, error) {
	student := req.toStudent(0)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if err := s.ensureEmailFree(ctx, tx, student.Email, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, student)
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, s.logger, events.StudentCreated, student.ID, student)
	return student, nil
}

func (s *service) ListStudents(ctx context.Context, filter ListFilter, page httputil.Page) ([]Student, error) {
	var students []Student
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		students, err = s.repo.List(ctx, tx, filter, page)
		return err
	})
	return students, err
}

func (s *service) GetStudentByID(ctx context.Context, id int) (*Student, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}

	var student *Student
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		student, err = s.repo.GetByID(ctx, tx, id)
		return err
	})
	return student, err
}

func (s *service) UpdateStudent(ctx context.Context, id int, req StudentRequest) (*Student, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	student := req.toStudent(id)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if _, err := s.repo.GetByID(ctx, tx, id); err != nil {
			return err
		}
		if err := s.ensureEmailFree(ctx, tx, student.Email, id); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, student)
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (s *service) DeleteStudent(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidInput
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	events.Emit(ctx, s.publisher, s.logger, events.StudentDeleted, id, map[string]int{"id": id})
	return nil
}

func (s *service) SearchStudents(ctx context.Context, query string, page httputil.Page) ([]Student, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", ErrInvalidInput, MinSearchLength)
	}

	var students []Student
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		students, err = s.repo.Search(ctx, tx, query, page)
		return err
	})
	return students, err
}

// ensureEmailFree fails with ErrEmailExists when email belongs to a student other than selfID.
func (s *service) ensureEmailFree(ctx context.Context, tx bun.IDB, email string, selfID int) error {
	existing, err := s.repo.GetByEmail(ctx, tx, email)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrEmailExists
	}
	return nil
}
