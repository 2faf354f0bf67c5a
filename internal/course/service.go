package course

import (
	"context"
	"errors"

	"college-service/internal/db"
	"college-service/internal/httputil"

	"github.com/uptrace/bun"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCodeExists     = errors.New("course code already exists")
	ErrInvalidInput   = errors.New("invalid input")
)

type Service interface {
	CreateCourse(ctx context.Context, req CourseRequest) (*Course, error)
	ListCourses(ctx context.Context, filter ListFilter, page httputil.Page) ([]Course, error)
	GetCourseByID(ctx context.Context, id int) (*Course, error)
	UpdateCourse(ctx context.Context, id int, req CourseRequest) (*Course, error)
	DeleteCourse(ctx context.Context, id int) error
}

type service struct {
	tx   db.Transactor
	repo Repository
}

func NewService(tx db.Transactor, repo Repository) Service {
	return &service{
		tx:   tx,
		repo: repo,
	}
}

func (s *service) CreateCourse(ctx context.Context, req CourseRequest) (*Course, error) {
	if req.Credits < 1 {
		return nil, ErrInvalidInput
	}
	course := req.toCourse(0)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if err := s.ensureCodeFree(ctx, tx, course.Code, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, course)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *service) ListCourses(ctx context.Context, filter ListFilter, page httputil.Page) ([]Course, error) {
	var courses []Course
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		courses, err = s.repo.List(ctx, tx, filter, page)
		return err
	})
	return courses, err
}

func (s *service) GetCourseByID(ctx context.Context, id int) (*Course, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}

	var course *Course
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		course, err = s.repo.GetByID(ctx, tx, id)
		return err
	})
	return course, err
}

func (s *service) UpdateCourse(ctx context.Context, id int, req CourseRequest) (*Course, error) {
	if id <= 0 || req.Credits < 1 {
		return nil, ErrInvalidInput
	}
	course := req.toCourse(id)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if _, err := s.repo.GetByID(ctx, tx, id); err != nil {
			return err
		}
		if err := s.ensureCodeFree(ctx, tx, course.Code, id); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, course)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *service) DeleteCourse(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *service) ensureCodeFree(ctx context.Context, tx bun.IDB, code string, selfID int) error {
	existing, err := s.repo.GetByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrCodeExists
	}
	return nil
}
