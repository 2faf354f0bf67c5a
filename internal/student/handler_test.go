package student_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"college-service/internal/db"
	"college-service/internal/events"
	"college-service/internal/httputil"
	"college-service/internal/logger"
	"college-service/internal/metrics"
	"college-service/internal/student"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn db.TxFunc) error {
	return fn(ctx, nil)
}

type memoryRepository struct {
	mu       sync.Mutex
	students map[int]student.Student
	nextID   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{students: make(map[int]student.Student)}
}

func (r *memoryRepository) sorted() []student.Student {
	out := make([]student.Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func window(all []student.Student, page httputil.Page) []student.Student {
	if page.Skip >= len(all) {
		return []student.Student{}
	}
	end := page.Skip + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Skip:end]
}

func (r *memoryRepository) Create(_ context.Context, _ bun.IDB, s *student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.students {
		if existing.Email == s.Email {
			return student.ErrEmailExists
		}
	}
	r.nextID++
	s.ID = r.nextID
	r.students[s.ID] = *s
	return nil
}

func (r *memoryRepository) List(_ context.Context, _ bun.IDB, filter student.ListFilter, page httputil.Page) ([]student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []student.Student
	for _, s := range r.sorted() {
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Name)) {
			continue
		}
		matched = append(matched, s)
	}
	return window(matched, page), nil
}

func (r *memoryRepository) GetByID(_ context.Context, _ bun.IDB, id int) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return &s, nil
}

func (r *memoryRepository) GetByEmail(_ context.Context, _ bun.IDB, email string) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == email {
			found := s
			return &found, nil
		}
	}
	return nil, student.ErrStudentNotFound
}

func (r *memoryRepository) Update(_ context.Context, _ bun.IDB, s *student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[s.ID]; !ok {
		return student.ErrStudentNotFound
	}
	r.students[s.ID] = *s
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, _ bun.IDB, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return student.ErrStudentNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *memoryRepository) Search(_ context.Context, _ bun.IDB, query string, page httputil.Page) ([]student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	var matched []student.Student
	for _, s := range r.sorted() {
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Email), q) ||
			strings.Contains(strings.ToLower(s.Department), q) {
			matched = append(matched, s)
		}
	}
	return window(matched, page), nil
}

func (r *memoryRepository) ListByCourse(context.Context, bun.IDB, int) ([]student.Student, error) {
	return []student.Student{}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func setupRouter(t *testing.T) (*chi.Mux, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	service := student.NewService(fakeTransactor{}, newMemoryRepository(), publisher, logger.Discard())
	handler := student.NewHandler(service, logger.Discard(), metrics.NewMock())

	router := chi.NewRouter()
	router.Use(chimw.StripSlashes)
	handler.RegisterRoutes(router)
	return router, publisher
}

func do(t *testing.T, router http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStudentHandler(t *testing.T) {
	router, publisher := setupRouter(t)

	ann := map[string]string{"name": "Ann", "email": "ann@x.edu", "department": "Physics"}

	var created student.Student
	t.Run("Create_Success", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/students/", ann)

		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.Positive(t, created.ID)
		assert.Equal(t, "Ann", created.Name)
		assert.Equal(t, "ann@x.edu", created.Email)
		assert.Equal(t, "Physics", created.Department)
		assert.Equal(t, []string{events.StudentCreated}, publisher.types())
	})

	t.Run("Create_DuplicateEmail", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/students/", ann)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Email already registered")
	})

	t.Run("Create_ValidationError", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/students", map[string]string{"name": "Bob", "email": "bob@x.edu"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Get_RoundTrip", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/students/1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var got student.Student
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, created, got)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/students/999", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Student not found")
	})

	t.Run("Get_InvalidID", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/students/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("List_IncludesCreated", func(t *testing.T) {
		do(t, router, http.MethodPost, "/students/", map[string]string{"name": "Bob Stone", "email": "bob@x.edu", "department": "Math"})

		w := do(t, router, http.MethodGet, "/students/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var students []student.Student
		require.NoError(t, json.NewDecoder(w.Body).Decode(&students))
		require.Len(t, students, 2)
		assert.Equal(t, "ann@x.edu", students[0].Email)
	})

	t.Run("List_Filters", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/students/?department=Math", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var students []student.Student
		require.NoError(t, json.NewDecoder(w.Body).Decode(&students))
		require.Len(t, students, 1)
		assert.Equal(t, "Bob Stone", students[0].Name)

		w = do(t, router, http.MethodGet, "/students/?name=ann", nil)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&students))
		require.Len(t, students, 1)
		assert.Equal(t, "Ann", students[0].Name)
	})

	t.Run("List_Pagination", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/students/?skip=1&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var students []student.Student
		require.NoError(t, json.NewDecoder(w.Body).Decode(&students))
		require.Len(t, students, 1)
		assert.Equal(t, "bob@x.edu", students[0].Email)

		w = do(t, router, http.MethodGet, "/students/?limit=0", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, router, http.MethodGet, "/students/?skip=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Search", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/search/students?q=PHYS", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var students []student.Student
		require.NoError(t, json.NewDecoder(w.Body).Decode(&students))
		require.Len(t, students, 1)
		assert.Equal(t, "Ann", students[0].Name)
	})

	t.Run("Search_TooShort", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/search/students?q=a", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least 2 characters")
	})

	t.Run("Update_Success", func(t *testing.T) {
		w := do(t, router, http.MethodPut, "/students/1", map[string]string{"name": "Ann Lee", "email": "ann@x.edu", "department": "Chemistry"})

		require.Equal(t, http.StatusOK, w.Code)
		var updated student.Student
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, 1, updated.ID)
		assert.Equal(t, "Ann Lee", updated.Name)
		assert.Equal(t, "Chemistry", updated.Department)
	})

	t.Run("Update_EmailTaken", func(t *testing.T) {
		w := do(t, router, http.MethodPut, "/students/1", map[string]string{"name": "Ann", "email": "bob@x.edu", "department": "Physics"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		w := do(t, router, http.MethodPut, "/students/999", ann)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := do(t, router, http.MethodDelete, "/students/1", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, publisher.types(), events.StudentDeleted)

		w = do(t, router, http.MethodDelete, "/students/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, router, http.MethodGet, "/students/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStudentRequest_Validation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name    string
		req     student.StudentRequest
		wantErr bool
	}{
		{"complete", student.StudentRequest{Name: "Ann", Email: "ann@x.edu", Department: "Physics"}, false},
		{"free-form email", student.StudentRequest{Name: "Ann", Email: "ann at college", Department: "Physics"}, false},
		{"missing email", student.StudentRequest{Name: "Ann", Department: "Physics"}, true},
		{"missing department", student.StudentRequest{Name: "Ann", Email: "ann@x.edu"}, true},
		{"name too long", student.StudentRequest{Name: strings.Repeat("a", 256), Email: "ann@x.edu", Department: "Physics"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
