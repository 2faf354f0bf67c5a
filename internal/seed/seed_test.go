package seed_test

import (
	"context"
	"testing"

	"college-service/internal/auth"
	"college-service/internal/course"
	"college-service/internal/db"
	"college-service/internal/enrollment"
	"college-service/internal/logger"
	"college-service/internal/metrics"
	"college-service/internal/seed"
	"college-service/internal/student"
	"college-service/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Postgres(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.RunMigrations(t,
		(*auth.User)(nil),
		(*student.Student)(nil),
		(*course.Course)(nil),
		(*enrollment.Enrollment)(nil),
	)

	ctx := context.Background()
	m := metrics.NewMock()
	tx := db.NewTransactor(pg.DB)
	authService := auth.NewService(tx, auth.NewRepository(m), auth.NewTokenService("test-secret", 0), m)
	seeder := seed.New(tx, authService, student.NewRepository(m), course.NewRepository(m), enrollment.NewRepository(m), logger.Discard())

	count := func(t *testing.T, model interface{}) int {
		t.Helper()
		n, err := pg.DB.NewSelect().Model(model).Count(ctx)
		require.NoError(t, err)
		return n
	}

	t.Run("FreshDatabase", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "enrollments", "students", "courses", "users")

		require.NoError(t, seeder.Run(ctx, "admin", "admin123"))

		assert.Equal(t, 1, count(t, (*auth.User)(nil)))
		assert.Equal(t, 2, count(t, (*student.Student)(nil)))
		assert.Equal(t, 2, count(t, (*course.Course)(nil)))
		assert.Equal(t, 2, count(t, (*enrollment.Enrollment)(nil)))

		var enrollments []enrollment.Enrollment
		require.NoError(t, pg.DB.NewSelect().Model(&enrollments).OrderExpr("e.id").Scan(ctx))
		assert.Equal(t, 1, enrollments[0].StudentID)
		assert.Equal(t, 1, enrollments[0].CourseID)
		assert.Equal(t, 2, enrollments[1].StudentID)
		assert.Equal(t, 2, enrollments[1].CourseID)
		assert.Equal(t, "Fall 2023", enrollments[1].Semester)

		resp, err := authService.Login(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("EnsureAdminOnly", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "enrollments", "students", "courses", "users")

		require.NoError(t, seeder.EnsureAdmin(ctx, "admin", "admin123"))
		require.NoError(t, seeder.EnsureAdmin(ctx, "admin", "admin123"))

		assert.Equal(t, 1, count(t, (*auth.User)(nil)))
		assert.Zero(t, count(t, (*student.Student)(nil)))
		assert.Zero(t, count(t, (*course.Course)(nil)))
		assert.Zero(t, count(t, (*enrollment.Enrollment)(nil)))
	})

	t.Run("Idempotent", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "enrollments", "students", "courses", "users")

		require.NoError(t, seeder.Run(ctx, "admin", "admin123"))
		require.NoError(t, seeder.Run(ctx, "admin", "admin123"))

		assert.Equal(t, 1, count(t, (*auth.User)(nil)))
		assert.Equal(t, 2, count(t, (*student.Student)(nil)))
		assert.Equal(t, 2, count(t, (*course.Course)(nil)))
		assert.Equal(t, 2, count(t, (*enrollment.Enrollment)(nil)))
	})
}
