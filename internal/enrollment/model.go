package enrollment

import "github.com/uptrace/bun"

// Enrollment links a student to a course in one semester.
// The (student_id, course_id, semester) triple is unique.
type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments,alias:e"`

	ID        int    `bun:"id,pk,autoincrement" json:"id"`
	StudentID int    `bun:"student_id,notnull,unique:student_course_semester" json:"student_id"`
	CourseID  int    `bun:"course_id,notnull,unique:student_course_semester" json:"course_id"`
	Semester  string `bun:"semester,notnull,unique:student_course_semester" json:"semester"`
}

// ForeignKeys deletes enrollments together with their student or course.
func (*Enrollment) ForeignKeys() []string {
	return []string{
		`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
		`("course_id") REFERENCES "courses" ("id") ON DELETE CASCADE`,
	}
}

type EnrollmentRequest struct {
	StudentID int    `json:"student_id" validate:"required,min=1"`
	CourseID  int    `json:"course_id" validate:"required,min=1"`
	Semester  string `json:"semester" validate:"required,max=64"`
}

type ListFilter struct {
	Semester string
}
