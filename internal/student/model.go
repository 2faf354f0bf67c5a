package student

import "github.com/uptrace/bun"

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID         int    `bun:"id,pk,autoincrement" json:"id"`
	Name       string `bun:"name,notnull" json:"name"`
	Email      string `bun:"email,unique,notnull" json:"email"`
	Department string `bun:"department,notnull" json:"department"`
}

// StudentRequest is the body of POST /students and PUT /students/{id}.
// PUT replaces every field.
type StudentRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,max=255"`
	Department string `json:"department" validate:"required,max=255"`
}

// ListFilter narrows GET /students. Empty fields are ignored.
type ListFilter struct {
	Department string
	Name       string
}

func (r StudentRequest) toStudent(id int) *Student {
	return &Student{
		ID:         id,
		Name:       r.Name,
		Email:      r.Email,
		Department: r.Department,
	}
}
