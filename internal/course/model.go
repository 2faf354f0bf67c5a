package course

import "github.com/uptrace/bun"

type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID      int    `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull" json:"name"`
	Code    string `bun:"code,unique,notnull" json:"code"`
	Credits int    `bun:"credits,notnull" json:"credits"`
}

type CourseRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Code    string `json:"code" validate:"required,max=32"`
	Credits int    `json:"credits" validate:"required,min=1"`
}

type ListFilter struct {
	Code string
}

func (r CourseRequest) toCourse(id int) *Course {
	return &Course{
		ID:      id,
		Name:    r.Name,
		Code:    r.Code,
		Credits: r.Credits,
	}
}
