package models

// Professor is an employee with an academic title and department ('professors' table)
type Professor struct {
	Employee

	Title      string `json:"title" db:"title" validate:"required,min=1,max=100" example:"Dr. en Física"`
	Department string `json:"department" db:"department" validate:"required,min=1,max=100" example:"Ciencias Exactas"`
}
