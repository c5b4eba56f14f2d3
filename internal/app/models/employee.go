package models

// Employee defines the employee model based on the 'employees' table
type Employee struct {
	Person

	FileNumber *int         `json:"fileNumber" db:"file_number" validate:"required,gt=0,max=2147483647" example:"1042"` // Legajo, unique
	Position   string       `json:"position" db:"position" validate:"required,min=2,max=45" example:"Secretaria"`
	Kind       EmployeeKind `json:"kind" db:"kind" validate:"required,oneof=administrativo profesor otro" example:"administrativo"`
}
