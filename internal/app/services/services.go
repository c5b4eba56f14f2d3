package services

import (
	"github.com/yigit/academia/internal/app/models"
	"github.com/yigit/academia/internal/app/repositories"
	"github.com/yigit/academia/internal/pkg/validation"
)

// Services defined in this package, one EntityService per table:
// - Students
// - Professors
// - Employees
type Services struct {
	Students   *EntityService[models.Student]
	Professors *EntityService[models.Professor]
	Employees  *EntityService[models.Employee]
}

// NewServices wires a service over each repository
func NewServices(repos *repositories.Repositories, v *validation.Validator) *Services {
	return &Services{
		Students:   NewEntityService[models.Student](repos.StudentRepository, repositories.StudentDescriptor, v),
		Professors: NewEntityService[models.Professor](repos.ProfessorRepository, repositories.ProfessorDescriptor, v),
		Employees:  NewEntityService[models.Employee](repos.EmployeeRepository, repositories.EmployeeDescriptor, v),
	}
}
