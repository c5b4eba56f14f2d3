package repositories

import (
	"github.com/yigit/academia/internal/app/models"
)

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository   *EntityRepository[models.Student]
	ProfessorRepository *EntityRepository[models.Professor]
	EmployeeRepository  *EntityRepository[models.Employee]
}

// NewRepositories initializes all repositories. db is normally a *pgxpool.Pool.
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		StudentRepository:   NewEntityRepository(db, StudentDescriptor),
		ProfessorRepository: NewEntityRepository(db, ProfessorDescriptor),
		EmployeeRepository:  NewEntityRepository(db, EmployeeDescriptor),
	}
}
