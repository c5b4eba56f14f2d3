package repositories

import "github.com/yigit/academia/internal/app/models"

// nameFilter matches either first or last name.
var nameFilter = Filter{Columns: []string{ColumnFirstName, ColumnLastName}, Match: MatchContains}

// Descriptors for the tables served by the API
var (
	StudentDescriptor = NewDescriptor[models.Student](DescriptorConfig{
		Entity:     "student",
		Table:      "students",
		Searchable: []string{"dni", "email", "firstName", "lastName", "careerId", "facultyId", "academicStatus"},
		Filters: map[string]Filter{
			"name":    nameFilter,
			"career":  {Columns: []string{"career_id"}, Match: MatchEqual},
			"faculty": {Columns: []string{"faculty_id"}, Match: MatchEqual},
			"subject": {Columns: []string{"subjects_passed"}, Match: MatchEqual},
		},
	})

	ProfessorDescriptor = NewDescriptor[models.Professor](DescriptorConfig{
		Entity:     "professor",
		Table:      "professors",
		Searchable: []string{"dni", "email", "firstName", "lastName", "fileNumber", "title", "department"},
		Filters: map[string]Filter{
			"name":    nameFilter,
			"faculty": {Columns: []string{"department"}, Match: MatchContains},
			"subject": {Columns: []string{"title"}, Match: MatchContains},
		},
	})

	EmployeeDescriptor = NewDescriptor[models.Employee](DescriptorConfig{
		Entity:     "employee",
		Table:      "employees",
		Searchable: []string{"dni", "email", "firstName", "lastName", "fileNumber", "position", "kind"},
		Filters: map[string]Filter{
			"name": nameFilter,
			"kind": {Columns: []string{"kind"}, Match: MatchEqual},
		},
	})
)
