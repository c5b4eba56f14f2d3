package models

// Gender values accepted for a person
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "Otro"
)

// AcademicStatus is the enrollment state of a student
type AcademicStatus string

const (
	StatusActive    AcademicStatus = "ACTIVO"
	StatusGraduated AcademicStatus = "EGRESADO"
	StatusRegular   AcademicStatus = "REGULAR"
	StatusFree      AcademicStatus = "LIBRE"
)

// EmployeeKind classifies employees
type EmployeeKind string

const (
	KindAdministrative EmployeeKind = "administrativo"
	KindProfessor      EmployeeKind = "profesor"
	KindOther          EmployeeKind = "otro"
)
