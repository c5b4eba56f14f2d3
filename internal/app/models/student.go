package models

// Student defines the student model based on the 'students' table
type Student struct {
	Person

	Credits        *int           `json:"credits" db:"credits" validate:"required,min=0,max=2147483647" example:"120"`     // Accumulated credits
	Average        *float64       `json:"average" db:"average" validate:"required,min=0,max=10,decimals=2" example:"8.25"` // Grade average, 0..10
	CareerID       string         `json:"careerId" db:"career_id" validate:"required,uuid" example:"7d1c3c0e-1f1e-4a55-8f8f-3c2f7a0e9b21"`
	FacultyID      *string        `json:"facultyId" db:"faculty_id" validate:"omitempty,uuid"` // Nullable
	SubjectsPassed *int           `json:"subjectsPassed" db:"subjects_passed" validate:"required,min=0,max=2147483647" example:"14"`
	EnrollmentDate string         `json:"enrollmentDate" db:"enrollment_date" validate:"required,datetime=2006-01-02,notfuture" example:"2019-03-01"`
	AcademicStatus AcademicStatus `json:"academicStatus" db:"academic_status" validate:"required,oneof=ACTIVO EGRESADO REGULAR LIBRE" example:"ACTIVO"`
	Scholarship    Flag           `json:"scholarship" db:"scholarship" example:"false"`
}
