package models

import (
	"strings"
	"time"

	"github.com/yigit/academia/internal/pkg/validation"
)

// Person holds the fields shared by every record kept by the API.
// Dates travel as YYYY-MM-DD strings in both JSON and SQL.
type Person struct {
	ID         string    `json:"personId" db:"id" example:"0b6f8a52-6f43-4c53-9a8e-0f3d2b9a1c11"` // Server generated
	FirstName  string    `json:"firstName" db:"first_name" validate:"required,min=2,max=45" example:"Ana"`
	LastName   string    `json:"lastName" db:"last_name" validate:"required,min=2,max=45" example:"García"`
	BirthDate  string    `json:"birthDate" db:"birth_date" validate:"required,datetime=2006-01-02,notfuture" example:"2000-01-01"`
	DNI        string    `json:"dni" db:"dni" validate:"required,dni" example:"12345678"`                     // National ID, unique
	Email      string    `json:"email" db:"email" validate:"required,email,max=80" example:"ana@example.com"` // Unique
	Phone      string    `json:"phone" db:"phone" validate:"required,phone" example:"3794123456"`
	Address    string    `json:"address" db:"address" validate:"required,min=5,max=100" example:"Junín 1234"`
	AltPhone   *string   `json:"altPhone" db:"alt_phone" validate:"omitempty,phone"` // Nullable
	Gender     Gender    `json:"gender" db:"gender" validate:"required,oneof=M F Otro" example:"F"`
	Disability *string   `json:"disability" db:"disability" validate:"omitempty,max=100"`   // Nullable
	PhotoURL   *string   `json:"photoUrl" db:"photo_url" validate:"omitempty,url,max=2083"` // Nullable
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`                                 // DB managed
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`                                 // DB managed
}

// Normalize trims names and strips separators from the DNI.
func (p *Person) Normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.DNI = validation.NormalizeDNI(p.DNI)
}
