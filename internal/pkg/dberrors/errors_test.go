package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "students_dni_key"}

	name, ok := UniqueViolation(fmt.Errorf("insert: %w", dup))
	assert.True(t, ok)
	assert.Equal(t, "students_dni_key", name)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("connection refused"))
	assert.False(t, ok)
}
