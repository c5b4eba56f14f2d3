package repositories

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/academia/internal/app/models"
	"github.com/yigit/academia/internal/pkg/apperrors"
)

const careerID = "7d1c3c0e-1f1e-4a55-8f8f-3c2f7a0e9b21"

func studentRepo() *EntityRepository[models.Student] {
	return NewEntityRepository[models.Student](nil, StudentDescriptor)
}

func TestSelectRendersDatesAsText(t *testing.T) {
	sql, _, err := studentRepo().selectBuilder().ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT id, first_name, last_name, to_char(birth_date, 'YYYY-MM-DD') AS birth_date, dni,")
	assert.Contains(t, sql, "to_char(enrollment_date, 'YYYY-MM-DD') AS enrollment_date")
	assert.Contains(t, sql, "FROM students")
}

func TestListQueryFiltersAndPaginates(t *testing.T) {
	sql, args, err := studentRepo().listQuery(map[string]string{
		"name":    "ana",
		"career":  careerID,
		"unknown": "ignored",
		"faculty": "",
	}, 1, 15)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE career_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $3)")
	assert.Contains(t, sql, "ORDER BY last_name, first_name, id LIMIT 15 OFFSET 15")
	assert.Equal(t, []interface{}{careerID, "%ana%", "%ana%"}, args)
}

func TestListQueryDefaults(t *testing.T) {
	sql, args, err := studentRepo().listQuery(nil, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "LIMIT 15 OFFSET 0")
	assert.Empty(t, args)
}

func TestListQueryRejectsMalformedFilter(t *testing.T) {
	_, _, err := studentRepo().listQuery(map[string]string{"subject": "many"}, 0, 15)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, _, err = studentRepo().listQuery(map[string]string{"career": "abc"}, 0, 15)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestListQueryEscapesWildcards(t *testing.T) {
	_, args, err := studentRepo().listQuery(map[string]string{"name": "50%_off"}, 0, 15)
	require.NoError(t, err)
	assert.Equal(t, `%50\%\_off%`, args[0])
}

func TestUpdateQuerySetsOnlyChangedColumns(t *testing.T) {
	sql, args, err := studentRepo().updateQuery("id-1", map[string]interface{}{
		"email": "b@x.com",
		"id":    "hijack",
	})
	require.NoError(t, err)

	assert.Equal(t, "UPDATE students SET email = $1, updated_at = NOW() WHERE id = $2", sql)
	assert.Equal(t, []interface{}{"b@x.com", "id-1"}, args)
}

func TestUpdateQueryWithoutFields(t *testing.T) {
	_, _, err := studentRepo().updateQuery("id-1", map[string]interface{}{"created_at": "x"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}
