package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/academia/internal/app/models"
	"github.com/yigit/academia/internal/app/repositories"
	"github.com/yigit/academia/internal/pkg/apperrors"
	"github.com/yigit/academia/internal/pkg/validation"
)

const studentJSON = `{
	"firstName": "Ana",
	"lastName": "García",
	"birthDate": "2000-01-01",
	"dni": "12345678",
	"email": "a@x.com",
	"phone": "3794123456",
	"address": "Junín 1234",
	"gender": "F",
	"credits": 120,
	"average": 8.25,
	"careerId": "7d1c3c0e-1f1e-4a55-8f8f-3c2f7a0e9b21",
	"subjectsPassed": 14,
	"enrollmentDate": "2019-03-01",
	"academicStatus": "ACTIVO",
	"scholarship": "1"
}`

func input(t *testing.T, s string) Input {
	t.Helper()
	var in Input
	require.NoError(t, json.Unmarshal([]byte(s), &in))
	return in
}

func withFields(t *testing.T, base string, fields map[string]interface{}) Input {
	t.Helper()
	in := input(t, base)
	for k, v := range fields {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		in[k] = raw
	}
	return in
}

func newStudentService() (*EntityService[models.Student], *memStore[models.Student]) {
	store := newMemStore(repositories.StudentDescriptor)
	v := validation.New(validation.WithClock(func() time.Time {
		return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	}))
	return NewEntityService[models.Student](store, repositories.StudentDescriptor, v), store
}

func requireValidation(t *testing.T, err error) *apperrors.ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr), "expected a ValidationError, got %v", err)
	return verr
}

func TestCreateThenGetByID(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)
	assert.True(t, bool(created.Scholarship))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateNormalizesDNI(t *testing.T) {
	svc, _ := newStudentService()

	created, err := svc.Create(context.Background(), withFields(t, studentJSON, map[string]interface{}{"dni": "12-345-678"}))
	require.NoError(t, err)
	assert.Equal(t, "12345678", created.DNI)

	got, err := svc.GetByDNI(context.Background(), "12.345.678")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	svc, store := newStudentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	_, err = svc.Create(ctx, withFields(t, studentJSON, map[string]interface{}{"email": "other@x.com"}))
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = svc.Create(ctx, withFields(t, studentJSON, map[string]interface{}{"dni": "87654321"}))
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "student")

	assert.Equal(t, 1, store.inserts)
}

func TestConcurrentCreatesWithSameDNI(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	inputs := []Input{input(t, studentJSON), input(t, studentJSON)}
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, inputs[i])
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, store := newStudentService()

	verr := requireValidation(t, createErr(t, svc, withFields(t, studentJSON, map[string]interface{}{
		"firstName": "A",
		"birthDate": "2999-01-01",
		"average":   11,
	})))
	assert.True(t, verr.Has("firstName"))
	assert.True(t, verr.Has("birthDate"))
	assert.True(t, verr.Has("average"))

	verr = requireValidation(t, createErr(t, svc, withFields(t, studentJSON, map[string]interface{}{"personId": uuid.NewString()})))
	assert.True(t, verr.Has("personId"))

	in := input(t, studentJSON)
	delete(in, "dni")
	verr = requireValidation(t, createErr(t, svc, in))
	assert.True(t, verr.Has("dni"))

	assert.Zero(t, store.inserts)
}

func createErr[T any](t *testing.T, svc *EntityService[T], in Input) error {
	t.Helper()
	_, err := svc.Create(context.Background(), in)
	return err
}

func TestUpdateEmptyPatchIsNoop(t *testing.T) {
	svc, store := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Input{})
	require.NoError(t, err)
	assert.Equal(t, created, updated)
	assert.Zero(t, store.updates)

	// Re-sending unchanged values is a no-op as well
	updated, err = svc.Update(ctx, created.ID, withFields(t, `{}`, map[string]interface{}{"email": "a@x.com"}))
	require.NoError(t, err)
	assert.Equal(t, created, updated)
	assert.Zero(t, store.updates)
}

func TestUpdateOnlyEmail(t *testing.T) {
	svc, store := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, withFields(t, `{}`, map[string]interface{}{"email": "b@x.com"}))
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", updated.Email)
	assert.Equal(t, map[string]interface{}{"email": "b@x.com"}, store.lastChanged)

	updated.Email = created.Email
	assert.Equal(t, created, updated)
}

func TestUpdateFutureBirthDateDoesNotWrite(t *testing.T) {
	svc, store := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, withFields(t, `{}`, map[string]interface{}{"birthDate": "2999-01-01"}))
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("birthDate"))
	assert.Zero(t, store.updates)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", got.BirthDate)
}

func TestUpdateRejectsServerFields(t *testing.T) {
	svc, store := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, withFields(t, `{}`, map[string]interface{}{"personId": uuid.NewString()}))
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("personId"))
	assert.Zero(t, store.updates)
}

func TestUpdateToTakenDNIIsConflict(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)
	second, err := svc.Create(ctx, withFields(t, studentJSON, map[string]interface{}{"dni": "87654321", "email": "b@x.com"}))
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, withFields(t, `{}`, map[string]interface{}{"dni": "12345678"}))
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestUpdateMissingRecord(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	_, err := svc.Update(ctx, uuid.NewString(), withFields(t, `{}`, map[string]interface{}{"email": "b@x.com"}))
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	_, err = svc.Update(ctx, "not-a-uuid", Input{})
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = svc.Delete(ctx, "garbage")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestSearch(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)

	found, err := svc.Search(ctx, "dni", "12-345-678", 0, 15)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	found, err = svc.Search(ctx, "email", "nobody@x.com", 0, 15)
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.Search(ctx, "address", "Junín 1234", 0, 15)
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("address"))

	_, err = svc.Search(ctx, "careerId", "not-a-uuid", 0, 15)
	requireValidation(t, err)

	_, err = svc.Search(ctx, "email", "  ", 0, 15)
	requireValidation(t, err)
}

func TestGetByNameAndList(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, input(t, studentJSON))
	require.NoError(t, err)
	_, err = svc.Create(ctx, withFields(t, studentJSON, map[string]interface{}{
		"dni": "87654321", "email": "b@x.com", "firstName": "Bruno",
	}))
	require.NoError(t, err)

	byName, err := svc.GetByName(ctx, "bru", 0, 15)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Bruno", byName[0].FirstName)

	_, err = svc.GetByName(ctx, " ", 0, 15)
	requireValidation(t, err)

	all, err := svc.List(ctx, nil, 0, 15)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	second, err := svc.List(ctx, nil, 1, 1)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	svc, store := newStudentService()
	store.failWith = apperrors.NewStorageError("list", errors.New("connection refused"))

	_, err := svc.List(context.Background(), nil, 0, 15)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
	assert.False(t, errors.Is(err, apperrors.ErrResourceNotFound))
	assert.Contains(t, err.Error(), "student: list")

	_, err = svc.GetByID(context.Background(), uuid.NewString())
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
}

func TestProfessorServiceUsesEmployeeRules(t *testing.T) {
	store := newMemStore(repositories.ProfessorDescriptor)
	svc := NewEntityService[models.Professor](store, repositories.ProfessorDescriptor, validation.New())

	in := withFields(t, `{}`, map[string]interface{}{
		"firstName": "Luis", "lastName": "Pérez", "birthDate": "1970-05-20", "dni": "20111222",
		"email": "luis@x.com", "phone": "3794000111", "address": "San Martín 55", "gender": "M",
		"fileNumber": 1042, "position": "Docente", "kind": "profesor",
		"title": "Dr.", "department": "Exactas",
	})

	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1042, *created.FileNumber)

	in["fileNumber"] = json.RawMessage(`"x"`)
	in["dni"] = json.RawMessage(`"20111223"`)
	in["email"] = json.RawMessage(`"luis2@x.com"`)
	_, err = svc.Create(context.Background(), in)
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("fileNumber"))
}
