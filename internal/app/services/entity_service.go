package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/academia/internal/app/repositories"
	"github.com/yigit/academia/internal/pkg/apperrors"
	"github.com/yigit/academia/internal/pkg/logger"
	"github.com/yigit/academia/internal/pkg/validation"
)

// Input is a decoded JSON object keyed by field name.
type Input = map[string]json.RawMessage

// Store is the persistence the entity service needs. *repositories.EntityRepository implements it.
type Store[T any] interface {
	List(ctx context.Context, filter map[string]string, page, size int) ([]*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	GetByNaturalKey(ctx context.Context, dni string) (*T, error)
	GetByEmail(ctx context.Context, email string) (*T, error)
	SearchByName(ctx context.Context, name string, page, size int) ([]*T, error)
	FindBy(ctx context.Context, field string, value interface{}, page, size int) ([]*T, error)
	Insert(ctx context.Context, rec *T) (*T, error)
	UpdatePartial(ctx context.Context, id string, changed map[string]interface{}) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EntityService implements create/read/update/delete/search for one record type
type EntityService[T any] struct {
	store     Store[T]
	d         *repositories.Descriptor[T]
	validator *validation.Validator
}

// NewEntityService creates a new entity service instance
func NewEntityService[T any](store Store[T], d *repositories.Descriptor[T], v *validation.Validator) *EntityService[T] {
	return &EntityService[T]{
		store:     store,
		d:         d,
		validator: v,
	}
}

func (s *EntityService[T]) wrap(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", s.d.Entity, op, err)
}

func (s *EntityService[T]) notFound(op string) error {
	return s.wrap(op, apperrors.NewResourceNotFoundError(fmt.Sprintf("%s not found", s.d.Entity)))
}

// ensureUnique rejects rec when another record already holds its dni or email.
// selfID is the record being updated, empty on create.
func (s *EntityService[T]) ensureUnique(ctx context.Context, rec *T, selfID string, columns ...string) error {
	for _, col := range columns {
		value := s.d.StringValue(rec, col)

		var (
			other *T
			err   error
		)
		switch col {
		case repositories.ColumnDNI:
			other, err = s.store.GetByNaturalKey(ctx, value)
		case repositories.ColumnEmail:
			other, err = s.store.GetByEmail(ctx, value)
		default:
			continue
		}

		if errors.Is(err, apperrors.ErrResourceNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if s.d.ID(other) != selfID {
			logger.Warn().Str("entity", s.d.Entity).Str("column", col).Msg("Uniqueness check failed")
			return apperrors.NewConflictError(fmt.Sprintf("%s with this %s already exists", s.d.Entity, col))
		}
	}
	return nil
}

// Create validates input in full, assigns a new id and stores the record.
func (s *EntityService[T]) Create(ctx context.Context, input Input) (*T, error) {
	var rec T
	if err := s.d.Decode(input, &rec); err != nil {
		return nil, s.wrap("create", err)
	}
	if err := s.validator.Full(&rec); err != nil {
		return nil, s.wrap("create", err)
	}

	s.d.SetID(&rec, uuid.NewString())

	if err := s.ensureUnique(ctx, &rec, "", repositories.ColumnDNI, repositories.ColumnEmail); err != nil {
		return nil, s.wrap("create", err)
	}

	created, err := s.store.Insert(ctx, &rec)
	if err != nil {
		return nil, s.wrap("create", err)
	}

	logger.Info().Str("entity", s.d.Entity).Str("id", s.d.ID(created)).Msg("Record created")
	return created, nil
}

// Update applies a partial patch: the patch is validated on its own, merged
// over the stored record, the result validated in full, and only the columns
// that actually changed are written.
func (s *EntityService[T]) Update(ctx context.Context, id string, patch Input) (*T, error) {
	if !validID(id) {
		return nil, s.notFound("update")
	}

	var partial T
	if err := s.d.Decode(patch, &partial); err != nil {
		return nil, s.wrap("update", err)
	}
	present := make([]string, 0, len(patch))
	for k := range patch {
		present = append(present, k)
	}
	if err := s.validator.Partial(&partial, present); err != nil {
		return nil, s.wrap("update", err)
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("update", err)
	}

	merged := *existing
	if err := s.d.Decode(patch, &merged); err != nil {
		return nil, s.wrap("update", err)
	}
	if err := s.validator.Full(&merged); err != nil {
		return nil, s.wrap("update", err)
	}

	changed := s.d.Changed(existing, &merged)
	if len(changed) == 0 {
		return existing, nil
	}

	var keys []string
	for _, col := range []string{repositories.ColumnDNI, repositories.ColumnEmail} {
		if _, ok := changed[col]; ok {
			keys = append(keys, col)
		}
	}
	if err := s.ensureUnique(ctx, &merged, id, keys...); err != nil {
		return nil, s.wrap("update", err)
	}

	updated, err := s.store.UpdatePartial(ctx, id, changed)
	if err != nil {
		return nil, s.wrap("update", err)
	}

	cols := make([]string, 0, len(changed))
	for col := range changed {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	logger.Info().Str("entity", s.d.Entity).Str("id", id).Strs("columns", cols).Msg("Record updated")
	return updated, nil
}

// Delete removes the record. Deleting a missing record reports false, not an error.
func (s *EntityService[T]) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, s.wrap("delete", err)
	}
	if removed {
		logger.Info().Str("entity", s.d.Entity).Str("id", id).Msg("Record deleted")
	}
	return removed, nil
}

// Search returns records whose field equals value. Only allow-listed fields can be searched.
func (s *EntityService[T]) Search(ctx context.Context, field, value string, page, size int) ([]*T, error) {
	if !s.d.Searchable(field) {
		return nil, s.wrap("search", apperrors.NewValidationError(field, "searchable",
			fmt.Sprintf("field must be one of [%s]", strings.Join(s.d.SearchableFields(), " "))))
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, s.wrap("search", apperrors.NewValidationError("value", "required", "value is required"))
	}
	if field == "dni" {
		value = validation.NormalizeDNI(value)
	}

	v, err := s.d.ParseValue(field, value)
	if err != nil {
		return nil, s.wrap("search", err)
	}

	recs, err := s.store.FindBy(ctx, field, v, page, size)
	if err != nil {
		return nil, s.wrap("search", err)
	}
	return recs, nil
}

// List returns one page of records matching the filter.
func (s *EntityService[T]) List(ctx context.Context, filter map[string]string, page, size int) ([]*T, error) {
	recs, err := s.store.List(ctx, filter, page, size)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	return recs, nil
}

// GetByID retrieves a record by id. Malformed ids are reported as not found.
func (s *EntityService[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if !validID(id) {
		return nil, s.notFound("get")
	}
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("get", err)
	}
	return rec, nil
}

// GetByEmail retrieves a record by email
func (s *EntityService[T]) GetByEmail(ctx context.Context, email string) (*T, error) {
	rec, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, s.wrap("get by email", err)
	}
	return rec, nil
}

// GetByDNI retrieves a record by national ID, normalized the same way as on write.
func (s *EntityService[T]) GetByDNI(ctx context.Context, dni string) (*T, error) {
	rec, err := s.store.GetByNaturalKey(ctx, validation.NormalizeDNI(dni))
	if err != nil {
		return nil, s.wrap("get by dni", err)
	}
	return rec, nil
}

// GetByName lists records whose first or last name contains name.
func (s *EntityService[T]) GetByName(ctx context.Context, name string, page, size int) ([]*T, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, s.wrap("get by name", apperrors.NewValidationError("name", "required", "name is required"))
	}
	recs, err := s.store.SearchByName(ctx, name, page, size)
	if err != nil {
		return nil, s.wrap("get by name", err)
	}
	return recs, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
