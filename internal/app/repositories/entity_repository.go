package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/academia/internal/pkg/apperrors"
	"github.com/yigit/academia/internal/pkg/dberrors"
	"github.com/yigit/academia/internal/pkg/helpers"
	"github.com/yigit/academia/internal/pkg/logger"
)

// DBTX is the subset of *pgxpool.Pool the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EntityRepository handles database operations for one descriptor-mapped table
type EntityRepository[T any] struct {
	db DBTX
	sb squirrel.StatementBuilderType
	d  *Descriptor[T]
}

// NewEntityRepository creates a new EntityRepository
func NewEntityRepository[T any](db DBTX, d *Descriptor[T]) *EntityRepository[T] {
	return &EntityRepository[T]{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		d:  d,
	}
}

// Descriptor returns the table mapping this repository was built with.
func (r *EntityRepository[T]) Descriptor() *Descriptor[T] {
	return r.d
}

func (r *EntityRepository[T]) selectBuilder() squirrel.SelectBuilder {
	return r.sb.Select(r.d.selectColumns()...).From(r.d.Table)
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func containsAny(columns []string, value string) squirrel.Sqlizer {
	pattern := "%" + escapeLike(value) + "%"
	or := squirrel.Or{}
	for _, col := range columns {
		or = append(or, squirrel.ILike{col: pattern})
	}
	return or
}

func paginate(b squirrel.SelectBuilder, page, size int) squirrel.SelectBuilder {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return b.OrderBy(ColumnLastName, ColumnFirstName, ColumnID).Limit(limit).Offset(offset)
}

// listQuery builds the filtered, paginated SELECT. Keys with no declared
// filter and empty values are ignored.
func (r *EntityRepository[T]) listQuery(filter map[string]string, page, size int) (string, []interface{}, error) {
	b := r.selectBuilder()

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := strings.TrimSpace(filter[key])
		f, ok := r.d.Filters[key]
		if !ok || value == "" {
			continue
		}

		if f.Match == MatchContains {
			b = b.Where(containsAny(f.Columns, value))
			continue
		}

		eq := squirrel.Or{}
		for _, col := range f.Columns {
			v, err := parseColumnValue(r.d.byName[col], value)
			if err != nil {
				return "", nil, err
			}
			eq = append(eq, squirrel.Eq{col: v})
		}
		if len(eq) == 1 {
			b = b.Where(eq[0])
		} else {
			b = b.Where(eq)
		}
	}

	return paginate(b, page, size).ToSql()
}

func (r *EntityRepository[T]) updateQuery(id string, changed map[string]interface{}) (string, []interface{}, error) {
	set := make(map[string]interface{}, len(changed))
	for col, v := range changed {
		if r.d.Mutable(col) {
			set[col] = v
		}
	}
	if len(set) == 0 {
		return "", nil, apperrors.NewValidationError("", "empty", fmt.Sprintf("no updatable %s fields supplied", r.d.Entity))
	}
	set[ColumnUpdatedAt] = squirrel.Expr("NOW()")

	return r.sb.Update(r.d.Table).
		SetMap(set).
		Where(squirrel.Eq{ColumnID: id}).
		ToSql()
}

// queryRows runs a SELECT-like statement and collects every row into T.
func (r *EntityRepository[T]) queryRows(ctx context.Context, op, sql string, args []interface{}) ([]*T, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Str("op", op).Msg("Error executing query")
		return nil, apperrors.NewStorageError(r.d.Entity+" "+op, err)
	}

	recs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Str("op", op).Msg("Error scanning rows")
		return nil, apperrors.NewStorageError(r.d.Entity+" "+op, err)
	}
	if recs == nil {
		recs = []*T{}
	}
	return recs, nil
}

func (r *EntityRepository[T]) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*T, error) {
	sql, args, err := r.selectBuilder().Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Str("op", op).Msg("Error building SQL")
		return nil, fmt.Errorf("failed to build %s %s query: %w", r.d.Entity, op, err)
	}

	recs, err := r.queryRows(ctx, op, sql, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("%s not found", r.d.Entity))
	}
	return recs[0], nil
}

// List returns one page of records matching every provided filter.
func (r *EntityRepository[T]) List(ctx context.Context, filter map[string]string, page, size int) ([]*T, error) {
	sql, args, err := r.listQuery(filter, page, size)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidationFailed) {
			return nil, err
		}
		logger.Error().Err(err).Str("entity", r.d.Entity).Msg("Error building list SQL")
		return nil, fmt.Errorf("failed to build list %s query: %w", r.d.Entity, err)
	}
	return r.queryRows(ctx, "list", sql, args)
}

// GetByID retrieves a record by primary key
func (r *EntityRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	return r.getOne(ctx, "get by id", squirrel.Eq{ColumnID: id})
}

// GetByNaturalKey retrieves a record by national ID
func (r *EntityRepository[T]) GetByNaturalKey(ctx context.Context, dni string) (*T, error) {
	return r.getOne(ctx, "get by dni", squirrel.Eq{ColumnDNI: dni})
}

// GetByEmail retrieves a record by email
func (r *EntityRepository[T]) GetByEmail(ctx context.Context, email string) (*T, error) {
	return r.getOne(ctx, "get by email", squirrel.Eq{ColumnEmail: email})
}

// SearchByName returns records whose first or last name contains name, case-insensitively.
func (r *EntityRepository[T]) SearchByName(ctx context.Context, name string, page, size int) ([]*T, error) {
	b := r.selectBuilder().Where(containsAny([]string{ColumnFirstName, ColumnLastName}, name))
	sql, args, err := paginate(b, page, size).ToSql()
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Msg("Error building name search SQL")
		return nil, fmt.Errorf("failed to build %s name search query: %w", r.d.Entity, err)
	}
	return r.queryRows(ctx, "search by name", sql, args)
}

// FindBy returns records whose field (JSON name) equals value exactly.
func (r *EntityRepository[T]) FindBy(ctx context.Context, field string, value interface{}, page, size int) ([]*T, error) {
	c, ok := r.d.Field(field)
	if !ok {
		return nil, apperrors.NewValidationError(field, "unknown", fmt.Sprintf("%s is not a %s field", field, r.d.Entity))
	}

	b := r.selectBuilder().Where(squirrel.Eq{c.Name: value})
	sql, args, err := paginate(b, page, size).ToSql()
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Str("field", field).Msg("Error building find SQL")
		return nil, fmt.Errorf("failed to build %s find query: %w", r.d.Entity, err)
	}
	return r.queryRows(ctx, "find by "+field, sql, args)
}

// asConflict turns a unique violation into ErrConflict naming the offending
// column. It returns nil for any other error.
func (r *EntityRepository[T]) asConflict(err error) error {
	constraint, ok := dberrors.UniqueViolation(err)
	if !ok {
		return nil
	}
	col := strings.TrimSuffix(strings.TrimPrefix(constraint, r.d.Table+"_"), "_key")
	field := col
	if c, found := r.d.byName[col]; found {
		field = c.Field
	}
	logger.Warn().Str("entity", r.d.Entity).Str("constraint", constraint).Msg("Unique constraint violated")
	return apperrors.NewConflictError(fmt.Sprintf("%s with this %s already exists", r.d.Entity, field))
}

// Insert stores rec and returns the row as persisted.
func (r *EntityRepository[T]) Insert(ctx context.Context, rec *T) (*T, error) {
	sql, args, err := r.sb.Insert(r.d.Table).
		SetMap(r.d.InsertValues(rec)).
		Suffix("RETURNING " + strings.Join(r.d.selectColumns(), ", ")).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Msg("Error building insert SQL")
		return nil, fmt.Errorf("failed to build create %s query: %w", r.d.Entity, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err == nil {
		var created *T
		created, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
		if err == nil {
			logger.Info().Str("entity", r.d.Entity).Msg("Record created successfully")
			return created, nil
		}
	}

	if cerr := r.asConflict(err); cerr != nil {
		return nil, cerr
	}
	logger.Error().Err(err).Str("entity", r.d.Entity).Msg("Error executing insert query")
	return nil, apperrors.NewStorageError("create "+r.d.Entity, err)
}

// UpdatePartial writes only the given columns, then re-reads the row.
func (r *EntityRepository[T]) UpdatePartial(ctx context.Context, id string, changed map[string]interface{}) (*T, error) {
	sql, args, err := r.updateQuery(id, changed)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidationFailed) {
			return nil, err
		}
		logger.Error().Err(err).Str("entity", r.d.Entity).Msg("Error building update SQL")
		return nil, fmt.Errorf("failed to build update %s query: %w", r.d.Entity, err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		if cerr := r.asConflict(err); cerr != nil {
			return nil, cerr
		}
		logger.Error().Err(err).Str("entity", r.d.Entity).Str("id", id).Msg("Error executing update query")
		return nil, apperrors.NewStorageError("update "+r.d.Entity, err)
	}

	updated, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			logger.Error().Str("entity", r.d.Entity).Str("id", id).Msg("Record missing after update")
			return nil, fmt.Errorf("%s %s: %w", r.d.Entity, id, apperrors.ErrConsistency)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the row and reports whether one existed.
func (r *EntityRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	sql, args, err := r.sb.Delete(r.d.Table).Where(squirrel.Eq{ColumnID: id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Msg("Error building delete SQL")
		return false, fmt.Errorf("failed to build delete %s query: %w", r.d.Entity, err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("entity", r.d.Entity).Str("id", id).Msg("Error executing delete query")
		return false, apperrors.NewStorageError("delete "+r.d.Entity, err)
	}
	return tag.RowsAffected() > 0, nil
}
