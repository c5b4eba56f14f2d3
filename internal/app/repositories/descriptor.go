package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/academia/internal/pkg/apperrors"
)

// Columns every person table shares
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnDNI       = "dni"
	ColumnEmail     = "email"
	ColumnFirstName = "first_name"
	ColumnLastName  = "last_name"
)

var serverColumns = map[string]struct{}{
	ColumnID:        {},
	ColumnCreatedAt: {},
	ColumnUpdatedAt: {},
}

// MatchKind selects how a list filter compares its value.
type MatchKind int

const (
	// MatchEqual compares with =
	MatchEqual MatchKind = iota
	// MatchContains is a case-insensitive substring match (ILIKE)
	MatchContains
)

// Filter maps a list filter key onto one or more columns. With several
// columns the comparisons are ORed.
type Filter struct {
	Columns []string
	Match   MatchKind
}

// Column describes one persisted field of an entity.
type Column struct {
	Field string // JSON name
	Name  string // SQL column
	Type  reflect.Type
	Date  bool // DATE column carried as YYYY-MM-DD text
	UUID  bool

	index []int
}

// DescriptorConfig lists the per-table facts that struct tags can't carry.
type DescriptorConfig struct {
	Entity     string // singular name used in messages and logs
	Table      string
	Searchable []string          // JSON fields allowed in exact-match search
	Filters    map[string]Filter // list filter keys
}

// Descriptor tells the generic repository and service how a record type maps onto its table.
type Descriptor[T any] struct {
	Entity  string
	Table   string
	Filters map[string]Filter

	columns    []Column
	byField    map[string]Column
	byName     map[string]Column
	searchable map[string]struct{}
}

// NewDescriptor derives the column list of T from its `json`, `db` and
// `validate` tags, descending into embedded structs. It panics on a
// misconfigured descriptor since descriptors are package-level values.
func NewDescriptor[T any](cfg DescriptorConfig) *Descriptor[T] {
	d := &Descriptor[T]{
		Entity:     cfg.Entity,
		Table:      cfg.Table,
		Filters:    cfg.Filters,
		byField:    map[string]Column{},
		byName:     map[string]Column{},
		searchable: map[string]struct{}{},
	}

	var t T
	collectColumns(reflect.TypeOf(t), nil, &d.columns)
	for _, c := range d.columns {
		d.byField[c.Field] = c
		d.byName[c.Name] = c
	}

	for _, f := range cfg.Searchable {
		if _, ok := d.byField[f]; !ok {
			panic(fmt.Sprintf("repositories: %s descriptor: unknown searchable field %q", cfg.Entity, f))
		}
		d.searchable[f] = struct{}{}
	}
	for key, f := range cfg.Filters {
		for _, col := range f.Columns {
			if _, ok := d.byName[col]; !ok {
				panic(fmt.Sprintf("repositories: %s descriptor: filter %q uses unknown column %q", cfg.Entity, key, col))
			}
		}
	}

	return d
}

func collectColumns(t reflect.Type, parent []int, out *[]Column) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int{}, parent...), i)

		dbTag, hasDB := sf.Tag.Lookup("db")
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !hasDB {
			collectColumns(sf.Type, index, out)
			continue
		}
		if !sf.IsExported() || !hasDB || dbTag == "-" {
			continue
		}

		field, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if field == "" {
			field = sf.Name
		}
		rules := sf.Tag.Get("validate")

		typ := sf.Type
		if typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}

		*out = append(*out, Column{
			Field: field,
			Name:  dbTag,
			Type:  typ,
			Date:  strings.Contains(rules, "datetime="),
			UUID:  dbTag == ColumnID || strings.Contains(rules, "uuid"),
			index: index,
		})
	}
}

// Columns returns the persisted columns in declaration order.
func (d *Descriptor[T]) Columns() []Column {
	return d.columns
}

// Field looks up a column by its JSON name.
func (d *Descriptor[T]) Field(name string) (Column, bool) {
	c, ok := d.byField[name]
	return c, ok
}

// Mutable reports whether the column may appear in an UPDATE SET clause.
func (d *Descriptor[T]) Mutable(column string) bool {
	if _, ok := d.byName[column]; !ok {
		return false
	}
	_, server := serverColumns[column]
	return !server
}

// Searchable reports whether exact-match search is allowed on the JSON field.
func (d *Descriptor[T]) Searchable(field string) bool {
	_, ok := d.searchable[field]
	return ok
}

// SearchableFields returns the search allow-list, sorted.
func (d *Descriptor[T]) SearchableFields() []string {
	out := make([]string, 0, len(d.searchable))
	for f := range d.searchable {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// selectColumns renders the SELECT / RETURNING list. DATE columns come back as text.
func (d *Descriptor[T]) selectColumns() []string {
	out := make([]string, 0, len(d.columns))
	for _, c := range d.columns {
		if c.Date {
			out = append(out, fmt.Sprintf("to_char(%s, 'YYYY-MM-DD') AS %s", c.Name, c.Name))
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

func (d *Descriptor[T]) fieldValue(rec *T, c Column) reflect.Value {
	return reflect.ValueOf(rec).Elem().FieldByIndex(c.index)
}

// InsertValues returns column → value for every client or service supplied column.
func (d *Descriptor[T]) InsertValues(rec *T) map[string]interface{} {
	out := make(map[string]interface{}, len(d.columns))
	for _, c := range d.columns {
		if c.Name == ColumnCreatedAt || c.Name == ColumnUpdatedAt {
			continue
		}
		out[c.Name] = d.fieldValue(rec, c).Interface()
	}
	return out
}

// Changed returns column → new value for every mutable column whose value differs.
func (d *Descriptor[T]) Changed(before, after *T) map[string]interface{} {
	out := map[string]interface{}{}
	for _, c := range d.columns {
		if !d.Mutable(c.Name) {
			continue
		}
		a := d.fieldValue(before, c).Interface()
		b := d.fieldValue(after, c).Interface()
		if !reflect.DeepEqual(a, b) {
			out[c.Name] = b
		}
	}
	return out
}

// Decode copies the JSON values in input onto dst field by field. Keys
// absent from input leave dst untouched, so decoding a patch onto a copy of
// the stored record performs a shallow merge. Unknown and server-managed
// fields and type mismatches are collected into one ValidationError.
func (d *Descriptor[T]) Decode(input map[string]json.RawMessage, dst *T) error {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	verr := &apperrors.ValidationError{}
	for _, k := range keys {
		c, ok := d.byField[k]
		if !ok {
			verr.Fields = append(verr.Fields, apperrors.FieldError{
				Field: k, Rule: "unknown", Message: fmt.Sprintf("%s is not a %s field", k, d.Entity),
			})
			continue
		}
		if !d.Mutable(c.Name) {
			verr.Fields = append(verr.Fields, apperrors.FieldError{
				Field: k, Rule: "readonly", Message: fmt.Sprintf("%s is managed by the server", k),
			})
			continue
		}

		fv := d.fieldValue(dst, c)
		// Reset first so pointer fields get a fresh allocation instead of
		// writing through a pointer shared with another record.
		fv.Set(reflect.Zero(fv.Type()))
		if err := json.Unmarshal(input[k], fv.Addr().Interface()); err != nil {
			verr.Fields = append(verr.Fields, apperrors.FieldError{
				Field: k, Rule: "type", Message: fmt.Sprintf("%s has an invalid value: %s", k, typeMessage(err, c)),
			})
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func typeMessage(err error, c Column) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("expected %s, got %s", kindName(c.Type), typeErr.Value)
	}
	return err.Error()
}

func kindName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	}
	return "string"
}

// ParseValue converts a query-string value into the Go type of the field's column.
func (d *Descriptor[T]) ParseValue(field, raw string) (interface{}, error) {
	c, ok := d.byField[field]
	if !ok {
		return nil, apperrors.NewValidationError(field, "unknown", fmt.Sprintf("%s is not a %s field", field, d.Entity))
	}
	return parseColumnValue(c, raw)
}

func parseColumnValue(c Column, raw string) (interface{}, error) {
	switch {
	case c.UUID:
		if _, err := uuid.Parse(raw); err != nil {
			return nil, apperrors.NewValidationError(c.Field, "uuid", fmt.Sprintf("%s must be a valid UUID", c.Field))
		}
		return raw, nil
	case c.Type.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(c.Field, "type", fmt.Sprintf("%s must be an integer", c.Field))
		}
		return n, nil
	case c.Type.Kind() == reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperrors.NewValidationError(c.Field, "type", fmt.Sprintf("%s must be a number", c.Field))
		}
		return f, nil
	case c.Type.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(c.Field, "type", fmt.Sprintf("%s must be a boolean", c.Field))
		}
		return b, nil
	}
	return raw, nil
}

// ID returns the primary key stored in rec.
func (d *Descriptor[T]) ID(rec *T) string {
	return d.fieldValue(rec, d.byName[ColumnID]).String()
}

// SetID assigns the primary key of rec.
func (d *Descriptor[T]) SetID(rec *T, id string) {
	d.fieldValue(rec, d.byName[ColumnID]).SetString(id)
}

// StringValue returns a text column of rec, or "" for NULL.
func (d *Descriptor[T]) StringValue(rec *T, column string) string {
	v := d.fieldValue(rec, d.byName[column])
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	return v.String()
}
