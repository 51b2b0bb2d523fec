package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Column is the physical side of a logical field: either present under a
// name, or absent (the zero value).
type Column struct {
	name string
}

func (c Column) Present() bool { return c.name != "" }

func (c Column) Name() string { return c.name }

// ConfigError reports a schema that cannot serve an operation at all.
// Unlike a catalog read failure it does not go away on retry.
type ConfigError struct {
	Table   string
	Missing []Field
}

func (e *ConfigError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s table missing required columns: %s", e.Table, strings.Join(names, ", "))
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ErrNothingToWrite is returned when none of the assigned fields exist.
var ErrNothingToWrite = errors.New("no writable columns")

// Mapping resolves logical users fields to physical columns. It is
// immutable once built; re-resolution builds a new one.
type Mapping struct {
	table string
	cols  map[Field]Column
}

// Build resolves each logical field to the first synonym present in physical.
// Matching ignores case; the physical spelling is kept.
func Build(table string, physical []string) *Mapping {
	byLower := make(map[string]string, len(physical))
	for _, name := range physical {
		lower := strings.ToLower(name)
		if _, seen := byLower[lower]; !seen {
			byLower[lower] = name
		}
	}

	m := &Mapping{table: table, cols: make(map[Field]Column, len(usersFields))}
	for _, spec := range usersFields {
		var col Column
		for _, candidate := range spec.synonyms {
			if name, ok := byLower[candidate]; ok {
				col = Column{name: name}
				break
			}
		}
		m.cols[spec.field] = col
	}
	return m
}

func (m *Mapping) Table() string { return m.table }

func (m *Mapping) Column(f Field) Column { return m.cols[f] }

func (m *Mapping) Has(f Field) bool { return m.cols[f].Present() }

// Require fails with a ConfigError listing every absent field.
func (m *Mapping) Require(fields ...Field) error {
	var missing []Field
	for _, f := range fields {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Table: m.table, Missing: missing}
	}
	return nil
}

func quote(name string) string { return pq.QuoteIdentifier(name) }

func (m *Mapping) quotedTable() string { return quote(m.table) }

// SelectList projects every non-secret logical field under its logical
// name. Absent columns become typed literals so the row shape never varies.
func (m *Mapping) SelectList() string {
	parts := make([]string, 0, len(usersFields))
	for _, spec := range usersFields {
		if spec.secret {
			continue
		}
		parts = append(parts, m.projection(spec))
	}
	return strings.Join(parts, ", ")
}

func (m *Mapping) projection(spec fieldSpec) string {
	alias := quote(string(spec.field))
	if col := m.cols[spec.field]; col.Present() {
		return quote(col.name) + " AS " + alias
	}
	if spec.fallback != "" {
		return spec.fallback + " AS " + alias
	}
	return "CAST(NULL AS " + spec.kind.sqlType() + ") AS " + alias
}

// Assignment is a value destined for a logical field.
type Assignment struct {
	Field Field
	Value interface{}
}

// writable keeps the assignments whose column exists, in order.
func (m *Mapping) writable(values []Assignment) ([]string, []interface{}) {
	cols := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values))
	for _, a := range values {
		col := m.cols[a.Field]
		if !col.Present() {
			continue
		}
		cols = append(cols, quote(col.name))
		args = append(args, a.Value)
	}
	return cols, args
}

// SelectAll lists every row, newest id first.
func (m *Mapping) SelectAll() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC",
		m.SelectList(), m.quotedTable(), quote(m.cols[ID].name))
}

// SelectBy reads rows whose field equals a single bind variable. With
// withSecret the password hash is appended as password_hash.
func (m *Mapping) SelectBy(f Field, withSecret bool) (string, error) {
	if err := m.Require(f); err != nil {
		return "", err
	}
	list := m.SelectList()
	if withSecret {
		if err := m.Require(PasswordHash); err != nil {
			return "", err
		}
		list += ", " + quote(m.cols[PasswordHash].name) + " AS " + quote(string(PasswordHash))
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		list, m.quotedTable(), quote(m.cols[f].name)), nil
}

// Insert builds an INSERT of the present columns returning the projection.
// Assignments to absent columns are dropped.
func (m *Mapping) Insert(values []Assignment) (string, []interface{}, error) {
	cols, args := m.writable(values)
	if len(cols) == 0 {
		return "", nil, ErrNothingToWrite
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		m.quotedTable(), strings.Join(cols, ", "), marks, m.SelectList())
	return query, args, nil
}

// Update builds an UPDATE of the present columns for one id, stamping
// updated_on when that column exists. With returning the projection of the
// updated row is returned.
func (m *Mapping) Update(id interface{}, values []Assignment, returning bool) (string, []interface{}, error) {
	cols, args := m.writable(values)
	if len(cols) == 0 {
		return "", nil, ErrNothingToWrite
	}
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
	}
	if col := m.cols[UpdatedOn]; col.Present() {
		sets = append(sets, quote(col.name)+" = CURRENT_TIMESTAMP")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		m.quotedTable(), strings.Join(sets, ", "), quote(m.cols[ID].name))
	if returning {
		query += " RETURNING " + m.SelectList()
	}
	return query, append(args, id), nil
}

// Delete removes one row by id.
func (m *Mapping) Delete() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", m.quotedTable(), quote(m.cols[ID].name))
}

// Touch sets a timestamp field to CURRENT_TIMESTAMP for one id without
// stamping updated_on. ok is false when the field is absent.
func (m *Mapping) Touch(f Field) (query string, ok bool) {
	col := m.cols[f]
	if !col.Present() {
		return "", false
	}
	return fmt.Sprintf("UPDATE %s SET %s = CURRENT_TIMESTAMP WHERE %s = ?",
		m.quotedTable(), quote(col.name), quote(m.cols[ID].name)), true
}

func (m *Mapping) Count() string {
	return "SELECT COUNT(*) FROM " + m.quotedTable()
}
