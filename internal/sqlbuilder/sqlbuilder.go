package sqlbuilder

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect is the part of a SQL dialect the builder needs.
type Dialect interface {
	Name() string
	Quote(identifier string) string
}

// Expr is a raw SQL fragment with its own bind arguments. When used as a column
// value in Insert/Update it is rendered in place of the "?" placeholder.
type Expr struct {
	SQL  string
	Args []interface{}
}

// Raw builds an Expr.
func Raw(sql string, args ...interface{}) Expr {
	return Expr{SQL: sql, Args: args}
}

// SelectStmt describes a SELECT. Columns and Joins are already rendered SQL.
type SelectStmt struct {
	Table   string
	Columns []string
	Joins   []string
	Where   []Expr
	Order   string
	Limit   int
	Offset  int
}

// Builder renders statements with "?" placeholders and dialect quoting.
// Adapters rebind placeholders for their driver.
type Builder struct {
	dialect Dialect
}

// New returns a Builder for dialect d.
func New(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Column renders a table-qualified, quoted column.
func (b *Builder) Column(table, column string) string {
	if table == "" {
		return b.dialect.Quote(column)
	}
	return b.dialect.Quote(table) + "." + b.dialect.Quote(column)
}

// In renders "column IN (?, ...)". An empty value list never matches.
func (b *Builder) In(column string, values []interface{}) Expr {
	if len(values) == 0 {
		return Raw("1 = 0")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	args := make([]interface{}, len(values))
	copy(args, values)
	return Expr{SQL: fmt.Sprintf("%s IN (%s)", column, placeholders), Args: args}
}

// Select renders s.
func (b *Builder) Select(s SelectStmt) (string, []interface{}) {
	var query strings.Builder
	var args []interface{}

	query.WriteString("SELECT ")
	if len(s.Columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(s.Columns, ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(b.dialect.Quote(s.Table))

	for _, join := range s.Joins {
		query.WriteString(" ")
		query.WriteString(join)
	}

	if where, whereArgs := b.where(s.Where); where != "" {
		query.WriteString(" WHERE ")
		query.WriteString(where)
		args = append(args, whereArgs...)
	}

	if s.Order != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(s.Order)
	}
	if s.Limit > 0 {
		fmt.Fprintf(&query, " LIMIT %d", s.Limit)
	}
	if s.Offset > 0 {
		fmt.Fprintf(&query, " OFFSET %d", s.Offset)
	}
	return query.String(), args
}

// Insert renders an INSERT of values. Columns are sorted so the statement is
// deterministic. returning names a column for RETURNING, or "" for none.
func (b *Builder) Insert(table string, values map[string]interface{}, returning string) (string, []interface{}) {
	columns := sortedColumns(values)

	var query strings.Builder
	query.WriteString("INSERT INTO ")
	query.WriteString(b.dialect.Quote(table))

	var args []interface{}
	if len(columns) == 0 {
		if b.dialect.Name() == "mysql" {
			query.WriteString(" () VALUES ()")
		} else {
			query.WriteString(" DEFAULT VALUES")
		}
	} else {
		quoted := make([]string, len(columns))
		placeholders := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = b.dialect.Quote(col)
			placeholders[i], args = b.value(values[col], args)
		}
		fmt.Fprintf(&query, " (%s) VALUES (%s)", strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	}

	if returning != "" {
		query.WriteString(" RETURNING ")
		query.WriteString(b.dialect.Quote(returning))
	}
	return query.String(), args
}

// Update renders an UPDATE of values restricted by where.
func (b *Builder) Update(table string, values map[string]interface{}, where Expr) (string, []interface{}) {
	columns := sortedColumns(values)
	setClauses := make([]string, len(columns))
	var args []interface{}
	for i, col := range columns {
		var placeholder string
		placeholder, args = b.value(values[col], args)
		setClauses[i] = b.dialect.Quote(col) + " = " + placeholder
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", b.dialect.Quote(table), strings.Join(setClauses, ", "), where.SQL)
	return query, append(args, where.Args...)
}

// Delete renders a DELETE restricted by where.
func (b *Builder) Delete(table string, where Expr) (string, []interface{}) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", b.dialect.Quote(table), where.SQL), where.Args
}

func (b *Builder) value(v interface{}, args []interface{}) (string, []interface{}) {
	switch e := v.(type) {
	case Expr:
		return e.SQL, append(args, e.Args...)
	case *Expr:
		return e.SQL, append(args, e.Args...)
	default:
		return "?", append(args, v)
	}
}

func (b *Builder) where(conds []Expr) (string, []interface{}) {
	switch len(conds) {
	case 0:
		return "", nil
	case 1:
		return conds[0].SQL, conds[0].Args
	}
	parts := make([]string, len(conds))
	var args []interface{}
	for i, c := range conds {
		parts[i] = "(" + c.SQL + ")"
		args = append(args, c.Args...)
	}
	return strings.Join(parts, " AND "), args
}

func sortedColumns(values map[string]interface{}) []string {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
