package geothing

import (
	"strings"

	"github.com/burugo/geothing/internal/sqlbuilder"
)

// QueryParams holds the parameters for FetchAll.
type QueryParams struct {
	Where       string        // Raw SQL WHERE clause with "?" placeholders
	Args        []interface{} // Arguments for the WHERE clause
	Order       string        // Raw SQL ORDER BY clause
	Limit       int
	Offset      int
	WithRelated []string // Relations to eager load; nested with "a.b"
}

// Query is a SELECT under construction. Hooks and relations add to it; the
// ORM renders it with Build.
type Query struct {
	dialect Dialector
	table   string
	selects []string
	joins   []string
	where   []sqlbuilder.Expr
	order   []string
	limit   int
	offset  int
}

// NewQuery starts a query on table.
func NewQuery(d Dialector, table string) *Query {
	return &Query{dialect: d, table: table}
}

// Table returns the table the query selects from.
func (q *Query) Table() string { return q.table }

// Dialect returns the query's dialect.
func (q *Query) Dialect() Dialector { return q.dialect }

// Select adds select items (rendered SQL). Items already present are skipped,
// so adding the same columns twice is harmless.
func (q *Query) Select(items ...string) *Query {
	for _, item := range items {
		if item != "" && !contains(q.selects, item) {
			q.selects = append(q.selects, item)
		}
	}
	return q
}

// unselect drops a select item.
func (q *Query) unselect(item string) {
	kept := q.selects[:0]
	for _, s := range q.selects {
		if s != item {
			kept = append(kept, s)
		}
	}
	q.selects = kept
}

// Selects returns the current select list. Empty means "*".
func (q *Query) Selects() []string { return append([]string(nil), q.selects...) }

// Join adds a rendered JOIN clause.
func (q *Query) Join(clause string) *Query {
	if clause != "" && !contains(q.joins, clause) {
		q.joins = append(q.joins, clause)
	}
	return q
}

// Where adds a condition with "?" placeholders. Conditions are ANDed.
func (q *Query) Where(cond string, args ...interface{}) *Query {
	if cond != "" {
		q.where = append(q.where, sqlbuilder.Raw(cond, args...))
	}
	return q
}

// WhereIn adds "column IN (...)". column is rendered SQL, see Column.
func (q *Query) WhereIn(column string, values []interface{}) *Query {
	q.where = append(q.where, sqlbuilder.New(q.dialect).In(column, values))
	return q
}

// OrderBy appends a rendered ORDER BY item.
func (q *Query) OrderBy(clause string) *Query {
	if clause != "" {
		q.order = append(q.order, clause)
	}
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	c := *q
	c.selects = append([]string(nil), q.selects...)
	c.joins = append([]string(nil), q.joins...)
	c.where = append([]sqlbuilder.Expr(nil), q.where...)
	c.order = append([]string(nil), q.order...)
	return &c
}

// Column renders a quoted, table-qualified column. An empty table leaves it unqualified.
func (q *Query) Column(table, column string) string {
	return sqlbuilder.New(q.dialect).Column(table, column)
}

// Quote quotes an identifier in the query's dialect.
func (q *Query) Quote(identifier string) string { return q.dialect.Quote(identifier) }

// Build renders the query with "?" placeholders.
func (q *Query) Build() (string, []interface{}) {
	return sqlbuilder.New(q.dialect).Select(sqlbuilder.SelectStmt{
		Table:   q.table,
		Columns: q.selects,
		Joins:   q.joins,
		Where:   q.where,
		Order:   strings.Join(q.order, ", "),
		Limit:   q.limit,
		Offset:  q.offset,
	})
}
