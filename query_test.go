package geothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuild(t *testing.T) {
	q := NewQuery(testDialect{}, "points")
	query, args := q.Build()
	assert.Equal(t, `SELECT * FROM "points"`, query)
	assert.Empty(t, args)

	q.Select(q.Column("points", "id"), q.Column("points", "id")).
		Where(`"points"."id" > ?`, 3).
		WhereIn(q.Column("points", "kind"), []interface{}{"a", "b"}).
		OrderBy(`"points"."id" DESC`).
		Limit(10).
		Offset(20)
	query, args = q.Build()
	assert.Equal(t, `SELECT "points"."id" FROM "points" WHERE ("points"."id" > ?) AND ("points"."kind" IN (?, ?)) ORDER BY "points"."id" DESC LIMIT 10 OFFSET 20`, query)
	assert.Equal(t, []interface{}{3, "a", "b"}, args)
}

func TestQueryWhereInEmpty(t *testing.T) {
	q := NewQuery(testDialect{}, "points").WhereIn(`"points"."id"`, nil)
	query, args := q.Build()
	assert.Equal(t, `SELECT * FROM "points" WHERE 1 = 0`, query)
	assert.Empty(t, args)
}

func TestQueryClone(t *testing.T) {
	q := NewQuery(testDialect{}, "points").Select(`"points".*`).Join(`INNER JOIN "x" ON 1 = 1`)
	c := q.Clone()
	c.Select("extra").Where("1 = 1").Join(`INNER JOIN "y" ON 1 = 1`)

	assert.Equal(t, []string{`"points".*`}, q.Selects())
	query, _ := q.Build()
	assert.Equal(t, `SELECT "points".* FROM "points" INNER JOIN "x" ON 1 = 1`, query)
	assert.Equal(t, []string{`"points".*`, "extra"}, c.Selects())
}

func TestQueryUnselect(t *testing.T) {
	q := NewQuery(testDialect{}, "places").Select("a", "b", "c")
	q.unselect("b")
	assert.Equal(t, []string{"a", "c"}, q.Selects())
	q.unselect("missing")
	assert.Equal(t, []string{"a", "c"}, q.Selects())
}
