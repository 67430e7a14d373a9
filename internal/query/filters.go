package query

import (
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Filter narrows a collection query. Stores apply every filter they receive to
// the same select query, so filters compose with AND semantics.
type Filter interface {
	Apply(q *bun.SelectQuery) *bun.SelectQuery
}

// BeforeAfter bounds a datetime column. Both bounds are exclusive and optional;
// with neither set the filter is a no-op.
type BeforeAfter struct {
	Field  string
	Before *time.Time
	After  *time.Time
}

// Apply filters rows on the datetime column
func (f BeforeAfter) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f.Before != nil {
		q = q.Where("? < ?", bun.Ident(f.Field), *f.Before)
	}
	if f.After != nil {
		q = q.Where("? > ?", bun.Ident(f.Field), *f.After)
	}
	return q
}

// LimitOffset is a page window
type LimitOffset struct {
	Limit  int
	Offset int
}

// NewLimitOffset converts a 1-based page number and a page size to a window
func NewLimitOffset(page, pageSize int) LimitOffset {
	return LimitOffset{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
}

// Apply paginates the query
func (p LimitOffset) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Limit(p.Limit).Offset(p.Offset)
}

// Equals filters on column equality, e.g. Equals{"is_active": true}
type Equals map[string]any

// Apply adds one equality condition per column, in column order
func (e Equals) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	columns := make([]string, 0, len(e))
	for column := range e {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	for _, column := range columns {
		q = q.Where("? = ?", bun.Ident(column), e[column])
	}
	return q
}
