package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Operator is a filter comparison in the REST query language.
type Operator string

const (
	OpEq        Operator = "$eq"
	OpEqi       Operator = "$eqi"
	OpNe        Operator = "$ne"
	OpContains  Operator = "$contains"
	OpContainsi Operator = "$containsi"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpEqi, OpNe, OpContains, OpContainsi:
		return true
	}
	return false
}

// Filter compares one attribute of a document with a literal.
type Filter struct {
	Field string
	Op    Operator
	Value string
}

// Eq builds an equality filter; value is formatted with FormatValue.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: FormatValue(value)}
}

func (f Filter) Match(e Entry) bool {
	v, ok := e.Field(f.Field)
	if !ok {
		return false
	}
	got := FormatValue(v)
	switch f.Op {
	case OpEq:
		return got == f.Value
	case OpEqi:
		return strings.EqualFold(got, f.Value)
	case OpNe:
		return got != f.Value
	case OpContains:
		return strings.Contains(got, f.Value)
	case OpContainsi:
		return strings.Contains(strings.ToLower(got), strings.ToLower(f.Value))
	}
	return false
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %q", f.Field, f.Op, f.Value)
}

type SortField struct {
	Field string
	Desc  bool
}

// Query selects, orders and pages documents of one collection.
type Query struct {
	Filters  []Filter
	Sort     []SortField
	Page     int
	PageSize int
	// Fields restricts the attributes returned; id and documentId are always kept.
	Fields []string
}

// Normalize clamps paging to its defaults and bounds.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Matches reports whether e satisfies every filter.
func (q Query) Matches(e Entry) bool {
	for _, f := range q.Filters {
		if !f.Match(e) {
			return false
		}
	}
	return true
}

// Less orders documents by q.Sort, falling back to id.
func (q Query) Less(a, b Entry) bool {
	for _, s := range q.Sort {
		av, _ := a.Field(s.Field)
		bv, _ := b.Field(s.Field)
		c := compareValues(av, bv)
		if c == 0 {
			continue
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.Base().ID < b.Base().ID
}

// Pagination is the meta.pagination block of list responses.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

func NewPagination(q Query, total int) Pagination {
	q = q.Normalize()
	return Pagination{
		Page:      q.Page,
		PageSize:  q.PageSize,
		PageCount: int(math.Ceil(float64(total) / float64(q.PageSize))),
		Total:     total,
	}
}

// FormatValue renders an attribute the way it is compared against filter literals.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case int:
		return strconv.Itoa(t)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(FormatValue(a), FormatValue(b))
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case uint:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
