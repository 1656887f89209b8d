package models

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
)

var (
	bracketPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)
	filterKey      = regexp.MustCompile(`^filters(\[[^\[\]]+\])+$`)
	indexedKey     = regexp.MustCompile(`^(fields|sort)\[\d+\]$`)
)

// ParseQuery reads the bracketed REST query language:
// filters[title][$eqi]=x, filters[movie][documentId][$eq]=id, fields[0]=title,
// pagination[page]=2, pagination[pageSize]=10, sort=title:desc.
func ParseQuery(values url.Values) (Query, error) {
	var q Query

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range values[key] {
			switch {
			case filterKey.MatchString(key):
				f, err := parseFilter(key, value)
				if err != nil {
					return Query{}, err
				}
				q.Filters = append(q.Filters, f)
			case key == "fields" || indexedKey.MatchString(key) && strings.HasPrefix(key, "fields"):
				q.Fields = append(q.Fields, splitList(value)...)
			case key == "sort" || indexedKey.MatchString(key) && strings.HasPrefix(key, "sort"):
				for _, s := range splitList(value) {
					q.Sort = append(q.Sort, parseSort(s))
				}
			case key == "pagination[page]":
				n, err := parsePositive(key, value)
				if err != nil {
					return Query{}, err
				}
				q.Page = n
			case key == "pagination[pageSize]":
				n, err := parsePositive(key, value)
				if err != nil {
					return Query{}, err
				}
				q.PageSize = n
			}
		}
	}
	return q.Normalize(), nil
}

// Values encodes q in the form ParseQuery reads.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, f := range q.Filters {
		key := "filters"
		for _, part := range strings.Split(f.Field, ".") {
			key += "[" + part + "]"
		}
		op := f.Op
		if op == "" {
			op = OpEq
		}
		v.Add(key+"["+string(op)+"]", f.Value)
	}
	for i, f := range q.Fields {
		v.Set(fmt.Sprintf("fields[%d]", i), f)
	}
	for i, s := range q.Sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		v.Set(fmt.Sprintf("sort[%d]", i), s.Field+":"+dir)
	}
	if q.Page > 0 {
		v.Set("pagination[page]", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pagination[pageSize]", strconv.Itoa(q.PageSize))
	}
	return v
}

func parseFilter(key, value string) (Filter, error) {
	var parts []string
	for _, m := range bracketPattern.FindAllStringSubmatch(key, -1) {
		parts = append(parts, m[1])
	}

	op := OpEq
	if last := parts[len(parts)-1]; strings.HasPrefix(last, "$") {
		op = Operator(last)
		parts = parts[:len(parts)-1]
	}
	if !op.Valid() {
		return Filter{}, catalogerrors.NewValidationError(key, fmt.Sprintf("unsupported filter operator %s", op))
	}
	if len(parts) == 0 {
		return Filter{}, catalogerrors.NewValidationError(key, "filter has no field")
	}
	return Filter{Field: strings.Join(parts, "."), Op: op, Value: value}, nil
}

func parseSort(s string) SortField {
	field, dir, _ := strings.Cut(s, ":")
	return SortField{Field: strings.TrimSpace(field), Desc: strings.EqualFold(strings.TrimSpace(dir), "desc")}
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, catalogerrors.NewValidationError(key, fmt.Sprintf("%s must be a positive integer", key))
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
