package models

import (
	"net/url"
	"testing"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	values, err := url.ParseQuery("filters[movie][documentId][$eq]=doc-1&filters[genre][documentId][$eq]=doc-2" +
		"&fields[0]=id&sort=title:desc,runtime&pagination[page]=3&pagination[pageSize]=5")
	require.NoError(t, err)

	q, err := ParseQuery(values)
	require.NoError(t, err)

	assert.ElementsMatch(t, []Filter{
		{Field: "movie.documentId", Op: OpEq, Value: "doc-1"},
		{Field: "genre.documentId", Op: OpEq, Value: "doc-2"},
	}, q.Filters)
	assert.Equal(t, []string{"id"}, q.Fields)
	assert.Equal(t, []SortField{{Field: "title", Desc: true}, {Field: "runtime"}}, q.Sort)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 5, q.PageSize)
}

func TestParseQueryShorthandAndDefaults(t *testing.T) {
	q, err := ParseQuery(url.Values{"filters[slug]": {"fight-club"}})
	require.NoError(t, err)
	assert.Equal(t, []Filter{{Field: "slug", Op: OpEq, Value: "fight-club"}}, q.Filters)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
}

func TestParseQueryRejectsBadInput(t *testing.T) {
	_, err := ParseQuery(url.Values{"filters[title][$regex]": {"x"}})
	assert.ErrorIs(t, err, catalogerrors.ErrValidation)

	_, err = ParseQuery(url.Values{"pagination[page]": {"zero"}})
	assert.ErrorIs(t, err, catalogerrors.ErrValidation)
}

func TestQueryValuesRoundTrip(t *testing.T) {
	in := Query{
		Filters:  []Filter{Eq("tmdb_id", 550), {Field: "title", Op: OpEqi, Value: "Fight Club"}},
		Fields:   []string{"documentId"},
		Sort:     []SortField{{Field: "title", Desc: true}},
		Page:     1,
		PageSize: 1,
	}
	v := in.Values()
	assert.Equal(t, "550", v.Get("filters[tmdb_id][$eq]"))
	assert.Equal(t, "documentId", v.Get("fields[0]"))
	assert.Equal(t, "title:desc", v.Get("sort[0]"))

	out, err := ParseQuery(v)
	require.NoError(t, err)
	assert.ElementsMatch(t, in.Filters, out.Filters)
	assert.Equal(t, in.Fields, out.Fields)
	assert.Equal(t, in.Sort, out.Sort)
	assert.Equal(t, 1, out.PageSize)
}
