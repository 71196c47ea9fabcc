package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var employeeSpec = MustSpec(Spec{
	Table: "employees",
	Columns: map[string]string{
		"id":         "id",
		"first_name": "first_name",
		"lastname":   "last_name",
		"email":      "email",
		"position":   "position",
	},
	DefaultOrder: []Order{{Field: "lastname", Dir: Asc}},
})

func TestBuildEqualityFiltersAreANDCombined(t *testing.T) {
	f := Build(employeeSpec, Search{Filters: map[string]any{
		"position": "CONDUCTOR",
		"email":    "a@b.c",
	}})
	require.Equal(t, "email = $1 AND position = $2", f.Where)
	require.Equal(t, []any{"a@b.c", "CONDUCTOR"}, f.Args)
}

func TestBuildUnknownFilterKeyIgnored(t *testing.T) {
	f := Build(employeeSpec, Search{Filters: map[string]any{
		"position":  "CONDUCTOR",
		"no_such":   "x",
		"__secret":  "y",
		"is_active": "z",
	}})
	require.Equal(t, "position = $1", f.Where)
	require.Equal(t, []any{"CONDUCTOR"}, f.Args)
}

func TestBuildNoCriteriaMatchesEverything(t *testing.T) {
	f := Build(employeeSpec, Search{})
	require.Empty(t, f.Where)
	require.Empty(t, f.Args)
	require.Equal(t, "last_name ASC", f.Order)
}

func TestBuildSingleFieldTextSearch(t *testing.T) {
	f := Build(employeeSpec, Search{Text: "garcía", Field: "lastname"})
	require.Equal(t, "last_name ILIKE $1", f.Where)
	require.Equal(t, []any{"%garcía%"}, f.Args)
}

func TestBuildTextSearchUnknownFieldIgnored(t *testing.T) {
	f := Build(employeeSpec, Search{Text: "garcía", Field: "nope"})
	require.Empty(t, f.Where)
	require.Empty(t, f.Args)
}

func TestBuildMultiFieldTextSearchORCombined(t *testing.T) {
	f := Build(employeeSpec, Search{Text: "ana", Fields: []string{"first_name", "lastname", "bogus"}})
	require.Equal(t, "(first_name ILIKE $1 OR last_name ILIKE $1)", f.Where)
	require.Equal(t, []any{"%ana%"}, f.Args)
}

func TestBuildTextCombinesWithFilters(t *testing.T) {
	f := Build(employeeSpec, Search{
		Text:    "garcía",
		Field:   "lastname",
		Filters: map[string]any{"position": "CONDUCTOR"},
	})
	require.Equal(t, "position = $1 AND last_name ILIKE $2", f.Where)
	require.Equal(t, []any{"CONDUCTOR", "%garcía%"}, f.Args)
}

func TestBuildEscapesPatternMetacharacters(t *testing.T) {
	f := Build(employeeSpec, Search{Text: `50%_a\b`, Field: "lastname"})
	require.Equal(t, []any{`%50\%\_a\\b%`}, f.Args)
}

func TestBuildOrderByMultipleKeys(t *testing.T) {
	f := Build(employeeSpec, Search{OrderBy: []Order{
		{Field: "position", Dir: Desc},
		{Field: "id", Dir: Asc},
	}})
	require.Equal(t, "position DESC, id ASC", f.Order)
}

func TestBuildOrderBySkipsUnknownFields(t *testing.T) {
	f := Build(employeeSpec, Search{OrderBy: []Order{
		{Field: "ghost", Dir: Desc},
		{Field: "id", Dir: Desc},
		{Field: "also_ghost", Dir: Asc},
	}})
	require.Equal(t, "id DESC", f.Order)
}

func TestBuildPaginationDefaultsAndClamp(t *testing.T) {
	f := Build(employeeSpec, Search{})
	require.Equal(t, 1, f.Page)
	require.Equal(t, 20, f.PerPage)
	require.Equal(t, 0, f.Offset)

	f = Build(employeeSpec, Search{Page: 3, PerPage: 500, MaxPerPage: 25})
	require.Equal(t, 25, f.PerPage)
	require.Equal(t, 25, f.Limit)
	require.Equal(t, 50, f.Offset)

	f = Build(employeeSpec, Search{Page: -4, PerPage: 10})
	require.Equal(t, 1, f.Page)
	require.Equal(t, 0, f.Offset)
}

func TestBuildDeterministicForSameInput(t *testing.T) {
	s := Search{Filters: map[string]any{"position": "A", "email": "b", "first_name": "c"}}
	first := Build(employeeSpec, s)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Build(employeeSpec, s))
	}
}

func TestFragmentAndAppendsWithRenumbering(t *testing.T) {
	f := Build(employeeSpec, Search{Filters: map[string]any{"position": "CONDUCTOR"}})
	f.And("id = ANY(?)", []int64{1, 2, 3})
	f.And("created_at >= ?", "2024-01-01")
	require.Equal(t, "position = $1 AND id = ANY($2) AND created_at >= $3", f.Where)
	require.Len(t, f.Args, 3)
}

func TestFragmentAndOnEmptyWhere(t *testing.T) {
	f := Build(employeeSpec, Search{})
	f.And("date_of_charge BETWEEN ? AND ?", "a", "b")
	require.Equal(t, "date_of_charge BETWEEN $1 AND $2", f.Where)
}

func TestSpecValidateRejectsUnknownDefaultOrder(t *testing.T) {
	err := Spec{
		Table:        "t",
		Columns:      map[string]string{"id": "id"},
		DefaultOrder: []Order{{Field: "missing"}},
	}.Validate()
	require.Error(t, err)
}

func TestNewPageMetadata(t *testing.T) {
	f := Build(employeeSpec, Search{Page: 2, PerPage: 10})
	page := NewPage([]string{"a", "b"}, 42, f)
	require.Equal(t, 42, page.Total)
	require.Equal(t, 2, page.Page)
	require.Equal(t, 5, page.TotalPages)
	require.True(t, page.HasPrev())
	require.True(t, page.HasNext())

	// A page past the end carries no items but is not an error.
	far := NewPage([]string{}, 42, Build(employeeSpec, Search{Page: 99, PerPage: 10}))
	require.Empty(t, far.Items)
	require.False(t, far.HasNext())
}
