package gormtool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studieren/eco_shop/models"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   string
		want SortCondition
		ok   bool
	}{
		{"price", SortCondition{Field: "price", Direction: "ASC"}, true},
		{"-price", SortCondition{Field: "price", Direction: "DESC"}, true},
		{"  name ", SortCondition{Field: "name", Direction: "ASC"}, true},
		{"", SortCondition{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseSort(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestQueryBuilder_WhereSkipsEmptyStrings(t *testing.T) {
	qb := &QueryBuilder{}
	qb.Where("product_name", "LIKE", "").Where("price", ">", 5)

	require.Len(t, qb.Conditions, 1)
	assert.Equal(t, "price", qb.Conditions[0].Field)
}

func TestBuildQuery_RejectsBadInput(t *testing.T) {
	db := newTestDB(t).Model(&models.Product{})

	_, err := BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "id; DROP TABLE products", Operator: "=", Value: 1}}})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "no_such_column", Operator: "=", Value: 1}}})
	assert.ErrorIs(t, err, ErrInvalidField)

	// Go names are not column names.
	_, err = BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "ProductName", Operator: "=", Value: "x"}}})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "id", Operator: "~", Value: 1}}})
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "id", Operator: "BETWEEN", Value: 1}}})
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "product_name", Operator: "LIKE", Value: 3}}})
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = BuildOrdering(db, &QueryBuilder{Sorts: []SortCondition{{Field: "price", Direction: "sideways"}}})
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = BuildOrdering(db, &QueryBuilder{Sorts: []SortCondition{{Field: "price desc, (select 1)"}}})
	assert.ErrorIs(t, err, ErrInvalidField)

	// Columns hidden from json (the soft delete marker) cannot be queried either.
	_, err = BuildOrdering(db, &QueryBuilder{Sorts: []SortCondition{{Field: "deleted_at"}}})
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "deleted_at", Operator: "=", Value: nil}}})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestBuildQuery_NeedsModel(t *testing.T) {
	db := newTestDB(t)

	_, err := BuildQuery(db, &QueryBuilder{Conditions: []QueryCondition{{Field: "id", Operator: "=", Value: 1}}})
	assert.ErrorIs(t, err, ErrInvalidField)

	q, err := BuildQuery(db, &QueryBuilder{})
	require.NoError(t, err)
	assert.NotNil(t, q)
}

func TestBuildQuery_LikeMatchesWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	seedProducts(t, db, "100% cotton", "plain tee", "snake_case mug", `back\slash`)

	count := func(value string) int64 {
		t.Helper()
		q, err := BuildQuery(db.Model(&models.Product{}), &QueryBuilder{
			Conditions: []QueryCondition{{Field: "product_name", Operator: "LIKE", Value: value}},
		})
		require.NoError(t, err)
		var n int64
		require.NoError(t, q.Count(&n).Error)
		return n
	}

	assert.EqualValues(t, 1, count("%"))
	assert.EqualValues(t, 1, count("_"))
	assert.EqualValues(t, 1, count(`\`))
	assert.EqualValues(t, 1, count("0% c"))
	assert.EqualValues(t, 0, count("1_0"))
	assert.EqualValues(t, 3, count("a"))
}

func TestBuildQuery_Filters(t *testing.T) {
	db := newTestDB(t)
	seedProducts(t, db, "red apple", "green apple", "pear", "plum") // prices 10, 20, 30, 40

	find := func(qb *QueryBuilder) []string {
		t.Helper()
		q, err := BuildQuery(db.Model(&models.Product{}), qb)
		require.NoError(t, err)
		q, err = BuildOrdering(q, qb)
		require.NoError(t, err)
		var out []models.Product
		require.NoError(t, q.Find(&out).Error)
		names := make([]string, 0, len(out))
		for _, p := range out {
			names = append(names, p.ProductName)
		}
		return names
	}

	assert.Equal(t, []string{"red apple", "green apple"}, find(&QueryBuilder{
		Conditions: []QueryCondition{{Field: "product_name", Operator: "LIKE", Value: "apple"}},
		Sorts:      []SortCondition{{Field: "id"}},
	}))

	assert.Equal(t, []string{"plum", "pear"}, find(&QueryBuilder{
		Conditions: []QueryCondition{{Field: "price", Operator: ">=", Value: 30}},
		Sorts:      []SortCondition{{Field: "price", Direction: "desc"}},
	}))

	assert.Equal(t, []string{"green apple", "pear"}, find(&QueryBuilder{
		Conditions: []QueryCondition{{Field: "price", Operator: "BETWEEN", Value: []interface{}{15, 35}}},
		Sorts:      []SortCondition{{Field: "id", Direction: "ASC"}},
	}))

	assert.Equal(t, []string{"red apple", "plum"}, find(&QueryBuilder{
		Conditions: []QueryCondition{{Field: "product_name", Operator: "IN", Value: []string{"red apple", "plum"}}},
		Sorts:      []SortCondition{{Field: "id"}},
	}))

	assert.Equal(t, []string{"green apple", "pear"}, find(&QueryBuilder{
		Conditions: []QueryCondition{{Field: "product_name", Operator: "NOT IN", Value: []string{"red apple", "plum"}}},
		Sorts:      []SortCondition{{Field: "id"}},
	}))
}
