package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMappingIsTotalAndBijective(t *testing.T) {
	assert.Len(t, FieldFor, len(ColumnFor))
	for field, col := range ColumnFor {
		assert.Equal(t, field, FieldFor[col])
	}

	// Every mutable external field of the JSON contract must be mapped.
	for _, field := range []string{"articleNo", "product", "inPrice", "price", "unit", "inStock", "description"} {
		assert.Contains(t, ColumnFor, field)
	}
}

func TestChangeSetDropsUnknownKeys(t *testing.T) {
	var cs ChangeSet
	payload := `{"price": 42, "color": "red", "nested": {"a": 1}}`
	require.NoError(t, json.Unmarshal([]byte(payload), &cs))

	require.NotNil(t, cs.Price)
	assert.True(t, cs.Price.Equal(decimal.NewFromInt(42)))
	cols := cs.Columns()
	assert.Len(t, cols, 1)
	assert.Contains(t, cols, ColPrice)
}

func TestChangeSetEmpty(t *testing.T) {
	var cs ChangeSet
	assert.True(t, cs.Empty())
	require.NoError(t, json.Unmarshal([]byte(`{"unknown": true}`), &cs))
	assert.True(t, cs.Empty())

	unit := "kg"
	cs.Unit = &unit
	assert.False(t, cs.Empty())
}

func TestChangeSetColumnsUseStorageNames(t *testing.T) {
	articleNo := "ART001"
	stock := int64(7)
	cs := ChangeSet{ArticleNo: &articleNo, InStock: &stock}

	cols := cs.Columns()
	assert.Equal(t, map[string]interface{}{
		ColArticleNo: "ART001",
		ColInStock:   int64(7),
	}, cols)
}

func TestPricesMarshalAsJSONNumbers(t *testing.T) {
	p := Product{
		ArticleNo: "ART001",
		Name:      "Widget",
		Price:     decimal.RequireFromString("19.99"),
		Unit:      DefaultUnit,
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 19.99, decoded["price"])
	assert.Equal(t, 0.0, decoded["inPrice"])
	assert.Nil(t, decoded["description"])
}
