package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are plain JSON numbers in the public contract.
	decimal.MarshalJSONWithoutQuotes = true
}

// Column names of the products table. External JSON keys are camelCase,
// storage columns are snake_case; ColumnFor is the single place where the
// two are tied together.
const (
	TableName = "products"

	ColID          = "id"
	ColArticleNo   = "article_no"
	ColName        = "product"
	ColInPrice     = "in_price"
	ColPrice       = "price"
	ColUnit        = "unit"
	ColInStock     = "in_stock"
	ColDescription = "description"
	ColCreatedAt   = "created_at"
	ColUpdatedAt   = "updated_at"
)

// ColumnFor maps every mutable external field name to its storage column.
var ColumnFor = map[string]string{
	"articleNo":   ColArticleNo,
	"product":     ColName,
	"inPrice":     ColInPrice,
	"price":       ColPrice,
	"unit":        ColUnit,
	"inStock":     ColInStock,
	"description": ColDescription,
}

// FieldFor is the inverse of ColumnFor.
var FieldFor = func() map[string]string {
	m := make(map[string]string, len(ColumnFor))
	for field, col := range ColumnFor {
		m[col] = field
	}
	return m
}()

const DefaultUnit = "pcs"

type Product struct {
	ID          int64           `db:"id" json:"id"`
	ArticleNo   string          `db:"article_no" json:"articleNo"`
	Name        string          `db:"product" json:"product"`
	InPrice     decimal.Decimal `db:"in_price" json:"inPrice"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Unit        string          `db:"unit" json:"unit"`
	InStock     int64           `db:"in_stock" json:"inStock"`
	Description *string         `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

type CreateProductRequest struct {
	ArticleNo   string           `json:"articleNo"`
	Name        string           `json:"product"`
	InPrice     *decimal.Decimal `json:"inPrice"`
	Price       *decimal.Decimal `json:"price"`
	Unit        string           `json:"unit"`
	InStock     *int64           `json:"inStock"`
	Description *string          `json:"description"`
}

// ChangeSet enumerates the fields an update may touch. A nil field is
// absent from the payload and keeps its stored value; JSON keys outside
// this set are dropped by the decoder.
type ChangeSet struct {
	ArticleNo   *string          `json:"articleNo"`
	Name        *string          `json:"product"`
	InPrice     *decimal.Decimal `json:"inPrice"`
	Price       *decimal.Decimal `json:"price"`
	Unit        *string          `json:"unit"`
	InStock     *int64           `json:"inStock"`
	Description *string          `json:"description"`
}

func (cs ChangeSet) Empty() bool {
	return cs.ArticleNo == nil &&
		cs.Name == nil &&
		cs.InPrice == nil &&
		cs.Price == nil &&
		cs.Unit == nil &&
		cs.InStock == nil &&
		cs.Description == nil
}

// Columns returns the set values keyed by storage column, for SQL SET maps.
func (cs ChangeSet) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if cs.ArticleNo != nil {
		cols[ColArticleNo] = *cs.ArticleNo
	}
	if cs.Name != nil {
		cols[ColName] = *cs.Name
	}
	if cs.InPrice != nil {
		cols[ColInPrice] = *cs.InPrice
	}
	if cs.Price != nil {
		cols[ColPrice] = *cs.Price
	}
	if cs.Unit != nil {
		cols[ColUnit] = *cs.Unit
	}
	if cs.InStock != nil {
		cols[ColInStock] = *cs.InStock
	}
	if cs.Description != nil {
		cols[ColDescription] = *cs.Description
	}
	return cols
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Pages int64 `json:"pages"`
}

type ProductList struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
