package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakturan-dev/catalog-service/internal/domain"
	"github.com/fakturan-dev/catalog-service/internal/repository"
)

func newTestService() *ProductService {
	return NewProductService(repository.NewMemoryStore(), nil, zap.NewNop())
}

func createN(t *testing.T, svc *ProductService, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := svc.Create(context.Background(), domain.CreateProductRequest{
			ArticleNo: fmt.Sprintf("ART%03d", i),
			Name:      fmt.Sprintf("Product %d", i),
		})
		require.NoError(t, err)
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newTestService()

	p, err := svc.Create(context.Background(), domain.CreateProductRequest{
		ArticleNo: "ART100",
		Name:      "Test Widget",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, p.ID)
	assert.True(t, p.Price.IsZero())
	assert.True(t, p.InPrice.IsZero())
	assert.EqualValues(t, 0, p.InStock)
	assert.Equal(t, "pcs", p.Unit)
	assert.Nil(t, p.Description)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ArticleNo, got.ArticleNo)
	assert.Equal(t, "pcs", got.Unit)
}

func TestCreateRequiresArticleNoAndName(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []domain.CreateProductRequest{
		{},
		{ArticleNo: "ART001"},
		{Name: "Widget"},
		{ArticleNo: "   ", Name: "Widget"},
		{ArticleNo: "ART001", Name: "  "},
	}
	for _, req := range cases {
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrValidation)
	}

	// Nothing was persisted by the failed attempts.
	list, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, list.Pagination.Total)
}

func TestCreateRejectsNegativeValues(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	negPrice := decimal.RequireFromString("-1")
	negStock := int64(-5)

	_, err := svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "A", Name: "B", Price: &negPrice})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "A", Name: "B", InPrice: &negPrice})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "A", Name: "B", InStock: &negStock})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListPaginationMetadata(t *testing.T) {
	for _, total := range []int{0, 1, 49, 50, 51} {
		for _, limit := range []int64{1, 10, 50} {
			t.Run(fmt.Sprintf("total=%d limit=%d", total, limit), func(t *testing.T) {
				svc := newTestService()
				createN(t, svc, total)

				list, err := svc.List(context.Background(), ListQuery{Limit: limit})
				require.NoError(t, err)

				wantPages := int64(math.Ceil(float64(total) / float64(limit)))
				assert.EqualValues(t, total, list.Pagination.Total)
				assert.Equal(t, wantPages, list.Pagination.Pages)
				assert.Equal(t, limit, list.Pagination.Limit)
				assert.EqualValues(t, 1, list.Pagination.Page)
			})
		}
	}
}

func TestListSecondPage(t *testing.T) {
	svc := newTestService()
	createN(t, svc, 5)

	list, err := svc.List(context.Background(), ListQuery{Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, list.Products, 2)
	assert.EqualValues(t, 3, list.Products[0].ID)
	assert.EqualValues(t, 4, list.Products[1].ID)
	assert.EqualValues(t, 2, list.Pagination.Page)
}

func TestListOffsetWithoutPage(t *testing.T) {
	svc := newTestService()
	createN(t, svc, 5)

	list, err := svc.List(context.Background(), ListQuery{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.EqualValues(t, 5, list.Products[0].ID)
	assert.EqualValues(t, 3, list.Pagination.Page)
}

func TestListClampsLimit(t *testing.T) {
	svc := newTestService()

	list, err := svc.List(context.Background(), ListQuery{Limit: 100000})
	require.NoError(t, err)
	assert.EqualValues(t, MaxLimit, list.Pagination.Limit)

	list, err = svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, DefaultLimit, list.Pagination.Limit)
}

func TestListFiltersAreCombinedWithAnd(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "ART001", Name: "Hammer"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "ART002", Name: "Screwdriver"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "XYZ999", Name: "Hammer Deluxe"})
	require.NoError(t, err)

	list, err := svc.List(ctx, ListQuery{ArticleNo: "art", Name: "hammer"})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "ART001", list.Products[0].ArticleNo)
}

func TestUpdateChangesOnlyProvidedFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	desc := "a sturdy widget"
	stock := int64(12)
	created, err := svc.Create(ctx, domain.CreateProductRequest{
		ArticleNo:   "ART100",
		Name:        "Test Widget",
		InStock:     &stock,
		Description: &desc,
	})
	require.NoError(t, err)

	price := decimal.RequireFromString("19.99")
	updated, err := svc.Update(ctx, created.ID, domain.ChangeSet{Price: &price})
	require.NoError(t, err)

	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, created.ArticleNo, updated.ArticleNo)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Unit, updated.Unit)
	assert.EqualValues(t, 12, updated.InStock)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)
}

func TestUpdateRejectsEmptyPayload(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "ART001", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, domain.ChangeSet{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateRejectsBlankRequiredFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "ART001", Name: "Widget"})
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(ctx, created.ID, domain.ChangeSet{ArticleNo: &blank})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Update(ctx, created.ID, domain.ChangeSet{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAndDeleteMissingProduct(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	unit := "kg"
	_, err := svc.Update(ctx, 42, domain.ChangeSet{Unit: &unit})
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 42), ErrProductNotFound)
}

func TestDeleteThenGetReturnsNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, domain.CreateProductRequest{ArticleNo: "ART001", Name: "Widget"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrProductNotFound)
}
