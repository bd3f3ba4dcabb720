package catalog

import (
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func product(id, en, ar string, cat models.Category, price int64, inStock bool, age int) models.Product {
	return models.Product{
		ID:        id,
		Name:      models.LocalizedText{AR: ar, EN: en},
		Category:  cat,
		Price:     decimal.NewFromInt(price),
		InStock:   inStock,
		CreatedAt: epoch.Add(time.Duration(age) * time.Hour),
	}
}

func fixture() []models.Product {
	return []models.Product{
		product("p1", "Liquid Dish Soap", "صابون أطباق سائل", models.CategoryKitchen, 25, true, 1),
		product("p2", "Laundry Powder", "مسحوق غسيل الملابس", models.CategoryLaundry, 85, true, 2),
		product("p3", "Floor Cleaner", "منظف أرضيات", models.CategoryFloor, 35, true, 3),
		product("p4", "Glass Cleaner", "منظف زجاج", models.CategoryKitchen, 30, false, 4),
		product("p5", "Multi-Purpose Disinfectant", "مطهر متعدد الأغراض", models.CategoryBathroom, 40, true, 5),
		product("p6", "Fabric Softener", "منعم الملابس", models.CategoryLaundry, 45, true, 6),
		product("p7", "Bleach", "كلور", models.CategoryBathroom, 30, false, 7),
		product("p8", "Sponge Pack", "", models.CategoryKitchen, 15, true, 8),
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func query(page, limit int) models.CatalogQuery {
	return models.CatalogQuery{Sort: models.SortDefault, Page: page, Limit: limit, Lang: models.LangEN}
}

func TestQuery_PaginatesEightProductsByThree(t *testing.T) {
	products := fixture()

	first, err := Query(products, query(1, 3))
	require.NoError(t, err)
	assert.Len(t, first.Items, 3)
	assert.Equal(t, models.Pagination{Total: 8, Page: 1, Pages: 3, Limit: 3}, first.Pagination)

	last, err := Query(products, query(3, 3))
	require.NoError(t, err)
	assert.Len(t, last.Items, 2)
	assert.Equal(t, 3, last.Pagination.Pages)
}

func TestQuery_DefaultSortIsNewestFirst(t *testing.T) {
	res, err := Query(fixture(), query(1, 8))
	require.NoError(t, err)
	assert.Equal(t, []string{"p8", "p7", "p6", "p5", "p4", "p3", "p2", "p1"}, ids(res.Items))
}

func TestQuery_PageBeyondRangeIsEmpty(t *testing.T) {
	res, err := Query(fixture(), query(9, 3))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 8, res.Pagination.Total)
	assert.Equal(t, 3, res.Pagination.Pages)
	assert.Equal(t, 9, res.Pagination.Page)
}

func TestQuery_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := Query(fixture(), query(1, limit))
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrInvalidQuery)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
}

func TestQuery_EmptyCatalogHasZeroPages(t *testing.T) {
	res, err := Query(nil, query(1, 5))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, models.Pagination{Total: 0, Page: 1, Pages: 0, Limit: 5}, res.Pagination)
}

func TestQuery_PageInvariants(t *testing.T) {
	products := fixture()
	for limit := 1; limit <= 10; limit++ {
		for page := 1; page <= 10; page++ {
			res, err := Query(products, query(page, limit))
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Items), limit)
			want := (res.Pagination.Total + limit - 1) / limit
			assert.Equal(t, want, res.Pagination.Pages, "page=%d limit=%d", page, limit)
		}
	}
}

func TestQuery_AllCategoryIsSuperset(t *testing.T) {
	products := fixture()
	all := query(1, 100)
	all.Category = models.CategoryAll
	allRes, err := Query(products, all)
	require.NoError(t, err)

	for _, cat := range []models.Category{models.CategoryKitchen, models.CategoryLaundry, models.CategoryFloor, models.CategoryBathroom} {
		q := query(1, 100)
		q.Category = cat
		res, err := Query(products, q)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, allRes.Pagination.Total, res.Pagination.Total)
		for _, p := range res.Items {
			assert.Equal(t, cat, p.Category)
		}
	}
}

func TestQuery_FiltersCompose(t *testing.T) {
	inStock := true
	q := query(1, 10)
	q.Category = models.CategoryKitchen
	q.InStock = &inStock

	res, err := Query(fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"p8", "p1"}, ids(res.Items))

	q.Search = "soap"
	res, err = Query(fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(res.Items))
}

func TestQuery_SearchMatchesEitherLanguage(t *testing.T) {
	q := query(1, 10)

	q.Search = "CLEANER"
	res, err := Query(fixture(), q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p3", "p4"}, ids(res.Items))

	q.Search = "منظف"
	res, err = Query(fixture(), q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p3", "p4"}, ids(res.Items))
}

func TestQuery_OutOfStockFilter(t *testing.T) {
	out := false
	q := query(1, 10)
	q.InStock = &out
	res, err := Query(fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"p7", "p4"}, ids(res.Items))
}

func TestQuery_PriceSortKeepsRecencyOnTies(t *testing.T) {
	q := query(1, 8)
	q.Sort = models.SortPriceAsc
	res, err := Query(fixture(), q)
	require.NoError(t, err)
	// p7 and p4 both cost 30; p7 is newer.
	assert.Equal(t, []string{"p8", "p1", "p7", "p4", "p3", "p5", "p6", "p2"}, ids(res.Items))

	q.Sort = models.SortPriceDesc
	res, err = Query(fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p6", "p5", "p3", "p7", "p4", "p1", "p8"}, ids(res.Items))
}

func TestQuery_NameSortUsesActiveLanguage(t *testing.T) {
	q := query(1, 8)
	q.Sort = models.SortName
	res, err := Query(fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"p7", "p6", "p3", "p4", "p2", "p1", "p5", "p8"}, ids(res.Items))
}

func TestQuery_NameSortSwitchesWithLanguage(t *testing.T) {
	products := []models.Product{
		product("a", "Apple", "يقطين", models.CategoryKitchen, 10, true, 1),
		product("b", "Zebra", "ابريق", models.CategoryKitchen, 10, true, 2),
	}
	q := query(1, 8)
	q.Sort = models.SortName

	res, err := Query(products, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(res.Items))

	q.Lang = models.LangAR
	res, err = Query(products, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(res.Items))
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	products := fixture()
	before := ids(products)
	q := query(1, 8)
	q.Sort = models.SortPriceDesc
	_, err := Query(products, q)
	require.NoError(t, err)
	assert.Equal(t, before, ids(products))
}

func TestQuery_RejectsUnknownCategory(t *testing.T) {
	q := query(1, 8)
	q.Category = "garden"
	_, err := Query(fixture(), q)
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
}

func BenchmarkQuery(b *testing.B) {
	products := make([]models.Product, 0, 1000)
	for i := 0; i < 1000; i++ {
		products = append(products, product(fmt.Sprintf("p%d", i), fmt.Sprintf("Item %d", i), "", models.CategoryKitchen, int64(i%50), i%3 != 0, i))
	}
	q := query(3, 24)
	q.Sort = models.SortName
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Query(products, q)
	}
}
