package products

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
	"github.com/angelmondragon/shopeasy-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:products_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repository := NewRepository(setupProductsTestDB(t))
	svc, err := NewService(repository)
	require.NoError(t, err)
	return svc, repository
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func str(v string) *string { return &v }

func TestCreateRequiresImageOrURL(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: "Camiseta", Price: price("49.90"), Stock: 3})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"image": models.MissingImageMessage}, typed.Details())

	_, err = svc.Create(ctx, CreateProductInput{Name: "Camiseta", Price: price("49.90"), Image: str("   ")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, err := svc.Create(ctx, CreateProductInput{Name: "  CAMISETA Básica ", Price: price("49.90"), Stock: 3, ImageURL: str("https://cdn.example.com/c.png")})
	require.NoError(t, err)
	assert.Equal(t, "camiseta básica", created.Name)
	assert.Equal(t, "Camiseta Básica", created.DisplayName())
	assert.True(t, created.Price.Equal(decimal.RequireFromString("49.90")))
}

func TestCreateValidatesPriceAndCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := CreateProductInput{Name: "Caneca", Image: str("produtos/caneca.jpg")}

	cases := map[string]*decimal.Decimal{
		"missing":  nil,
		"negative": price("-1"),
		"scale":    price("1.999"),
		"too big":  price("100000000"),
	}
	for name, p := range cases {
		input := base
		input.Price = p
		_, err := svc.Create(ctx, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%s: expected validation error, got %v", name, err)
	}

	missingCategory := int64(404)
	input := base
	input.Price = price("10")
	input.CategoryID = &missingCategory
	_, err := svc.Create(ctx, input)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"category_id": "category does not exist"}, pkgerrors.As(err).Details())
}

func TestStockMustFitIntegerColumn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: "Caneca", Price: price("10"), Stock: models.MaxQuantity + 1, Image: str("produtos/caneca.jpg")})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"stock": "must be at most 2147483647"}, pkgerrors.As(err).Details())

	created, err := svc.Create(ctx, CreateProductInput{Name: "Caneca", Price: price("10"), Stock: models.MaxQuantity, Image: str("produtos/caneca.jpg")})
	require.NoError(t, err)

	tooMany := models.MaxQuantity + 1
	_, err = svc.Update(ctx, created.ID, UpdateProductInput{Stock: &tooMany})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateMayClearImagesAndNormalizesName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Tênis", Price: price("199.00"), Stock: 2, Image: str("produtos/tenis.jpg")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		Name:     str(" TÊNIS Corrida "),
		Image:    types.Null[string](),
		ImageURL: types.Null[string](),
		Stock:    func() *int { v := 9; return &v }(),
	})
	require.NoError(t, err)
	assert.Equal(t, "tênis corrida", updated.Name)
	assert.Nil(t, updated.Image)
	assert.Nil(t, updated.ImageURL)
	assert.Equal(t, 9, updated.Stock)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("199.00")), "price should be untouched")

	_, err = svc.Update(ctx, 9999, UpdateProductInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListFiltersAndHidesDeleted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	category := createCategory(t, svc, "Calçados")
	mk := func(name string, promo, featured bool, categoryID *int64) *models.Product {
		p, err := svc.Create(ctx, CreateProductInput{
			Name: name, Price: price("10.00"), Stock: 1, ImageURL: str("https://img/x.png"),
			OnPromotion: promo, Featured: featured, CategoryID: categoryID,
		})
		require.NoError(t, err)
		return p
	}
	sandal := mk("Sandália", true, false, &category)
	mk("Boné", false, true, nil)
	gone := mk("Sandália Velha", true, false, &category)
	require.NoError(t, svc.Delete(ctx, gone.ID))

	all, page, err := svc.List(ctx, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.False(t, page.HasMore)

	promo := true
	rows, _, err := svc.List(ctx, ListFilters{OnPromotion: &promo}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sandal.ID, rows[0].ID)

	rows, _, err = svc.List(ctx, ListFilters{CategoryID: &category}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sandal.ID, rows[0].ID)

	rows, _, err = svc.List(ctx, ListFilters{Query: "BONÉ"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "boné", rows[0].Name)

	rows, page, err = svc.List(ctx, ListFilters{}, pagination.Params{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.True(t, page.HasMore)

	deleted, err := svc.Get(ctx, gone.ID)
	require.NoError(t, err, "detail lookups do not filter soft-deleted rows")
	assert.True(t, deleted.Deleted)
}

func TestAddImage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductInput{Name: "Bolsa", Price: price("80"), Image: str("produtos/bolsa.jpg")})
	require.NoError(t, err)

	_, err = svc.AddImage(ctx, CreateImageInput{ProductID: 12345, Image: "galeria/x.jpg"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	first, err := svc.AddImage(ctx, CreateImageInput{ProductID: product.ID, Image: "galeria/bolsa-1.jpg", Caption: str("Frente")})
	require.NoError(t, err)
	_, err = svc.AddImage(ctx, CreateImageInput{ProductID: product.ID, Image: "galeria/bolsa-2.jpg"})
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, first.ID, loaded.Images[0].ID)
	assert.Equal(t, "Frente", *loaded.Images[0].Caption)
	assert.Nil(t, loaded.Images[1].Caption)
}

func TestDecrementStockGuard(t *testing.T) {
	svc, repository := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductInput{Name: "Relógio", Price: price("300"), Stock: 2, ImageURL: str("https://img/r.png")})
	require.NoError(t, err)

	ok, err := repository.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repository.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repository.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func createCategory(t *testing.T, svc Service, name string) int64 {
	t.Helper()
	repository := svc.(*service).repo.(*Repository)
	category := &models.Category{Name: name}
	require.NoError(t, repository.DB(context.Background()).Create(category).Error)
	return category.ID
}
