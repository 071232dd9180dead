package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type productFixture struct {
	products  *ProductRepoMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
	uc        *usecase.ProductUsecase
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:  new(ProductRepoMock),
		inventory: new(InventoryRepoMock),
		audit:     new(AuditRepoMock),
	}
	f.uc = usecase.NewProductUsecase(f.products, f.inventory, f.audit)
	return f
}

func TestListPublicProducts_InvalidInputs(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	min := int64(500)
	max := int64(100)

	cases := []struct {
		name string
		in   usecase.ListProductsInput
	}{
		{"page zero", usecase.ListProductsInput{Page: 0, Limit: 10}},
		{"limit too big", usecase.ListProductsInput{Page: 1, Limit: 101}},
		{"min over max", usecase.ListProductsInput{Page: 1, Limit: 10, MinPrice: &min, MaxPrice: &max}},
		{"bad sort", usecase.ListProductsInput{Page: 1, Limit: 10, Sort: "rating"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.ListPublicProducts(ctx, tc.in)
			assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
		})
	}
	f.products.AssertNotCalled(t, "ListPublic", mock.Anything, mock.Anything)
}

func TestListPublicProducts_TrimsQuery(t *testing.T) {
	f := newProductFixture()

	f.products.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.Q == "chicken" && q.Page == 2 && q.Limit == 20 && q.Sort == "price_asc"
	})).Return([]model.Product{{ID: 1, Name: "Chicken Feast"}}, int64(1), nil)

	out, err := f.uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{
		Page: 2, Limit: 20, Q: "  chicken  ", Sort: "price_asc",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, 2, out.Page)
	f.products.AssertExpectations(t)
}

func TestGetProductDetail_InactiveHidden(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(3)).Return(model.Product{
		ID: 3, Name: "Old Kibble", IsActive: false,
	}, nil)

	_, err := f.uc.GetProductDetail(context.Background(), 3)

	assertHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)
}

func TestCreateProduct_CustomerForbidden(t *testing.T) {
	f := newProductFixture()

	_, err := f.uc.CreateProduct(context.Background(), customer(1), usecase.ProductInput{
		Name: "Puppy Chow", Price: 2000, Stock: 10,
	})

	assertHTTPError(t, err, http.StatusForbidden, usecase.CodeForbidden)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_SupplierOwnsCreated(t *testing.T) {
	f := newProductFixture()

	f.products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.SupplierID == 10 && p.Name == "Puppy Chow" && p.Price == 2000 && p.Stock == 10
	})).Return(model.Product{ID: 55, SupplierID: 10}, nil)

	id, err := f.uc.CreateProduct(context.Background(), supplier(10), usecase.ProductInput{
		Name: " Puppy Chow ", Price: 2000, Stock: 10, IsActive: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), id)
	f.products.AssertExpectations(t)
}

func TestUpdateProduct_SupplierCannotTouchOthers(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(3)).Return(model.Product{
		ID: 3, SupplierID: 11, Name: "Beef Bites",
	}, nil)

	err := f.uc.UpdateProduct(context.Background(), supplier(10), 3, usecase.ProductInput{
		Name: "Beef Bites", Price: 100, Stock: 1,
	})

	assertHTTPError(t, err, http.StatusForbidden, usecase.CodeForbidden)
	f.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProduct_AdminCanTouchAny(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(3)).Return(model.Product{
		ID: 3, SupplierID: 11, Name: "Beef Bites",
	}, nil)
	f.products.On("Update", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.ID == 3 && p.Price == 900
	})).Return(nil)

	err := f.uc.UpdateProduct(context.Background(), admin(99), 3, usecase.ProductInput{
		Name: "Beef Bites", Price: 900, Stock: 5,
	})

	assert.NoError(t, err)
	f.products.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(404)).Return(model.Product{}, repo.ErrNotFound)

	err := f.uc.DeleteProduct(context.Background(), supplier(10), 404)

	assertHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)
	f.products.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestUpdateInventory_WritesAdjustmentAndAudit(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(3)).Return(model.Product{
		ID: 3, SupplierID: 10, Name: "Beef Bites", Stock: 4,
	}, nil)
	f.inventory.On("SetStock", mock.Anything, int64(3), int64(20)).Return(nil).Once()
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == 3 && a.ActorUserID == 10 && a.Delta == 16 && a.Reason == "restock"
	})).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock &&
			l.ResourceType == model.AuditResourceProduct &&
			l.ResourceID == 3 &&
			l.BeforeJSON == `{"stock":4}` &&
			l.AfterJSON == `{"stock":20}`
	})).Return(nil).Once()

	err := f.uc.UpdateInventory(context.Background(), supplier(10), 3, 20, " restock ")

	assert.NoError(t, err)
	f.inventory.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestUpdateInventory_NegativeStock(t *testing.T) {
	f := newProductFixture()

	err := f.uc.UpdateInventory(context.Background(), supplier(10), 3, -1, "oops")

	assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	f.inventory.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateInventory_ReasonRequired(t *testing.T) {
	f := newProductFixture()

	err := f.uc.UpdateInventory(context.Background(), supplier(10), 3, 20, "   ")

	assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
}
