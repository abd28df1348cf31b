package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ImageStoreMock struct{ mock.Mock }

func (m *ImageStoreMock) Upload(ctx context.Context, objectName string, contentType string, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, objectName, contentType, r, size)
	return args.String(0), args.Error(1)
}

func newProductUsecase(r *TxReposMock, images usecase.ImageStore) *usecase.ProductUsecase {
	return usecase.NewProductUsecase(r.products, &TxManagerMock{Repos: r}, images, zap.NewNop())
}

func TestListPublicProducts_Validation(t *testing.T) {
	u := newProductUsecase(newTxRepos(), nil)
	ctx := context.Background()

	lo, hi := dec("50"), dec("10")
	cases := []usecase.ListProductsInput{
		{Page: 0, Limit: 10},
		{Page: 1, Limit: 0},
		{Page: 1, Limit: 101},
		{Page: 1, Limit: 10, Q: strings.Repeat("a", 101)},
		{Page: 1, Limit: 10, MinPrice: &lo, MaxPrice: &hi},
		{Page: 1, Limit: 10, Sort: "random"},
	}
	for _, in := range cases {
		_, err := u.ListPublicProducts(ctx, in)
		requireHTTPError(t, err, http.StatusBadRequest)
	}
}

func TestListPublicProducts_OnlyActive(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("List", mock.Anything, repo.ProductListQuery{Page: 1, Limit: 20, Q: "mug", Sort: "price_asc"}).
		Return([]model.Product{{ID: "p1"}}, int64(1), nil).Once()

	out, err := u.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Q: " mug ", Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	r.products.AssertExpectations(t)
}

func TestAdminListProducts_IncludesInactive(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("List", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool { return q.IncludeInactive })).
		Return([]model.Product{}, int64(0), nil).Once()

	_, err := u.AdminListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	r.products.AssertExpectations(t)
}

func TestGetProductDetail_InactiveIs404(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", IsActive: false}, nil)

	_, err := u.GetProductDetail(context.Background(), "p1")
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestAdminDeleteProduct_DeactivatesAndAudits(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("Deactivate", mock.Anything, "p1").Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteProduct && l.ResourceID == "p1" && l.ActorUserID == adminID
	})).Return(nil).Once()

	require.NoError(t, u.AdminDeleteProduct(context.Background(), adminID, "p1"))
	r.products.AssertExpectations(t)
	r.audit.AssertExpectations(t)
}

func TestAdminUpdateInventory_RecordsAdjustment(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Stock: 10}, nil)
	r.inventory.On("SetStock", mock.Anything, "p1", int64(4)).Return(nil).Once()
	r.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.Delta == -6 && a.Reason == "damaged" && a.AdminUserID == adminID
	})).Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock && l.BeforeJSON == `{"stock":10}` && l.AfterJSON == `{"stock":4}`
	})).Return(nil).Once()

	require.NoError(t, u.AdminUpdateInventory(context.Background(), adminID, "p1", 4, " damaged "))
	r.inventory.AssertExpectations(t)
	r.audit.AssertExpectations(t)
}

func TestAdminUpdateInventory_Validation(t *testing.T) {
	u := newProductUsecase(newTxRepos(), nil)

	requireHTTPError(t, u.AdminUpdateInventory(context.Background(), adminID, "p1", -1, "x"), http.StatusBadRequest)
	requireHTTPError(t, u.AdminUpdateInventory(context.Background(), adminID, "p1", 1, " "), http.StatusBadRequest)
}

func TestAdminCreateProduct_Defaults(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Name == "Mug" && p.IsActive && p.Images != nil && p.Price.Equal(dec("9.99"))
	})).Return(model.Product{ID: "p1", Name: "Mug"}, nil).Once()

	p, err := u.AdminCreateProduct(context.Background(), adminID, usecase.AdminProductInput{Name: " Mug ", Price: dec("9.99")})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	neg := decimal.NewFromInt(-1)
	_, err = u.AdminCreateProduct(context.Background(), adminID, usecase.AdminProductInput{Name: "Mug", Price: neg})
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestUploadImage(t *testing.T) {
	u := newProductUsecase(newTxRepos(), nil)
	_, err := u.UploadImage(context.Background(), usecase.UploadImageInput{Filename: "a.png", ContentType: "image/png", Size: 10, Body: bytes.NewReader(nil)})
	requireHTTPError(t, err, http.StatusServiceUnavailable)

	store := &ImageStoreMock{}
	u = newProductUsecase(newTxRepos(), store)

	_, err = u.UploadImage(context.Background(), usecase.UploadImageInput{Filename: "a.txt", ContentType: "text/plain", Size: 10})
	requireHTTPError(t, err, http.StatusBadRequest)

	_, err = u.UploadImage(context.Background(), usecase.UploadImageInput{Filename: "a.png", ContentType: "image/png", Size: usecase.MaxImageSize + 1})
	requireHTTPError(t, err, http.StatusRequestEntityTooLarge)

	store.On("Upload", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "products/") && strings.HasSuffix(name, ".png")
	}), "image/png", mock.Anything, int64(10)).Return("http://cdn/products/x.png", nil).Once()

	url, err := u.UploadImage(context.Background(), usecase.UploadImageInput{Filename: "A.PNG", ContentType: "image/png", Size: 10, Body: bytes.NewReader(make([]byte, 10))})
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/products/x.png", url)
	store.AssertExpectations(t)
}

func TestAdminUpdateInventory_SetStockFailureSkipsAudit(t *testing.T) {
	r := newTxRepos()
	u := newProductUsecase(r, nil)

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Stock: 10}, nil)
	r.inventory.On("SetStock", mock.Anything, "p1", int64(4)).Return(errors.New("db down")).Once()

	err := u.AdminUpdateInventory(context.Background(), adminID, "p1", 4, "recount")
	requireHTTPError(t, err, http.StatusInternalServerError)
	r.inventory.AssertNotCalled(t, "CreateAdjustment", mock.Anything, mock.Anything)
	r.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
