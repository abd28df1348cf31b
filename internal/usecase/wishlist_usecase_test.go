package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWishlistAdd(t *testing.T) {
	wl := &WishlistRepoMock{}
	products := &ProductRepoMock{}
	u := usecase.NewWishlistUsecase(wl, products)
	ctx := context.Background()

	products.On("FindByID", mock.Anything, "missing").Return(nil, repo.ErrNotFound)
	requireHTTPError(t, u.Add(ctx, buyerID, "missing"), http.StatusNotFound)

	products.On("FindByID", mock.Anything, "hidden").Return(model.Product{ID: "hidden", IsActive: false}, nil)
	requireHTTPError(t, u.Add(ctx, buyerID, "hidden"), http.StatusNotFound)

	products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", IsActive: true}, nil)
	wl.On("Add", mock.Anything, model.WishlistItem{UserID: buyerID, ProductID: "p1"}).Return(nil).Once()
	require.NoError(t, u.Add(ctx, buyerID, " p1 "))

	wl.On("Add", mock.Anything, model.WishlistItem{UserID: buyerID, ProductID: "p1"}).Return(repo.ErrConflict).Once()
	requireHTTPError(t, u.Add(ctx, buyerID, "p1"), http.StatusConflict)

	requireHTTPError(t, u.Add(ctx, "", "p1"), http.StatusUnauthorized)
}

func TestWishlistRemoveAndCheck(t *testing.T) {
	wl := &WishlistRepoMock{}
	u := usecase.NewWishlistUsecase(wl, &ProductRepoMock{})
	ctx := context.Background()

	wl.On("Remove", mock.Anything, buyerID, "p1").Return(repo.ErrNotFound).Once()
	he := requireHTTPError(t, u.Remove(ctx, buyerID, "p1"), http.StatusNotFound)
	assert.Equal(t, "product not in wishlist", he.Message)

	wl.On("Exists", mock.Anything, buyerID, "p1").Return(true, nil).Once()
	ok, err := u.Check(ctx, buyerID, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWishlistList_NeverNil(t *testing.T) {
	wl := &WishlistRepoMock{}
	u := usecase.NewWishlistUsecase(wl, &ProductRepoMock{})

	wl.On("ListProductsByUserID", mock.Anything, buyerID).Return(nil, nil)

	list, err := u.List(context.Background(), buyerID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
