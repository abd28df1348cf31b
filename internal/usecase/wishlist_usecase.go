package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type WishlistUsecase struct {
	wishlists repo.WishlistRepository
	products  repo.ProductRepository
}

func NewWishlistUsecase(wishlists repo.WishlistRepository, products repo.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlists: wishlists, products: products}
}

// 新しく追加した順
func (u *WishlistUsecase) List(ctx context.Context, userID string) ([]model.Product, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	list, err := u.wishlists.ListProductsByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}
	if list == nil {
		list = []model.Product{}
	}
	return list, nil
}

// Add は未知の商品なら404、重複なら409
func (u *WishlistUsecase) Add(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return NewHTTPError(http.StatusBadRequest, "productId is required")
	}

	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		return repoError(err, "product not found")
	}
	if !p.IsActive {
		return newCodedError(http.StatusNotFound, "NOT_FOUND", "product not found")
	}

	//同時に追加されてもunique制約で1件に
	err = u.wishlists.Add(ctx, model.WishlistItem{UserID: userID, ProductID: productID})
	if errors.Is(err, repo.ErrConflict) {
		return newCodedError(http.StatusConflict, "CONFLICT", "product already in wishlist")
	}
	if err != nil {
		return internalError(err)
	}
	return nil
}

func (u *WishlistUsecase) Remove(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := u.wishlists.Remove(ctx, userID, productID); err != nil {
		return repoError(err, "product not in wishlist")
	}
	return nil
}

func (u *WishlistUsecase) Check(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthorized
	}
	ok, err := u.wishlists.Exists(ctx, userID, productID)
	if err != nil {
		return false, internalError(err)
	}
	return ok, nil
}
