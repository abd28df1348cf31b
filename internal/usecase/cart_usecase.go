package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// price は追加時点の価格
type CartItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Stock     int64           `json:"stock"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID string
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// ゲストカートの1行
type MergeCartItem struct {
	ProductID string
	Quantity  int64
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, ErrUnauthorized
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, internalError(err)
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid productId")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, internalError(err)
	}

	p, err := u.activeProduct(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, err
	}

	existingQty, err := u.quantityInCart(ctx, cart.ID, in.ProductID)
	if err != nil {
		return CartResponse{}, err
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	// 同一商品は加算、価格は追加時点のもの
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity, p.Price); err != nil {
		return CartResponse{}, internalError(err)
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（所有チェック＋在庫チェック）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID string, cartItemID string, in UpdateCartItemInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, ErrUnauthorized
	}
	if strings.TrimSpace(cartItemID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	if err := u.checkItemOwner(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err != nil {
		return CartResponse{}, repoError(err, "cart item not found")
	}

	p, err := u.activeProduct(ctx, item.ProductID)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		return CartResponse{}, repoError(err, "cart item not found")
	}
	return u.buildCartResponse(ctx, item.CartID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID string, cartItemID string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, ErrUnauthorized
	}
	if strings.TrimSpace(cartItemID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.checkItemOwner(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		return CartResponse{}, repoError(err, "cart item not found")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, repoError(err, "cart not found")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// ClearCart は明細を全部消す（カート自体は残す）
func (u *CartUsecase) ClearCart(ctx context.Context, userID string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, ErrUnauthorized
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{Items: []CartItemResponse{}, Total: decimal.Zero}, nil
	}
	if err != nil {
		return CartResponse{}, internalError(err)
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, internalError(err)
	}
	return CartResponse{Items: []CartItemResponse{}, Total: decimal.Zero}, nil
}

// MergeCart はログイン前のカートを取り込む。
// 数量は合算して在庫で頭打ち、非公開・存在しない・不正なIDの商品は飛ばす
func (u *CartUsecase) MergeCart(ctx context.Context, userID string, items []MergeCartItem) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, ErrUnauthorized
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, internalError(err)
	}

	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if it.Quantity < 1 {
			continue
		}
		//旧ストアのIDなどuuidでないものは存在しない商品として飛ばす
		if _, err := uuid.Parse(pid); err != nil {
			continue
		}

		p, err := u.productRepo.FindByID(ctx, pid)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, internalError(err)
		}
		if !p.IsActive {
			continue
		}

		existingQty, err := u.quantityInCart(ctx, cart.ID, pid)
		if err != nil {
			return CartResponse{}, err
		}
		add := it.Quantity
		if existingQty+add > p.Stock {
			add = p.Stock - existingQty
		}
		if add <= 0 {
			continue
		}

		if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, pid, add, p.Price); err != nil {
			return CartResponse{}, internalError(err)
		}
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 公開中の商品だけ
func (u *CartUsecase) activeProduct(ctx context.Context, productID string) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}
	if !p.IsActive {
		return model.Product{}, newCodedError(http.StatusNotFound, "NOT_FOUND", "product not found")
	}
	return p, nil
}

func (u *CartUsecase) quantityInCart(ctx context.Context, cartID, productID string) (int64, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return 0, internalError(err)
	}
	for _, it := range items {
		if it.ProductID == productID {
			return it.Quantity, nil
		}
	}
	return 0, nil
}

//所有チェック（他人の明細は存在しない扱い）
func (u *CartUsecase) checkItemOwner(ctx context.Context, userID, cartItemID string) error {
	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return internalError(err)
	}
	if !owned {
		return newCodedError(http.StatusNotFound, "NOT_FOUND", "cart item not found")
	}
	return nil
}

// cartIDの明細をまとめてCartResponseを作る
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID string) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, internalError(err)
	}

	respItems := make([]CartItemResponse, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		var image string
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Image:     image,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Stock:     p.Stock,
		})
		total = total.Add(it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
