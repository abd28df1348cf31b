package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 商品画像の上限
const MaxImageSize = 5 << 20

// 画像の保存先（MinIOなど）
type ImageStore interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader, size int64) (string, error)
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	images      ImageStore
	log         *zap.Logger
}

// DI（imagesはnilなら画像アップロード無効）
func NewProductUsecase(
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	images ImageStore,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		images:      images,
		log:         log,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func validateListInput(in ListProductsInput) error {
	if in.Page < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "rating":
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	return nil
}

func (u *ProductUsecase) list(ctx context.Context, in ListProductsInput, includeInactive bool) (ProductListOutput, error) {
	if err := validateListInput(in); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Q:               strings.TrimSpace(in.Q),
		Category:        strings.TrimSpace(in.Category),
		MinPrice:        in.MinPrice,
		MaxPrice:        in.MaxPrice,
		Sort:            in.Sort,
		IncludeInactive: includeInactive,
	})
	if err != nil {
		return ProductListOutput{}, internalError(err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, false)
}

func (u *ProductUsecase) ListByCategory(ctx context.Context, category string, page, limit int) (ProductListOutput, error) {
	if strings.TrimSpace(category) == "" {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "category is required")
	}
	return u.list(ctx, ListProductsInput{Page: page, Limit: limit, Category: category}, false)
}

// 管理画面は非公開も含む
func (u *ProductUsecase) AdminListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, true)
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (model.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}
	//非公開は存在しない扱い
	if !p.IsActive {
		return model.Product{}, newCodedError(http.StatusNotFound, "NOT_FOUND", "product not found")
	}
	return p, nil
}

type AdminProductInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Discount    *decimal.Decimal `json:"discount"`
	Stock       *int64           `json:"stock"`
	Category    string           `json:"category" validate:"max=100"`
	Images      []string         `json:"images" validate:"max=10,dive,max=500"`
	IsActive    *bool            `json:"isActive"`
}

func validateProductInput(in AdminProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Discount != nil && (in.Discount.IsNegative() || in.Discount.GreaterThan(in.Price)) {
		return NewHTTPError(http.StatusBadRequest, "discount must be between 0 and price")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID string, in AdminProductInput) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, ErrUnauthorized
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p := model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Images:      in.Images,
		IsActive:    true,
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}

	u.log.Info("product created", zap.String("product_id", created.ID), zap.String("actor", adminUserID))
	return created, nil
}

// 在庫が変わる場合は在庫調整として記録する
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID string, productID string, in AdminProductInput) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, ErrUnauthorized
	}
	if strings.TrimSpace(productID) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	var out model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return repoError(err, "product not found")
		}

		p.Name = strings.TrimSpace(in.Name)
		p.Description = in.Description
		p.Price = in.Price
		p.Category = strings.TrimSpace(in.Category)
		if in.Discount != nil {
			p.Discount = *in.Discount
		}
		if in.Images != nil {
			p.Images = in.Images
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}

		if err := r.Products().Update(ctx, p); err != nil {
			return repoError(err, "product not found")
		}

		if in.Stock != nil && *in.Stock != p.Stock {
			if err := setStock(ctx, r, adminUserID, p, *in.Stock, "product update"); err != nil {
				return err
			}
			p.Stock = *in.Stock
		}

		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// 論理削除（注文明細から参照されるため）
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID string, productID string) error {
	if adminUserID == "" {
		return ErrUnauthorized
	}
	if strings.TrimSpace(productID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().Deactivate(ctx, productID); err != nil {
			return repoError(err, "product not found")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   `{"isActive":true}`,
			AfterJSON:    `{"isActive":false}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return internalError(err)
		}
		return nil
	})
}

func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID string, productID string, newStock int64, reason string) error {
	if adminUserID == "" {
		return ErrUnauthorized
	}
	if strings.TrimSpace(productID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return repoError(err, "product not found")
		}
		return setStock(ctx, r, adminUserID, p, newStock, strings.TrimSpace(reason))
	})
}

// 在庫の更新・調整履歴・監査ログをまとめて書く
func setStock(ctx context.Context, r repo.TxRepos, adminUserID string, p model.Product, newStock int64, reason string) error {
	if err := r.Inventory().SetStock(ctx, p.ID, newStock); err != nil {
		return repoError(err, "product not found")
	}

	//履歴を作成（差分）
	if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   p.ID,
		AdminUserID: adminUserID,
		Delta:       newStock - p.Stock,
		Reason:      reason,
		CreatedAt:   time.Now(),
	}); err != nil {
		return internalError(err)
	}

	//「誰が」「何を」「どの対象に」「どう変えたか」
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   p.ID,
		BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
		AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
		CreatedAt:    time.Now(),
	}); err != nil {
		return internalError(err)
	}
	return nil
}

type UploadImageInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadImage は商品画像を保存して公開URLを返す
func (u *ProductUsecase) UploadImage(ctx context.Context, in UploadImageInput) (string, error) {
	if u.images == nil {
		return "", NewHTTPError(http.StatusServiceUnavailable, "image storage is not configured")
	}
	if in.Size <= 0 {
		return "", NewHTTPError(http.StatusBadRequest, "empty file")
	}
	if in.Size > MaxImageSize {
		return "", NewHTTPError(http.StatusRequestEntityTooLarge, "file too large (max 5MB)")
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return "", NewHTTPError(http.StatusBadRequest, "only image files are allowed")
	}

	ext := strings.ToLower(path.Ext(in.Filename))
	objectName := "products/" + uuid.NewString() + ext

	url, err := u.images.Upload(ctx, objectName, in.ContentType, in.Body, in.Size)
	if err != nil {
		return "", internalError(err)
	}

	u.log.Info("product image uploaded", zap.String("object", objectName))
	return url, nil
}
